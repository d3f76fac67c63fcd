package session

import (
	"testing"
	"time"

	"github.com/kmarlowe/frontier-engine/pkg/narrative"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func seededSession() *Session {
	state := narrative.InitialState(testNow)
	state.Context.StoryPoints = map[string]narrative.StoryPoint{
		"start": {
			ID:      "start",
			Title:   "Start",
			Content: "It begins.",
			Choices: []narrative.Choice{{ID: "c1", Text: "Go", LeadsTo: "end"}},
		},
		"end": {ID: "end", Title: "End", Content: "It ends."},
	}
	return New("test_story", state, testNow)
}

func TestSession_Dispatch(t *testing.T) {
	s := seededSession()

	state := s.DispatchAt(narrative.NavigateToPoint("start"), testNow)
	if state.CurrentStoryPoint == nil || state.CurrentStoryPoint.ID != "start" {
		t.Fatalf("expected navigation applied, got %+v", state.CurrentStoryPoint)
	}
	if !s.UpdatedAt.Equal(testNow) {
		t.Errorf("expected UpdatedAt bumped, got %v", s.UpdatedAt)
	}

	snap := s.Snapshot()
	if snap.CurrentStoryPoint == nil || snap.CurrentStoryPoint.ID != "start" {
		t.Errorf("snapshot out of sync: %+v", snap.CurrentStoryPoint)
	}
}

func TestSession_SubscribeAndUnsubscribe(t *testing.T) {
	s := seededSession()

	var got []narrative.ActionType
	unsubscribe := s.Subscribe(func(state narrative.NarrativeState, action narrative.Action) {
		got = append(got, action.Type)
	})

	s.DispatchAt(narrative.NavigateToPoint("start"), testNow)
	s.DispatchAt(narrative.AddNarrativeHistory("A line."), testNow)

	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0] != narrative.ActionNavigateToPoint {
		t.Errorf("unexpected first notification: %v", got[0])
	}

	unsubscribe()
	s.DispatchAt(narrative.AddNarrativeHistory("Another line."), testNow)
	if len(got) != 2 {
		t.Error("expected no notifications after unsubscribe")
	}
}

func TestSession_ListenerCanDispatch(t *testing.T) {
	s := seededSession()

	first := true
	s.Subscribe(func(state narrative.NarrativeState, action narrative.Action) {
		if first && action.Type == narrative.ActionNavigateToPoint {
			first = false
			s.DispatchAt(narrative.AddNarrativeHistory("reacted"), testNow)
		}
	})

	s.DispatchAt(narrative.NavigateToPoint("start"), testNow)

	snap := s.Snapshot()
	if len(snap.NarrativeHistory) != 1 || snap.NarrativeHistory[0] != "reacted" {
		t.Errorf("expected listener dispatch applied, got %v", snap.NarrativeHistory)
	}
}

func TestRestore_NormalizesState(t *testing.T) {
	s := &Session{StoryID: "test_story"}

	s = Restore(s, testNow)
	if s.State.VisitedPoints == nil || s.State.Context.StoryPoints == nil {
		t.Error("expected restored state normalized")
	}
	if s.State.Context.ImpactState == nil {
		t.Error("expected impact state initialized on restore")
	}
}
