package narrative

import (
	"reflect"
	"testing"
	"time"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// seedState builds a state with a small authored graph: point1 offers two
// choices leading to point2 and point3.
func seedState() NarrativeState {
	s := InitialState(testNow)
	s.Context.StoryPoints = map[string]StoryPoint{
		"point1": {
			ID:      "point1",
			Type:    PointExposition,
			Title:   "Dust Hollow",
			Content: "The stage rolls into Dust Hollow at sundown.",
			Choices: []Choice{
				{ID: "choice1", Text: "Head to the saloon", LeadsTo: "point2"},
				{ID: "choice2", Text: "Visit the sheriff", LeadsTo: "point3"},
			},
		},
		"point2": {
			ID:      "point2",
			Type:    PointAction,
			Title:   "The Rusty Spur",
			Content: "The saloon doors swing open.",
		},
		"point3": {
			ID:      "point3",
			Type:    PointExposition,
			Title:   "Sheriff's Office",
			Content: "A wanted poster flaps against the wall.",
		},
	}
	return s
}

func TestReduce_Navigate(t *testing.T) {
	s := seedState()

	s = Reduce(s, NavigateToPoint("point1"), testNow)
	if s.Error != nil {
		t.Fatalf("unexpected error: %+v", s.Error)
	}
	if s.CurrentStoryPoint == nil || s.CurrentStoryPoint.ID != "point1" {
		t.Fatalf("expected current point point1, got %+v", s.CurrentStoryPoint)
	}
	if len(s.AvailableChoices) != 2 {
		t.Errorf("expected 2 available choices, got %d", len(s.AvailableChoices))
	}
	if !s.HasVisited("point1") {
		t.Error("expected point1 in visited points")
	}
}

func TestReduce_NavigateUnknownPoint(t *testing.T) {
	s := seedState()

	next := Reduce(s, NavigateToPoint("ghost-point"), testNow)
	if next.Error == nil || next.Error.Code != ErrInvalidNavigation {
		t.Fatalf("expected invalid_navigation error, got %+v", next.Error)
	}
	if next.Error.Context["storyPointId"] != "ghost-point" {
		t.Errorf("expected error context to carry the point id, got %v", next.Error.Context)
	}
	if next.CurrentStoryPoint != nil {
		t.Errorf("expected current point unset, got %+v", next.CurrentStoryPoint)
	}
	if len(next.AvailableChoices) != 0 {
		t.Errorf("expected available choices unchanged, got %v", next.AvailableChoices)
	}
}

func TestReduce_NavigateRevisitIsIdempotent(t *testing.T) {
	s := seedState()

	s = Reduce(s, NavigateToPoint("point1"), testNow)
	s = Reduce(s, NavigateToPoint("point1"), testNow)

	count := 0
	for _, id := range s.VisitedPoints {
		if id == "point1" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected point1 visited exactly once, got %d entries", count)
	}
}

func TestReduce_SelectChoice(t *testing.T) {
	tests := []struct {
		name         string
		choiceID     string
		wantSelected string
		wantErrCode  ErrorCode
	}{
		{
			name:         "valid choice",
			choiceID:     "choice1",
			wantSelected: "choice1",
		},
		{
			name:        "choice not available",
			choiceID:    "choice99",
			wantErrCode: ErrInvalidChoice,
		},
		{
			name:        "empty choice id",
			choiceID:    "",
			wantErrCode: ErrInvalidChoice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seedState()
			s = Reduce(s, NavigateToPoint("point1"), testNow)

			next := Reduce(s, SelectChoice(tt.choiceID), testNow)
			if tt.wantErrCode != "" {
				if next.Error == nil || next.Error.Code != tt.wantErrCode {
					t.Fatalf("expected error %s, got %+v", tt.wantErrCode, next.Error)
				}
				if next.SelectedChoice != s.SelectedChoice {
					t.Errorf("expected selected choice unchanged, got %q", next.SelectedChoice)
				}
				return
			}
			if next.Error != nil {
				t.Fatalf("unexpected error: %+v", next.Error)
			}
			if next.SelectedChoice != tt.wantSelected {
				t.Errorf("expected selected choice %q, got %q", tt.wantSelected, next.SelectedChoice)
			}
		})
	}
}

// Walk the §8-style scenario end to end: navigate, choose, navigate again.
func TestReduce_NavigationScenario(t *testing.T) {
	s := seedState()

	s = Reduce(s, NavigateToPoint("point1"), testNow)
	if s.CurrentStoryPoint.ID != "point1" || len(s.AvailableChoices) != 2 {
		t.Fatalf("unexpected state after first navigation: %+v", s.CurrentStoryPoint)
	}

	s = Reduce(s, SelectChoice("choice1"), testNow)
	if s.SelectedChoice != "choice1" {
		t.Fatalf("expected choice1 selected, got %q", s.SelectedChoice)
	}

	s = Reduce(s, NavigateToPoint("point2"), testNow)
	if !s.HasVisited("point1") || !s.HasVisited("point2") {
		t.Errorf("expected both points visited, got %v", s.VisitedPoints)
	}
}

func TestReduce_AddNarrativeHistory(t *testing.T) {
	s := seedState()

	s = Reduce(s, AddNarrativeHistory("The wind picks up."), testNow)
	s = Reduce(s, AddNarrativeHistory("A rider appears on the ridge."), testNow)

	if len(s.NarrativeHistory) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(s.NarrativeHistory))
	}
	if s.NarrativeHistory[1] != "A rider appears on the ridge." {
		t.Errorf("unexpected last entry: %q", s.NarrativeHistory[1])
	}
}

func TestReduce_HistoryAndDisplayModeLeaveErrorUntouched(t *testing.T) {
	s := seedState()
	s = Reduce(s, NavigateToPoint("nope"), testNow)
	if s.Error == nil {
		t.Fatal("expected an error to be set")
	}

	s = Reduce(s, AddNarrativeHistory("orthogonal narration"), testNow)
	if s.Error == nil {
		t.Error("ADD_NARRATIVE_HISTORY should not clear the error")
	}

	s = Reduce(s, SetDisplayMode(ModeFlashback), testNow)
	if s.Error == nil {
		t.Error("SET_DISPLAY_MODE should not clear the error")
	}
	if s.DisplayMode != ModeFlashback {
		t.Errorf("expected flashback mode, got %q", s.DisplayMode)
	}
}

func TestReduce_ErrorClearsOnSuccess(t *testing.T) {
	s := seedState()
	s.Context.Arcs = map[string]NarrativeArc{
		"arc1": {ID: "arc1", Title: "The Railroad War"},
	}

	steps := []struct {
		name   string
		action Action
	}{
		{"navigation", NavigateToPoint("point1")},
		{"arc start", StartNarrativeArc("arc1")},
		{"present decision", PresentDecision(PlayerDecision{
			ID:      "dec1",
			Prompt:  "Draw or walk away?",
			Options: []DecisionOption{{ID: "opt1", Text: "Draw"}},
		})},
	}

	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			failed := Reduce(s, NavigateToPoint("ghost"), testNow)
			if failed.Error == nil {
				t.Fatal("expected error from failed navigation")
			}
			next := Reduce(failed, step.action, testNow)
			if next.Error != nil {
				t.Errorf("expected error cleared after %s, got %+v", step.name, next.Error)
			}
		})
	}
}

func TestReduce_ResetNarrative(t *testing.T) {
	s := seedState()
	s = Reduce(s, NavigateToPoint("point1"), testNow)
	s = Reduce(s, SelectChoice("choice2"), testNow)
	s = Reduce(s, AddNarrativeHistory("Some narration."), testNow)
	s = Reduce(s, PresentDecision(PlayerDecision{ID: "dec1", Options: []DecisionOption{{ID: "o1"}}}), testNow)

	s = Reduce(s, ResetNarrative(), testNow)

	if !reflect.DeepEqual(s, InitialState(testNow)) {
		t.Errorf("expected reset state to equal the initial state, got %+v", s)
	}
}

func TestReduce_UnknownActionIsNoOp(t *testing.T) {
	s := seedState()
	s = Reduce(s, NavigateToPoint("point1"), testNow)

	next := Reduce(s, Action{Type: ActionType("SOMETHING_ELSE")}, testNow)
	if !reflect.DeepEqual(s, next) {
		t.Error("unknown action should return the state unchanged")
	}
}

func TestReduce_RaiseAndClearError(t *testing.T) {
	s := seedState()

	s = Reduce(s, RaiseError(ErrSystemError, "dispatch before init", map[string]any{"caller": "debug"}), testNow)
	if s.Error == nil || s.Error.Code != ErrSystemError {
		t.Fatalf("expected system_error set, got %+v", s.Error)
	}
	if !s.Error.Timestamp.Equal(testNow) {
		t.Errorf("expected error stamped with the reducer clock, got %v", s.Error.Timestamp)
	}

	s = Reduce(s, ClearError(), testNow)
	if s.Error != nil {
		t.Errorf("expected error cleared, got %+v", s.Error)
	}
}

// The reducer must not leak mutations into the prior state value.
func TestReduce_PriorStateUnchanged(t *testing.T) {
	s := seedState()
	s = Reduce(s, NavigateToPoint("point1"), testNow)

	visitedBefore := len(s.VisitedPoints)
	historyBefore := len(s.NarrativeHistory)

	_ = Reduce(s, NavigateToPoint("point2"), testNow)
	_ = Reduce(s, AddNarrativeHistory("branch off"), testNow)

	if len(s.VisitedPoints) != visitedBefore {
		t.Errorf("prior visited points mutated: %v", s.VisitedPoints)
	}
	if len(s.NarrativeHistory) != historyBefore {
		t.Errorf("prior history mutated: %v", s.NarrativeHistory)
	}
}
