package story

import (
	"testing"
	"time"

	"github.com/kmarlowe/frontier-engine/pkg/narrative"
)

func validStory() *Story {
	return &Story{
		ID:           "test_story",
		Title:        "Test Story",
		OpeningPoint: "start",
		Tone:         "grim",
		Themes:       []string{"revenge"},
		Points: map[string]narrative.StoryPoint{
			"start": {
				ID:      "start",
				Type:    narrative.PointExposition,
				Title:   "Start",
				Content: "It begins.",
				Choices: []narrative.Choice{
					{ID: "c1", Text: "Go on", LeadsTo: "end"},
				},
			},
			"end": {
				ID:      "end",
				Type:    narrative.PointResolution,
				Title:   "End",
				Content: "It ends.",
			},
		},
		Arcs: map[string]narrative.NarrativeArc{
			"arc1": {ID: "arc1", Title: "Arc", Branches: []string{"b1"}, StartingBranch: "b1"},
		},
		Branches: map[string]narrative.NarrativeBranch{
			"b1": {ID: "b1", Title: "Branch", StartPoint: "start", EndPoints: []string{"end"}},
		},
	}
}

func TestStory_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Story)
		wantErr bool
	}{
		{
			name:   "valid story",
			mutate: func(s *Story) {},
		},
		{
			name:    "missing title",
			mutate:  func(s *Story) { s.Title = "" },
			wantErr: true,
		},
		{
			name:    "opening point does not exist",
			mutate:  func(s *Story) { s.OpeningPoint = "ghost" },
			wantErr: true,
		},
		{
			name: "choice leads to unknown point",
			mutate: func(s *Story) {
				p := s.Points["start"]
				p.Choices = []narrative.Choice{{ID: "c1", Text: "Go", LeadsTo: "nowhere"}}
				s.Points["start"] = p
			},
			wantErr: true,
		},
		{
			name: "arc references unknown branch",
			mutate: func(s *Story) {
				arc := s.Arcs["arc1"]
				arc.Branches = []string{"missing"}
				s.Arcs["arc1"] = arc
			},
			wantErr: true,
		},
		{
			name: "branch start point does not exist",
			mutate: func(s *Story) {
				b := s.Branches["b1"]
				b.StartPoint = "nowhere"
				s.Branches["b1"] = b
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validStory()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got none")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestStory_SeedState(t *testing.T) {
	s := validStory()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	state := s.SeedState(now)

	if state.Error != nil {
		t.Fatalf("unexpected error in seeded state: %+v", state.Error)
	}
	if state.CurrentStoryPoint == nil || state.CurrentStoryPoint.ID != "start" {
		t.Fatalf("expected session at the opening point, got %+v", state.CurrentStoryPoint)
	}
	if len(state.AvailableChoices) != 1 {
		t.Errorf("expected opening choices available, got %v", state.AvailableChoices)
	}
	if state.Context.Tone != "grim" {
		t.Errorf("expected tone seeded, got %q", state.Context.Tone)
	}
	if _, ok := state.Context.Arcs["arc1"]; !ok {
		t.Error("expected arcs seeded into context")
	}
	if _, ok := state.Context.Branches["b1"]; !ok {
		t.Error("expected branches seeded into context")
	}
}

func TestLoadDir(t *testing.T) {
	stories, err := LoadDir("../../data/stories")
	if err != nil {
		t.Fatalf("failed to load story directory: %v", err)
	}
	s, ok := stories["dust_hollow"]
	if !ok {
		t.Fatalf("expected dust_hollow story, got %v", stories)
	}
	if s.OpeningPoint != "arrival" {
		t.Errorf("unexpected opening point %q", s.OpeningPoint)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("shipped story must validate: %v", err)
	}
}
