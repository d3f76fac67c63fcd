package narrative

import (
	"testing"
	"time"
)

func testDecision() PlayerDecision {
	return PlayerDecision{
		ID:        "dec1",
		Prompt:    "The stranger calls you out into the street. What do you do?",
		Timestamp: testNow,
		Options: []DecisionOption{
			{ID: "opt_draw", Text: "Step out and draw", Tags: []string{"violence", "reputation"}},
			{ID: "opt_talk", Text: "Try to talk him down", Tags: []string{"diplomacy"}},
		},
		Importance:  ImportanceSignificant,
		Characters:  []string{"The Stranger"},
		AIGenerated: true,
	}
}

func TestReduce_DecisionLifecycle(t *testing.T) {
	s := InitialState(testNow)

	s = Reduce(s, PresentDecision(testDecision()), testNow)
	if s.CurrentDecision == nil || s.CurrentDecision.ID != "dec1" {
		t.Fatalf("expected dec1 current, got %+v", s.CurrentDecision)
	}

	s = Reduce(s, RecordDecision("dec1", "opt_talk", "You raise your hands and speak slowly."), testNow)
	if s.Error != nil {
		t.Fatalf("unexpected error: %+v", s.Error)
	}
	if s.CurrentDecision != nil {
		t.Error("expected current decision cleared after recording")
	}
	if len(s.Context.DecisionHistory) != 1 {
		t.Fatalf("expected 1 record, got %d", len(s.Context.DecisionHistory))
	}

	rec := s.Context.DecisionHistory[0]
	if rec.SelectedOptionID != "opt_talk" {
		t.Errorf("expected opt_talk recorded, got %q", rec.SelectedOptionID)
	}
	if rec.Narrative != "You raise your hands and speak slowly." {
		t.Errorf("unexpected narrative: %q", rec.Narrative)
	}
	if rec.ProcessedForImpact {
		t.Error("fresh record must not be marked processed")
	}
}

func TestReduce_RecordDecisionFailures(t *testing.T) {
	tests := []struct {
		name        string
		present     bool
		decisionID  string
		optionID    string
		wantErrCode ErrorCode
	}{
		{
			name:        "no current decision",
			present:     false,
			decisionID:  "dec1",
			optionID:    "opt_draw",
			wantErrCode: ErrDecisionNotFound,
		},
		{
			name:        "id mismatch",
			present:     true,
			decisionID:  "other-id",
			optionID:    "opt_draw",
			wantErrCode: ErrDecisionMismatch,
		},
		{
			name:        "unknown option",
			present:     true,
			decisionID:  "dec1",
			optionID:    "opt_run",
			wantErrCode: ErrValidationFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := InitialState(testNow)
			if tt.present {
				s = Reduce(s, PresentDecision(testDecision()), testNow)
			}
			before := s.CurrentDecision

			next := Reduce(s, RecordDecision(tt.decisionID, tt.optionID, "narrative"), testNow)
			if next.Error == nil || next.Error.Code != tt.wantErrCode {
				t.Fatalf("expected %s, got %+v", tt.wantErrCode, next.Error)
			}
			if len(next.Context.DecisionHistory) != 0 {
				t.Error("failed record must not append to history")
			}
			if (next.CurrentDecision == nil) != (before == nil) {
				t.Error("failed record must leave the current decision unchanged")
			}
		})
	}
}

func TestReduce_PresentDecisionReplacesPending(t *testing.T) {
	s := InitialState(testNow)
	s = Reduce(s, PresentDecision(testDecision()), testNow)

	second := testDecision()
	second.ID = "dec2"
	second.Prompt = "The marshal wants names. Give them up?"
	s = Reduce(s, PresentDecision(second), testNow)

	// Last writer wins, by contract.
	if s.CurrentDecision == nil || s.CurrentDecision.ID != "dec2" {
		t.Fatalf("expected dec2 current, got %+v", s.CurrentDecision)
	}

	// The replaced decision can no longer be recorded.
	s = Reduce(s, RecordDecision("dec1", "opt_draw", ""), testNow)
	if s.Error == nil || s.Error.Code != ErrDecisionMismatch {
		t.Errorf("expected decision_mismatch for the replaced decision, got %+v", s.Error)
	}
}

func TestReduce_ClearCurrentDecision(t *testing.T) {
	s := InitialState(testNow)
	s = Reduce(s, PresentDecision(testDecision()), testNow)

	s = Reduce(s, ClearCurrentDecision(), testNow)
	if s.CurrentDecision != nil {
		t.Error("expected current decision cleared")
	}
	if len(s.Context.DecisionHistory) != 0 {
		t.Error("clearing must not record anything")
	}
}

func recordedState(t *testing.T) NarrativeState {
	t.Helper()
	s := InitialState(testNow)
	s = Reduce(s, PresentDecision(testDecision()), testNow)
	s = Reduce(s, RecordDecision("dec1", "opt_draw", "You draw first."), testNow)
	if s.Error != nil {
		t.Fatalf("setup failed: %+v", s.Error)
	}
	return s
}

func TestReduce_ProcessDecisionImpacts(t *testing.T) {
	s := recordedState(t)

	impacts := []DecisionImpact{
		{DecisionID: "dec1", Type: ImpactReputation, Target: "dust_hollow", Severity: ImportanceSignificant, Value: -3},
		{DecisionID: "dec1", Type: ImpactRelationship, Target: "The Stranger", Severity: ImportanceCritical, Value: -5},
		{Type: ImpactWorldState, Target: "street_shootout", Severity: ImportanceModerate, Value: 1}, // no ID: most recent record
	}

	s = Reduce(s, ProcessDecisionImpacts(impacts), testNow)
	if s.Error != nil {
		t.Fatalf("unexpected error: %+v", s.Error)
	}

	rec := s.Context.DecisionHistory[0]
	if !rec.ProcessedForImpact {
		t.Error("expected record marked processed")
	}
	if len(rec.Impacts) != 3 {
		t.Fatalf("expected 3 impacts attached, got %d", len(rec.Impacts))
	}

	is := s.Context.ImpactState
	if is.Reputations["dust_hollow"] != -3 {
		t.Errorf("expected reputation -3, got %v", is.Reputations["dust_hollow"])
	}
	if is.Relationships["The Stranger"] != -5 {
		t.Errorf("expected relationship -5, got %v", is.Relationships["The Stranger"])
	}
	if is.WorldState["street_shootout"] != 1 {
		t.Errorf("expected world state 1, got %v", is.WorldState["street_shootout"])
	}
	if !is.LastUpdated.Equal(testNow) {
		t.Errorf("expected last updated bumped, got %v", is.LastUpdated)
	}
}

func TestReduce_ProcessImpactsUnknownDecision(t *testing.T) {
	s := recordedState(t)

	next := Reduce(s, ProcessDecisionImpacts([]DecisionImpact{
		{DecisionID: "never-recorded", Type: ImpactReputation, Target: "dust_hollow", Value: 2},
	}), testNow)

	if next.Error == nil || next.Error.Code != ErrDecisionNotFound {
		t.Fatalf("expected decision_not_found, got %+v", next.Error)
	}
	if next.Context.DecisionHistory[0].ProcessedForImpact {
		t.Error("failed processing must not touch the records")
	}
}

func TestReduce_ProcessImpactsPreconditions(t *testing.T) {
	t.Run("empty history", func(t *testing.T) {
		s := InitialState(testNow)
		next := Reduce(s, ProcessDecisionImpacts([]DecisionImpact{{Type: ImpactReputation, Target: "x", Value: 1}}), testNow)
		if next.Error == nil || next.Error.Code != ErrDecisionNotFound {
			t.Errorf("expected decision_not_found, got %+v", next.Error)
		}
	})

	t.Run("missing impact state", func(t *testing.T) {
		s := recordedState(t)
		s.Context.ImpactState = nil
		next := Reduce(s, ProcessDecisionImpacts([]DecisionImpact{{Type: ImpactReputation, Target: "x", Value: 1}}), testNow)
		if next.Error == nil || next.Error.Code != ErrStateCorruption {
			t.Errorf("expected state_corruption, got %+v", next.Error)
		}
	})
}

func TestReduce_UpdateImpactState(t *testing.T) {
	s := InitialState(testNow)
	later := testNow.Add(time.Hour)

	s = Reduce(s, UpdateImpactState(ImpactUpdate{
		Reputations: map[string]float64{"dust_hollow": 2},
		WorldState:  map[string]float64{"bank_robbed": 1},
	}), later)

	if s.Error != nil {
		t.Fatalf("unexpected error: %+v", s.Error)
	}
	if s.Context.ImpactState.Reputations["dust_hollow"] != 2 {
		t.Errorf("expected reputation merged, got %v", s.Context.ImpactState.Reputations)
	}
	if !s.Context.ImpactState.LastUpdated.Equal(later) {
		t.Errorf("expected last updated bumped to %v, got %v", later, s.Context.ImpactState.LastUpdated)
	}

	s.Context.ImpactState = nil
	next := Reduce(s, UpdateImpactState(ImpactUpdate{}), later)
	if next.Error == nil || next.Error.Code != ErrStateCorruption {
		t.Errorf("expected state_corruption without impact state, got %+v", next.Error)
	}
}

func TestReduce_EvolveImpacts(t *testing.T) {
	s := recordedState(t)
	s = Reduce(s, ProcessDecisionImpacts([]DecisionImpact{
		{DecisionID: "dec1", Type: ImpactReputation, Target: "dust_hollow", Severity: ImportanceMinor, Value: 10},
		{DecisionID: "dec1", Type: ImpactRelationship, Target: "The Stranger", Severity: ImportanceCritical, Value: -5},
	}), testNow)

	// Five days on, minor impacts have decayed by half; critical not at all.
	fiveDays := testNow.Add(5 * 24 * time.Hour)
	s = Reduce(s, EvolveImpacts(), fiveDays)
	if s.Error != nil {
		t.Fatalf("unexpected error: %+v", s.Error)
	}
	if got := s.Context.ImpactState.Reputations["dust_hollow"]; got != 5 {
		t.Errorf("expected minor impact decayed to 5, got %v", got)
	}
	if got := s.Context.ImpactState.Relationships["The Stranger"]; got != -5 {
		t.Errorf("expected critical impact undecayed, got %v", got)
	}

	// Idempotent at a fixed instant.
	again := Reduce(s, EvolveImpacts(), fiveDays)
	if again.Context.ImpactState.Reputations["dust_hollow"] != s.Context.ImpactState.Reputations["dust_hollow"] {
		t.Error("evolving twice at the same instant must not change values")
	}

	// Far enough out, decayed values clamp at zero.
	s = Reduce(s, EvolveImpacts(), testNow.Add(30*24*time.Hour))
	if got := s.Context.ImpactState.Reputations["dust_hollow"]; got != 0 {
		t.Errorf("expected minor impact clamped to 0, got %v", got)
	}
}
