package worker

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/kmarlowe/frontier-engine/internal/services"
	"github.com/kmarlowe/frontier-engine/internal/services/queue"
	"github.com/kmarlowe/frontier-engine/pkg/narrative"
	"github.com/kmarlowe/frontier-engine/pkg/session"
)

// Impact values decay from the decision timestamp, so fixtures are stamped
// with the wall clock to keep derived values stable in assertions.
var testNow = time.Now().UTC()

func sessionWithDecision(t *testing.T) *session.Session {
	t.Helper()

	sess := session.New("dust_hollow", narrative.InitialState(testNow), testNow)
	sess.DispatchAt(narrative.PresentDecision(narrative.PlayerDecision{
		ID:     "dec1",
		Prompt: "Caddell slides a contract across the table.",
		Options: []narrative.DecisionOption{
			{ID: "opt_sign", Text: "Sign with the railroad", Tags: []string{"greed"}},
			{ID: "opt_refuse", Text: "Stand with the homesteaders", Tags: []string{"reputation", "loyalty"}},
		},
		Importance: narrative.ImportanceSignificant,
		Timestamp:  testNow,
	}), testNow)
	state := sess.DispatchAt(narrative.RecordDecision("dec1", "opt_refuse", "You push the contract back."), testNow)
	if state.Error != nil {
		t.Fatalf("Failed to record decision: %+v", state.Error)
	}
	return sess
}

func TestDeriveImpacts(t *testing.T) {
	sess := sessionWithDecision(t)
	rec := sess.Snapshot().Context.DecisionHistory[0]

	impacts := DeriveImpacts(rec)
	if len(impacts) != 2 {
		t.Fatalf("Expected 2 impacts, got %d", len(impacts))
	}

	if impacts[0].Type != narrative.ImpactReputation || impacts[0].Target != "townsfolk" {
		t.Errorf("Unexpected first impact: %+v", impacts[0])
	}
	if impacts[0].Value != 4 {
		t.Errorf("Expected significant magnitude 4, got %v", impacts[0].Value)
	}
	if impacts[1].Type != narrative.ImpactRelationship || impacts[1].Target != "allies" {
		t.Errorf("Unexpected second impact: %+v", impacts[1])
	}
	for _, imp := range impacts {
		if imp.DecisionID != "dec1" {
			t.Errorf("Impact not tied to its decision: %+v", imp)
		}
		if imp.Severity != narrative.ImportanceSignificant {
			t.Errorf("Impact severity not carried over: %+v", imp)
		}
	}
}

func TestDeriveImpacts_UnknownTags(t *testing.T) {
	rec := narrative.PlayerDecisionRecord{
		DecisionID: "dec1",
		Options: []narrative.DecisionOption{
			{ID: "opt1", Text: "Shrug", Tags: []string{"whatever"}},
		},
		SelectedOptionID: "opt1",
		Importance:       narrative.ImportanceMinor,
	}
	if impacts := DeriveImpacts(rec); len(impacts) != 0 {
		t.Errorf("Expected no impacts for unknown tags, got %d", len(impacts))
	}
}

func TestProcessJob(t *testing.T) {
	logger := slog.Default()
	storage := services.NewMockStorage()
	sess := sessionWithDecision(t)

	ctx := context.Background()
	if err := storage.SaveSession(ctx, sess); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	p := NewImpactProcessor(storage, logger)
	job := &queue.ImpactJob{JobID: "job1", SessionID: sess.ID, DecisionID: "dec1"}

	if err := p.ProcessJob(ctx, job); err != nil {
		t.Fatalf("ProcessJob failed: %v", err)
	}

	saved, err := storage.LoadSession(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Failed to reload session: %v", err)
	}
	state := saved.Snapshot()

	rec := state.Context.DecisionHistory[0]
	if !rec.ProcessedForImpact {
		t.Error("Expected decision to be marked processed")
	}
	if len(rec.Impacts) != 2 {
		t.Fatalf("Expected 2 attached impacts, got %d", len(rec.Impacts))
	}
	if got := state.Context.ImpactState.Reputations["townsfolk"]; got != 4 {
		t.Errorf("Expected townsfolk reputation 4, got %v", got)
	}
	if got := state.Context.ImpactState.Relationships["allies"]; got != 4 {
		t.Errorf("Expected allies relationship 4, got %v", got)
	}
}

func TestProcessJob_AlreadyProcessed(t *testing.T) {
	logger := slog.Default()
	storage := services.NewMockStorage()
	sess := sessionWithDecision(t)

	ctx := context.Background()
	if err := storage.SaveSession(ctx, sess); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}

	p := NewImpactProcessor(storage, logger)
	job := &queue.ImpactJob{JobID: "job1", SessionID: sess.ID, DecisionID: "dec1"}

	if err := p.ProcessJob(ctx, job); err != nil {
		t.Fatalf("First ProcessJob failed: %v", err)
	}
	if err := p.ProcessJob(ctx, job); err != nil {
		t.Fatalf("Second ProcessJob failed: %v", err)
	}

	saved, _ := storage.LoadSession(ctx, sess.ID)
	rec := saved.Snapshot().Context.DecisionHistory[0]
	if len(rec.Impacts) != 2 {
		t.Errorf("Reprocessing should not duplicate impacts, got %d", len(rec.Impacts))
	}
}

func TestProcessJob_MissingSession(t *testing.T) {
	p := NewImpactProcessor(services.NewMockStorage(), slog.Default())
	sess := sessionWithDecision(t)

	job := &queue.ImpactJob{JobID: "job1", SessionID: sess.ID, DecisionID: "dec1"}
	if err := p.ProcessJob(context.Background(), job); err == nil {
		t.Error("Expected error for missing session")
	}
}
