package worker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/kmarlowe/frontier-engine/internal/services"
	"github.com/kmarlowe/frontier-engine/internal/services/queue"
	"github.com/kmarlowe/frontier-engine/pkg/narrative"
)

// ImpactProcessor turns recorded decisions into concrete impacts and folds
// them into the session's impact state. It is used by the worker
// asynchronously and can be called synchronously from handlers.
type ImpactProcessor struct {
	storage services.Storage
	logger  *slog.Logger
}

// NewImpactProcessor creates a new impact processor
func NewImpactProcessor(storage services.Storage, logger *slog.Logger) *ImpactProcessor {
	return &ImpactProcessor{
		storage: storage,
		logger:  logger,
	}
}

// ProcessJob loads the session for a job, derives impacts for the named
// decision, applies them, and persists the updated session. Jobs for
// already-processed decisions are skipped.
func (p *ImpactProcessor) ProcessJob(ctx context.Context, job *queue.ImpactJob) error {
	sess, err := p.storage.LoadSession(ctx, job.SessionID)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	if sess == nil {
		return fmt.Errorf("session not found: %s", job.SessionID.String())
	}

	state := sess.Snapshot()
	record, ok := findRecord(state.Context.DecisionHistory, job.DecisionID)
	if !ok {
		return fmt.Errorf("decision not found in session %s: %s", job.SessionID.String(), job.DecisionID)
	}
	if record.ProcessedForImpact {
		p.logger.Debug("Decision already processed, skipping",
			"session_id", job.SessionID.String(),
			"decision_id", job.DecisionID)
		return nil
	}

	impacts := DeriveImpacts(record)
	state = sess.Dispatch(narrative.ProcessDecisionImpacts(impacts))
	if state.Error != nil {
		return fmt.Errorf("impact processing rejected: %s", state.Error.Message)
	}
	sess.Dispatch(narrative.EvolveImpacts())

	if err := p.storage.SaveSession(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	p.logger.Info("Processed decision impacts",
		"session_id", job.SessionID.String(),
		"decision_id", job.DecisionID,
		"impact_count", len(impacts))
	return nil
}

func findRecord(history []narrative.PlayerDecisionRecord, decisionID string) (narrative.PlayerDecisionRecord, bool) {
	if decisionID == "" {
		if len(history) == 0 {
			return narrative.PlayerDecisionRecord{}, false
		}
		return history[len(history)-1], true
	}
	for _, rec := range history {
		if rec.DecisionID == decisionID {
			return rec, true
		}
	}
	return narrative.PlayerDecisionRecord{}, false
}

// tagEffect maps an option tag to the ledger entry it moves.
type tagEffect struct {
	impactType narrative.ImpactType
	target     string
	direction  float64
}

var tagEffects = map[string]tagEffect{
	"violence":   {narrative.ImpactReputation, "townsfolk", -1},
	"reputation": {narrative.ImpactReputation, "townsfolk", 1},
	"loyalty":    {narrative.ImpactRelationship, "allies", 1},
	"betrayal":   {narrative.ImpactRelationship, "allies", -1},
	"diplomacy":  {narrative.ImpactWorldState, "tension", -1},
	"caution":    {narrative.ImpactWorldState, "tension", -0.5},
	"greed":      {narrative.ImpactWorldState, "lawlessness", 1},
}

var importanceMagnitude = map[narrative.DecisionImportance]float64{
	narrative.ImportanceMinor:       1,
	narrative.ImportanceModerate:    2,
	narrative.ImportanceSignificant: 4,
	narrative.ImportanceCritical:    8,
}

// DeriveImpacts builds the impact list for a decision record from the tags
// on the option the player picked. Unknown tags produce no impact.
func DeriveImpacts(rec narrative.PlayerDecisionRecord) []narrative.DecisionImpact {
	opt, ok := rec.Option(rec.SelectedOptionID)
	if !ok {
		return nil
	}

	magnitude, ok := importanceMagnitude[rec.Importance]
	if !ok {
		magnitude = importanceMagnitude[narrative.ImportanceModerate]
	}

	var impacts []narrative.DecisionImpact
	for _, tag := range opt.Tags {
		effect, ok := tagEffects[strings.ToLower(tag)]
		if !ok {
			continue
		}
		impacts = append(impacts, narrative.DecisionImpact{
			ID:          uuid.NewString(),
			DecisionID:  rec.DecisionID,
			Type:        effect.impactType,
			Target:      effect.target,
			Severity:    rec.Importance,
			Value:       effect.direction * magnitude,
			Description: fmt.Sprintf("%s: %s", tag, opt.Text),
		})
	}
	return impacts
}
