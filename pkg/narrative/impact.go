package narrative

import (
	"math"
	"time"
)

// ImpactType identifies which ledger of the impact state a DecisionImpact
// applies to.
type ImpactType string

const (
	ImpactReputation   ImpactType = "reputation"
	ImpactRelationship ImpactType = "relationship"
	ImpactWorldState   ImpactType = "world_state"
	ImpactStoryArc     ImpactType = "story_arc"
)

// DecisionImpact is a single numeric effect derived from a recorded
// decision. DecisionID ties the impact back to its record; an empty
// DecisionID attaches to the most recent record.
type DecisionImpact struct {
	ID          string             `json:"id,omitempty"`
	DecisionID  string             `json:"decision_id,omitempty"`
	Type        ImpactType         `json:"type"`
	Target      string             `json:"target"` // faction, character name, world key, or arc ID
	Severity    DecisionImportance `json:"severity,omitempty"`
	Value       float64            `json:"value"`
	Description string             `json:"description,omitempty"`
}

// ImpactState aggregates the numeric effects of all processed decisions.
// Values decay toward zero over time; critical impacts never decay.
type ImpactState struct {
	Reputations   map[string]float64 `json:"reputations"`
	Relationships map[string]float64 `json:"relationships"`
	WorldState    map[string]float64 `json:"world_state"`
	StoryArcs     map[string]float64 `json:"story_arcs"`
	LastUpdated   time.Time          `json:"last_updated"`
}

// NewImpactState returns an empty impact state stamped with the given time.
func NewImpactState(now time.Time) *ImpactState {
	return &ImpactState{
		Reputations:   make(map[string]float64),
		Relationships: make(map[string]float64),
		WorldState:    make(map[string]float64),
		StoryArcs:     make(map[string]float64),
		LastUpdated:   now,
	}
}

// Daily decay rates per severity. Decay is linear in elapsed days and
// clamps at zero.
var decayRates = map[DecisionImportance]float64{
	ImportanceMinor:       0.10,
	ImportanceModerate:    0.05,
	ImportanceSignificant: 0.02,
	ImportanceCritical:    0,
}

// decayedValue returns an impact's value after time-based decay, measured
// from the moment the decision was recorded.
func decayedValue(imp DecisionImpact, recordedAt, now time.Time) float64 {
	rate, ok := decayRates[imp.Severity]
	if !ok {
		rate = decayRates[ImportanceModerate]
	}
	if rate == 0 {
		return imp.Value
	}
	days := now.Sub(recordedAt).Hours() / 24
	if days <= 0 {
		return imp.Value
	}
	factor := 1 - rate*days
	if factor <= 0 {
		return 0
	}
	// Round to avoid drift noise in persisted snapshots.
	return math.Round(imp.Value*factor*1000) / 1000
}

// recomputeImpactState rebuilds the aggregate ledgers from every impact in
// the decision history. Recomputing from scratch makes impact evolution
// idempotent at a fixed instant.
func recomputeImpactState(history []PlayerDecisionRecord, now time.Time) *ImpactState {
	out := NewImpactState(now)
	for _, rec := range history {
		for _, imp := range rec.Impacts {
			if imp.Severity == "" {
				imp.Severity = rec.Importance
			}
			v := decayedValue(imp, rec.Timestamp, now)
			switch imp.Type {
			case ImpactReputation:
				out.Reputations[imp.Target] += v
			case ImpactRelationship:
				out.Relationships[imp.Target] += v
			case ImpactWorldState:
				out.WorldState[imp.Target] += v
			case ImpactStoryArc:
				out.StoryArcs[imp.Target] += v
			}
		}
	}
	return out
}

// clone returns a deep copy of the impact state.
func (is *ImpactState) clone() *ImpactState {
	if is == nil {
		return nil
	}
	out := &ImpactState{
		Reputations:   cloneFloatMap(is.Reputations),
		Relationships: cloneFloatMap(is.Relationships),
		WorldState:    cloneFloatMap(is.WorldState),
		StoryArcs:     cloneFloatMap(is.StoryArcs),
		LastUpdated:   is.LastUpdated,
	}
	return out
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
