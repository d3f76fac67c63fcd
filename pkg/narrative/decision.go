package narrative

import "time"

// DecisionImportance ranks how much weight a decision carries.
type DecisionImportance string

const (
	ImportanceMinor       DecisionImportance = "minor"
	ImportanceModerate    DecisionImportance = "moderate"
	ImportanceSignificant DecisionImportance = "significant"
	ImportanceCritical    DecisionImportance = "critical"
)

// DecisionOption is one of the options presented with a decision.
type DecisionOption struct {
	ID     string   `json:"id"`
	Text   string   `json:"text"`
	Impact string   `json:"impact,omitempty"` // narrative hint at the option's consequence
	Tags   []string `json:"tags,omitempty"`
}

// PlayerDecision is an AI- or template-generated prompt presented to the
// player outside the story-point/choice graph. At most one decision is
// current at a time.
type PlayerDecision struct {
	ID          string             `json:"id"`
	Prompt      string             `json:"prompt"`
	Timestamp   time.Time          `json:"timestamp"`
	Options     []DecisionOption   `json:"options"`
	Context     string             `json:"context,omitempty"`
	Importance  DecisionImportance `json:"importance"`
	Characters  []string           `json:"characters,omitempty"`
	AIGenerated bool               `json:"ai_generated"`
}

// Option returns the option with the given ID, if present.
func (d *PlayerDecision) Option(optionID string) (DecisionOption, bool) {
	for _, o := range d.Options {
		if o.ID == optionID {
			return o, true
		}
	}
	return DecisionOption{}, false
}

// PlayerDecisionRecord is the permanent log entry created when a decision is
// resolved. Records are append-only; impact processing later attaches the
// derived impacts and flips ProcessedForImpact.
type PlayerDecisionRecord struct {
	DecisionID         string             `json:"decision_id"`
	Prompt             string             `json:"prompt"`
	Options            []DecisionOption   `json:"options"`
	SelectedOptionID   string             `json:"selected_option_id"`
	Narrative          string             `json:"narrative,omitempty"`
	Importance         DecisionImportance `json:"importance"`
	Characters         []string           `json:"characters,omitempty"`
	Timestamp          time.Time          `json:"timestamp"`
	Impacts            []DecisionImpact   `json:"impacts,omitempty"`
	ProcessedForImpact bool               `json:"processed_for_impact"`
}

// Option returns the option with the given ID, if present.
func (r *PlayerDecisionRecord) Option(optionID string) (DecisionOption, bool) {
	for _, o := range r.Options {
		if o.ID == optionID {
			return o, true
		}
	}
	return DecisionOption{}, false
}

// newDecisionRecord builds a record from a presented decision and the
// player's selection. Fails when the selected option is not one of the
// decision's options.
func newDecisionRecord(d *PlayerDecision, selectedOptionID, narrative string, now time.Time) (PlayerDecisionRecord, bool) {
	if d == nil || selectedOptionID == "" {
		return PlayerDecisionRecord{}, false
	}
	if _, ok := d.Option(selectedOptionID); !ok {
		return PlayerDecisionRecord{}, false
	}
	importance := d.Importance
	if importance == "" {
		importance = ImportanceModerate
	}
	return PlayerDecisionRecord{
		DecisionID:       d.ID,
		Prompt:           d.Prompt,
		Options:          d.Options,
		SelectedOptionID: selectedOptionID,
		Narrative:        narrative,
		Importance:       importance,
		Characters:       d.Characters,
		Timestamp:        now,
	}, true
}
