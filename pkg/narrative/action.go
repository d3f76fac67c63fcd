package narrative

// ActionType is the closed set of narrative actions. The reducer switches
// over these; anything else is a no-op.
type ActionType string

const (
	ActionNavigateToPoint        ActionType = "NAVIGATE_TO_POINT"
	ActionSelectChoice           ActionType = "SELECT_CHOICE"
	ActionAddNarrativeHistory    ActionType = "ADD_NARRATIVE_HISTORY"
	ActionSetDisplayMode         ActionType = "SET_DISPLAY_MODE"
	ActionStartNarrativeArc      ActionType = "START_NARRATIVE_ARC"
	ActionCompleteNarrativeArc   ActionType = "COMPLETE_NARRATIVE_ARC"
	ActionActivateBranch         ActionType = "ACTIVATE_BRANCH"
	ActionCompleteBranch         ActionType = "COMPLETE_BRANCH"
	ActionUpdateContext          ActionType = "UPDATE_NARRATIVE_CONTEXT"
	ActionResetNarrative         ActionType = "RESET_NARRATIVE"
	ActionPresentDecision        ActionType = "PRESENT_DECISION"
	ActionRecordDecision         ActionType = "RECORD_DECISION"
	ActionClearCurrentDecision   ActionType = "CLEAR_CURRENT_DECISION"
	ActionProcessDecisionImpacts ActionType = "PROCESS_DECISION_IMPACTS"
	ActionUpdateImpactState      ActionType = "UPDATE_IMPACT_STATE"
	ActionEvolveImpacts          ActionType = "EVOLVE_IMPACTS"
	ActionNarrativeError         ActionType = "NARRATIVE_ERROR"
	ActionClearError             ActionType = "CLEAR_ERROR"
)

// ImpactUpdate is the partial payload for UPDATE_IMPACT_STATE. Maps merge
// by key.
type ImpactUpdate struct {
	Reputations   map[string]float64 `json:"reputations,omitempty"`
	Relationships map[string]float64 `json:"relationships,omitempty"`
	WorldState    map[string]float64 `json:"world_state,omitempty"`
	StoryArcs     map[string]float64 `json:"story_arcs,omitempty"`
}

// Action is a single instruction dispatched into the reducer. Only the
// fields the action type reads are populated; the struct is JSON-tagged so
// actions can cross the API boundary unchanged.
type Action struct {
	Type ActionType `json:"type"`

	PointID      string           `json:"point_id,omitempty"`
	ChoiceID     string           `json:"choice_id,omitempty"`
	Text         string           `json:"text,omitempty"`
	Mode         DisplayMode      `json:"mode,omitempty"`
	ArcID        string           `json:"arc_id,omitempty"`
	BranchID     string           `json:"branch_id,omitempty"`
	Context      *ContextUpdate   `json:"context,omitempty"`
	Decision     *PlayerDecision  `json:"decision,omitempty"`
	DecisionID   string           `json:"decision_id,omitempty"`
	OptionID     string           `json:"option_id,omitempty"`
	Narrative    string           `json:"narrative,omitempty"`
	Impacts      []DecisionImpact `json:"impacts,omitempty"`
	ImpactUpdate *ImpactUpdate    `json:"impact_update,omitempty"`
	ErrorCode    ErrorCode        `json:"error_code,omitempty"`
	ErrorMessage string           `json:"error_message,omitempty"`
	ErrorContext map[string]any   `json:"error_context,omitempty"`
}

// NavigateToPoint moves the narrative to the story point with the given ID.
func NavigateToPoint(pointID string) Action {
	return Action{Type: ActionNavigateToPoint, PointID: pointID}
}

// SelectChoice marks one of the available choices as selected. Navigation
// is a separate action the caller dispatches afterwards.
func SelectChoice(choiceID string) Action {
	return Action{Type: ActionSelectChoice, ChoiceID: choiceID}
}

// AddNarrativeHistory appends a line to the narrative log.
func AddNarrativeHistory(text string) Action {
	return Action{Type: ActionAddNarrativeHistory, Text: text}
}

// SetDisplayMode switches the presentation mode.
func SetDisplayMode(mode DisplayMode) Action {
	return Action{Type: ActionSetDisplayMode, Mode: mode}
}

// StartNarrativeArc activates an arc and, when the arc names a starting
// branch, activates that branch as well.
func StartNarrativeArc(arcID string) Action {
	return Action{Type: ActionStartNarrativeArc, ArcID: arcID}
}

// CompleteNarrativeArc marks an arc completed.
func CompleteNarrativeArc(arcID string) Action {
	return Action{Type: ActionCompleteNarrativeArc, ArcID: arcID}
}

// ActivateBranch activates a branch and makes it current.
func ActivateBranch(branchID string) Action {
	return Action{Type: ActionActivateBranch, BranchID: branchID}
}

// CompleteBranch marks a branch completed and clears its active flag.
func CompleteBranch(branchID string) Action {
	return Action{Type: ActionCompleteBranch, BranchID: branchID}
}

// UpdateContext shallow-merges a partial update into the narrative context.
func UpdateContext(update ContextUpdate) Action {
	return Action{Type: ActionUpdateContext, Context: &update}
}

// ResetNarrative replaces the entire state with the initial default state.
func ResetNarrative() Action {
	return Action{Type: ActionResetNarrative}
}

// PresentDecision makes the given decision current. Presenting always
// replaces any pending decision: last writer wins. Callers that must not
// clobber an in-flight decision should check CurrentDecision first.
func PresentDecision(d PlayerDecision) Action {
	return Action{Type: ActionPresentDecision, Decision: &d}
}

// RecordDecision resolves the current decision. The decision ID must match
// the current decision exactly; anything else is rejected.
func RecordDecision(decisionID, optionID, narrative string) Action {
	return Action{
		Type:       ActionRecordDecision,
		DecisionID: decisionID,
		OptionID:   optionID,
		Narrative:  narrative,
	}
}

// ClearCurrentDecision discards the pending decision without recording it.
func ClearCurrentDecision() Action {
	return Action{Type: ActionClearCurrentDecision}
}

// ProcessDecisionImpacts attaches derived impacts to their decision records
// and recomputes the impact state.
func ProcessDecisionImpacts(impacts []DecisionImpact) Action {
	return Action{Type: ActionProcessDecisionImpacts, Impacts: impacts}
}

// UpdateImpactState shallow-merges a partial update into the impact state.
func UpdateImpactState(update ImpactUpdate) Action {
	return Action{Type: ActionUpdateImpactState, ImpactUpdate: &update}
}

// EvolveImpacts recomputes decayed impact values from the decision history.
func EvolveImpacts() Action {
	return Action{Type: ActionEvolveImpacts}
}

// RaiseError records a narrative error without touching the rest of the
// state.
func RaiseError(code ErrorCode, message string, ctx map[string]any) Action {
	return Action{
		Type:         ActionNarrativeError,
		ErrorCode:    code,
		ErrorMessage: message,
		ErrorContext: ctx,
	}
}

// ClearError clears the error slot.
func ClearError() Action {
	return Action{Type: ActionClearError}
}
