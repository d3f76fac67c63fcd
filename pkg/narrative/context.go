package narrative

import "time"

// NarrativeContext carries the story world surrounding the current point:
// tone, cast, the authored story graph, arc/branch progress, and the
// decision ledger.
type NarrativeContext struct {
	Tone            string                     `json:"tone,omitempty"`
	CharacterFocus  []string                   `json:"character_focus,omitempty"`
	Themes          []string                   `json:"themes,omitempty"`
	WorldContext    string                     `json:"world_context,omitempty"`
	ImportantEvents []string                   `json:"important_events,omitempty"`
	StoryPoints     map[string]StoryPoint      `json:"story_points"`
	Arcs            map[string]NarrativeArc    `json:"narrative_arcs"`
	Branches        map[string]NarrativeBranch `json:"narrative_branches"`
	CurrentArcID    string                     `json:"current_arc_id,omitempty"`
	CurrentBranchID string                     `json:"current_branch_id,omitempty"`
	DecisionHistory []PlayerDecisionRecord     `json:"decision_history"`
	ImpactState     *ImpactState               `json:"impact_state"`
}

// DefaultContext returns a fully-populated empty context. The reducer
// assumes contexts are complete; NormalizeState applies this template once
// at load time rather than on every action.
func DefaultContext(now time.Time) NarrativeContext {
	return NarrativeContext{
		Tone:            "serious",
		CharacterFocus:  []string{},
		Themes:          []string{},
		ImportantEvents: []string{},
		StoryPoints:     make(map[string]StoryPoint),
		Arcs:            make(map[string]NarrativeArc),
		Branches:        make(map[string]NarrativeBranch),
		DecisionHistory: []PlayerDecisionRecord{},
		ImpactState:     NewImpactState(now),
	}
}

// normalize fills any container left nil by a partially-shaped persisted
// context (an older save, or a hand-built seed). Scalar fields are kept.
func (c *NarrativeContext) normalize(now time.Time) {
	if c.CharacterFocus == nil {
		c.CharacterFocus = []string{}
	}
	if c.Themes == nil {
		c.Themes = []string{}
	}
	if c.ImportantEvents == nil {
		c.ImportantEvents = []string{}
	}
	if c.StoryPoints == nil {
		c.StoryPoints = make(map[string]StoryPoint)
	}
	if c.Arcs == nil {
		c.Arcs = make(map[string]NarrativeArc)
	}
	if c.Branches == nil {
		c.Branches = make(map[string]NarrativeBranch)
	}
	if c.DecisionHistory == nil {
		c.DecisionHistory = []PlayerDecisionRecord{}
	}
	if c.ImpactState == nil {
		c.ImpactState = NewImpactState(now)
	} else {
		if c.ImpactState.Reputations == nil {
			c.ImpactState.Reputations = make(map[string]float64)
		}
		if c.ImpactState.Relationships == nil {
			c.ImpactState.Relationships = make(map[string]float64)
		}
		if c.ImpactState.WorldState == nil {
			c.ImpactState.WorldState = make(map[string]float64)
		}
		if c.ImpactState.StoryArcs == nil {
			c.ImpactState.StoryArcs = make(map[string]float64)
		}
	}
}

// ContextUpdate is the partial payload for UPDATE_NARRATIVE_CONTEXT.
// Nil fields are left untouched; map fields merge by key so seeds can be
// applied incrementally.
type ContextUpdate struct {
	Tone            *string                    `json:"tone,omitempty"`
	CharacterFocus  []string                   `json:"character_focus,omitempty"`
	Themes          []string                   `json:"themes,omitempty"`
	WorldContext    *string                    `json:"world_context,omitempty"`
	ImportantEvents []string                   `json:"important_events,omitempty"`
	StoryPoints     map[string]StoryPoint      `json:"story_points,omitempty"`
	Arcs            map[string]NarrativeArc    `json:"narrative_arcs,omitempty"`
	Branches        map[string]NarrativeBranch `json:"narrative_branches,omitempty"`
}

func cloneStringSlice(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func clonePointMap(m map[string]StoryPoint) map[string]StoryPoint {
	out := make(map[string]StoryPoint, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneArcMap(m map[string]NarrativeArc) map[string]NarrativeArc {
	out := make(map[string]NarrativeArc, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneBranchMap(m map[string]NarrativeBranch) map[string]NarrativeBranch {
	out := make(map[string]NarrativeBranch, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
