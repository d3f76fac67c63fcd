package narrative

import "time"

// DisplayMode selects how the current narrative is presented.
type DisplayMode string

const (
	ModeStandard  DisplayMode = "standard"
	ModeFlashback DisplayMode = "flashback"
	ModeDream     DisplayMode = "dream"
	ModeShowdown  DisplayMode = "showdown"
)

// NarrativeState is the aggregate state of one narrative session. It is
// created from InitialState (or a story seed), mutated exclusively through
// Reduce, and replaced wholesale by RESET_NARRATIVE.
type NarrativeState struct {
	CurrentStoryPoint *StoryPoint      `json:"current_story_point"`
	AvailableChoices  []Choice         `json:"available_choices"`
	VisitedPoints     []string         `json:"visited_points"` // set-like, insertion order kept for display
	SelectedChoice    string           `json:"selected_choice,omitempty"`
	NarrativeHistory  []string         `json:"narrative_history"`
	DisplayMode       DisplayMode      `json:"display_mode"`
	CurrentDecision   *PlayerDecision  `json:"current_decision,omitempty"`
	Context           NarrativeContext `json:"narrative_context"`
	Error             *NarrativeError  `json:"error"`
}

// InitialState returns the canonical default narrative state.
func InitialState(now time.Time) NarrativeState {
	return NarrativeState{
		AvailableChoices: []Choice{},
		VisitedPoints:    []string{},
		NarrativeHistory: []string{},
		DisplayMode:      ModeStandard,
		Context:          DefaultContext(now),
	}
}

// NormalizeState fills any containers left nil by a partially-shaped
// persisted state. This is the single schema-migration step; it runs at
// load time so the reducer can rely on a complete state.
func NormalizeState(s NarrativeState, now time.Time) NarrativeState {
	if s.AvailableChoices == nil {
		s.AvailableChoices = []Choice{}
	}
	if s.VisitedPoints == nil {
		s.VisitedPoints = []string{}
	}
	if s.NarrativeHistory == nil {
		s.NarrativeHistory = []string{}
	}
	if s.DisplayMode == "" {
		s.DisplayMode = ModeStandard
	}
	s.Context.normalize(now)
	return s
}

// HasVisited reports whether the given story point has been entered.
func (s *NarrativeState) HasVisited(pointID string) bool {
	for _, id := range s.VisitedPoints {
		if id == pointID {
			return true
		}
	}
	return false
}
