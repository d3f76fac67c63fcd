package narrative

import "time"

// Reduce is the narrative state machine: a pure transition function mapping
// (state, action) to a new state. It performs no I/O and never panics on
// bad input; failed actions return the prior state with the error slot set.
// The clock is passed in so transitions are replayable.
//
// Unknown action types return the state unchanged.
func Reduce(s NarrativeState, a Action, now time.Time) NarrativeState {
	switch a.Type {
	case ActionNavigateToPoint:
		return reduceNavigate(s, a, now)
	case ActionSelectChoice:
		return reduceSelectChoice(s, a, now)
	case ActionAddNarrativeHistory:
		return reduceAddHistory(s, a)
	case ActionSetDisplayMode:
		s.DisplayMode = a.Mode
		return s
	case ActionStartNarrativeArc:
		return reduceStartArc(s, a, now)
	case ActionCompleteNarrativeArc:
		return reduceCompleteArc(s, a, now)
	case ActionActivateBranch:
		return reduceActivateBranch(s, a, now)
	case ActionCompleteBranch:
		return reduceCompleteBranch(s, a, now)
	case ActionUpdateContext:
		return reduceUpdateContext(s, a)
	case ActionResetNarrative:
		return InitialState(now)
	case ActionPresentDecision:
		return reducePresentDecision(s, a)
	case ActionRecordDecision:
		return reduceRecordDecision(s, a, now)
	case ActionClearCurrentDecision:
		s.CurrentDecision = nil
		s.Error = nil
		return s
	case ActionProcessDecisionImpacts:
		return reduceProcessImpacts(s, a, now)
	case ActionUpdateImpactState:
		return reduceUpdateImpactState(s, a, now)
	case ActionEvolveImpacts:
		return reduceEvolveImpacts(s, now)
	case ActionNarrativeError:
		s.Error = NewError(a.ErrorCode, a.ErrorMessage, a.ErrorContext, now)
		return s
	case ActionClearError:
		s.Error = nil
		return s
	default:
		return s
	}
}

// reduceNavigate moves to a story point after validating it exists.
// Revisiting the current point is allowed and does not duplicate the
// visited entry.
func reduceNavigate(s NarrativeState, a Action, now time.Time) NarrativeState {
	if !ValidateStoryPoint(a.PointID, s.Context.StoryPoints) {
		s.Error = NewError(ErrInvalidNavigation,
			"story point does not exist",
			map[string]any{"storyPointId": a.PointID}, now)
		return s
	}

	point := s.Context.StoryPoints[a.PointID]
	s.CurrentStoryPoint = &point

	choices := make([]Choice, len(point.Choices))
	copy(choices, point.Choices)
	s.AvailableChoices = choices

	if !s.HasVisited(point.ID) {
		visited := make([]string, len(s.VisitedPoints), len(s.VisitedPoints)+1)
		copy(visited, s.VisitedPoints)
		s.VisitedPoints = append(visited, point.ID)
	}

	s.Error = nil
	return s
}

// reduceSelectChoice marks a choice as selected. It never navigates; the
// caller dispatches NAVIGATE_TO_POINT separately so validation or analytics
// can run between the two.
func reduceSelectChoice(s NarrativeState, a Action, now time.Time) NarrativeState {
	if !ValidateChoice(a.ChoiceID, s.AvailableChoices) {
		s.Error = NewError(ErrInvalidChoice,
			"choice is not among the available choices",
			map[string]any{"choiceId": a.ChoiceID}, now)
		return s
	}
	s.SelectedChoice = a.ChoiceID
	s.Error = nil
	return s
}

// reduceAddHistory appends to the narrative log. The error slot is left
// untouched: logging narration is orthogonal to whatever failed before.
func reduceAddHistory(s NarrativeState, a Action) NarrativeState {
	history := make([]string, len(s.NarrativeHistory), len(s.NarrativeHistory)+1)
	copy(history, s.NarrativeHistory)
	s.NarrativeHistory = append(history, a.Text)
	return s
}

func reducePresentDecision(s NarrativeState, a Action) NarrativeState {
	if a.Decision == nil {
		return s
	}
	// Last writer wins: a pending decision is replaced, not queued.
	d := *a.Decision
	s.CurrentDecision = &d
	s.Error = nil
	return s
}
