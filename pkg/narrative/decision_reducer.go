package narrative

import "time"

// Decision and impact transitions. See context_reducer.go for why each
// function re-validates its own preconditions.

func reduceRecordDecision(s NarrativeState, a Action, now time.Time) NarrativeState {
	if s.CurrentDecision == nil {
		s.Error = NewError(ErrDecisionNotFound,
			"no decision is currently presented",
			map[string]any{"decisionId": a.DecisionID}, now)
		return s
	}
	// Strict match: any ID besides the exact current one is rejected, so an
	// out-of-order completion from a racing caller cannot resolve the wrong
	// decision.
	if s.CurrentDecision.ID != a.DecisionID {
		s.Error = NewError(ErrDecisionMismatch,
			"decision id does not match the current decision",
			map[string]any{
				"decisionId": a.DecisionID,
				"currentId":  s.CurrentDecision.ID,
			}, now)
		return s
	}

	record, ok := newDecisionRecord(s.CurrentDecision, a.OptionID, a.Narrative, now)
	if !ok {
		s.Error = NewError(ErrValidationFailed,
			"could not build decision record",
			map[string]any{
				"decisionId": a.DecisionID,
				"optionId":   a.OptionID,
			}, now)
		return s
	}

	history := make([]PlayerDecisionRecord, len(s.Context.DecisionHistory), len(s.Context.DecisionHistory)+1)
	copy(history, s.Context.DecisionHistory)
	s.Context.DecisionHistory = append(history, record)
	s.CurrentDecision = nil
	s.Error = nil
	return s
}

// reduceProcessImpacts attaches impacts to their decision records and
// recomputes the aggregate impact state. Impacts carrying a decision ID
// attach to that record; impacts without one attach to the most recent
// record.
func reduceProcessImpacts(s NarrativeState, a Action, now time.Time) NarrativeState {
	if s.Context.ImpactState == nil {
		s.Error = NewError(ErrStateCorruption,
			"impact state is missing",
			nil, now)
		return s
	}
	if len(s.Context.DecisionHistory) == 0 {
		s.Error = NewError(ErrDecisionNotFound,
			"no recorded decisions to attach impacts to",
			nil, now)
		return s
	}
	if len(a.Impacts) == 0 {
		s.Error = nil
		return s
	}

	history := make([]PlayerDecisionRecord, len(s.Context.DecisionHistory))
	copy(history, s.Context.DecisionHistory)
	latest := len(history) - 1

	for _, imp := range a.Impacts {
		idx := latest
		if imp.DecisionID != "" {
			idx = -1
			for i := range history {
				if history[i].DecisionID == imp.DecisionID {
					idx = i
					break
				}
			}
			if idx < 0 {
				s.Error = NewError(ErrDecisionNotFound,
					"impact references an unknown decision",
					map[string]any{"decisionId": imp.DecisionID}, now)
				return s
			}
		}
		rec := history[idx]
		impacts := make([]DecisionImpact, len(rec.Impacts), len(rec.Impacts)+1)
		copy(impacts, rec.Impacts)
		rec.Impacts = append(impacts, imp)
		rec.ProcessedForImpact = true
		history[idx] = rec
	}

	s.Context.DecisionHistory = history
	s.Context.ImpactState = recomputeImpactState(history, now)
	s.Error = nil
	return s
}

func reduceUpdateImpactState(s NarrativeState, a Action, now time.Time) NarrativeState {
	if s.Context.ImpactState == nil {
		s.Error = NewError(ErrStateCorruption,
			"impact state is missing",
			nil, now)
		return s
	}
	if a.ImpactUpdate == nil {
		s.Error = nil
		return s
	}

	is := s.Context.ImpactState.clone()
	for k, v := range a.ImpactUpdate.Reputations {
		is.Reputations[k] = v
	}
	for k, v := range a.ImpactUpdate.Relationships {
		is.Relationships[k] = v
	}
	for k, v := range a.ImpactUpdate.WorldState {
		is.WorldState[k] = v
	}
	for k, v := range a.ImpactUpdate.StoryArcs {
		is.StoryArcs[k] = v
	}
	is.LastUpdated = now
	s.Context.ImpactState = is
	s.Error = nil
	return s
}

// reduceEvolveImpacts recomputes decayed impact values from the decision
// history. The rebuild is a pure function of the history and the clock, so
// reapplying at the same instant changes nothing.
func reduceEvolveImpacts(s NarrativeState, now time.Time) NarrativeState {
	if s.Context.ImpactState == nil || s.Context.DecisionHistory == nil {
		s.Error = NewError(ErrStateCorruption,
			"impact state or decision history is missing",
			nil, now)
		return s
	}

	s.Context.ImpactState = recomputeImpactState(s.Context.DecisionHistory, now)
	s.Error = nil
	return s
}
