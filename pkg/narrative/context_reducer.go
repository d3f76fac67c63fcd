package narrative

import "time"

// Arc, branch, and context transitions. Each function re-validates its own
// preconditions instead of trusting the dispatcher; payloads can originate
// from an unreliable AI-driven caller.

func reduceStartArc(s NarrativeState, a Action, now time.Time) NarrativeState {
	arc, ok := s.Context.Arcs[a.ArcID]
	if !ok {
		s.Error = NewError(ErrArcNotFound,
			"narrative arc does not exist",
			map[string]any{"arcId": a.ArcID}, now)
		return s
	}

	arcs := cloneArcMap(s.Context.Arcs)
	arc.IsActive = true
	arcs[arc.ID] = arc
	s.Context.Arcs = arcs
	s.Context.CurrentArcID = arc.ID

	// An arc with a starting branch pulls that branch active with it.
	if arc.StartingBranch != "" {
		if branch, ok := s.Context.Branches[arc.StartingBranch]; ok {
			branches := cloneBranchMap(s.Context.Branches)
			branch.IsActive = true
			branches[branch.ID] = branch
			s.Context.Branches = branches
			s.Context.CurrentBranchID = branch.ID
		}
	}

	s.Error = nil
	return s
}

func reduceCompleteArc(s NarrativeState, a Action, now time.Time) NarrativeState {
	arc, ok := s.Context.Arcs[a.ArcID]
	if !ok {
		s.Error = NewError(ErrArcNotFound,
			"narrative arc does not exist",
			map[string]any{"arcId": a.ArcID}, now)
		return s
	}

	arcs := cloneArcMap(s.Context.Arcs)
	arc.IsCompleted = true
	arcs[arc.ID] = arc
	s.Context.Arcs = arcs
	s.Error = nil
	return s
}

func reduceActivateBranch(s NarrativeState, a Action, now time.Time) NarrativeState {
	branch, ok := s.Context.Branches[a.BranchID]
	if !ok {
		s.Error = NewError(ErrBranchNotFound,
			"narrative branch does not exist",
			map[string]any{"branchId": a.BranchID}, now)
		return s
	}

	branches := cloneBranchMap(s.Context.Branches)
	branch.IsActive = true
	branches[branch.ID] = branch
	s.Context.Branches = branches
	s.Context.CurrentBranchID = branch.ID
	s.Error = nil
	return s
}

func reduceCompleteBranch(s NarrativeState, a Action, now time.Time) NarrativeState {
	branch, ok := s.Context.Branches[a.BranchID]
	if !ok {
		s.Error = NewError(ErrBranchNotFound,
			"narrative branch does not exist",
			map[string]any{"branchId": a.BranchID}, now)
		return s
	}

	branches := cloneBranchMap(s.Context.Branches)
	// A branch is never active and completed at once.
	branch.IsActive = false
	branch.IsCompleted = true
	branches[branch.ID] = branch
	s.Context.Branches = branches
	s.Error = nil
	return s
}

// reduceUpdateContext shallow-merges a partial update. Nil fields are left
// untouched; map fields merge by key so story seeds can arrive in slices.
func reduceUpdateContext(s NarrativeState, a Action) NarrativeState {
	u := a.Context
	if u == nil {
		return s
	}

	if u.Tone != nil {
		s.Context.Tone = *u.Tone
	}
	if u.WorldContext != nil {
		s.Context.WorldContext = *u.WorldContext
	}
	if u.CharacterFocus != nil {
		s.Context.CharacterFocus = cloneStringSlice(u.CharacterFocus)
	}
	if u.Themes != nil {
		s.Context.Themes = cloneStringSlice(u.Themes)
	}
	if u.ImportantEvents != nil {
		s.Context.ImportantEvents = cloneStringSlice(u.ImportantEvents)
	}
	if len(u.StoryPoints) > 0 {
		points := clonePointMap(s.Context.StoryPoints)
		for id, p := range u.StoryPoints {
			points[id] = p
		}
		s.Context.StoryPoints = points
	}
	if len(u.Arcs) > 0 {
		arcs := cloneArcMap(s.Context.Arcs)
		for id, arc := range u.Arcs {
			arcs[id] = arc
		}
		s.Context.Arcs = arcs
	}
	if len(u.Branches) > 0 {
		branches := cloneBranchMap(s.Context.Branches)
		for id, b := range u.Branches {
			branches[id] = b
		}
		s.Context.Branches = branches
	}

	s.Error = nil
	return s
}
