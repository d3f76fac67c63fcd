package narrative

// StoryPointType classifies a unit of narrative content.
type StoryPointType string

const (
	PointExposition StoryPointType = "exposition"
	PointDecision   StoryPointType = "decision"
	PointAction     StoryPointType = "action"
	PointShowdown   StoryPointType = "showdown"
	PointResolution StoryPointType = "resolution"
)

// Choice is a player-selectable option attached to a story point.
type Choice struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	LeadsTo string `json:"leads_to"` // story point ID
}

// StoryPoint is an atomic unit of narrative content. Points are immutable
// once authored and are looked up by ID only.
type StoryPoint struct {
	ID      string         `json:"id"`
	Type    StoryPointType `json:"type"`
	Title   string         `json:"title"`
	Content string         `json:"content"`
	Choices []Choice       `json:"choices,omitempty"`
}

// NarrativeArc is a named grouping of branches representing a multi-step
// storyline. Activation and completion are one-way transitions.
type NarrativeArc struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description,omitempty"`
	Branches       []string `json:"branches,omitempty"`
	StartingBranch string   `json:"starting_branch,omitempty"`
	IsActive       bool     `json:"is_active"`
	IsCompleted    bool     `json:"is_completed"`
}

// NarrativeBranch is a sub-path within an arc, bounded by a start point and
// one or more end points. A branch is never active and completed at once;
// completion always clears active.
type NarrativeBranch struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	StartPoint  string   `json:"start_point,omitempty"`
	EndPoints   []string `json:"end_points,omitempty"`
	IsActive    bool     `json:"is_active"`
	IsCompleted bool     `json:"is_completed"`
}

// ValidateStoryPoint reports whether a story point ID exists in the map.
// Pure predicate, shared by the reducer and tests.
func ValidateStoryPoint(id string, points map[string]StoryPoint) bool {
	if id == "" {
		return false
	}
	_, ok := points[id]
	return ok
}

// ValidateChoice reports whether a choice ID is among the available choices.
func ValidateChoice(id string, available []Choice) bool {
	if id == "" {
		return false
	}
	for _, c := range available {
		if c.ID == id {
			return true
		}
	}
	return false
}
