package runner

import (
	"time"

	"github.com/google/uuid"
)

// Special user prompt values that trigger non-turn actions
const (
	ResetNarrativePrompt = "RESET_NARRATIVE"
)

// TestSuite defines a complete integration test scenario
// Can either be a regular test with Steps, or a suite that references other Cases
type TestSuite struct {
	Name  string     `json:"name"`
	Story string     `json:"story,omitempty"` // Used for regular tests
	Steps []TestStep `json:"steps,omitempty"` // Used for regular tests
	Cases []string   `json:"cases,omitempty"` // Used for suite tests (list of case files)
}

// IsSequence returns true if this is a suite that sequences other cases
func (ts *TestSuite) IsSequence() bool {
	return len(ts.Cases) > 0
}

// TestStep defines a single test interaction and its expected outcomes.
// Exactly one of UserPrompt, Action, or RecordOption drives the step:
//   - UserPrompt posts a turn (use "RESET_NARRATIVE" to reset the session)
//   - Action dispatches a raw narrative action
//   - RecordOption records the named option of the pending decision
type TestStep struct {
	Name         string       `json:"name,omitempty"`
	UserPrompt   string       `json:"user_prompt,omitempty"`
	Action       *ActionStep  `json:"action,omitempty"`
	RecordOption string       `json:"record_option,omitempty"`
	Expectations Expectations `json:"expect"`
}

// ActionStep is a narrative action expressed as JSON. It is posted to the
// session's actions endpoint as-is.
type ActionStep struct {
	Type     string `json:"type"`
	PointID  string `json:"point_id,omitempty"`
	ChoiceID string `json:"choice_id,omitempty"`
}

// Expectations defines what to check after a test step executes
type Expectations struct {
	// Narrative state properties - aligned with pkg/narrative/state.go
	CurrentPoint    *string  `json:"current_point,omitempty"`    // Current story point ID
	VisitedContains []string `json:"visited_contains,omitempty"` // Points that must appear in visited_points
	SelectedChoice  *string  `json:"selected_choice,omitempty"`  // Marked choice ID
	DecisionPending *bool    `json:"decision_pending,omitempty"` // Whether a decision is awaiting the player
	DecisionCount   *int     `json:"decision_count,omitempty"`   // Length of the decision history
	ErrorMessage    *string  `json:"error_message,omitempty"`    // Player-facing error text ("" asserts none)

	// Impact checks poll until the worker has applied the recorded decision
	Reputations   map[string]float64 `json:"reputations,omitempty"`
	Relationships map[string]float64 `json:"relationships,omitempty"`

	// Response Analysis
	ResponseContains    []string `json:"response_contains,omitempty"`
	ResponseNotContains []string `json:"response_not_contains,omitempty"`
	ResponseMinLength   *int     `json:"response_min_length,omitempty"`
}

// TestResult contains the outcome of running a test step
type TestResult struct {
	TestName     string
	StepName     string
	Success      bool
	Error        error
	Duration     time.Duration
	ResponseText string
	IsReset      bool // True if this was a RESET_NARRATIVE step (should not count toward pass/fail metrics)
}

// TestJob represents a test suite to be executed
type TestJob struct {
	Name     string
	Suite    TestSuite
	CaseFile string
}

// TestRunResult contains the results of running an entire test suite
type TestRunResult struct {
	Job      TestJob
	Results  []TestResult
	Error    error
	Duration time.Duration
	Session  uuid.UUID // ID of the session used for this test
}
