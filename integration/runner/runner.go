package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kmarlowe/frontier-engine/internal/handlers"
	"github.com/kmarlowe/frontier-engine/pkg/narrative"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running frontier-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	StoryOverride     string // If set, overrides the story for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		ErrorHandlingMode: ErrorHandlingContinue,
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	// If this is not a sequence, return it as-is
	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	// This is a sequence - load all referenced cases
	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	storyID := suite.Story
	if r.StoryOverride != "" {
		storyID = r.StoryOverride
	}

	sess, err := CreateSession(ctx, r.Client, r.BaseURL, storyID)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = sess.ID

	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult := r.runStep(ctx, sess.ID, step)
		result.Results = append(result.Results, stepResult)

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// runStep executes a single test step and checks expectations
func (r *Runner) runStep(ctx context.Context, sessionID uuid.UUID, step TestStep) TestResult {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}

	var (
		postState *handlers.SessionResponse
		response  string
		err       error
	)

	switch {
	case step.UserPrompt == ResetNarrativePrompt:
		postState, err = PostAction(ctx, r.Client, r.BaseURL, sessionID, narrative.ResetNarrative())
		result.IsReset = true
		response = "[NARRATIVE RESET]"

	case step.Action != nil:
		action := narrative.Action{
			Type:     narrative.ActionType(step.Action.Type),
			PointID:  step.Action.PointID,
			ChoiceID: step.Action.ChoiceID,
		}
		postState, err = PostAction(ctx, r.Client, r.BaseURL, sessionID, action)

	case step.RecordOption != "":
		postState, response, err = r.recordDecision(ctx, sessionID, step.RecordOption)

	default:
		var turn *handlers.TurnResponse
		turn, err = PostTurn(ctx, r.Client, r.BaseURL, sessionID, step.UserPrompt)
		if err == nil {
			postState = &turn.Session
			response = turn.Narrative
		}
	}

	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}
	result.ResponseText = response

	// Impact expectations need the worker to have run
	if len(step.Expectations.Reputations) > 0 || len(step.Expectations.Relationships) > 0 {
		postState, err = PollForImpacts(ctx, r.Client, r.BaseURL, sessionID)
		if err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result
		}
	}

	if err := r.checkExpectations(step.Expectations, postState, response); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result
}

// recordDecision records the named option of the session's pending decision.
// Decision IDs are generated server-side, so the step names only the option.
func (r *Runner) recordDecision(ctx context.Context, sessionID uuid.UUID, optionID string) (*handlers.SessionResponse, string, error) {
	sess, err := GetSession(ctx, r.Client, r.BaseURL, sessionID)
	if err != nil {
		return nil, "", err
	}
	if sess.State.CurrentDecision == nil {
		return nil, "", fmt.Errorf("no pending decision to record option %q against", optionID)
	}

	d := sess.State.CurrentDecision
	opt, ok := d.Option(optionID)
	if !ok {
		return nil, "", fmt.Errorf("pending decision %s has no option %q", d.ID, optionID)
	}

	postState, err := PostAction(ctx, r.Client, r.BaseURL, sessionID, narrative.RecordDecision(d.ID, opt.ID, opt.Text))
	if err != nil {
		return nil, "", err
	}
	return postState, opt.Text, nil
}

// checkExpectations validates the test expectations against the session state
func (r *Runner) checkExpectations(exp Expectations, sess *handlers.SessionResponse, responseText string) error {
	state := sess.State

	if exp.CurrentPoint != nil {
		current := ""
		if state.CurrentStoryPoint != nil {
			current = state.CurrentStoryPoint.ID
		}
		if current != *exp.CurrentPoint {
			return fmt.Errorf("expected current point %s, got %s", *exp.CurrentPoint, current)
		}
	}

	for _, want := range exp.VisitedContains {
		found := false
		for _, p := range state.VisitedPoints {
			if p == want {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("expected visited points to contain %s, got %v", want, state.VisitedPoints)
		}
	}

	if exp.SelectedChoice != nil && state.SelectedChoice != *exp.SelectedChoice {
		return fmt.Errorf("expected selected choice %s, got %s", *exp.SelectedChoice, state.SelectedChoice)
	}

	if exp.DecisionPending != nil {
		pending := state.CurrentDecision != nil
		if pending != *exp.DecisionPending {
			return fmt.Errorf("expected decision pending %v, got %v", *exp.DecisionPending, pending)
		}
	}

	if exp.DecisionCount != nil {
		if got := len(state.Context.DecisionHistory); got != *exp.DecisionCount {
			return fmt.Errorf("expected %d decision records, got %d", *exp.DecisionCount, got)
		}
	}

	if exp.ErrorMessage != nil {
		if *exp.ErrorMessage == "" {
			if sess.ErrorMessage != "" {
				return fmt.Errorf("expected no error, got %q", sess.ErrorMessage)
			}
		} else if !strings.Contains(sess.ErrorMessage, *exp.ErrorMessage) {
			return fmt.Errorf("expected error containing %q, got %q", *exp.ErrorMessage, sess.ErrorMessage)
		}
	}

	impacts := state.Context.ImpactState
	for target, want := range exp.Reputations {
		if impacts == nil {
			return fmt.Errorf("expected reputation %s=%v, impact state is empty", target, want)
		}
		if got := impacts.Reputations[target]; math.Abs(got-want) > 1e-9 {
			return fmt.Errorf("expected reputation %s=%v, got %v", target, want, got)
		}
	}
	for target, want := range exp.Relationships {
		if impacts == nil {
			return fmt.Errorf("expected relationship %s=%v, impact state is empty", target, want)
		}
		if got := impacts.Relationships[target]; math.Abs(got-want) > 1e-9 {
			return fmt.Errorf("expected relationship %s=%v, got %v", target, want, got)
		}
	}

	for _, substr := range exp.ResponseContains {
		if !strings.Contains(strings.ToLower(responseText), strings.ToLower(substr)) {
			return fmt.Errorf("expected response to contain %q, got: %s", substr, truncate(responseText, 200))
		}
	}
	for _, substr := range exp.ResponseNotContains {
		if strings.Contains(strings.ToLower(responseText), strings.ToLower(substr)) {
			return fmt.Errorf("expected response to not contain %q, got: %s", substr, truncate(responseText, 200))
		}
	}
	if exp.ResponseMinLength != nil && len(responseText) < *exp.ResponseMinLength {
		return fmt.Errorf("expected response of at least %d chars, got %d", *exp.ResponseMinLength, len(responseText))
	}

	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
