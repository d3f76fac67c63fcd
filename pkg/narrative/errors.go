package narrative

import "time"

// ErrorCode identifies a class of narrative failure.
type ErrorCode string

const (
	ErrInvalidNavigation ErrorCode = "invalid_navigation"
	ErrInvalidChoice     ErrorCode = "invalid_choice"
	ErrArcNotFound       ErrorCode = "arc_not_found"
	ErrBranchNotFound    ErrorCode = "branch_not_found"
	ErrDecisionNotFound  ErrorCode = "decision_not_found"
	ErrDecisionMismatch  ErrorCode = "decision_mismatch"
	ErrValidationFailed  ErrorCode = "validation_failed"
	ErrStateCorruption   ErrorCode = "state_corruption"
	ErrSystemError       ErrorCode = "system_error"
)

// NarrativeError is a recoverable failure attached to the narrative state.
// It is never raised as a Go error by the reducer; failed actions leave the
// rest of the state untouched and record one of these instead.
type NarrativeError struct {
	Code      ErrorCode      `json:"code"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewError builds a NarrativeError stamped with the given time.
func NewError(code ErrorCode, message string, ctx map[string]any, now time.Time) *NarrativeError {
	return &NarrativeError{
		Code:      code,
		Message:   message,
		Context:   ctx,
		Timestamp: now,
	}
}

// IsUserVisible reports whether an error should be surfaced to the player.
// Internal codes indicate caller bugs or corrupted state and belong in logs,
// not in a toast.
func IsUserVisible(e *NarrativeError) bool {
	if e == nil {
		return false
	}
	switch e.Code {
	case ErrInvalidNavigation, ErrInvalidChoice, ErrArcNotFound,
		ErrBranchNotFound, ErrDecisionNotFound:
		return true
	default:
		return false
	}
}

// userMessages maps each error code to the sentence shown to the player.
var userMessages = map[ErrorCode]string{
	ErrInvalidNavigation: "That part of the story isn't available right now.",
	ErrInvalidChoice:     "That choice isn't on the table.",
	ErrArcNotFound:       "That storyline couldn't be found.",
	ErrBranchNotFound:    "That path through the story couldn't be found.",
	ErrDecisionNotFound:  "There's no decision waiting on you.",
	ErrDecisionMismatch:  "That decision has already moved on.",
	ErrValidationFailed:  "Something about that didn't add up.",
	ErrStateCorruption:   "The story got tangled up. Try reloading your game.",
	ErrSystemError:       "Something went wrong behind the scenes.",
}

// FormatForUser returns a human-readable sentence for the error.
func FormatForUser(e *NarrativeError) string {
	if e == nil {
		return ""
	}
	if msg, ok := userMessages[e.Code]; ok {
		return msg
	}
	return "Something unexpected happened."
}
