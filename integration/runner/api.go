package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kmarlowe/frontier-engine/internal/handlers"
	"github.com/kmarlowe/frontier-engine/pkg/narrative"
)

const (
	// PollInterval is how often to check the session for impact updates
	PollInterval = 500 * time.Millisecond
	// ImpactTimeout is max time to wait for the impact worker to apply a decision
	ImpactTimeout = 15 * time.Second
)

// CreateSession creates a new session for the given story and returns it
func CreateSession(ctx context.Context, client *http.Client, baseURL, storyID string) (*handlers.SessionResponse, error) {
	reqBody, err := json.Marshal(handlers.CreateSessionRequest{StoryID: storyID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/v1/sessions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("create session returned %d: %s", resp.StatusCode, string(body))
	}

	var created handlers.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode created session: %w", err)
	}
	return &created, nil
}

// GetSession retrieves the current session state
func GetSession(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID) (*handlers.SessionResponse, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", baseURL+"/v1/sessions/"+sessionID.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create GET request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("get session returned %d: %s", resp.StatusCode, string(body))
	}

	var sess handlers.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// PostTurn sends player input and returns the turn response
func PostTurn(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, input string) (*handlers.TurnResponse, error) {
	reqBody, err := json.Marshal(handlers.TurnRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal turn request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/sessions/%s/turn", baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create turn request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send turn request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("turn endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var turn handlers.TurnResponse
	if err := json.NewDecoder(resp.Body).Decode(&turn); err != nil {
		return nil, fmt.Errorf("failed to decode turn response: %w", err)
	}
	return &turn, nil
}

// PostAction dispatches a narrative action and returns the updated session.
// The endpoint returns 200 even when the action is rejected; the rejection
// shows up in the response's error_message.
func PostAction(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID, action narrative.Action) (*handlers.SessionResponse, error) {
	reqBody, err := json.Marshal(action)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal action: %w", err)
	}

	url := fmt.Sprintf("%s/v1/sessions/%s/actions", baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create action request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send action request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("actions endpoint returned %d: %s", resp.StatusCode, string(body))
	}

	var sess handlers.SessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("failed to decode action response: %w", err)
	}
	return &sess, nil
}

// PollForImpacts waits until the most recent decision record has been
// processed by the impact worker, then returns the updated session
func PollForImpacts(ctx context.Context, client *http.Client, baseURL string, sessionID uuid.UUID) (*handlers.SessionResponse, error) {
	deadline := time.Now().Add(ImpactTimeout)
	for {
		sess, err := GetSession(ctx, client, baseURL, sessionID)
		if err != nil {
			return nil, err
		}

		history := sess.State.Context.DecisionHistory
		if len(history) > 0 && history[len(history)-1].ProcessedForImpact {
			return sess, nil
		}

		if time.Now().After(deadline) {
			return nil, fmt.Errorf("timeout waiting for impact worker after %v", ImpactTimeout)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(PollInterval):
		}
	}
}
