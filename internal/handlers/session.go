package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kmarlowe/frontier-engine/internal/services"
	"github.com/kmarlowe/frontier-engine/pkg/narrative"
	"github.com/kmarlowe/frontier-engine/pkg/session"
	"github.com/kmarlowe/frontier-engine/pkg/story"
	"github.com/kmarlowe/frontier-engine/pkg/textfilter"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg}); err != nil {
		logger.Error("Failed to encode error response", "error", err)
	}
}

// ImpactEnqueuer hands recorded decisions off for asynchronous impact
// processing.
type ImpactEnqueuer interface {
	Enqueue(ctx context.Context, sessionID uuid.UUID, decisionID string) error
}

// CreateSessionRequest defines the request body for creating a session
type CreateSessionRequest struct {
	StoryID string `json:"story_id"`
}

// SessionResponse is the wire view of a session. ErrorMessage carries the
// player-facing rendering of the state's error, when it has one.
type SessionResponse struct {
	ID           uuid.UUID                `json:"id"`
	StoryID      string                   `json:"story_id"`
	CreatedAt    time.Time                `json:"created_at"`
	UpdatedAt    time.Time                `json:"updated_at"`
	State        narrative.NarrativeState `json:"state"`
	ErrorMessage string                   `json:"error_message,omitempty"`
}

func sessionResponse(s *session.Session) SessionResponse {
	state := s.Snapshot()
	resp := SessionResponse{
		ID:        s.ID,
		StoryID:   s.StoryID,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
		State:     state,
	}
	if state.Error != nil {
		resp.ErrorMessage = narrative.FormatForUser(state.Error)
	}
	return resp
}

// SessionHandler owns the session lifecycle and dispatch surface.
// Routes:
// POST /v1/sessions                - Create a session from a story
// GET /v1/sessions/{id}            - Read a session by ID
// DELETE /v1/sessions/{id}         - Delete a session by ID
// POST /v1/sessions/{id}/actions   - Dispatch an action into the session
// POST /v1/sessions/{id}/turn      - Run one narrated turn
type SessionHandler struct {
	stories  map[string]*story.Story
	storage  services.Storage
	narrator services.Narrator
	impacts  ImpactEnqueuer
	logger   *slog.Logger
}

func NewSessionHandler(stories map[string]*story.Story, storage services.Storage, narrator services.Narrator, impacts ImpactEnqueuer, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		stories:  stories,
		storage:  storage,
		narrator: narrator,
		impacts:  impacts,
		logger:   logger,
	}
}

func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/sessions"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Use POST to create a session.")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.Split(path, "/")
	sessionID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid session ID", "id", parts[0], "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid session ID format")
		return
	}

	switch {
	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.handleRead(w, r, sessionID)
		case http.MethodDelete:
			h.handleDelete(w, r, sessionID)
		default:
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET, DELETE")
		}
	case len(parts) == 2 && parts[1] == "actions":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported for actions.")
			return
		}
		h.handleAction(w, r, sessionID)
	case len(parts) == 2 && parts[1] == "turn":
		if r.Method != http.MethodPost {
			writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported for turns.")
			return
		}
		h.handleTurn(w, r, sessionID)
	default:
		writeError(w, h.logger, http.StatusNotFound, "Not found")
	}
}

func (h *SessionHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if req.StoryID == "" {
		writeError(w, h.logger, http.StatusBadRequest, "story_id field is required")
		return
	}

	s, ok := h.stories[req.StoryID]
	if !ok {
		writeError(w, h.logger, http.StatusBadRequest, "Unknown story: "+req.StoryID)
		return
	}

	now := time.Now().UTC()
	sess := session.New(req.StoryID, s.SeedState(now), now)

	if err := h.storage.SaveSession(r.Context(), sess); err != nil {
		h.logger.Error("Failed to save session", "error", err, "session_id", sess.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return
	}

	h.logger.Info("Session created", "session_id", sess.ID.String(), "story_id", req.StoryID)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(sessionResponse(sess)); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionHandler) loadSession(w http.ResponseWriter, r *http.Request, id uuid.UUID) *session.Session {
	sess, err := h.storage.LoadSession(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load session", "error", err, "session_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load session")
		return nil
	}
	if sess == nil {
		writeError(w, h.logger, http.StatusNotFound, "Session not found")
		return nil
	}
	return sess
}

func (h *SessionHandler) handleRead(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	sess := h.loadSession(w, r, id)
	if sess == nil {
		return
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(sessionResponse(sess)); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

func (h *SessionHandler) handleDelete(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	if err := h.storage.DeleteSession(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete session", "error", err, "session_id", id.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) handleAction(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var action narrative.Action
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if action.Type == "" {
		writeError(w, h.logger, http.StatusBadRequest, "type field is required")
		return
	}

	sess := h.loadSession(w, r, id)
	if sess == nil {
		return
	}

	state := sess.Dispatch(action)

	// A successfully recorded decision is handed to the worker for impact
	// processing.
	if action.Type == narrative.ActionRecordDecision && state.Error == nil && h.impacts != nil {
		if err := h.impacts.Enqueue(r.Context(), sess.ID, action.DecisionID); err != nil {
			h.logger.Error("Failed to enqueue impact job",
				"error", err,
				"session_id", sess.ID.String(),
				"decision_id", action.DecisionID)
			// The decision is recorded either way; impacts can be replayed.
		}
	}

	if err := h.storage.SaveSession(r.Context(), sess); err != nil {
		h.logger.Error("Failed to save session", "error", err, "session_id", sess.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(sessionResponse(sess)); err != nil {
		h.logger.Error("Failed to encode session response", "error", err)
	}
}

// TurnRequest defines the request body for a narrated turn
type TurnRequest struct {
	Input string `json:"input,omitempty"`
}

// TurnResponse returns the narration alongside the updated session.
type TurnResponse struct {
	Narrative string                    `json:"narrative"`
	Choices   []narrative.Choice        `json:"choices,omitempty"`
	Decision  *narrative.PlayerDecision `json:"decision,omitempty"`
	Session   SessionResponse           `json:"session"`
}

func (h *SessionHandler) handleTurn(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	var req TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	sess := h.loadSession(w, r, id)
	if sess == nil {
		return
	}

	result, err := h.narrator.Narrate(r.Context(), sess.Snapshot(), req.Input)
	if err != nil {
		h.logger.Error("Narration failed", "error", err, "session_id", sess.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Narration failed")
		return
	}

	// Family-rated stories get the saloon language toned down.
	if s, ok := h.stories[sess.StoryID]; ok && textfilter.ShouldFilter(s.Rating) {
		result.Narrative = textfilter.NewHistoryFilter().FilterLine(result.Narrative)
	}

	sess.Dispatch(narrative.AddNarrativeHistory(result.Narrative))
	if result.Decision != nil {
		sess.Dispatch(narrative.PresentDecision(*result.Decision))
	}

	if err := h.storage.SaveSession(r.Context(), sess); err != nil {
		h.logger.Error("Failed to save session", "error", err, "session_id", sess.ID.String())
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save session")
		return
	}

	resp := TurnResponse{
		Narrative: result.Narrative,
		Choices:   result.Choices,
		Decision:  result.Decision,
		Session:   sessionResponse(sess),
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("Failed to encode turn response", "error", err)
	}
}
