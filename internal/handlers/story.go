package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/kmarlowe/frontier-engine/pkg/story"
)

// StorySummary is the list view of a story.
type StorySummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Rating      string `json:"rating,omitempty"`
}

// StoryHandler serves the authored story library.
// Routes:
// GET /v1/stories      - List available stories
// GET /v1/stories/{id} - Read a story by ID
type StoryHandler struct {
	stories map[string]*story.Story
	logger  *slog.Logger
}

func NewStoryHandler(stories map[string]*story.Story, logger *slog.Logger) *StoryHandler {
	return &StoryHandler{
		stories: stories,
		logger:  logger,
	}
}

func (h *StoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for story endpoint", "method", r.Method)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/stories"), "/")
	if id == "" {
		h.handleList(w)
		return
	}
	if strings.Contains(id, "/") || strings.Contains(id, "..") {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid story ID")
		return
	}
	h.handleRead(w, id)
}

func (h *StoryHandler) handleList(w http.ResponseWriter) {
	summaries := make([]StorySummary, 0, len(h.stories))
	for id, s := range h.stories {
		summaries = append(summaries, StorySummary{
			ID:          id,
			Title:       s.Title,
			Description: s.Description,
			Rating:      s.Rating,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(summaries); err != nil {
		h.logger.Error("Failed to encode story list", "error", err)
	}
}

func (h *StoryHandler) handleRead(w http.ResponseWriter, id string) {
	s, ok := h.stories[id]
	if !ok {
		writeError(w, h.logger, http.StatusNotFound, "Story not found")
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(s); err != nil {
		h.logger.Error("Failed to encode story", "error", err, "story_id", id)
	}
}
