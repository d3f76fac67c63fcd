// Package story holds authored western campaigns: the story points, arcs,
// and branches a narrative session is seeded from. Stories are written as
// JSON files and are immutable at runtime.
package story

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kmarlowe/frontier-engine/pkg/narrative"
)

// Story is the template for one playable campaign.
type Story struct {
	ID           string                               `json:"id"`
	Title        string                               `json:"title"`
	Description  string                               `json:"description,omitempty"`
	Rating       string                               `json:"rating,omitempty"` // e.g. "PG13"; gates history filtering
	Tone         string                               `json:"tone,omitempty"`
	Themes       []string                             `json:"themes,omitempty"`
	WorldContext string                               `json:"world_context,omitempty"`
	OpeningPoint string                               `json:"opening_point"`
	Points       map[string]narrative.StoryPoint      `json:"points"`
	Arcs         map[string]narrative.NarrativeArc    `json:"arcs,omitempty"`
	Branches     map[string]narrative.NarrativeBranch `json:"branches,omitempty"`
}

// Load reads and validates a single story file.
func Load(path string) (*Story, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read story file: %w", err)
	}

	var s Story
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal story %s: %w", path, err)
	}

	// Filename (without .json extension) overrides any ID in the JSON.
	s.ID = strings.TrimSuffix(filepath.Base(path), ".json")

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("story %s is invalid: %w", s.ID, err)
	}
	return &s, nil
}

// LoadDir loads every .json story in a directory, keyed by story ID.
func LoadDir(dir string) (map[string]*Story, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read story directory: %w", err)
	}

	stories := make(map[string]*Story)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		s, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		stories[s.ID] = s
	}
	return stories, nil
}

// Validate checks referential integrity: every choice target, arc branch
// list, and branch start/end point must resolve within the story.
func (s *Story) Validate() error {
	var problems []string

	if s.Title == "" {
		problems = append(problems, "title is required")
	}
	if len(s.Points) == 0 {
		problems = append(problems, "at least one story point is required")
	}
	if s.OpeningPoint == "" {
		problems = append(problems, "opening_point is required")
	} else if _, ok := s.Points[s.OpeningPoint]; !ok {
		problems = append(problems, fmt.Sprintf("opening_point %q does not exist", s.OpeningPoint))
	}

	for id, p := range s.Points {
		if p.ID != "" && p.ID != id {
			problems = append(problems, fmt.Sprintf("point %q has mismatched id %q", id, p.ID))
		}
		for _, c := range p.Choices {
			if c.ID == "" {
				problems = append(problems, fmt.Sprintf("point %q has a choice without an id", id))
			}
			if _, ok := s.Points[c.LeadsTo]; !ok {
				problems = append(problems, fmt.Sprintf("point %q choice %q leads to unknown point %q", id, c.ID, c.LeadsTo))
			}
		}
	}

	for id, arc := range s.Arcs {
		for _, branchID := range arc.Branches {
			if _, ok := s.Branches[branchID]; !ok {
				problems = append(problems, fmt.Sprintf("arc %q references unknown branch %q", id, branchID))
			}
		}
		if arc.StartingBranch != "" {
			if _, ok := s.Branches[arc.StartingBranch]; !ok {
				problems = append(problems, fmt.Sprintf("arc %q starting branch %q does not exist", id, arc.StartingBranch))
			}
		}
	}

	for id, branch := range s.Branches {
		if branch.StartPoint != "" {
			if _, ok := s.Points[branch.StartPoint]; !ok {
				problems = append(problems, fmt.Sprintf("branch %q start point %q does not exist", id, branch.StartPoint))
			}
		}
		for _, end := range branch.EndPoints {
			if _, ok := s.Points[end]; !ok {
				problems = append(problems, fmt.Sprintf("branch %q end point %q does not exist", id, end))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// SeedState builds the initial narrative state for a new session of this
// story: the authored graph is installed in the context and the session is
// navigated to the opening point.
func (s *Story) SeedState(now time.Time) narrative.NarrativeState {
	state := narrative.InitialState(now)

	tone := s.Tone
	update := narrative.ContextUpdate{
		Themes:      s.Themes,
		StoryPoints: s.Points,
		Arcs:        s.Arcs,
		Branches:    s.Branches,
	}
	if tone != "" {
		update.Tone = &tone
	}
	if s.WorldContext != "" {
		wc := s.WorldContext
		update.WorldContext = &wc
	}

	state = narrative.Reduce(state, narrative.UpdateContext(update), now)
	state = narrative.Reduce(state, narrative.NavigateToPoint(s.OpeningPoint), now)
	return state
}
