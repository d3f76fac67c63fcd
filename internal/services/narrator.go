package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kmarlowe/frontier-engine/pkg/actor"
	"github.com/kmarlowe/frontier-engine/pkg/narrative"
)

// NarrationResult is one turn of narration: the text to log, follow-up
// choices to surface, and optionally a structured decision to present.
type NarrationResult struct {
	Narrative string                    `json:"narrative"`
	Choices   []narrative.Choice        `json:"choices,omitempty"`
	Decision  *narrative.PlayerDecision `json:"decision,omitempty"`
}

// Narrator produces narrative text for a turn. The engine consumes it as
// an opaque collaborator; implementations may call an LLM, follow the
// authored story graph, or replay a script.
type Narrator interface {
	Narrate(ctx context.Context, state narrative.NarrativeState, playerInput string) (*NarrationResult, error)
}

// ScriptedNarrator follows the authored story graph deterministically:
// narration is the current point's content, choices are the point's
// choices, and decision-typed points yield a template decision.
type ScriptedNarrator struct{}

// Ensure ScriptedNarrator implements Narrator
var _ Narrator = (*ScriptedNarrator)(nil)

func NewScriptedNarrator() *ScriptedNarrator {
	return &ScriptedNarrator{}
}

func (n *ScriptedNarrator) Narrate(ctx context.Context, state narrative.NarrativeState, playerInput string) (*NarrationResult, error) {
	point := state.CurrentStoryPoint
	if point == nil {
		return nil, fmt.Errorf("no current story point to narrate")
	}

	result := &NarrationResult{
		Narrative: point.Content,
		Choices:   state.AvailableChoices,
	}

	if playerInput != "" {
		result.Narrative = fmt.Sprintf("%s\n\n%s", playerInput, point.Content)
	}

	// Decision points surface a template decision unless one is already
	// pending.
	if point.Type == narrative.PointDecision && state.CurrentDecision == nil {
		result.Decision = TemplateDecision(point, time.Now())
	}

	// Showdown points resolve a duel and narrate the outcome.
	if point.Type == narrative.PointShowdown {
		duel, err := narrateShowdown(state)
		if err != nil {
			return nil, fmt.Errorf("showdown at %s: %w", point.ID, err)
		}
		result.Narrative = result.Narrative + "\n\n" + duel
	}

	return result, nil
}

// narrateShowdown runs a duel between the player and a local tough and
// renders it as prose. Grit comes from the character focus when the story
// names one.
func narrateShowdown(state narrative.NarrativeState) (string, error) {
	playerName := "the stranger"
	if len(state.Context.CharacterFocus) > 0 {
		playerName = state.Context.CharacterFocus[0]
	}

	player, err := actor.NewGunslingerFromSpec(&actor.GunslingerSpec{
		ID:         "player",
		Name:       playerName,
		Occupation: "drifter",
		Stats:      actor.StatsWestern{Grit: 13, Quickness: 14, Nerve: 12, Brawn: 11, Cunning: 10, Presence: 10},
		HP:         12, MaxHP: 12, AC: 12,
		CombatModifiers: map[string]int{"revolver": 1},
	})
	if err != nil {
		return "", err
	}
	rival, err := actor.NewGunslingerFromSpec(&actor.GunslingerSpec{
		ID:         "rival",
		Name:       "the hired gun",
		Occupation: "gunhand",
		Stats:      actor.StatsWestern{Grit: 12, Quickness: 13, Nerve: 11, Brawn: 12, Cunning: 9, Presence: 8},
		HP:         11, MaxHP: 11, AC: 12,
		CombatModifiers: map[string]int{"revolver": 1},
	})
	if err != nil {
		return "", err
	}

	duel, err := actor.Showdown(player, rival, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hands hover over holsters. %d shots crack across the street.", len(duel.Exchanges))
	winner, loser := player.Spec.Name, rival.Spec.Name
	if duel.Winner == rival.Spec.ID {
		winner, loser = rival.Spec.Name, player.Spec.Name
	}
	if duel.LoserAlive {
		fmt.Fprintf(&b, " When the dust settles, %s throws down their iron and yields to %s.", loser, winner)
	} else {
		fmt.Fprintf(&b, " When the dust settles, %s is face down in the street and %s still standing.", loser, winner)
	}
	return b.String(), nil
}

// TemplateDecision builds a decision from a decision-typed story point.
// Options come from the point's choices when it has them, otherwise a
// stand-or-walk-away default pair.
func TemplateDecision(point *narrative.StoryPoint, now time.Time) *narrative.PlayerDecision {
	d := &narrative.PlayerDecision{
		ID:          uuid.New().String(),
		Prompt:      point.Content,
		Timestamp:   now,
		Context:     point.Title,
		Importance:  narrative.ImportanceModerate,
		AIGenerated: true,
	}

	if len(point.Choices) > 0 {
		for _, c := range point.Choices {
			d.Options = append(d.Options, narrative.DecisionOption{
				ID:   c.ID,
				Text: c.Text,
				Tags: tagsForChoice(c),
			})
		}
		return d
	}

	d.Options = []narrative.DecisionOption{
		{ID: "stand_firm", Text: "Stand your ground", Impact: "Folks will remember you didn't back down.", Tags: []string{"reputation"}},
		{ID: "walk_away", Text: "Walk away", Impact: "Safer, but word gets around.", Tags: []string{"caution"}},
	}
	return d
}

// tagsForChoice derives impact tags from a choice's wording. Crude, but
// it keeps template decisions flowing through the same impact pipeline as
// AI-generated ones.
func tagsForChoice(c narrative.Choice) []string {
	text := strings.ToLower(c.Text)
	var tags []string
	for keyword, tag := range map[string]string{
		"draw":  "violence",
		"shoot": "violence",
		"fight": "violence",
		"stand": "reputation",
		"help":  "loyalty",
		"talk":  "diplomacy",
	} {
		if strings.Contains(text, keyword) {
			tags = append(tags, tag)
		}
	}
	return tags
}
