// Package actor holds the characters that can end up on either side of a
// showdown: the player's gunslinger and the outlaws the story seeds.
package actor

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/d20"
)

// StatsWestern are the six core ability scores of a frontier character.
type StatsWestern struct {
	Grit      int `json:"grit"`      // toughness and resolve
	Quickness int `json:"quickness"` // draw speed and reflexes
	Nerve     int `json:"nerve"`     // staying calm with iron pointed at you
	Brawn     int `json:"brawn"`
	Cunning   int `json:"cunning"`
	Presence  int `json:"presence"`
}

// ToAttributes converts the stats to a map for d20.Actor compatibility.
func (s *StatsWestern) ToAttributes() map[string]int {
	return map[string]int{
		"grit":      s.Grit,
		"quickness": s.Quickness,
		"nerve":     s.Nerve,
		"brawn":     s.Brawn,
		"cunning":   s.Cunning,
		"presence":  s.Presence,
	}
}

// GunslingerSpec is the serializable specification for a character.
type GunslingerSpec struct {
	ID              string         `json:"id"`
	Name            string         `json:"name,omitempty"`
	Occupation      string         `json:"occupation,omitempty"` // e.g. "drifter", "bounty hunter", "rancher"
	Pronouns        string         `json:"pronouns,omitempty"`
	Description     string         `json:"description,omitempty"`
	Background      string         `json:"background,omitempty"`
	Stats           StatsWestern   `json:"stats,omitempty"`
	HP              int            `json:"hp,omitempty"`
	MaxHP           int            `json:"max_hp,omitempty"`
	AC              int            `json:"ac,omitempty"`
	CombatModifiers map[string]int `json:"combat_modifiers,omitempty"`
	Attributes      map[string]int `json:"attributes,omitempty"` // trades, reputations, and the like
	Inventory       []string       `json:"inventory,omitempty"`
}

// Gunslinger is the runtime representation of a character.
type Gunslinger struct {
	Spec  *GunslingerSpec
	Actor *d20.Actor // built at runtime from the spec
}

// NewGunslingerFromSpec builds a Gunslinger and its d20 actor.
func NewGunslingerFromSpec(spec *GunslingerSpec) (*Gunslinger, error) {
	if spec == nil {
		return nil, fmt.Errorf("spec cannot be nil")
	}

	allAttrs := spec.Stats.ToAttributes()
	maps.Copy(allAttrs, spec.Attributes)

	actor, err := d20.NewActor(spec.ID).
		WithHP(spec.MaxHP).
		WithAC(spec.AC).
		WithAttributes(allAttrs).
		WithCombatModifiers(spec.CombatModifiers).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	if spec.HP != spec.MaxHP && spec.HP > 0 {
		if err := actor.SetHP(spec.HP); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}

	return &Gunslinger{Spec: spec, Actor: actor}, nil
}

// LoadGunslinger loads a character from a JSON file. The filename (without
// .json extension) overrides any ID in the JSON.
func LoadGunslinger(path string) (*Gunslinger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read character file: %w", err)
	}

	var spec GunslingerSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal character spec: %w", err)
	}
	spec.ID = strings.TrimSuffix(filepath.Base(path), ".json")

	return NewGunslingerFromSpec(&spec)
}

// QuicknessMod returns the attack modifier used when drawing: the
// quickness bonus plus any revolver combat modifier.
func (g *Gunslinger) QuicknessMod() int {
	mod := 0
	if v, ok := g.Actor.Attribute("quickness"); ok {
		mod += abilityMod(v)
	}
	for _, cm := range g.Actor.GetCombatModifiers() {
		if cm.Reason == "revolver" {
			mod += cm.Value
		}
	}
	return mod
}

// abilityMod maps an ability score to its modifier on the usual d20 curve.
func abilityMod(score int) int {
	if score >= 10 {
		return (score - 10) / 2
	}
	// Integer division truncates toward zero; shift so below-average
	// scores round down.
	return (score - 11) / 2
}
