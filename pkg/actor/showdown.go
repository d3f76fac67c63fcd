package actor

import (
	"fmt"
	"math/rand"
)

// ShotResult is one exchange of fire in a showdown.
type ShotResult struct {
	Attacker string `json:"attacker"`
	Roll     int    `json:"roll"`
	Modifier int    `json:"modifier"`
	Hit      bool   `json:"hit"`
	Damage   int    `json:"damage"`
}

// ShowdownResult is the outcome of a resolved showdown.
type ShowdownResult struct {
	Winner     string       `json:"winner"`
	Loser      string       `json:"loser"`
	Exchanges  []ShotResult `json:"exchanges"`
	LoserAlive bool         `json:"loser_alive"` // true when the loser yields before dropping
}

// Showdown resolves a duel between two characters. The faster draw shoots
// first each exchange; fire alternates until one side runs out of HP. The
// random source is injected so resolutions replay deterministically.
func Showdown(a, b *Gunslinger, rng *rand.Rand) (*ShowdownResult, error) {
	if a == nil || b == nil || a.Actor == nil || b.Actor == nil {
		return nil, fmt.Errorf("both characters are required for a showdown")
	}
	if rng == nil {
		return nil, fmt.Errorf("random source is required")
	}

	first, second := a, b
	if b.QuicknessMod() > a.QuicknessMod() {
		first, second = b, a
	}

	result := &ShowdownResult{}
	hp := map[string]int{
		first.Spec.ID:  first.Actor.HP(),
		second.Spec.ID: second.Actor.HP(),
	}

	// Guard against two combatants who cannot hit each other.
	const maxExchanges = 20

	for range maxExchanges {
		for _, pair := range [][2]*Gunslinger{{first, second}, {second, first}} {
			attacker, defender := pair[0], pair[1]
			if hp[attacker.Spec.ID] <= 0 {
				continue
			}

			shot := ShotResult{
				Attacker: attacker.Spec.ID,
				Roll:     rng.Intn(20) + 1,
				Modifier: attacker.QuicknessMod(),
			}
			if shot.Roll+shot.Modifier >= defender.Actor.AC() {
				shot.Hit = true
				shot.Damage = rng.Intn(6) + 1 + abilityModOf(attacker, "grit")
				if shot.Damage < 1 {
					shot.Damage = 1
				}
				hp[defender.Spec.ID] -= shot.Damage
			}
			result.Exchanges = append(result.Exchanges, shot)

			if hp[defender.Spec.ID] <= 0 {
				result.Winner = attacker.Spec.ID
				result.Loser = defender.Spec.ID
				return result, nil
			}
		}
	}

	// Nobody dropped; the side worse off yields.
	if hp[first.Spec.ID] >= hp[second.Spec.ID] {
		result.Winner, result.Loser = first.Spec.ID, second.Spec.ID
	} else {
		result.Winner, result.Loser = second.Spec.ID, first.Spec.ID
	}
	result.LoserAlive = true
	return result, nil
}

func abilityModOf(g *Gunslinger, key string) int {
	if v, ok := g.Actor.Attribute(key); ok {
		return abilityMod(v)
	}
	return 0
}
