package actor

import (
	"fmt"

	"github.com/jwebster45206/d20"
)

const (
	DefaultMaxHP = 100
	DefaultAC    = 10
)

// Vitals is the runtime health record of the player, backed by a d20.Actor.
// The serialized form lives on state.Player; Vitals is rebuilt from it
// whenever a session is created or restored.
type Vitals struct {
	Actor *d20.Actor
}

// NewVitals builds a d20.Actor with the given maximum and current HP.
// Current HP outside [0, maxHP] is clamped.
func NewVitals(id string, maxHP, hp int) (*Vitals, error) {
	if id == "" {
		id = "player"
	}
	if maxHP <= 0 {
		maxHP = DefaultMaxHP
	}

	a, err := d20.NewActor(id).
		WithHP(maxHP).
		WithAC(DefaultAC).
		WithAttributes(map[string]int{}).
		WithCombatModifiers(map[string]int{}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	v := &Vitals{Actor: a}
	hp = v.clamp(hp)
	if hp != maxHP {
		if err := a.SetHP(hp); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	return v, nil
}

// HP returns current hit points.
func (v *Vitals) HP() int {
	return v.Actor.HP()
}

// MaxHP returns maximum hit points.
func (v *Vitals) MaxHP() int {
	return v.Actor.MaxHP()
}

// Adjust applies a signed delta to current HP, clamped to [0, MaxHP],
// and returns the resulting HP.
func (v *Vitals) Adjust(delta int) (int, error) {
	next := v.clamp(v.Actor.HP() + delta)
	if next == v.Actor.HP() {
		return next, nil
	}
	if err := v.Actor.SetHP(next); err != nil {
		return v.Actor.HP(), fmt.Errorf("failed to set HP: %w", err)
	}
	return v.Actor.HP(), nil
}

// IsDown reports whether the player has no hit points left.
func (v *Vitals) IsDown() bool {
	return v.Actor.HP() <= 0
}

func (v *Vitals) clamp(hp int) int {
	maxHP := v.Actor.MaxHP()
	if hp > maxHP {
		return maxHP
	}
	if hp < 0 {
		return 0
	}
	return hp
}
