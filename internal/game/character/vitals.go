package character

import (
	"errors"
	"fmt"
)

// DamageResult reports how one packet of damage landed.
type DamageResult struct {
	TempAbsorbed int
	HPLost       int
	Downed       bool
}

// TakeDamage applies damage to the character. Temporary hit points absorb
// first and real hit points never drop below zero. Downed is set only on the
// transition to zero; further damage while already down leaves the counters
// untouched.
//
// Postcondition: Current.HP >= 0 and Current.HPTemp >= 0.
func (c *Character) TakeDamage(amount int) DamageResult {
	if amount <= 0 || c.Current.Dead {
		return DamageResult{}
	}
	var res DamageResult
	if c.Current.HPTemp > 0 {
		absorbed := amount
		if absorbed > c.Current.HPTemp {
			absorbed = c.Current.HPTemp
		}
		c.Current.HPTemp -= absorbed
		amount -= absorbed
		res.TempAbsorbed = absorbed
	}
	if amount > 0 && c.Current.HP > 0 {
		lost := amount
		if lost > c.Current.HP {
			lost = c.Current.HP
		}
		c.Current.HP -= lost
		res.HPLost = lost
		if c.Current.HP == 0 {
			res.Downed = true
			c.Current.Unconscious = true
			c.Current.Stable = false
			c.Current.DeathSaves = DeathSaves{}
		}
	}
	return res
}

// Heal restores hit points up to the maximum and returns the amount actually
// restored. Any healing brings a dying character back: unconsciousness,
// stability and accumulated death saves are cleared. The dead stay dead.
func (c *Character) Heal(amount int) int {
	if amount <= 0 || c.Current.Dead {
		return 0
	}
	healed := amount
	if c.Current.HP+healed > c.Derived.HPMax {
		healed = c.Derived.HPMax - c.Current.HP
	}
	c.Current.HP += healed
	if c.Current.HP > 0 {
		c.Current.Unconscious = false
		c.Current.Stable = false
		c.Current.DeathSaves = DeathSaves{}
	}
	return healed
}

// AddTempHP grants temporary hit points. They do not stack: the larger of
// the existing and new pools is kept.
func (c *Character) AddTempHP(amount int) {
	if amount > c.Current.HPTemp {
		c.Current.HPTemp = amount
	}
}

// DeathSaveOutcome reports the effect of one death saving throw.
type DeathSaveOutcome struct {
	Roll      int
	Successes int
	Failures  int
	Regained  bool
	Stable    bool
	Dead      bool
}

// RecordDeathSave applies one death saving throw: a natural 1 counts as two
// failures, 2-9 as one failure, 10-19 as one success, and a natural 20
// restores one hit point on the spot. Three successes stabilize, three
// failures kill.
//
// Precondition: the character is unconscious at zero hit points, neither
// dead nor stable.
func (c *Character) RecordDeathSave(roll int) (DeathSaveOutcome, error) {
	switch {
	case c.Current.Dead:
		return DeathSaveOutcome{}, errors.New("death save rolled for a dead character")
	case c.Current.Stable:
		return DeathSaveOutcome{}, errors.New("death save rolled for a stable character")
	case !c.Current.Unconscious || c.Current.HP > 0:
		return DeathSaveOutcome{}, errors.New("death save rolled for a conscious character")
	case roll < 1 || roll > 20:
		return DeathSaveOutcome{}, fmt.Errorf("death save roll %d out of range 1-20", roll)
	}

	out := DeathSaveOutcome{Roll: roll}
	switch {
	case roll == 20:
		c.Current.HP = 1
		c.Current.Unconscious = false
		c.Current.DeathSaves = DeathSaves{}
		out.Regained = true
	case roll == 1:
		c.Current.DeathSaves.Failures += 2
	case roll < 10:
		c.Current.DeathSaves.Failures++
	default:
		c.Current.DeathSaves.Successes++
	}

	if c.Current.DeathSaves.Failures >= 3 {
		c.Current.DeathSaves.Failures = 3
		c.Current.Dead = true
		out.Dead = true
	} else if c.Current.DeathSaves.Successes >= 3 {
		c.Current.Stable = true
		out.Stable = true
	}
	out.Successes = c.Current.DeathSaves.Successes
	out.Failures = c.Current.DeathSaves.Failures
	return out, nil
}

// ConsumeSlot spends one spell slot of the given level.
func (c *Character) ConsumeSlot(level int) error {
	if c.Current.SlotsRemaining[level] <= 0 {
		return fmt.Errorf("no level %d slots remaining", level)
	}
	c.Current.SlotsRemaining[level]--
	return nil
}

// SlotsLeft returns the remaining spell slots of one level.
func (c *Character) SlotsLeft(level int) int {
	return c.Current.SlotsRemaining[level]
}

// CanAct reports whether the character can take actions: alive, conscious
// and above zero hit points. Blocking conditions are the validator's job,
// since evaluating them needs the condition registry.
func (c *Character) CanAct() bool {
	return !c.Current.Dead && !c.Current.Unconscious && c.Current.HP > 0
}

// LongRest restores the character: hit points to maximum, temporary hit
// points cleared, death state reset, spell slots refilled, and half the
// level in hit dice regained (minimum one). The dead are not revived.
func (c *Character) LongRest() {
	if c.Current.Dead {
		return
	}
	c.Current.HP = c.Derived.HPMax
	c.Current.HPTemp = 0
	c.Current.Unconscious = false
	c.Current.Stable = false
	c.Current.DeathSaves = DeathSaves{}

	if c.Source.Spellcasting != nil && len(c.Source.Spellcasting.SlotsMax) > 0 {
		if c.Current.SlotsRemaining == nil {
			c.Current.SlotsRemaining = make(map[int]int, len(c.Source.Spellcasting.SlotsMax))
		}
		for level, n := range c.Source.Spellcasting.SlotsMax {
			c.Current.SlotsRemaining[level] = n
		}
	}

	regained := c.Source.Level / 2
	if regained < 1 {
		regained = 1
	}
	c.Current.HitDiceLeft += regained
	if c.Current.HitDiceLeft > c.Source.Level {
		c.Current.HitDiceLeft = c.Source.Level
	}
}
