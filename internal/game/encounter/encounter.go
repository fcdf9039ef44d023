// Package encounter sizes fights against the party with the DMG
// encounter-building tables: XP thresholds per character level, the
// monster-count multiplier ladder, and the small/large party adjustment
// that matters most in solo play.
package encounter

import (
	"fmt"
	"strings"
)

// Difficulty grades an encounter against the party thresholds.
type Difficulty string

const (
	DifficultyTrivial Difficulty = "trivial"
	DifficultyEasy    Difficulty = "fácil"
	DifficultyMedium  Difficulty = "medio"
	DifficultyHard    Difficulty = "difícil"
	DifficultyDeadly  Difficulty = "letal"
	DifficultyMortal  Difficulty = "mortal"
)

// Thresholds is one party's XP budget per difficulty band.
type Thresholds struct {
	Easy   int `json:"facil"`
	Medium int `json:"medio"`
	Hard   int `json:"dificil"`
	Deadly int `json:"letal"`
}

// Per-character XP thresholds by level, DMG page 82.
var xpThresholds = [21]Thresholds{
	1:  {25, 50, 75, 100},
	2:  {50, 100, 150, 200},
	3:  {75, 150, 225, 400},
	4:  {125, 250, 375, 500},
	5:  {250, 500, 750, 1100},
	6:  {300, 600, 900, 1400},
	7:  {350, 750, 1100, 1700},
	8:  {450, 900, 1400, 2100},
	9:  {550, 1100, 1600, 2400},
	10: {600, 1200, 1900, 2800},
	11: {800, 1600, 2400, 3600},
	12: {1000, 2000, 3000, 4500},
	13: {1100, 2200, 3400, 5100},
	14: {1250, 2500, 3800, 5700},
	15: {1400, 2800, 4300, 6400},
	16: {1600, 3200, 4800, 7200},
	17: {2000, 3900, 5900, 8800},
	18: {2100, 4200, 6300, 9500},
	19: {2400, 4900, 7300, 10900},
	20: {2800, 5700, 8500, 12700},
}

// The multiplier ladder the party-size adjustment walks. Indexes 0-5 are
// the base values for 3-5 characters; ×5 exists only for parties of one
// or two facing a horde.
var multiplierLadder = [...]float64{1.0, 1.5, 2.0, 2.5, 3.0, 4.0, 5.0}

func baseMultiplierIndex(monsters int) int {
	switch {
	case monsters <= 1:
		return 0
	case monsters == 2:
		return 1
	case monsters <= 6:
		return 2
	case monsters <= 10:
		return 3
	case monsters <= 14:
		return 4
	default:
		return 5
	}
}

// Multiplier returns the XP multiplier for the given monster count and
// party size. Parties of 1-2 step one rung up the ladder, parties of 6+
// one rung down.
//
// Postcondition: the result is one of 1, 1.5, 2, 2.5, 3, 4 or 5.
func Multiplier(monsters, partySize int) float64 {
	idx := baseMultiplierIndex(monsters)
	if partySize <= 2 {
		idx++
	} else if partySize >= 6 {
		idx--
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(multiplierLadder) {
		idx = len(multiplierLadder) - 1
	}
	return multiplierLadder[idx]
}

// GroupThresholds returns the party's XP thresholds: the per-level DMG
// row times the number of characters.
//
// Postcondition: levels outside 1-20 clamp to the nearest table row.
func GroupThresholds(level, partySize int) Thresholds {
	if level < 1 {
		level = 1
	}
	if level > 20 {
		level = 20
	}
	if partySize < 1 {
		partySize = 1
	}
	row := xpThresholds[level]
	return Thresholds{
		Easy:   row.Easy * partySize,
		Medium: row.Medium * partySize,
		Hard:   row.Hard * partySize,
		Deadly: row.Deadly * partySize,
	}
}

// Classify grades adjusted XP against the thresholds. Below the easy
// threshold is trivial; half again past deadly is mortal.
func Classify(adjustedXP int, th Thresholds) Difficulty {
	switch {
	case adjustedXP < th.Easy:
		return DifficultyTrivial
	case adjustedXP < th.Medium:
		return DifficultyEasy
	case adjustedXP < th.Hard:
		return DifficultyMedium
	case adjustedXP < th.Deadly:
		return DifficultyHard
	case float64(adjustedXP) < float64(th.Deadly)*1.5:
		return DifficultyDeadly
	default:
		return DifficultyMortal
	}
}

// Assessment is the full sizing of one encounter.
type Assessment struct {
	Difficulty   Difficulty `json:"dificultad"`
	BaseXP       int        `json:"xp_base"`
	AdjustedXP   int        `json:"xp_ajustado"`
	Multiplier   float64    `json:"multiplicador"`
	Thresholds   Thresholds `json:"umbrales"`
	MonsterCount int        `json:"num_monstruos"`
	PartySize    int        `json:"num_pjs"`
	PartyLevel   int        `json:"nivel_pj"`
}

// Assess sizes an encounter. monsterXP carries one entry per monster
// with that monster's XP value; an empty slice assesses as trivial with
// zero XP.
func Assess(monsterXP []int, partyLevel, partySize int) Assessment {
	if partySize < 1 {
		partySize = 1
	}
	th := GroupThresholds(partyLevel, partySize)

	base := 0
	for _, xp := range monsterXP {
		base += xp
	}
	mult := Multiplier(len(monsterXP), partySize)
	adjusted := 0
	if len(monsterXP) > 0 {
		adjusted = int(float64(base) * mult)
	}

	return Assessment{
		Difficulty:   Classify(adjusted, th),
		BaseXP:       base,
		AdjustedXP:   adjusted,
		Multiplier:   mult,
		Thresholds:   th,
		MonsterCount: len(monsterXP),
		PartySize:    partySize,
		PartyLevel:   partyLevel,
	}
}

// Describe renders the assessment as one Spanish line for the session
// log.
func (a Assessment) Describe() string {
	return fmt.Sprintf(
		"Encuentro %s: %d XP base × %.1f = %d XP ajustado (umbrales: fácil %d, medio %d, difícil %d, letal %d)",
		strings.ToUpper(string(a.Difficulty)),
		a.BaseXP, a.Multiplier, a.AdjustedXP,
		a.Thresholds.Easy, a.Thresholds.Medium, a.Thresholds.Hard, a.Thresholds.Deadly,
	)
}
