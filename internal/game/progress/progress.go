// Package progress tracks experience and level advancement with the
// PHB tables: cumulative XP per level, awards after encounters, and
// the hit point and proficiency gains of a level up.
package progress

import (
	"fmt"

	"github.com/icruces/mazmorra/internal/game/rules"
)

// MaxLevel is the character level cap.
const MaxLevel = 20

// Cumulative XP required to reach each level, PHB page 15.
var xpTable = [MaxLevel + 1]int{
	1:  0,
	2:  300,
	3:  900,
	4:  2700,
	5:  6500,
	6:  14000,
	7:  23000,
	8:  34000,
	9:  48000,
	10: 64000,
	11: 85000,
	12: 100000,
	13: 120000,
	14: 140000,
	15: 165000,
	16: 195000,
	17: 225000,
	18: 265000,
	19: 305000,
	20: 355000,
}

// LevelForXP returns the level earned by the given total XP.
//
// Postcondition: the result is between 1 and MaxLevel.
func LevelForXP(xp int) int {
	level := 1
	for l := 2; l <= MaxLevel; l++ {
		if xp < xpTable[l] {
			break
		}
		level = l
	}
	return level
}

// XPForLevel returns the cumulative XP that unlocks the given level.
// Levels outside 1-20 clamp to the nearest entry.
func XPForLevel(level int) int {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return xpTable[level]
}

// XPToNext returns the cumulative XP that unlocks the level after the
// given one, or zero at the cap.
func XPToNext(level int) int {
	if level >= MaxLevel {
		return 0
	}
	return XPForLevel(level + 1)
}

// Award reports an XP grant and whether it unlocked a level.
type Award struct {
	XPBefore     int  `json:"xp_anterior"`
	XPAfter      int  `json:"xp_nueva"`
	XPGained     int  `json:"xp_ganada"`
	CanLevelUp   bool `json:"puede_subir_nivel"`
	CurrentLevel int  `json:"nivel_actual"`
	EarnedLevel  int  `json:"nivel_posible"`
}

// GrantXP adds gained XP to the running total. It only reports;
// applying the earned level is a separate, player-confirmed step.
func GrantXP(currentXP, currentLevel, gained int) Award {
	after := currentXP + gained
	earned := LevelForXP(after)
	return Award{
		XPBefore:     currentXP,
		XPAfter:      after,
		XPGained:     gained,
		CanLevelUp:   earned > currentLevel,
		CurrentLevel: currentLevel,
		EarnedLevel:  earned,
	}
}

// LevelUp reports the gains of an advancement.
type LevelUp struct {
	LevelBefore int `json:"nivel_anterior"`
	LevelAfter  int `json:"nivel_nuevo"`
	HPGained    int `json:"hp_ganados"`
	Proficiency int `json:"bonificador_competencia"`
}

// Advance computes the gains of raising a character of the given class
// from one level to another. Each level grants the average hit die for
// the class plus the Constitution modifier, with a floor of one point.
// Targets past the cap clamp to it; a target at or below the current
// level is an error.
func Advance(class string, conMod, from, to int) (LevelUp, error) {
	if to > MaxLevel {
		to = MaxLevel
	}
	if to <= from {
		return LevelUp{}, fmt.Errorf("target level %d must be above current level %d", to, from)
	}

	perLevel := rules.HPPerLevel(class) + conMod
	if perLevel < 1 {
		perLevel = 1
	}
	return LevelUp{
		LevelBefore: from,
		LevelAfter:  to,
		HPGained:    perLevel * (to - from),
		Proficiency: rules.ProficiencyBonus(to),
	}, nil
}

// Report is a snapshot of progress toward the next level.
type Report struct {
	XP        int `json:"xp_actual"`
	Level     int `json:"nivel_actual"`
	XPForNext int `json:"xp_para_siguiente"`
	XPMissing int `json:"xp_faltante"`
	Percent   int `json:"porcentaje"`
}

// Track snapshots how far the given XP total has progressed through
// the current level. At the cap the percentage pins at 100.
func Track(xp, level int) Report {
	if level < 1 {
		level = 1
	}
	if level >= MaxLevel {
		return Report{XP: xp, Level: MaxLevel, Percent: 100}
	}

	floor := XPForLevel(level)
	next := XPToNext(level)
	missing := next - xp
	if missing < 0 {
		missing = 0
	}

	span := next - floor
	pct := 100
	if span > 0 {
		pct = (xp - floor) * 100 / span
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}

	return Report{
		XP:        xp,
		Level:     level,
		XPForNext: next,
		XPMissing: missing,
		Percent:   pct,
	}
}
