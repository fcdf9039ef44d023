package character

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/condition"
	"github.com/icruces/mazmorra/internal/game/rules"
)

// defaultSpeedFt applies when the sheet does not record a racial speed.
const defaultSpeedFt = 30

// ArmorSource resolves equipped armor references, typically the compendium.
type ArmorSource interface {
	Armor(id string) (*compendium.Armor, bool)
}

// New mints a character from source facts. Derived numbers are computed and
// current state starts at full strength.
//
// Postcondition: Current.HP equals Derived.HPMax, spell slots are full and
// hit dice equal the level.
func New(src Source, armor ArmorSource, now time.Time) (*Character, error) {
	if err := src.Validate(); err != nil {
		return nil, fmt.Errorf("new character: %w", err)
	}
	c := &Character{ID: uuid.NewString(), Source: src}
	c.Derived = computeDerived(&c.Source, armor, now)
	c.Current = Current{
		HP:          c.Derived.HPMax,
		Conditions:  []condition.Snapshot{},
		HitDiceLeft: src.Level,
	}
	if src.Spellcasting != nil && len(src.Spellcasting.SlotsMax) > 0 {
		c.Current.SlotsRemaining = make(map[int]int, len(src.Spellcasting.SlotsMax))
		for level, n := range src.Spellcasting.SlotsMax {
			c.Current.SlotsRemaining[level] = n
		}
	}
	return c, nil
}

// Recompute rebuilds Derived from Source and clamps Current to the new
// maxima. Current hit points survive the recomputation, capped at the new
// maximum; nothing is granted, so level-up top-ups are the caller's job.
//
// Postcondition: Derived.RecomputedAt == now.
func (c *Character) Recompute(armor ArmorSource, now time.Time) error {
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("recompute %q: %w", c.Source.Name, err)
	}
	c.Derived = computeDerived(&c.Source, armor, now)
	if c.Current.HP > c.Derived.HPMax {
		c.Current.HP = c.Derived.HPMax
	}
	if c.Current.HitDiceLeft > c.Source.Level {
		c.Current.HitDiceLeft = c.Source.Level
	}
	if c.Source.Spellcasting != nil {
		for level, remaining := range c.Current.SlotsRemaining {
			if limit := c.Source.Spellcasting.SlotsMax[level]; remaining > limit {
				c.Current.SlotsRemaining[level] = limit
			}
		}
	}
	return nil
}

// computeDerived is the pure half of Recompute: equal Source always yields
// equal Derived (timestamp aside).
func computeDerived(src *Source, armor ArmorSource, now time.Time) Derived {
	finals := make(map[string]int, len(rules.Abilities))
	mods := make(map[string]int, len(rules.Abilities))
	for _, ability := range rules.Abilities {
		score := src.Abilities[ability]
		finals[ability] = score
		mods[ability] = rules.AbilityModifier(score)
	}

	prof := rules.ProficiencyBonus(src.Level)
	conMod := mods[rules.Constitucion]

	hpMax := rules.HPAtLevelOne(src.Class) + conMod
	if src.Level > 1 {
		hpMax += (rules.HPPerLevel(src.Class) + conMod) * (src.Level - 1)
	}
	if src.HasTrait(TraitDwarvenToughness, "") {
		hpMax += src.Level
	}
	if hpMax < 1 {
		hpMax = 1
	}

	profile := rules.Unarmored
	armored := src.Equipment.ArmorRef != ""
	if armored {
		if entry, ok := resolveArmor(armor, src.Equipment.ArmorRef); ok {
			profile = entry.Profile()
		}
	}
	ac := rules.ArmorClass(profile, mods[rules.Destreza], src.Equipment.ShieldRef != "")
	// The defense fighting style keys on wearing armor, not on the armor
	// entry resolving.
	if armored && src.HasTrait(TraitFightingStyle, StyleDefense) {
		ac++
	}

	saves := make(map[string]int, len(rules.Abilities))
	saveProfs := abilitySet(src.Proficiencies.Saves)
	for _, ability := range rules.Abilities {
		saves[ability] = rules.SaveBonus(mods[ability], saveProfs[ability], prof)
	}

	skillProfs := skillSet(src.Proficiencies.Skills)
	expertise := skillSet(src.Proficiencies.Expertise)
	skills := make(map[string]int, len(rules.Skills))
	for skill, ability := range rules.Skills {
		skills[skill] = rules.SkillTotal(mods[ability], skillProfs[skill], expertise[skill], prof)
	}

	speed := src.SpeedFt
	if speed == 0 {
		speed = defaultSpeedFt
	}

	var spellDC, spellAttack int
	if src.Spellcasting != nil {
		castMod := mods[src.Spellcasting.Ability]
		spellDC = rules.SpellSaveDC(castMod, prof)
		spellAttack = rules.SpellAttackBonus(castMod, prof)
	}

	return Derived{
		Abilities:        finals,
		Modifiers:        mods,
		ProfBonus:        prof,
		HPMax:            hpMax,
		HitDie:           fmt.Sprintf("d%d", rules.ClassHitDie(src.Class)),
		AC:               ac,
		SpeedFt:          speed,
		InitiativeMod:    rules.InitiativeBonus(mods[rules.Destreza], 0),
		Saves:            saves,
		Skills:           skills,
		SpellSaveDC:      spellDC,
		SpellAttackBonus: spellAttack,
		CarryCapacityLb:  rules.CarryCapacityLb(finals[rules.Fuerza]),
		RecomputedAt:     now,
	}
}

// resolveArmor looks the ref up as-is and, failing that, retries without a
// trailing numeric suffix so instance-style refs like "cota_mallas_2" still
// resolve.
func resolveArmor(armor ArmorSource, ref string) (*compendium.Armor, bool) {
	if armor == nil {
		return nil, false
	}
	if entry, ok := armor.Armor(ref); ok {
		return entry, true
	}
	for i := len(ref) - 1; i > 0; i-- {
		if ref[i] == '_' {
			if i == len(ref)-1 {
				break
			}
			return armor.Armor(ref[:i])
		}
		if ref[i] < '0' || ref[i] > '9' {
			break
		}
	}
	return nil, false
}

func abilitySet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[rules.Slug(id)] = true
	}
	return set
}

// skillSet canonicalizes skill ids so sheets written without diacritics
// still count as proficient.
func skillSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		if canonical, ok := rules.CanonicalSkill(id); ok {
			set[canonical] = true
		}
	}
	return set
}
