// Package rules implements the pure 5e rule arithmetic: ability modifiers,
// proficiency, save DCs, armor class and carry capacity. Everything here is
// deterministic and free of game state.
package rules

// Ability identifiers. All rule data uses Spanish ids without diacritics.
const (
	Fuerza       = "fuerza"
	Destreza     = "destreza"
	Constitucion = "constitucion"
	Inteligencia = "inteligencia"
	Sabiduria    = "sabiduria"
	Carisma      = "carisma"
)

// Abilities lists the six ability identifiers in canonical order.
var Abilities = []string{Fuerza, Destreza, Constitucion, Inteligencia, Sabiduria, Carisma}

// AbilityModifier converts an ability score to its modifier.
//
// Postcondition: returns floor((score-10)/2), so a score of 7 yields -2,
// not the -1 that truncating division would give.
func AbilityModifier(score int) int {
	d := score - 10
	if d >= 0 {
		return d / 2
	}
	return (d - 1) / 2
}

// ProficiencyBonus returns the proficiency bonus for a character level.
//
// Precondition: level >= 1.
// Postcondition: +2 at levels 1-4 rising by one every four levels, +6 at 17+.
func ProficiencyBonus(level int) int {
	if level < 1 {
		level = 1
	}
	return 2 + (level-1)/4
}

// SpellSaveDC returns the difficulty class of the caster's spells.
func SpellSaveDC(castingMod, profBonus int) int {
	return 8 + castingMod + profBonus
}

// SpellAttackBonus returns the caster's spell attack bonus.
func SpellAttackBonus(castingMod, profBonus int) int {
	return castingMod + profBonus
}

// AttackBonus returns the attack bonus for a weapon attack. Proficiency is
// added only when the attacker is proficient with the weapon.
func AttackBonus(abilityMod int, proficient bool, profBonus int) int {
	if proficient {
		return abilityMod + profBonus
	}
	return abilityMod
}

// SaveBonus returns the saving throw bonus for one ability.
func SaveBonus(abilityMod int, proficient bool, profBonus int) int {
	if proficient {
		return abilityMod + profBonus
	}
	return abilityMod
}

// SkillTotal returns the flat bonus for a skill check. Expertise doubles the
// proficiency bonus and implies proficiency.
func SkillTotal(abilityMod int, proficient, expertise bool, profBonus int) int {
	switch {
	case expertise:
		return abilityMod + 2*profBonus
	case proficient:
		return abilityMod + profBonus
	default:
		return abilityMod
	}
}

// InitiativeBonus returns the initiative modifier.
func InitiativeBonus(dexMod, extra int) int {
	return dexMod + extra
}

// CarryCapacityLb returns the carrying capacity in pounds.
func CarryCapacityLb(strScore int) int {
	return strScore * 15
}
