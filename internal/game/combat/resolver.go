package combat

import (
	"fmt"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/dice"
	"github.com/icruces/mazmorra/internal/game/rules"
)

const (
	unarmedName       = "Ataque desarmado"
	defaultDamageExpr = "1d4"
	defaultDamageType = "contundente"
)

// AttackOutcome classifies one attack roll against an armor class.
type AttackOutcome struct {
	Hits     bool
	Critical bool
	Fumble   bool
	Reason   string
}

// ResolveOutcome applies the d20 attack rules: a natural 1 always misses,
// a natural 20 always hits, anything else compares the total against AC.
func ResolveOutcome(roll dice.RollResult, targetAC int) AttackOutcome {
	switch {
	case roll.Fumble:
		return AttackOutcome{Fumble: true, Reason: "Pifia (1 natural)"}
	case roll.Critical:
		return AttackOutcome{Hits: true, Critical: true, Reason: "Crítico (20 natural)"}
	}
	total := roll.Total()
	return AttackOutcome{
		Hits:   total >= targetAC,
		Reason: fmt.Sprintf("Total %d vs CA %d", total, targetAC),
	}
}

// AttackResult is the full audit trail of one resolved attack: the roll,
// the verdict, and the damage when it hits.
type AttackResult struct {
	WeaponID    string          `json:"arma_id,omitempty"`
	WeaponName  string          `json:"arma_nombre"`
	AttackRoll  dice.RollResult `json:"tirada_ataque"`
	AttackBonus int             `json:"bonificador_ataque"`
	AttackTotal int             `json:"total_ataque"`
	Mode        dice.Mode       `json:"modo"`
	Critical    bool            `json:"es_critico"`
	Fumble      bool            `json:"es_pifia"`
	Hits        bool            `json:"impacta"`
	Reason      string          `json:"razon"`

	DamageExpr  string           `json:"expresion_daño,omitempty"`
	DamageRoll  *dice.RollResult `json:"tirada_daño,omitempty"`
	DamageBonus int              `json:"modificador_daño,omitempty"`
	DamageTotal int              `json:"daño_total"`
	DamageType  string           `json:"tipo_daño,omitempty"`
}

// ResolveWeaponAttack rolls a weapon (or unarmed) attack against an armor
// class and, on a hit, its damage. Critical hits double the damage dice
// and never the modifier; unarmed strikes deal a flat 1 plus the damage
// modifier.
//
// Precondition: roller is not nil. An empty or "unarmed" weaponID means
// an unarmed strike; any other ID must exist in the compendium.
func ResolveWeaponAttack(roller *dice.Roller, comp *compendium.Compendium, weaponID string, attackBonus, damageMod, targetAC int, mode dice.Mode) (AttackResult, error) {
	roll := roller.RollAttack(attackBonus, mode)
	outcome := ResolveOutcome(roll, targetAC)

	result := AttackResult{
		AttackRoll:  roll,
		AttackBonus: attackBonus,
		AttackTotal: roll.Total(),
		Mode:        mode,
		Critical:    outcome.Critical,
		Fumble:      outcome.Fumble,
		Hits:        outcome.Hits,
		Reason:      outcome.Reason,
	}

	unarmed := weaponID == "" || weaponID == action.UnarmedWeaponID
	if unarmed {
		result.WeaponID = action.UnarmedWeaponID
		result.WeaponName = unarmedName
		result.DamageType = defaultDamageType
		if result.Hits {
			result.DamageExpr = "1"
			result.DamageBonus = damageMod
			result.DamageTotal = 1 + damageMod
			if result.DamageTotal < 0 {
				result.DamageTotal = 0
			}
		}
		return result, nil
	}

	weapon, ok := comp.Weapon(weaponID)
	if !ok {
		return AttackResult{}, fmt.Errorf("weapon %q not found in compendium", weaponID)
	}
	result.WeaponID = weapon.ID
	result.WeaponName = weapon.Name
	result.DamageType = weapon.DamageType
	if !result.Hits {
		return result, nil
	}

	damage, err := roller.RollDamage(weapon.Damage, result.Critical)
	if err != nil {
		return AttackResult{}, fmt.Errorf("rolling damage for weapon %q: %w", weaponID, err)
	}
	result.DamageExpr = weapon.Damage
	result.DamageRoll = &damage
	result.DamageBonus = damageMod
	result.DamageTotal = damage.Total() + damageMod
	if result.DamageTotal < 0 {
		result.DamageTotal = 0
	}
	return result, nil
}

// ResolveMonsterAttack rolls one stat block action against an armor
// class. Monster damage expressions already embed their modifier, so no
// separate damage bonus applies.
func ResolveMonsterAttack(roller *dice.Roller, monsterAction compendium.MonsterAction, targetAC int, mode dice.Mode) (AttackResult, error) {
	roll := roller.RollAttack(monsterAction.AttackBonus, mode)
	outcome := ResolveOutcome(roll, targetAC)

	result := AttackResult{
		WeaponName:  monsterAction.Name,
		AttackRoll:  roll,
		AttackBonus: monsterAction.AttackBonus,
		AttackTotal: roll.Total(),
		Mode:        mode,
		Critical:    outcome.Critical,
		Fumble:      outcome.Fumble,
		Hits:        outcome.Hits,
		Reason:      outcome.Reason,
		DamageType:  monsterAction.DamageType,
	}
	if result.DamageType == "" {
		result.DamageType = defaultDamageType
	}
	if !result.Hits {
		return result, nil
	}

	expr := monsterAction.Damage
	if expr == "" {
		expr = defaultDamageExpr
	}
	damage, err := roller.RollDamage(expr, result.Critical)
	if err != nil {
		return AttackResult{}, fmt.Errorf("rolling damage for action %q: %w", monsterAction.Name, err)
	}
	result.DamageExpr = expr
	result.DamageRoll = &damage
	result.DamageTotal = damage.Total()
	if result.DamageTotal < 0 {
		result.DamageTotal = 0
	}
	return result, nil
}

// ChooseMonsterAction picks the stat block action a monster uses by
// default: the first melee attack, falling back to the first ranged one
// when the block has nothing else.
func ChooseMonsterAction(actions []compendium.MonsterAction) (compendium.MonsterAction, bool) {
	if len(actions) == 0 {
		return compendium.MonsterAction{}, false
	}
	for _, a := range actions {
		if !a.IsRanged() {
			return a, true
		}
	}
	return actions[0], true
}

// MonsterActionByRef finds the stat block action whose slugified name
// matches ref, so a normalized weapon id like "arco_corto" selects the
// action named "Arco corto".
func MonsterActionByRef(actions []compendium.MonsterAction, ref string) (compendium.MonsterAction, bool) {
	want := rules.Slug(ref)
	for _, a := range actions {
		if a.Name == ref || rules.Slug(a.Name) == want {
			return a, true
		}
	}
	return compendium.MonsterAction{}, false
}
