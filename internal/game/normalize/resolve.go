package normalize

import (
	"strings"

	"github.com/icruces/mazmorra/internal/game/action"
)

// resolveAmbiguities fills gaps the text left open using the scene: a lone
// living enemy becomes the target, the equipped weapon becomes the attack
// weapon. Every inference is announced as a warning so the player sees what
// was assumed. Multiple candidates are never guessed between.
func (n *Normalizer) resolveAmbiguities(a *action.CanonicalAction, scene *action.SceneContext) {
	if missingContains(a, action.FieldTarget) {
		switch len(scene.LivingEnemies) {
		case 0:
		case 1:
			enemy := scene.LivingEnemies[0]
			setTarget(a, enemy.InstanceID)
			a.ClearMissing(action.FieldTarget)
			a.Warn("Objetivo inferido: " + displayName(enemy))
			a.Raise(0.1, 1.0)
		default:
			a.Warn("Múltiples objetivos: " + strings.Join(enemyNames(scene.LivingEnemies), ", "))
		}
	}

	if a.Kind == action.KindAttack && missingContains(a, action.FieldWeapon) {
		weaponID := scene.PrimaryWeapon
		if weaponID == "" {
			weaponID = scene.SecondaryWeapon
		}
		if weaponID != "" {
			a.Attack.WeaponID = weaponID
			a.ClearMissing(action.FieldWeapon)
			a.Warn("Arma inferida: " + n.weaponName(weaponID, scene))
			a.Raise(0.1, 1.0)
		}
	}
}

// canonicalize applies final defaults and computes whether clarification is
// required. It runs after the fallback so LLM-filled spells still get their
// base casting level.
func (n *Normalizer) canonicalize(a *action.CanonicalAction) {
	switch a.Kind {
	case action.KindAttack:
		if a.Attack.Subtype == "" {
			a.Attack.Subtype = action.SubtypeMelee
		}
		if a.Attack.Mode == "" {
			a.Attack.Mode = action.ModeNormal
		}
	case action.KindSpell:
		if a.Spell.SpellID != "" && a.Spell.CastingLevel == 0 {
			if sp, ok := n.comp.Spell(a.Spell.SpellID); ok {
				a.Spell.CastingLevel = sp.Level
			}
		}
	}
	a.NeedsClarification = len(a.MissingCritical()) > 0
}

func missingContains(a *action.CanonicalAction, field string) bool {
	for _, f := range a.MissingFields {
		if f == field {
			return true
		}
	}
	return false
}

// setTarget writes the resolved target into whichever payload carries one.
func setTarget(a *action.CanonicalAction, instanceID string) {
	switch a.Kind {
	case action.KindAttack:
		a.Attack.TargetID = instanceID
	case action.KindSpell:
		a.Spell.TargetID = instanceID
	case action.KindSkill:
		a.Skill.TargetID = instanceID
	}
}

func displayName(p action.Participant) string {
	if p.Name != "" {
		return p.Name
	}
	return "enemigo"
}

func enemyNames(enemies []action.Participant) []string {
	names := make([]string, len(enemies))
	for i, e := range enemies {
		if e.Name != "" {
			names[i] = e.Name
		} else {
			names[i] = "?"
		}
	}
	return names
}
