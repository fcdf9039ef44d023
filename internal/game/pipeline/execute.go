package pipeline

import (
	"fmt"
	"strings"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/dice"
	"github.com/icruces/mazmorra/internal/game/rules"
	"github.com/icruces/mazmorra/internal/game/validate"
)

// execution is what resolving one action produced: the events that
// describe it and the delta that commits it.
type execution struct {
	events []combat.Event
	delta  combat.StateDelta
}

// execute resolves a validated action. Errors here are invariant
// violations (the validator already said yes), never player mistakes.
func (p *Pipeline) execute(a *action.CanonicalAction, v validate.Validation, scene *action.SceneContext, mgr *combat.Manager) (execution, error) {
	switch a.Kind {
	case action.KindAttack:
		return p.executeAttack(a, scene, mgr)
	case action.KindSpell:
		return p.executeSpell(a, scene, mgr)
	case action.KindMove:
		return p.executeMove(a, scene), nil
	case action.KindSkill:
		return p.executeSkill(a, v, scene, mgr), nil
	case action.KindGeneric:
		return p.executeGeneric(a, scene, mgr), nil
	case action.KindItem:
		return p.executeItem(a, scene)
	}
	return execution{}, fmt.Errorf("executing unhandled action kind %q", a.Kind)
}

// executeAttack resolves a weapon or stat block attack. Combatants with
// stat block actions use those; everyone else attacks with the declared
// weapon, unarmed when none.
func (p *Pipeline) executeAttack(a *action.CanonicalAction, scene *action.SceneContext, mgr *combat.Manager) (execution, error) {
	attack := a.Attack
	var actor, target *combat.Combatant
	if mgr != nil {
		actor, _ = mgr.Combatant(scene.ActorID)
		target, _ = mgr.Combatant(attack.TargetID)
	}
	targetAC := 10
	if target != nil {
		targetAC = target.AC
	}
	mode := attackMode(declaredMode(attack.Mode), actor, target)

	if actor != nil && len(actor.Actions) > 0 {
		chosen, ok := combat.MonsterActionByRef(actor.Actions, attack.WeaponID)
		if !ok {
			chosen, _ = combat.ChooseMonsterAction(actor.Actions)
		}
		res, err := combat.ResolveMonsterAttack(p.roller, chosen, targetAC, mode)
		if err != nil {
			return execution{}, fmt.Errorf("resolving attack %q: %w", chosen.Name, err)
		}
		source := map[string]any{"tipo": "accion_monstruo", "id": nil, "nombre": res.WeaponName}
		return p.attackExecution(scene.ActorID, attack.TargetID, res, nil, source), nil
	}

	var weapon *compendium.Weapon
	if attack.WeaponID != "" && attack.WeaponID != action.UnarmedWeaponID {
		weapon, _ = p.comp.Weapon(attack.WeaponID)
	}
	abilityMod := attackAbilityMod(actor, weapon)
	proficiency := 0
	if actor != nil {
		proficiency = actor.Proficiency
	}
	bonus := rules.AttackBonus(abilityMod, true, proficiency)

	res, err := combat.ResolveWeaponAttack(p.roller, p.comp, attack.WeaponID, bonus, abilityMod, targetAC, mode)
	if err != nil {
		return execution{}, fmt.Errorf("resolving attack: %w", err)
	}
	sourceType := "arma"
	if res.WeaponID == action.UnarmedWeaponID {
		sourceType = "desarmado"
	}
	source := map[string]any{"tipo": sourceType, "id": res.WeaponID, "nombre": res.WeaponName}
	return p.attackExecution(scene.ActorID, attack.TargetID, res, res.WeaponID, source), nil
}

// attackExecution turns a resolved attack into events and a delta,
// running the damage hook on hits.
func (p *Pipeline) attackExecution(actorID, targetID string, res combat.AttackResult, weaponRef any, source map[string]any) execution {
	total := res.DamageTotal
	if res.Hits && total > 0 && p.hook != nil {
		total = p.hook.OnDamage(actorID, targetID, total)
		if total < 0 {
			total = 0
		}
	}

	exec := execution{delta: combat.StateDelta{ActionUsed: true}}
	exec.events = append(exec.events, combat.Event{
		Type:    combat.EventAttack,
		ActorID: actorID,
		Data: map[string]any{
			"objetivo_id": targetID,
			"arma_id":     weaponRef,
			"arma_nombre": res.WeaponName,
			"tirada": map[string]any{
				"dados":       res.AttackRoll.Dice,
				"modificador": res.AttackBonus,
				"total":       res.AttackTotal,
				"tipo":        string(res.Mode),
			},
			"es_critico": res.Critical,
			"es_pifia":   res.Fumble,
			"impacta":    res.Hits,
		},
	})
	if res.Hits {
		exec.events = append(exec.events, combat.Event{
			Type:    combat.EventDamage,
			ActorID: actorID,
			Data: map[string]any{
				"objetivo_id": targetID,
				"tirada": map[string]any{
					"expresion":   res.DamageExpr,
					"dados":       keptDice(res.DamageRoll),
					"modificador": res.DamageBonus,
					"es_critico":  res.Critical,
				},
				"daño_total": total,
				"tipo_daño":  res.DamageType,
				"fuente":     source,
			},
		})
		exec.delta.Damage = &combat.DamageDelta{TargetID: targetID, Amount: total, Type: res.DamageType}
	}
	return exec
}

// executeSpell spends the slot, resolves the spell's attack roll or
// saving throw against the target when one is in reach, and rolls damage
// or healing from the spell record.
func (p *Pipeline) executeSpell(a *action.CanonicalAction, scene *action.SceneContext, mgr *combat.Manager) (execution, error) {
	cast := a.Spell
	spell, ok := p.comp.Spell(cast.SpellID)
	if !ok {
		return execution{}, fmt.Errorf("spell %q vanished after validation", cast.SpellID)
	}
	slotLevel := 0
	if !spell.IsCantrip() {
		slotLevel = spell.Level
		if cast.CastingLevel > 0 {
			slotLevel = cast.CastingLevel
		}
	}

	var caster, target *combat.Combatant
	if mgr != nil {
		caster, _ = mgr.Combatant(scene.ActorID)
		target, _ = mgr.Combatant(cast.TargetID)
	}

	exec := execution{delta: combat.StateDelta{ActionUsed: true}}
	if slotLevel > 0 {
		exec.events = append(exec.events, combat.Event{
			Type:    combat.EventSlotSpent,
			ActorID: scene.ActorID,
			Data:    map[string]any{"nivel": slotLevel},
		})
		exec.delta.SlotSpent = &combat.SlotDelta{Level: slotLevel}
	}

	spellData := map[string]any{
		"conjuro_id":  spell.ID,
		"nombre":      spell.Name,
		"nivel":       slotLevel,
		"objetivo_id": cast.TargetID,
	}

	castingMod := bestCastingMod(caster)
	proficiency := 0
	if caster != nil {
		proficiency = caster.Proficiency
	}

	// The effect lands unless an attack roll misses or a save negates it.
	lands := true
	critical := false
	saved := false
	if spell.AttackRoll && target != nil {
		roll := p.roller.RollAttack(rules.SpellAttackBonus(castingMod, proficiency), attackMode(dice.ModeNormal, caster, target))
		outcome := combat.ResolveOutcome(roll, target.AC)
		lands = outcome.Hits
		critical = outcome.Critical
		spellData["tirada_ataque"] = map[string]any{
			"dados":       roll.Dice,
			"modificador": roll.Modifier,
			"total":       roll.Total(),
			"impacta":     outcome.Hits,
			"es_critico":  outcome.Critical,
			"es_pifia":    outcome.Fumble,
		}
	} else if spell.Save != "" && target != nil {
		dc := rules.SpellSaveDC(castingMod, proficiency)
		saveAbility := rules.StripAccents(strings.ToLower(spell.Save))
		roll := p.roller.RollSave(rules.AbilityModifier(target.AbilityScore(saveAbility)), dice.ModeNormal)
		saved = roll.Total() >= dc
		spellData["salvacion"] = map[string]any{
			"atributo": saveAbility,
			"cd":       dc,
			"tirada":   roll.Total(),
			"exito":    saved,
		}
	}
	exec.events = append(exec.events, combat.Event{Type: combat.EventSpell, ActorID: scene.ActorID, Data: spellData})

	if spell.Damage != "" && target != nil && lands {
		roll, err := p.roller.RollDamage(scaledDamage(spell, slotLevel), critical)
		if err != nil {
			return execution{}, fmt.Errorf("rolling damage for spell %q: %w", spell.ID, err)
		}
		total := roll.Total()
		if saved {
			if spell.HalfOnSave {
				total /= 2
			} else {
				total = 0
			}
		}
		if total > 0 && p.hook != nil {
			total = p.hook.OnDamage(scene.ActorID, cast.TargetID, total)
			if total < 0 {
				total = 0
			}
		}
		if total > 0 {
			exec.events = append(exec.events, combat.Event{
				Type:    combat.EventDamage,
				ActorID: scene.ActorID,
				Data: map[string]any{
					"objetivo_id": cast.TargetID,
					"tirada": map[string]any{
						"expresion":   roll.Expression,
						"dados":       roll.Dice,
						"modificador": roll.Modifier,
						"es_critico":  critical,
					},
					"daño_total": total,
					"tipo_daño":  spell.DamageType,
					"fuente":     map[string]any{"tipo": "conjuro", "id": spell.ID, "nombre": spell.Name},
				},
			})
			exec.delta.Damage = &combat.DamageDelta{TargetID: cast.TargetID, Amount: total, Type: spell.DamageType}
		}
	}

	if spell.Healing != "" {
		healTarget := cast.TargetID
		if healTarget == "" {
			healTarget = scene.ActorID
		}
		roll, err := p.roller.Roll(spell.Healing, dice.ModeNormal)
		if err != nil {
			return execution{}, fmt.Errorf("rolling healing for spell %q: %w", spell.ID, err)
		}
		exec.events = append(exec.events, combat.Event{
			Type:    combat.EventHealing,
			ActorID: scene.ActorID,
			Data:    map[string]any{"objetivo_id": healTarget, "cantidad": roll.Total()},
		})
		exec.delta.Healing = &combat.HealDelta{TargetID: healTarget, Amount: roll.Total()}
	}
	return exec, nil
}

// executeMove spends movement. The validator already checked the budget.
func (p *Pipeline) executeMove(a *action.CanonicalAction, scene *action.SceneContext) execution {
	move := a.Move
	return execution{
		events: []combat.Event{{
			Type:    combat.EventMove,
			ActorID: scene.ActorID,
			Data:    map[string]any{"distancia_pies": move.DistanceFeet, "destino": move.Destination},
		}},
		delta: combat.StateDelta{MovementSpent: move.DistanceFeet},
	}
}

// executeSkill rolls the check with the governing ability modifier.
// Combatants carry no skill proficiencies, so the modifier is the raw
// ability one; an empty delta keeps the check repeatable within a turn.
func (p *Pipeline) executeSkill(a *action.CanonicalAction, v validate.Validation, scene *action.SceneContext, mgr *combat.Manager) execution {
	skill := canonicalSkill(a.Skill.Skill, v)
	modifier := 0
	if mgr != nil {
		if actor, ok := mgr.Combatant(scene.ActorID); ok {
			if ability, known := rules.SkillAbility(skill); known {
				modifier = rules.AbilityModifier(actor.AbilityScore(ability))
			}
		}
	}

	roll := p.roller.RollSkill(modifier, dice.ModeNormal)
	return execution{
		events: []combat.Event{{
			Type:    combat.EventSkillCheck,
			ActorID: scene.ActorID,
			Data: map[string]any{
				"habilidad":   skill,
				"tirada_d20":  roll.Dice[0],
				"bonificador": modifier,
				"total":       roll.Total(),
				"objetivo_id": a.Skill.TargetID,
			},
		}},
	}
}

// executeGeneric applies the action economy of dash, dodge and friends.
func (p *Pipeline) executeGeneric(a *action.CanonicalAction, scene *action.SceneContext, mgr *combat.Manager) execution {
	actionID := a.Generic.ActionID
	exec := execution{
		events: []combat.Event{{
			Type:    combat.EventGeneric,
			ActorID: scene.ActorID,
			Data:    map[string]any{"accion_id": actionID},
		}},
		delta: combat.StateDelta{ActionUsed: true},
	}
	switch actionID {
	case "dash":
		remaining := scene.MovementRemaining
		if mgr != nil {
			if actor, ok := mgr.Combatant(scene.ActorID); ok {
				remaining = actor.MovementRemaining()
			}
		}
		exec.delta.MovementBonus = remaining
	case "dodge":
		exec.delta.TempCondition = "esquivando"
	}
	return exec
}

// executeItem uses a compendium item. Healing items roll their
// expression on the user; charges live on the character sheet and are
// consumed by the session layer.
func (p *Pipeline) executeItem(a *action.CanonicalAction, scene *action.SceneContext) (execution, error) {
	item, ok := p.comp.Item(a.Item.ItemID)
	if !ok {
		return execution{}, fmt.Errorf("item %q vanished after validation", a.Item.ItemID)
	}

	exec := execution{delta: combat.StateDelta{ActionUsed: true}}
	exec.events = append(exec.events, combat.Event{
		Type:    combat.EventItemUsed,
		ActorID: scene.ActorID,
		Data:    map[string]any{"objeto_id": item.ID, "nombre": item.Name},
	})
	if item.Healing != "" {
		roll, err := p.roller.Roll(item.Healing, dice.ModeNormal)
		if err != nil {
			return execution{}, fmt.Errorf("rolling healing for item %q: %w", item.ID, err)
		}
		exec.events = append(exec.events, combat.Event{
			Type:    combat.EventHealing,
			ActorID: scene.ActorID,
			Data:    map[string]any{"objetivo_id": scene.ActorID, "cantidad": roll.Total()},
		})
		exec.delta.Healing = &combat.HealDelta{TargetID: scene.ActorID, Amount: roll.Total()}
	}
	return exec, nil
}

// declaredMode maps the normalized roll mode onto the dice package's.
func declaredMode(mode string) dice.Mode {
	switch mode {
	case action.ModeAdvantage:
		return dice.ModeAdvantage
	case action.ModeDisadvantage:
		return dice.ModeDisadvantage
	}
	return dice.ModeNormal
}

// attackMode folds the declared mode with the condition effects on both
// sides. Advantage and disadvantage from any source cancel out.
func attackMode(declared dice.Mode, actor, target *combat.Combatant) dice.Mode {
	advantage := declared == dice.ModeAdvantage
	disadvantage := declared == dice.ModeDisadvantage
	if actor != nil && actor.Conditions != nil && actor.Conditions.AttackDisadvantage() {
		disadvantage = true
	}
	if target != nil && target.Conditions != nil {
		if target.Conditions.IncomingAdvantage() {
			advantage = true
		}
		if target.Conditions.IncomingDisadvantage() {
			disadvantage = true
		}
	}
	switch {
	case advantage == disadvantage:
		return dice.ModeNormal
	case advantage:
		return dice.ModeAdvantage
	default:
		return dice.ModeDisadvantage
	}
}

// attackAbilityMod picks the ability behind a weapon attack: Strength by
// default, Dexterity for ranged weapons, the better of the two for
// finesse ones.
func attackAbilityMod(actor *combat.Combatant, weapon *compendium.Weapon) int {
	if actor == nil {
		return 0
	}
	strength := rules.AbilityModifier(actor.AbilityScore(rules.Fuerza))
	if weapon == nil {
		return strength
	}
	dexterity := rules.AbilityModifier(actor.AbilityScore(rules.Destreza))
	if weapon.IsRanged() {
		return dexterity
	}
	if weapon.HasProperty("sutil") && dexterity > strength {
		return dexterity
	}
	return strength
}

// bestCastingMod returns the caster's best mental ability modifier.
// Combatants do not record their casting class, so the strongest mental
// stat stands in for it.
func bestCastingMod(caster *combat.Combatant) int {
	if caster == nil {
		return 0
	}
	best := rules.AbilityModifier(caster.AbilityScore(rules.Inteligencia))
	for _, ability := range []string{rules.Sabiduria, rules.Carisma} {
		if mod := rules.AbilityModifier(caster.AbilityScore(ability)); mod > best {
			best = mod
		}
	}
	return best
}

// scaledDamage grows a spell's damage expression when cast above its
// base level. Mismatched die sizes fall back to the base expression.
func scaledDamage(spell *compendium.Spell, slotLevel int) string {
	if spell.Scaling == nil || spell.Scaling.DicePerLevel == "" || slotLevel <= spell.Level {
		return spell.Damage
	}
	base, err := dice.Parse(spell.Damage)
	if err != nil {
		return spell.Damage
	}
	per, err := dice.Parse(spell.Scaling.DicePerLevel)
	if err != nil || per.Sides != base.Sides {
		return spell.Damage
	}
	base.Count += (slotLevel - spell.Level) * per.Count
	if base.Count > dice.MaxDiceCount {
		base.Count = dice.MaxDiceCount
	}
	return base.String()
}

// canonicalSkill prefers the validator's canonical id, falling back to
// folding the raw one, then to perception.
func canonicalSkill(raw string, v validate.Validation) string {
	if id, ok := v.Extra["habilidad"].(string); ok && id != "" {
		return id
	}
	if id, ok := rules.CanonicalSkill(raw); ok {
		return id
	}
	return "percepcion"
}

// keptDice returns the kept die values, an empty slice for flat damage.
func keptDice(roll *dice.RollResult) []int {
	if roll == nil {
		return []int{}
	}
	return roll.Dice
}
