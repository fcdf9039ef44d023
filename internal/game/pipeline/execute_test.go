package pipeline_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/pipeline"
)

func TestProcessCriticalDoublesDamageDice(t *testing.T) {
	comp := testCompendium(t)
	// Initiative 20 and 5, then a natural 20 doubles the d8: the dice show
	// 8 and 6 and the +3 modifier is added once.
	roller := scriptedRoller(18, 3, 19, 7, 5)
	pc, foe := hero(), orc()
	mgr := newEncounter(t, comp, roller, pc, foe)
	p := newPipeline(t, comp, roller)

	res := p.Process(context.Background(), "Ataco al orco con mi espada larga", sceneFor(t, mgr), mgr)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	require.Len(t, res.Events, 4, "attack, damage, down and combat end")

	attack := res.Events[0]
	assert.Equal(t, true, attack.Data["es_critico"])
	assert.Equal(t, map[string]any{
		"dados": []int{20}, "modificador": 5, "total": 25, "tipo": "normal",
	}, attack.Data["tirada"])

	damage := res.Events[1]
	assert.Equal(t, 17, damage.Data["daño_total"])
	assert.Equal(t, map[string]any{
		"expresion": "1d8", "dados": []int{8, 6}, "modificador": 3, "es_critico": true,
	}, damage.Data["tirada"], "the static modifier is not doubled")

	down := res.Events[2]
	assert.Equal(t, combat.EventCombatantDown, down.Type)
	assert.Equal(t, map[string]any{
		"nombre": "Orco", "muerto": true, "inconsciente": false,
	}, down.Data)

	ended := res.Events[3]
	assert.Equal(t, combat.EventCombatEnded, ended.Type)
	assert.Equal(t, map[string]any{"estado": "victoria"}, ended.Data)

	assert.Equal(t, 0, foe.HP)
	assert.True(t, foe.Dead)
	assert.Equal(t, combat.StateVictory, mgr.State())
	assert.Equal(t, "¡Es el turno de Thorin! ¡Golpe crítico con Espada larga! Causa 17 de daño. ¡Orco cae muerto! ¡Victoria!", res.Narration)
}

func TestProcessDodgeImposesDisadvantage(t *testing.T) {
	comp := testCompendium(t)
	// Initiative 20 and 6, then the goblin attacks with disadvantage: the
	// d20s show 17 and 10, the 10 is kept and 14 misses AC 16.
	roller := scriptedRoller(18, 3, 16, 9)
	pc := hero()
	mgr := combat.NewManager(comp, nil, roller, nil)
	require.NoError(t, mgr.Add(pc))
	_, err := mgr.AddFromCompendium("goblin", "goblin_1", "", combat.SideEnemy)
	require.NoError(t, err)
	require.NoError(t, mgr.Begin())
	p := newPipeline(t, comp, roller)

	res := p.Process(context.Background(), "Me pongo a esquivar", sceneFor(t, mgr), mgr)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	require.Len(t, res.Events, 2)
	assert.Equal(t, combat.EventGeneric, res.Events[0].Type)
	assert.Equal(t, "dodge", res.Events[0].Data["accion_id"])
	assert.Equal(t, combat.EventConditionApplied, res.Events[1].Type)
	assert.Equal(t, map[string]any{
		"condicion": "esquivando", "duracion_rondas": 1,
	}, res.Events[1].Data)
	assert.Equal(t, &combat.StateDelta{ActionUsed: true, TempCondition: "esquivando"}, res.Delta)
	assert.True(t, pc.Conditions.Has("esquivando"))

	info, ok := mgr.EndTurn()
	require.True(t, ok)
	require.Equal(t, "goblin_1", info.ID)

	res = p.ProcessMonsterTurn(context.Background(), mgr)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	require.Len(t, res.Events, 1, "a miss rolls no damage")
	attack := res.Events[0]
	assert.Equal(t, false, attack.Data["impacta"])
	assert.Equal(t, map[string]any{
		"dados": []int{10}, "modificador": 4, "total": 14, "tipo": "disadvantage",
	}, attack.Data["tirada"], "disadvantage keeps the lower die")
	assert.Equal(t, 12, pc.HP, "the dodge turned the hit into a miss")
	assert.Equal(t, "¡Es el turno de Goblin! Ataca con Cimitarra pero falla.", res.Narration)

	// The condition lapses when the dodger's next turn starts.
	_, ok = mgr.EndTurn()
	require.True(t, ok)
	assert.False(t, pc.Conditions.Has("esquivando"))
}

func TestProcessDashExtendsMovement(t *testing.T) {
	comp := testCompendium(t)
	roller := scriptedRoller(18, 3) // initiative only
	pc, foe := hero(), orc()
	mgr := newEncounter(t, comp, roller, pc, foe)
	p := newPipeline(t, comp, roller)

	res := p.Process(context.Background(), "Corro todo lo que puedo", sceneFor(t, mgr), mgr)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "dash", res.Events[0].Data["accion_id"])
	assert.Equal(t, &combat.StateDelta{ActionUsed: true, MovementBonus: 25}, res.Delta,
		"dash grants the movement still unspent")
	assert.Equal(t, 50, pc.MovementRemaining())
	assert.Contains(t, res.Narration, "Corre a toda velocidad.")

	res = p.Process(context.Background(), "Me muevo 40 pies", sceneFor(t, mgr), mgr)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	assert.Equal(t, 10, pc.MovementRemaining(), "40 of the doubled 50 feet are spent")
}

func TestProcessPotionHealsDrinker(t *testing.T) {
	comp := testCompendium(t)
	roller := scriptedRoller(18, 3, 1, 2) // initiative, then 2d4 showing 2 and 3
	pc, foe := hero(), orc()
	pc.HP = 8
	mgr := newEncounter(t, comp, roller, pc, foe)
	p := newPipeline(t, comp, roller)

	res := p.Process(context.Background(), "Bebo la poción", sceneFor(t, mgr), mgr)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	require.NotNil(t, res.Action)
	assert.Equal(t, action.KindItem, res.Action.Kind)
	assert.Equal(t, "pocion_curacion", res.Action.Item.ItemID, "the only potion in the compendium is assumed")

	require.Len(t, res.Events, 2)
	assert.Equal(t, combat.EventItemUsed, res.Events[0].Type)
	assert.Equal(t, map[string]any{
		"objeto_id": "pocion_curacion", "nombre": "Poción de curación",
	}, res.Events[0].Data)
	assert.Equal(t, combat.EventHealing, res.Events[1].Type)
	assert.Equal(t, map[string]any{
		"objetivo_id": "pc_thorin", "cantidad": 7,
	}, res.Events[1].Data, "2 and 3 on the d4s plus the flat 2")

	assert.Equal(t, &combat.StateDelta{
		ActionUsed: true,
		Healing:    &combat.HealDelta{TargetID: "pc_thorin", Amount: 7},
	}, res.Delta)
	assert.Equal(t, 12, pc.HP, "healing caps at max HP")
	assert.Equal(t, "¡Es el turno de Thorin! Usa Poción de curación. Recupera 7 puntos de golpe.", res.Narration)
}

func TestProcessSpellAttackRollAgainstAC(t *testing.T) {
	comp := testCompendium(t)
	// Initiative 20 and 6, then the cantrip d20 shows 17 and the d8 shows 6.
	roller := scriptedRoller(18, 3, 16, 5)
	pc := hero()
	mgr := combat.NewManager(comp, nil, roller, nil)
	require.NoError(t, mgr.Add(pc))
	gob, err := mgr.AddFromCompendium("goblin", "goblin_1", "", combat.SideEnemy)
	require.NoError(t, err)
	require.NoError(t, mgr.Begin())
	p := newPipeline(t, comp, roller)

	res := p.Process(context.Background(), "Lanzo rayo de escarcha al goblin", sceneFor(t, mgr), mgr)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	require.Len(t, res.Events, 2, "a cantrip spends no slot")

	spell := res.Events[0]
	assert.Equal(t, combat.EventSpell, spell.Type)
	assert.Equal(t, "rayo_escarcha", spell.Data["conjuro_id"])
	assert.Equal(t, 0, spell.Data["nivel"])
	assert.Equal(t, map[string]any{
		"dados": []int{17}, "modificador": 3, "total": 20,
		"impacta": true, "es_critico": false, "es_pifia": false,
	}, spell.Data["tirada_ataque"], "WIS +1 and proficiency +2 make the spell attack +3")

	damage := res.Events[1]
	assert.Equal(t, 6, damage.Data["daño_total"])
	assert.Equal(t, "frio", damage.Data["tipo_daño"])
	assert.Equal(t, map[string]any{
		"tipo": "conjuro", "id": "rayo_escarcha", "nombre": "Rayo de escarcha",
	}, damage.Data["fuente"])

	assert.Equal(t, 1, gob.HP, "the goblin drops from 7 to 1")
	assert.Equal(t, map[int]int{1: 2, 2: 1}, pc.SlotsRemaining, "slots are untouched")
	assert.Nil(t, res.Delta.SlotSpent)
}

func TestProcessSpellSaveNegates(t *testing.T) {
	comp := testCompendium(t)
	// Initiative 20 and 6; the goblin's DEX save shows 10 and with +2 beats
	// DC 11, so the d8 that follows is rolled and discarded.
	roller := scriptedRoller(18, 3, 9, 4)
	pc := hero()
	mgr := combat.NewManager(comp, nil, roller, nil)
	require.NoError(t, mgr.Add(pc))
	gob, err := mgr.AddFromCompendium("goblin", "goblin_1", "", combat.SideEnemy)
	require.NoError(t, err)
	require.NoError(t, mgr.Begin())
	p := newPipeline(t, comp, roller)

	res := p.Process(context.Background(), "Lanzo llama sagrada al goblin", sceneFor(t, mgr), mgr)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	require.Len(t, res.Events, 1, "a clean save takes no damage at all")
	spell := res.Events[0]
	assert.Equal(t, combat.EventSpell, spell.Type)
	assert.Equal(t, map[string]any{
		"atributo": "destreza", "cd": 11, "tirada": 12, "exito": true,
	}, spell.Data["salvacion"])

	assert.Equal(t, 7, gob.HP)
	require.NotNil(t, res.Delta)
	assert.True(t, res.Delta.ActionUsed, "the casting still consumes the action")
	assert.Nil(t, res.Delta.Damage)
}

func TestProcessSpellUpcastAddsDice(t *testing.T) {
	comp := testCompendium(t)
	// Initiative 20 and 6; the goblin's save shows 5 and fails against DC
	// 11, then burning hands at level 2 rolls 4d6 showing 3, 4, 2 and 5.
	roller := scriptedRoller(18, 3, 4, 2, 3, 1, 4)
	pc := hero()
	mgr := combat.NewManager(comp, nil, roller, nil)
	require.NoError(t, mgr.Add(pc))
	gob, err := mgr.AddFromCompendium("goblin", "goblin_1", "", combat.SideEnemy)
	require.NoError(t, err)
	require.NoError(t, mgr.Begin())
	p := newPipeline(t, comp, roller)

	res := p.Process(context.Background(), "Lanzo manos ardientes al goblin con ranura de nivel 2", sceneFor(t, mgr), mgr)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	require.Len(t, res.Events, 5, "slot, spell, damage, down and combat end")

	slot := res.Events[0]
	assert.Equal(t, combat.EventSlotSpent, slot.Type)
	assert.Equal(t, map[string]any{"nivel": 2}, slot.Data)

	spell := res.Events[1]
	assert.Equal(t, "manos_ardientes", spell.Data["conjuro_id"])
	assert.Equal(t, 2, spell.Data["nivel"])
	assert.Equal(t, map[string]any{
		"atributo": "destreza", "cd": 11, "tirada": 7, "exito": false,
	}, spell.Data["salvacion"])

	damage := res.Events[2]
	assert.Equal(t, 14, damage.Data["daño_total"])
	assert.Equal(t, map[string]any{
		"expresion": "4d6", "dados": []int{3, 4, 2, 5}, "modificador": 0, "es_critico": false,
	}, damage.Data["tirada"], "one slot level above base adds one d6")

	assert.Equal(t, combat.EventCombatantDown, res.Events[3].Type)
	assert.Equal(t, combat.EventCombatEnded, res.Events[4].Type)

	assert.Equal(t, &combat.StateDelta{
		ActionUsed: true,
		Damage:     &combat.DamageDelta{TargetID: "goblin_1", Amount: 14, Type: "fuego"},
		SlotSpent:  &combat.SlotDelta{Level: 2},
	}, res.Delta)
	assert.Equal(t, map[int]int{1: 2, 2: 0}, pc.SlotsRemaining)
	assert.True(t, gob.Dead)
	assert.Equal(t, combat.StateVictory, mgr.State())
}

type halvingHook struct{}

func (halvingHook) OnDamage(attackerID, targetID string, amount int) int {
	return amount / 2
}

type drainingHook struct{}

func (drainingHook) OnDamage(attackerID, targetID string, amount int) int {
	return -3
}

func TestProcessDamageHookRewritesDamage(t *testing.T) {
	comp := testCompendium(t)
	roller := scriptedRoller(18, 3, 12, 3) // d20 shows 13, d8 shows 4
	pc, foe := hero(), orc()
	mgr := newEncounter(t, comp, roller, pc, foe)
	p := newPipeline(t, comp, roller)
	p.SetDamageHook(halvingHook{})

	res := p.Process(context.Background(), "Ataco al orco con mi espada larga", sceneFor(t, mgr), mgr)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	require.Len(t, res.Events, 2)
	assert.Equal(t, 3, res.Events[1].Data["daño_total"], "the hook halved the rolled 7")
	assert.Equal(t, 3, res.Delta.Damage.Amount)
	assert.Equal(t, 12, foe.HP)
}

func TestProcessDamageHookClampsAtZero(t *testing.T) {
	comp := testCompendium(t)
	roller := scriptedRoller(18, 3, 12, 3)
	pc, foe := hero(), orc()
	mgr := newEncounter(t, comp, roller, pc, foe)
	p := newPipeline(t, comp, roller)
	p.SetDamageHook(drainingHook{})

	res := p.Process(context.Background(), "Ataco al orco con mi espada larga", sceneFor(t, mgr), mgr)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	require.Len(t, res.Events, 2)
	assert.Equal(t, 0, res.Events[1].Data["daño_total"], "a negative hook result clamps to zero")
	assert.Equal(t, 15, foe.HP, "zero damage leaves the target untouched")
	assert.False(t, foe.Dead)
}

func TestProcessAttackOutsideCombat(t *testing.T) {
	comp := testCompendium(t)
	roller := scriptedRoller(10, 3) // d20 shows 11 against the default AC 10, d8 shows 4
	p := newPipeline(t, comp, roller)
	scene := &action.SceneContext{
		ActorID: "pc_thorin", ActorName: "Thorin",
		PrimaryWeapon:    "espada_larga",
		AvailableWeapons: []action.SceneWeapon{{ID: "espada_larga", Name: "Espada larga"}},
		LivingEnemies:    []action.Participant{{InstanceID: "orco_1", Name: "Orco", CompendiumRef: "orco"}},
	}

	res := p.Process(context.Background(), "Ataco al orco", scene, nil)

	require.Equal(t, pipeline.OutcomeApplied, res.Outcome)
	require.NotNil(t, res.Action)
	assert.Contains(t, res.Action.Warnings, "Arma inferida: Espada larga")
	require.Len(t, res.Events, 2)
	assert.Equal(t, true, res.Events[0].Data["impacta"])
	assert.Equal(t, 4, res.Events[1].Data["daño_total"], "no sheet means no damage modifier")
	require.NotNil(t, res.Delta, "the delta is reported even with no manager to commit it")
	assert.True(t, res.Delta.ActionUsed)
}
