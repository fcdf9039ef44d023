package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/compendium"
	"github.com/icruces/mazmorra/internal/game/condition"
	"github.com/icruces/mazmorra/internal/game/dice"
	"github.com/icruces/mazmorra/internal/game/pipeline"
	"github.com/icruces/mazmorra/internal/game/rules"
)

type fixedSource struct{ v int }

func (f fixedSource) Intn(n int) int { return f.v % n }

func clarifyCompendium(t *testing.T) *compendium.Compendium {
	t.Helper()
	comp, err := compendium.New(compendium.Content{
		Weapons: []*compendium.Weapon{
			{ID: "espada_larga", Name: "Espada larga", Damage: "1d8", DamageType: "cortante"},
		},
		Spells: []*compendium.Spell{
			{ID: "rayo_escarcha", Name: "Rayo de escarcha", Level: 0, Damage: "1d8", DamageType: "frio"},
		},
		Monsters: []*compendium.Monster{
			{
				ID: "goblin", Name: "Goblin", HP: 7, AC: 15, Speed: 30,
				Abilities: map[string]int{
					rules.Fuerza: 8, rules.Destreza: 14, rules.Constitucion: 10,
					rules.Inteligencia: 10, rules.Sabiduria: 8, rules.Carisma: 8,
				},
				XP: 50,
			},
		},
	})
	require.NoError(t, err)
	return comp
}

func pendingClarification(opts ...pipeline.Option) *pipeline.Result {
	return &pipeline.Result{
		Outcome: pipeline.OutcomeNeedsClarification,
		Options: opts,
	}
}

func TestResolveOptionByNumber(t *testing.T) {
	res := pendingClarification(
		pipeline.Option{ID: "goblin_1", Text: "Goblin 1"},
		pipeline.Option{ID: "goblin_2", Text: "Goblin 2"},
	)

	opt, ok := resolveOption(res, "2")
	require.True(t, ok)
	assert.Equal(t, "goblin_2", opt.ID)

	_, ok = resolveOption(res, "0")
	assert.False(t, ok, "option numbers start at one")
	_, ok = resolveOption(res, "3")
	assert.False(t, ok)
}

func TestResolveOptionByText(t *testing.T) {
	res := pendingClarification(
		pipeline.Option{ID: "goblin_1", Text: "Goblin 1"},
		pipeline.Option{ID: "orco_1", Text: "Orco"},
		pipeline.Option{ID: "percepcion", Text: "Percepción"},
	)

	opt, ok := resolveOption(res, "orco")
	require.True(t, ok)
	assert.Equal(t, "orco_1", opt.ID)

	opt, ok = resolveOption(res, "GOBLIN 1")
	require.True(t, ok, "matching ignores case")
	assert.Equal(t, "goblin_1", opt.ID)

	opt, ok = resolveOption(res, "percepcion")
	require.True(t, ok, "matching ignores accents")
	assert.Equal(t, "percepcion", opt.ID)

	opt, ok = resolveOption(res, "goblin")
	require.True(t, ok, "a bare prefix picks the first match")
	assert.Equal(t, "goblin_1", opt.ID)

	_, ok = resolveOption(res, "dragón")
	assert.False(t, ok, "free text that matches nothing is a new action")
}

func TestResolveOptionEdgeCases(t *testing.T) {
	res := pendingClarification(pipeline.Option{ID: "goblin_1", Text: "Goblin 1"})

	_, ok := resolveOption(res, "")
	assert.False(t, ok)
	_, ok = resolveOption(res, "   ")
	assert.False(t, ok)
	_, ok = resolveOption(res, "¡¿!?")
	assert.False(t, ok, "pure punctuation never matches")
	_, ok = resolveOption(pendingClarification(), "1")
	assert.False(t, ok, "no options means nothing to resolve")
}

func TestReplyTextTarget(t *testing.T) {
	s := &Session{comp: clarifyCompendium(t)}
	opt := pipeline.Option{ID: "goblin_1", Text: "Goblin 1", Data: map[string]any{"tipo": "objetivo"}}

	res := pendingClarification(opt)
	assert.Equal(t, "Ataco a Goblin 1", s.replyText(res, opt), "a bare attack defaults to attacking the pick")

	res.Action = &action.CanonicalAction{
		Kind:   action.KindAttack,
		Attack: &action.Attack{WeaponID: "espada_larga"},
	}
	assert.Equal(t, "Ataco a Goblin 1 con Espada larga", s.replyText(res, opt))

	res.Action = &action.CanonicalAction{
		Kind:   action.KindAttack,
		Attack: &action.Attack{WeaponID: action.UnarmedWeaponID},
	}
	assert.Equal(t, "Ataco a Goblin 1", s.replyText(res, opt), "unarmed keeps the short form")

	res.Action = &action.CanonicalAction{
		Kind:  action.KindSpell,
		Spell: &action.Spell{SpellID: "rayo_escarcha"},
	}
	assert.Equal(t, "Lanzo Rayo de escarcha a Goblin 1", s.replyText(res, opt))
}

func TestReplyTextWeaponAndSpell(t *testing.T) {
	comp := clarifyCompendium(t)
	s := &Session{comp: comp}

	weapon := pipeline.Option{ID: "espada_larga", Text: "Espada larga", Data: map[string]any{"tipo": "arma"}}
	assert.Equal(t, "Ataco con Espada larga", s.replyText(pendingClarification(weapon), weapon),
		"without a known target the sentence stays open")

	spell := pipeline.Option{ID: "rayo_escarcha", Text: "Rayo de escarcha", Data: map[string]any{"tipo": "conjuro"}}
	assert.Equal(t, "Lanzo Rayo de escarcha", s.replyText(pendingClarification(spell), spell))

	// With a live encounter the half-parsed target folds back in.
	mgr := combat.NewManager(comp, condition.BuiltinRegistry(), dice.NewRoller(fixedSource{v: 3}, zap.NewNop()), zap.NewNop())
	_, err := mgr.AddFromCompendium("goblin", "goblin_1", "Goblin 1", combat.SideEnemy)
	require.NoError(t, err)
	s.mgr = mgr

	res := pendingClarification(weapon)
	res.Action = &action.CanonicalAction{
		Kind:   action.KindAttack,
		Attack: &action.Attack{TargetID: "goblin_1"},
	}
	assert.Equal(t, "Ataco a Goblin 1 con Espada larga", s.replyText(res, weapon))

	res = pendingClarification(spell)
	res.Action = &action.CanonicalAction{
		Kind:  action.KindSpell,
		Spell: &action.Spell{TargetID: "goblin_1"},
	}
	assert.Equal(t, "Lanzo Rayo de escarcha a Goblin 1", s.replyText(res, spell))
}

func TestReplyTextSkillDistanceAndIntent(t *testing.T) {
	s := &Session{comp: clarifyCompendium(t)}

	skill := pipeline.Option{ID: "percepcion", Text: "Percepción", Data: map[string]any{"tipo": "habilidad"}}
	assert.Equal(t, "Uso Percepción", s.replyText(pendingClarification(skill), skill))

	dist := pipeline.Option{ID: "15", Text: "15 pies", Data: map[string]any{"tipo": "distancia", "valor": 15}}
	assert.Equal(t, "Me muevo 15 pies", s.replyText(pendingClarification(dist), dist))

	intent := pipeline.Option{ID: "atacar", Text: "Atacar a un enemigo"}
	assert.Equal(t, "Atacar a un enemigo", s.replyText(pendingClarification(intent), intent),
		"intent options replay their text as the action")
}

func TestTargetNameUnknown(t *testing.T) {
	s := &Session{comp: clarifyCompendium(t)}

	assert.Empty(t, s.targetName(nil))
	assert.Empty(t, s.targetName(&action.CanonicalAction{Kind: action.KindAttack, Attack: &action.Attack{TargetID: "goblin_1"}}),
		"out of combat there is nobody to name")
}
