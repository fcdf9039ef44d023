package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icruces/mazmorra/internal/game/action"
)

func TestNew_AllocatesMatchingPayload(t *testing.T) {
	a := action.New(action.KindAttack, "ataco al goblin")
	require.NotNil(t, a.Attack)
	assert.Nil(t, a.Spell)
	assert.Equal(t, action.SourcePattern, a.Source)
	assert.Equal(t, "ataco al goblin", a.OriginalText)
	assert.NotNil(t, a.MissingFields)
	assert.NotNil(t, a.Warnings)

	u := action.New(action.KindUnknown, "???")
	assert.Nil(t, u.Attack)
	assert.Nil(t, u.Item)
}

func TestCriticalFields(t *testing.T) {
	cases := map[action.Kind][]string{
		action.KindAttack:  {action.FieldTarget},
		action.KindSpell:   {action.FieldSpell},
		action.KindMove:    {},
		action.KindSkill:   {action.FieldSkill},
		action.KindGeneric: {action.FieldAction},
		action.KindItem:    {action.FieldItem},
		action.KindUnknown: {action.FieldKind},
	}
	for kind, want := range cases {
		assert.Equal(t, want, action.CriticalFields(kind), "critical set for %s", kind)
	}
}

func TestMissingCritical(t *testing.T) {
	a := action.New(action.KindAttack, "ataco")
	a.MarkMissing(action.FieldWeapon)
	a.MarkMissing(action.FieldTarget)

	assert.Equal(t, []string{action.FieldTarget}, a.MissingCritical(),
		"only critical fields survive the intersection")

	a.ClearMissing(action.FieldTarget)
	assert.Empty(t, a.MissingCritical())
	assert.Equal(t, []string{action.FieldWeapon}, a.MissingFields)
}

func TestMarkMissing_Dedupes(t *testing.T) {
	a := action.New(action.KindSkill, "")
	a.MarkMissing(action.FieldSkill)
	a.MarkMissing(action.FieldSkill)
	assert.Equal(t, []string{action.FieldSkill}, a.MissingFields)

	a.ClearMissing("no_such_field")
	assert.Equal(t, []string{action.FieldSkill}, a.MissingFields)
}

func TestComplete(t *testing.T) {
	a := action.New(action.KindMove, "me muevo")
	a.Confidence = 0.7
	assert.True(t, a.Complete(0.7))

	a.Confidence = 0.69
	assert.False(t, a.Complete(0.7), "below the confidence floor")

	a.Confidence = 0.9
	a.MarkMissing(action.FieldDistance)
	assert.False(t, a.Complete(0.7), "missing fields block completeness")
}

func TestRaise_CapsConfidence(t *testing.T) {
	a := action.New(action.KindAttack, "")
	a.Confidence = 0.7

	a.Raise(0.1, 1.0)
	assert.InDelta(t, 0.8, a.Confidence, 1e-9)

	a.Raise(0.5, 1.0)
	assert.InDelta(t, 1.0, a.Confidence, 1e-9, "bumps clamp at the limit")

	a.Confidence = 0.95
	a.Raise(0.15, 0.9)
	assert.InDelta(t, 0.95, a.Confidence, 1e-9, "already past the limit stays put")
}

func TestActorAndTargetAccessors(t *testing.T) {
	a := action.New(action.KindAttack, "")
	a.Attack.AttackerID = "pc-1"
	a.Attack.TargetID = "goblin-1"
	assert.Equal(t, "pc-1", a.ActorID())
	assert.Equal(t, "goblin-1", a.TargetID())

	s := action.New(action.KindSpell, "")
	s.Spell.CasterID = "pc-1"
	assert.Equal(t, "pc-1", s.ActorID())
	assert.Empty(t, s.TargetID())

	m := action.New(action.KindMove, "")
	m.Move.ActorID = "pc-1"
	assert.Equal(t, "pc-1", m.ActorID())
	assert.Empty(t, m.TargetID(), "movement has no target")

	u := action.New(action.KindUnknown, "")
	assert.Empty(t, u.ActorID())
}

func TestSceneContext_Lookups(t *testing.T) {
	scene := action.SceneContext{
		LivingEnemies: []action.Participant{
			{InstanceID: "goblin-1", Name: "Goblin", CompendiumRef: "goblin"},
			{InstanceID: "lobo-1", Name: "Lobo", CompendiumRef: "lobo"},
		},
		AvailableSlots: map[int]int{1: 2},
	}

	enemy, ok := scene.Enemy("lobo-1")
	require.True(t, ok)
	assert.Equal(t, "Lobo", enemy.Name)

	_, ok = scene.Enemy("dragon-1")
	assert.False(t, ok)

	assert.True(t, scene.HasSlot(1))
	assert.False(t, scene.HasSlot(2))
	assert.False(t, scene.HasSlot(9), "levels the caster lacks read as empty")
}
