package action_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icruces/mazmorra/internal/game/action"
)

func TestMarshal_AttackWireShape(t *testing.T) {
	a := action.New(action.KindAttack, "ataco al goblin con mi espada")
	a.Attack.AttackerID = "pc-1"
	a.Attack.TargetID = "goblin-1"
	a.Attack.WeaponID = "espada_larga"
	a.Attack.Subtype = action.SubtypeMelee
	a.Attack.Mode = action.ModeNormal
	a.Confidence = 0.9

	data, err := json.Marshal(a)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"kind": "ataque",
		"data": {
			"attacker_id": "pc-1",
			"target_id": "goblin-1",
			"weapon_id": "espada_larga",
			"subtype": "melee",
			"mode": "normal"
		},
		"confidence": 0.9,
		"missing_fields": [],
		"warnings": [],
		"original_text": "ataco al goblin con mi espada",
		"needs_clarification": false,
		"source": "pattern"
	}`, string(data))
}

func TestMarshal_UnknownOmitsData(t *testing.T) {
	a := action.New(action.KindUnknown, "hago algo raro")
	a.MarkMissing(action.FieldKind)
	a.NeedsClarification = true

	data, err := json.Marshal(a)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"kind": "desconocido",
		"confidence": 0,
		"missing_fields": ["kind"],
		"warnings": [],
		"original_text": "hago algo raro",
		"needs_clarification": true,
		"source": "pattern"
	}`, string(data))
	assert.NotContains(t, string(data), `"data"`)
}

func TestParseJSON_SpellRoundTrip(t *testing.T) {
	a := action.New(action.KindSpell, "lanzo curar heridas a nivel 2")
	a.Spell.CasterID = "pc-1"
	a.Spell.SpellID = "curar_heridas"
	a.Spell.CastingLevel = 2
	a.Confidence = 0.8
	a.Warn("Objetivo inferido: Goblin")

	data, err := json.Marshal(a)
	require.NoError(t, err)

	got, err := action.ParseJSON(data)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	require.NotNil(t, got.Spell)
	assert.Equal(t, 2, got.Spell.CastingLevel)
	assert.Nil(t, got.Attack)
}

func TestParseJSON_Errors(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"unknown kind", `{"kind": "bailar", "data": {}}`},
		{"kind without data", `{"kind": "movimiento"}`},
		{"malformed data", `{"kind": "ataque", "data": {"attacker_id": 7}}`},
		{"not json", `¿qué?`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := action.ParseJSON([]byte(tc.in))
			require.Error(t, err)
		})
	}
}

func TestParseJSON_NullListsBecomeEmpty(t *testing.T) {
	got, err := action.ParseJSON([]byte(`{
		"kind": "movimiento",
		"data": {"actor_id": "pc-1", "distance_feet": 20, "destination": "puerta"},
		"confidence": 0.7,
		"original_text": "me muevo 20 pies hacia la puerta",
		"source": "pattern"
	}`))
	require.NoError(t, err)

	assert.NotNil(t, got.MissingFields)
	assert.Empty(t, got.MissingFields)
	assert.NotNil(t, got.Warnings)
	require.NotNil(t, got.Move)
	assert.Equal(t, 20, got.Move.DistanceFeet)
	assert.Equal(t, "puerta", got.Move.Destination)
}

func TestParseJSON_UnknownToleratesStrayData(t *testing.T) {
	got, err := action.ParseJSON([]byte(`{"kind": "desconocido", "data": {"x": 1}, "original_text": "eh"}`))
	require.NoError(t, err)
	assert.Equal(t, action.KindUnknown, got.Kind)
	assert.Nil(t, got.Attack)
}
