package condition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/icruces/mazmorra/internal/game/condition"
)

func derribado() *condition.Definition {
	return &condition.Definition{
		ID: "derribado", Name: "Derribado", DurationType: condition.DurationPermanent,
		AttackDisadvantage: true, IncomingAdvantage: true,
	}
}

func aturdido() *condition.Definition {
	return &condition.Definition{
		ID: "aturdido", Name: "Aturdido", DurationType: condition.DurationRounds,
		BlocksActions: true, BlocksMovement: true, IncomingAdvantage: true,
	}
}

func envenenado() *condition.Definition {
	return &condition.Definition{
		ID: "envenenado", Name: "Envenenado", DurationType: condition.DurationUntilSave,
		AttackDisadvantage: true,
	}
}

func agotamiento() *condition.Definition {
	return &condition.Definition{
		ID: "agotamiento", Name: "Agotamiento", DurationType: condition.DurationPermanent,
		MaxStacks: 6,
	}
}

func TestActiveSet_Apply_Permanent(t *testing.T) {
	s := condition.NewActiveSet()
	err := s.Apply(derribado(), 1, -1)
	require.NoError(t, err)
	assert.True(t, s.Has("derribado"))
	assert.Equal(t, 1, s.Stacks("derribado"))
}

func TestActiveSet_Apply_Rounds(t *testing.T) {
	s := condition.NewActiveSet()
	err := s.Apply(aturdido(), 1, 3)
	require.NoError(t, err)
	assert.True(t, s.Has("aturdido"))
}

func TestActiveSet_Apply_StacksCapped(t *testing.T) {
	s := condition.NewActiveSet()
	// MaxStacks=6 for agotamiento; request 8, expect capped to 6
	err := s.Apply(agotamiento(), 8, -1)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Stacks("agotamiento"))
}

func TestActiveSet_Apply_ZeroMaxStacks_AlwaysOne(t *testing.T) {
	// MaxStacks=0 means unstackable; stacks is always 1
	s := condition.NewActiveSet()
	err := s.Apply(derribado(), 3, -1)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Stacks("derribado"))
}

func TestActiveSet_Remove(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(derribado(), 1, -1))
	s.Remove("derribado")
	assert.False(t, s.Has("derribado"))
	assert.Equal(t, 0, s.Stacks("derribado"))
}

func TestActiveSet_Remove_NotPresent_NoOp(t *testing.T) {
	s := condition.NewActiveSet()
	s.Remove("nonexistent") // must not panic
	assert.False(t, s.Has("nonexistent"))
}

func TestActiveSet_Tick_DecrementsRounds(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(aturdido(), 1, 3))
	expired := s.Tick()
	assert.Empty(t, expired)
	assert.True(t, s.Has("aturdido")) // still present
}

func TestActiveSet_Tick_ExpiresAtZero(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(aturdido(), 1, 1))
	expired := s.Tick()
	assert.Equal(t, []string{"aturdido"}, expired)
	assert.False(t, s.Has("aturdido"))
}

func TestActiveSet_Tick_PermanentNotExpired(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(derribado(), 1, -1))
	expired := s.Tick()
	assert.Empty(t, expired)
	assert.True(t, s.Has("derribado"))
}

func TestActiveSet_Tick_UntilSaveNotExpired(t *testing.T) {
	// until_save conditions are not expired by Tick, they require explicit Remove
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(envenenado(), 1, -1))
	expired := s.Tick()
	assert.Empty(t, expired)
	assert.True(t, s.Has("envenenado"))
}

func TestActiveSet_FlagQueries(t *testing.T) {
	s := condition.NewActiveSet()
	assert.False(t, s.AttackDisadvantage())
	assert.False(t, s.IncomingAdvantage())
	assert.False(t, s.IncomingDisadvantage())

	require.NoError(t, s.Apply(aturdido(), 1, 2))
	id, blocked := s.BlocksActions()
	require.True(t, blocked)
	assert.Equal(t, "aturdido", id)
	id, blocked = s.BlocksMovement()
	require.True(t, blocked)
	assert.Equal(t, "aturdido", id)
	assert.True(t, s.IncomingAdvantage())

	require.NoError(t, s.Apply(envenenado(), 1, -1))
	assert.True(t, s.AttackDisadvantage())

	esquivando := &condition.Definition{
		ID: "esquivando", Name: "Esquivando", DurationType: condition.DurationRounds,
		IncomingDisadvantage: true,
	}
	require.NoError(t, s.Apply(esquivando, 1, 1))
	assert.True(t, s.IncomingDisadvantage())
}

func TestActiveSet_IDs_Sorted(t *testing.T) {
	s := condition.NewActiveSet()
	require.NoError(t, s.Apply(envenenado(), 1, -1))
	require.NoError(t, s.Apply(derribado(), 1, -1))
	require.NoError(t, s.Apply(aturdido(), 1, 2))
	assert.Equal(t, []string{"aturdido", "derribado", "envenenado"}, s.IDs())
}

func TestActiveSet_SnapshotRestore(t *testing.T) {
	reg := condition.BuiltinRegistry()

	s := condition.NewActiveSet()
	derr, _ := reg.Get("derribado")
	atur, _ := reg.Get("aturdido")
	agot, _ := reg.Get("agotamiento")
	require.NoError(t, s.Apply(derr, 1, -1))
	require.NoError(t, s.Apply(atur, 1, 2))
	require.NoError(t, s.Apply(agot, 3, -1))

	snaps := s.Snapshots()
	require.Len(t, snaps, 3)

	restored, err := condition.RestoreSet(reg, snaps)
	require.NoError(t, err)
	assert.Equal(t, s.IDs(), restored.IDs())
	assert.Equal(t, 3, restored.Stacks("agotamiento"))
	assert.Equal(t, snaps, restored.Snapshots(), "snapshot of a restore must be a fixed point")
}

func TestRestoreSet_UnknownCondition(t *testing.T) {
	reg := condition.BuiltinRegistry()
	_, err := condition.RestoreSet(reg, []condition.Snapshot{{ID: "inventada", Stacks: 1, DurationRemaining: -1}})
	assert.Error(t, err, "unknown ids in a save must surface as errors")
}

func TestActiveSet_IncrementStacks(t *testing.T) {
	s := condition.NewActiveSet()
	a := agotamiento()
	require.NoError(t, s.Apply(a, 1, -1))
	require.NoError(t, s.Apply(a, 1, -1)) // apply again to increment
	assert.Equal(t, 2, s.Stacks("agotamiento"))
}

func TestPropertyActiveSet_TickNeverBelowMinusOne(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		duration := rapid.IntRange(1, 10).Draw(t, "duration")
		ticks := rapid.IntRange(1, 20).Draw(t, "ticks")
		s := condition.NewActiveSet()
		require.NoError(t, s.Apply(aturdido(), 1, duration))
		for i := 0; i < ticks; i++ {
			s.Tick()
		}
		for _, ac := range s.All() {
			assert.GreaterOrEqual(t, ac.DurationRemaining, -1,
				"DurationRemaining must never go below -1")
		}
	})
}

func TestPropertyActiveSet_ApplyRemove_HasFalse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := condition.NewActiveSet()
		require.NoError(t, s.Apply(derribado(), 1, -1))
		s.Remove("derribado")
		assert.False(t, s.Has("derribado"),
			"Has must return false after Remove")
	})
}

func TestPropertyActiveSet_StacksNeverExceedMaxStacks(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		maxStacks := rapid.IntRange(1, 6).Draw(t, "max_stacks")
		stacks := rapid.IntRange(1, 12).Draw(t, "stacks")
		def := &condition.Definition{
			ID: "test", Name: "Test", DurationType: condition.DurationRounds, MaxStacks: maxStacks,
		}
		s := condition.NewActiveSet()
		require.NoError(t, s.Apply(def, stacks, 5))
		actual := s.Stacks("test")
		assert.LessOrEqual(t, actual, maxStacks,
			"stacks must never exceed MaxStacks")
	})
}
