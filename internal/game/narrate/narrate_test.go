package narrate_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/combat"
	"github.com/icruces/mazmorra/internal/game/narrate"
)

func TestParseStyle(t *testing.T) {
	assert.Equal(t, narrate.StyleCasual, narrate.ParseStyle("casual"))
	assert.Equal(t, narrate.StyleMinimal, narrate.ParseStyle("minimalista"))
	assert.Equal(t, narrate.StyleEpic, narrate.ParseStyle("epico"))
	assert.Equal(t, narrate.StyleEpic, narrate.ParseStyle(""), "unknown styles fall back to epic")
	assert.Equal(t, narrate.StyleEpic, narrate.ParseStyle("gotico"))
}

func TestStyleInstruction(t *testing.T) {
	assert.Equal(t, "Usa un tono épico y dramático.", narrate.StyleEpic.Instruction())
	assert.Equal(t, "Usa un tono casual y ligero.", narrate.StyleCasual.Instruction())
	assert.Equal(t, "Sé muy breve y directo.", narrate.StyleMinimal.Instruction())
}

func TestWithTimeoutPassesThrough(t *testing.T) {
	inner := narrate.Func(func(context.Context, []combat.Event, *action.SceneContext) (string, error) {
		return "El golpe resuena en la caverna.", nil
	})

	text, err := narrate.WithTimeout(inner, time.Second).Narrate(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "El golpe resuena en la caverna.", text)
}

func TestWithTimeoutPropagatesInnerError(t *testing.T) {
	boom := errors.New("modelo caído")
	inner := narrate.Func(func(context.Context, []combat.Event, *action.SceneContext) (string, error) {
		return "", boom
	})

	_, err := narrate.WithTimeout(inner, time.Second).Narrate(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)
}

func TestWithTimeoutCutsOffSlowNarrator(t *testing.T) {
	inner := narrate.Func(func(ctx context.Context, _ []combat.Event, _ *action.SceneContext) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	start := time.Now()
	_, err := narrate.WithTimeout(inner, 20*time.Millisecond).Narrate(context.Background(), nil, nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second, "the deadline must cut the call short")
}

func TestWithTimeoutDefaultsWhenNonPositive(t *testing.T) {
	var deadline time.Time
	var ok bool
	inner := narrate.Func(func(ctx context.Context, _ []combat.Event, _ *action.SceneContext) (string, error) {
		deadline, ok = ctx.Deadline()
		return "bien", nil
	})

	_, err := narrate.WithTimeout(inner, 0).Narrate(context.Background(), nil, nil)
	require.NoError(t, err)
	require.True(t, ok, "a deadline must be set even when the caller passes zero")
	assert.WithinDuration(t, time.Now().Add(narrate.DefaultTimeout), deadline, 5*time.Second)
}
