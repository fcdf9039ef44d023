// Package narrate renders combat events as Spanish table prose. The
// deterministic Fallback is always available; an optional LLM-backed
// Narrator can replace it, guarded by WithTimeout so a slow model never
// stalls a turn.
package narrate

import (
	"context"
	"time"

	"github.com/icruces/mazmorra/internal/game/action"
	"github.com/icruces/mazmorra/internal/game/combat"
)

// Style selects the narration voice.
type Style string

const (
	StyleEpic    Style = "epico"
	StyleCasual  Style = "casual"
	StyleMinimal Style = "minimalista"
)

// Valid reports whether s is one of the known styles.
func (s Style) Valid() bool {
	switch s {
	case StyleEpic, StyleCasual, StyleMinimal:
		return true
	}
	return false
}

// ParseStyle maps a config string to a Style, defaulting to epic for
// anything unknown.
func ParseStyle(s string) Style {
	if st := Style(s); st.Valid() {
		return st
	}
	return StyleEpic
}

// Instruction returns the tone directive handed to an LLM narrator.
func (s Style) Instruction() string {
	switch s {
	case StyleCasual:
		return "Usa un tono casual y ligero."
	case StyleMinimal:
		return "Sé muy breve y directo."
	default:
		return "Usa un tono épico y dramático."
	}
}

// DefaultTimeout bounds one narration call. Past it the turn falls back
// to the deterministic renderer.
const DefaultTimeout = 30 * time.Second

// Narrator turns the events of one resolved action into prose. A nil
// scene means the actor is unknown to the caller.
//
// Narration is best-effort: an error must leave the caller free to use
// Fallback instead, never to fail the action.
type Narrator interface {
	Narrate(ctx context.Context, events []combat.Event, scene *action.SceneContext) (string, error)
}

// Func adapts a plain function to the Narrator interface.
type Func func(ctx context.Context, events []combat.Event, scene *action.SceneContext) (string, error)

// Narrate implements Narrator.
func (f Func) Narrate(ctx context.Context, events []combat.Event, scene *action.SceneContext) (string, error) {
	return f(ctx, events, scene)
}

// WithTimeout wraps n so every call carries a deadline and returns as
// soon as it expires, even if the inner narrator ignores its context.
// A non-positive timeout means DefaultTimeout.
func WithTimeout(n Narrator, timeout time.Duration) Narrator {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &timeoutNarrator{inner: n, timeout: timeout}
}

type timeoutNarrator struct {
	inner   Narrator
	timeout time.Duration
}

type narration struct {
	text string
	err  error
}

func (t *timeoutNarrator) Narrate(ctx context.Context, events []combat.Event, scene *action.SceneContext) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	// Buffered so the inner call can finish after the deadline without
	// leaking a blocked goroutine.
	done := make(chan narration, 1)
	go func() {
		text, err := t.inner.Narrate(ctx, events, scene)
		done <- narration{text: text, err: err}
	}()

	select {
	case n := <-done:
		return n.text, n.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
