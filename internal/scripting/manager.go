package scripting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/dice"
)

// HookOnDamage is the Lua global the turn pipeline consults before
// applying damage: on_damage(attacker, target, amount) -> amount.
const HookOnDamage = "on_damage"

// CombatantInfo is a snapshot of a combatant's state passed to Lua.
// Side carries the combat side as its wire string ("pc", "aliado",
// "enemigo", "neutral").
type CombatantInfo struct {
	ID         string
	Name       string
	Side       string
	HP         int
	HPMax      int
	AC         int
	Conditions []string
}

// Manager owns the sandboxed LState for a campaign's house-rule scripts
// and exposes hook dispatch. A Manager with no scripts loaded answers
// every hook with LNil, so it can be wired unconditionally.
//
// Manager is safe for concurrent use: a mutex serializes all access to
// the single LState.
type Manager struct {
	mu        sync.Mutex
	state     *lua.LState
	cancel    context.CancelFunc
	instLimit int

	roller *dice.Roller
	logger *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	GetCombatant   func(id string) *CombatantInfo
	ApplyCondition func(id, conditionID string, stacks, duration int) error
}

// NewManager creates a Manager with no scripts loaded.
//
// Precondition: roller must be non-nil. A nil logger falls back to a no-op.
func NewManager(roller *dice.Roller, logger *zap.Logger) *Manager {
	if roller == nil {
		panic("scripting: NewManager requires a non-nil Roller")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		roller: roller,
		logger: logger,
	}
}

// Load builds a fresh sandboxed VM, registers the engine.* modules, then
// executes every *.lua file in scriptsDir in lexicographic order. A
// previously loaded VM is replaced only after the new one loads cleanly.
//
// Precondition: scriptsDir must be a readable directory.
// Postcondition: On error the previous VM, if any, remains in place.
func (m *Manager) Load(scriptsDir string, instLimit int) error {
	limit := instLimit
	if limit <= 0 {
		limit = DefaultInstructionLimit
	}

	L, cancel := NewSandboxedState(limit)
	m.RegisterModules(L)

	entries, err := os.ReadDir(scriptsDir)
	if err != nil {
		cancel()
		L.Close()
		return fmt.Errorf("scripting: reading script dir %q: %w", scriptsDir, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptsDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	for _, path := range luaFiles {
		if err := L.DoFile(path); err != nil {
			cancel()
			L.Close()
			return fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}

	m.mu.Lock()
	if m.state != nil {
		m.cancel()
		m.state.Close()
	}
	m.state = L
	m.cancel = cancel
	m.instLimit = limit
	m.mu.Unlock()

	m.logger.Info("rule scripts loaded",
		zap.String("dir", scriptsDir),
		zap.Int("files", len(luaFiles)),
		zap.Int("instruction_limit", limit),
	)
	return nil
}

// Loaded reports whether a script VM is active.
func (m *Manager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state != nil
}

// Close releases the script VM. The Manager remains usable; every
// subsequent CallHook returns LNil until Load is called again.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return
	}
	m.cancel()
	m.state.Close()
	m.state = nil
	m.cancel = nil
}

// CallHook calls the named Lua global function. Returns (LNil, nil) if
// no VM is loaded or the hook is not defined. Each call runs under a
// fresh instruction budget, so a runaway hook cannot starve later ones.
// Lua runtime errors are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		m.logger.Debug("no rule scripts loaded", zap.String("hook", hook))
		return lua.LNil, nil
	}

	fn := m.state.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	m.cancel()
	ctx, cancel := newCountingContext(m.instLimit)
	m.state.SetContext(ctx)
	m.cancel = cancel

	if err := m.state.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("lua hook failed",
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := m.state.Get(-1)
	m.state.Pop(1)
	return ret, nil
}

// OnDamage consults the on_damage hook and returns the adjusted damage
// amount. No loaded scripts, a missing hook, a runtime error, or a
// non-numeric return all leave the amount unchanged. Fractional results
// truncate toward zero.
func (m *Manager) OnDamage(attackerID, targetID string, amount int) int {
	ret, _ := m.CallHook(HookOnDamage,
		lua.LString(attackerID),
		lua.LString(targetID),
		lua.LNumber(amount),
	)
	if n, ok := ret.(lua.LNumber); ok {
		return int(n)
	}
	return amount
}
