package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/icruces/mazmorra/internal/game/dice"
)

// RegisterModules installs the engine.* API into L:
//
//	engine.log.debug(msg) / info / warn / error
//	engine.dice.roll(expr)                  -> {total, dice, modifier}
//	engine.combat.get_combatant(id)         -> combatant table or nil
//	engine.combat.apply_condition(id, condition_id, stacks?, duration?)
//
// Combatant tables carry id, name, side, hp, hp_max, ac and a
// conditions array of active condition ids. apply_condition defaults to
// 1 stack and duration -1 (permanent until removed).
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()

	logMod := L.NewTable()
	L.SetField(logMod, "debug", L.NewFunction(m.luaLog(m.logger.Debug)))
	L.SetField(logMod, "info", L.NewFunction(m.luaLog(m.logger.Info)))
	L.SetField(logMod, "warn", L.NewFunction(m.luaLog(m.logger.Warn)))
	L.SetField(logMod, "error", L.NewFunction(m.luaLog(m.logger.Error)))
	L.SetField(engine, "log", logMod)

	diceMod := L.NewTable()
	L.SetField(diceMod, "roll", L.NewFunction(m.luaDiceRoll))
	L.SetField(engine, "dice", diceMod)

	combatMod := L.NewTable()
	L.SetField(combatMod, "get_combatant", L.NewFunction(m.luaGetCombatant))
	L.SetField(combatMod, "apply_condition", L.NewFunction(m.luaApplyCondition))
	L.SetField(engine, "combat", combatMod)

	L.SetGlobal("engine", engine)
}

func (m *Manager) luaLog(fn func(string, ...zap.Field)) lua.LGFunction {
	return func(L *lua.LState) int {
		fn(L.CheckString(1), zap.String("origin", "lua"))
		return 0
	}
}

// luaDiceRoll rolls a dice expression and returns a result table.
// Invariant: total == dice + modifier.
func (m *Manager) luaDiceRoll(L *lua.LState) int {
	expr := L.CheckString(1)
	res, err := m.roller.Roll(expr, dice.ModeNormal)
	if err != nil {
		L.RaiseError("dice.roll: %v", err)
		return 0
	}
	sum := 0
	for _, d := range res.Dice {
		sum += d
	}
	tbl := L.NewTable()
	L.SetField(tbl, "total", lua.LNumber(res.Total()))
	L.SetField(tbl, "dice", lua.LNumber(sum))
	L.SetField(tbl, "modifier", lua.LNumber(res.Modifier))
	L.Push(tbl)
	return 1
}

func (m *Manager) luaGetCombatant(L *lua.LState) int {
	id := L.CheckString(1)
	if m.GetCombatant == nil {
		L.Push(lua.LNil)
		return 1
	}
	info := m.GetCombatant(id)
	if info == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(combatantToTable(L, info))
	return 1
}

func combatantToTable(L *lua.LState, info *CombatantInfo) *lua.LTable {
	tbl := L.NewTable()
	L.SetField(tbl, "id", lua.LString(info.ID))
	L.SetField(tbl, "name", lua.LString(info.Name))
	L.SetField(tbl, "side", lua.LString(info.Side))
	L.SetField(tbl, "hp", lua.LNumber(info.HP))
	L.SetField(tbl, "hp_max", lua.LNumber(info.HPMax))
	L.SetField(tbl, "ac", lua.LNumber(info.AC))
	conds := L.NewTable()
	for _, c := range info.Conditions {
		conds.Append(lua.LString(c))
	}
	L.SetField(tbl, "conditions", conds)
	return tbl
}

func (m *Manager) luaApplyCondition(L *lua.LState) int {
	id := L.CheckString(1)
	condID := L.CheckString(2)
	stacks := L.OptInt(3, 1)
	duration := L.OptInt(4, -1)
	if m.ApplyCondition == nil {
		return 0
	}
	if err := m.ApplyCondition(id, condID, stacks, duration); err != nil {
		L.RaiseError("combat.apply_condition: %v", err)
	}
	return 0
}
