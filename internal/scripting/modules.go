package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// registerModules installs the engine.* table into L.
//
//	engine.completed(entity, quest) -> bool   quests recorded outside Lua
//	engine.learned(entity, technique) -> bool  technique rows the entity holds
//	engine.log(msg)                            debug log line
//
// A nil callback makes its function return false.
func (g *QuestGates) registerModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "completed", L.NewFunction(func(L *lua.LState) int {
		entity, quest := L.CheckString(1), L.CheckString(2)
		ok := g.Completed != nil && g.Completed(entity, quest)
		L.Push(lua.LBool(ok))
		return 1
	}))
	L.SetField(engine, "learned", L.NewFunction(func(L *lua.LState) int {
		entity, tech := L.CheckString(1), L.CheckString(2)
		ok := false
		if g.Learned != nil {
			ok = g.Learned(L.Context(), entity, tech)
		}
		L.Push(lua.LBool(ok))
		return 1
	}))
	L.SetField(engine, "log", L.NewFunction(func(L *lua.LState) int {
		g.logger.Debug("quest gate script", zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetGlobal("engine", engine)
}
