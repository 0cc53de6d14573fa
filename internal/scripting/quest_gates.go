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
)

// HookName is the Lua global evaluated for every gated teaching.
const HookName = "quest_gate"

// QuestGates evaluates quest gates with a Lua hook:
//
//	function quest_gate(gate, entity) return <bool> end
//
// It satisfies progression.QuestGate. Runtime errors, including exhausting
// the instruction budget, are logged at Warn and deny the gate.
//
// QuestGates is safe for concurrent use; the single LState is guarded by mu.
type QuestGates struct {
	mu        sync.Mutex
	L         *lua.LState
	instLimit int
	logger    *zap.Logger

	// Injected after construction. nil = engine.* query returns false.
	Completed func(entityID, quest string) bool
	Learned   func(ctx context.Context, entityID, techniqueID string) bool
}

// LoadQuestGates creates a sandboxed VM, registers the engine.* module, then
// executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: scriptDir must be a readable directory; logger must be non-nil.
// Postcondition: Returns a ready QuestGates or an error naming the failing file.
func LoadQuestGates(scriptDir string, instLimit int, logger *zap.Logger) (*QuestGates, error) {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading script dir %q: %w", scriptDir, err)
	}
	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	g := &QuestGates{L: NewSandboxedState(), instLimit: instLimit, logger: logger}
	g.registerModules(g.L)
	for _, path := range luaFiles {
		err := Limited(context.Background(), g.L, instLimit, func() error { return g.L.DoFile(path) })
		if err != nil {
			g.L.Close()
			return nil, fmt.Errorf("scripting: loading %q: %w", path, err)
		}
	}
	logger.Info("quest gate scripts loaded", zap.Int("files", len(luaFiles)))
	return g, nil
}

// Satisfied reports whether entityID has met gate. A missing hook denies
// every gate.
//
// Postcondition: err is non-nil only when ctx is already done.
func (g *QuestGates) Satisfied(ctx context.Context, gate, entityID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	fn := g.L.GetGlobal(HookName)
	if fn == lua.LNil {
		g.logger.Info("scripting: no quest gate hook", zap.String("gate", gate))
		return false, nil
	}

	var ret lua.LValue = lua.LNil
	err := Limited(ctx, g.L, g.instLimit, func() error {
		if err := g.L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, lua.LString(gate), lua.LString(entityID)); err != nil {
			return err
		}
		ret = g.L.Get(-1)
		g.L.Pop(1)
		return nil
	})
	if err != nil {
		g.logger.Warn("scripting: Lua runtime error",
			zap.String("hook", HookName),
			zap.String("gate", gate),
			zap.String("entity", entityID),
			zap.Error(err),
		)
		return false, nil
	}
	return lua.LVAsBool(ret), nil
}

// Close releases the VM.
func (g *QuestGates) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.L.Close()
}
