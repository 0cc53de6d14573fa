package scripting_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/AmirZhou/hodos-sub001/internal/game/progression"
	"github.com/AmirZhou/hodos-sub001/internal/scripting"
)

var _ progression.QuestGate = (*scripting.QuestGates)(nil)

func writeTempLua(t testing.TB, filename, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, filename), []byte(src), 0644))
	return dir
}

func load(t *testing.T, src string, limit int) (*scripting.QuestGates, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	g, err := scripting.LoadQuestGates(writeTempLua(t, "gates.lua", src), limit, zap.New(core))
	require.NoError(t, err)
	t.Cleanup(g.Close)
	return g, logs
}

func TestQuestGates_HookDecides(t *testing.T) {
	g, _ := load(t, `
		function quest_gate(gate, entity)
			return gate == "open_door" or entity == "chosen_one"
		end
	`, 0)
	ctx := context.Background()

	ok, err := g.Satisfied(ctx, "open_door", "anyone")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Satisfied(ctx, "sealed_door", "anyone")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, _ = g.Satisfied(ctx, "sealed_door", "chosen_one")
	assert.True(t, ok)
}

func TestQuestGates_EngineCallbacks(t *testing.T) {
	g, logs := load(t, `
		function quest_gate(gate, entity)
			engine.log("checking " .. gate)
			if gate == "blade_oath" then
				return engine.learned(entity, "parry")
			end
			return engine.completed(entity, gate)
		end
	`, 0)
	done := progression.CompletedQuests{}
	done.Complete("hero", "duel_at_dawn")
	g.Completed = func(entity, quest string) bool { return done[entity][quest] }
	g.Learned = func(_ context.Context, entity, tech string) bool { return entity == "hero" && tech == "parry" }

	ctx := context.Background()
	ok, _ := g.Satisfied(ctx, "duel_at_dawn", "hero")
	assert.True(t, ok)
	ok, _ = g.Satisfied(ctx, "duel_at_dawn", "rookie")
	assert.False(t, ok)
	ok, _ = g.Satisfied(ctx, "blade_oath", "hero")
	assert.True(t, ok)
	ok, _ = g.Satisfied(ctx, "blade_oath", "rookie")
	assert.False(t, ok)

	assert.Equal(t, 4, logs.FilterMessage("quest gate script").Len())
}

func TestQuestGates_NilCallbacksDeny(t *testing.T) {
	g, _ := load(t, `function quest_gate(gate, entity) return engine.completed(entity, gate) end`, 0)
	ok, err := g.Satisfied(context.Background(), "duel_at_dawn", "hero")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestQuestGates_MissingHookDenies(t *testing.T) {
	g, logs := load(t, `-- no hook`, 0)
	ok, err := g.Satisfied(context.Background(), "anything", "hero")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.InfoLevel).FilterMessage("scripting: no quest gate hook").Len())
}

func TestQuestGates_RuntimeErrorDeniesAndWarns(t *testing.T) {
	g, logs := load(t, `function quest_gate() error("intentional error") end`, 0)
	ok, err := g.Satisfied(context.Background(), "g", "hero")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())
}

func TestQuestGates_RunawayHookIsStoppedAndVMSurvives(t *testing.T) {
	g, logs := load(t, `
		function quest_gate(gate, entity)
			if gate == "spin" then while true do end end
			return true
		end
	`, 1000)
	ctx := context.Background()
	ok, err := g.Satisfied(ctx, "spin", "hero")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterLevelExact(zap.WarnLevel).Len())

	ok, err = g.Satisfied(ctx, "walk", "hero")
	require.NoError(t, err)
	assert.True(t, ok, "a fresh budget applies to the next call")
}

func TestQuestGates_CancelledContext(t *testing.T) {
	g, _ := load(t, `function quest_gate() return true end`, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Satisfied(ctx, "g", "hero")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestQuestGates_ConcurrentCalls(t *testing.T) {
	g, _ := load(t, `function quest_gate(gate, entity) return #entity % 2 == 0 end`, 0)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := g.Satisfied(context.Background(), "g", "even")
			assert.NoError(t, err)
			assert.True(t, ok)
		}()
	}
	wg.Wait()
}

func TestLoadQuestGates_Errors(t *testing.T) {
	_, err := scripting.LoadQuestGates(filepath.Join(t.TempDir(), "missing"), 0, zap.NewNop())
	assert.Error(t, err)

	dir := writeTempLua(t, "broken.lua", `function (`)
	_, err = scripting.LoadQuestGates(dir, 0, zap.NewNop())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken.lua")
}

func TestLoadQuestGates_RealContent(t *testing.T) {
	g, err := scripting.LoadQuestGates(filepath.Join("..", "..", "content", "scripts"), 0, zap.NewNop())
	require.NoError(t, err)
	defer g.Close()

	done := progression.CompletedQuests{}
	done.Complete("hero", "duel_at_dawn")
	g.Completed = func(entity, quest string) bool { return done[entity][quest] }

	ok, err := g.Satisfied(context.Background(), "duel_at_dawn", "hero")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = g.Satisfied(context.Background(), "duel_at_dawn", "stranger")
	assert.False(t, ok)
}
