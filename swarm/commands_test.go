package swarm_test

import (
	"testing"

	"github.com/plus3/spawnpool/swarm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandsKill(t *testing.T) {
	pool := newTestPool(10)
	spawns := spawnN(pool, 3)

	cmds := swarm.NewCommands[Minion, Props]()
	cmds.Kill(spawns[1])
	cmds.Kill(spawns[1])
	assert.Equal(t, 1, cmds.Len(), "duplicate kills collapse")

	assert.Equal(t, 3, pool.Count(), "nothing applies before Flush")
	require.NoError(t, cmds.Flush(pool))

	assert.Equal(t, 2, pool.Count())
	assert.False(t, pool.IsActive(spawns[1]))
	assert.Equal(t, 0, cmds.Len())
}

func TestCommandsKillDuringIteration(t *testing.T) {
	pool := newTestPool(10)
	spawnN(pool, 6)

	cmds := swarm.NewCommands[Minion, Props]()
	for s, m := range pool.All() {
		if m.Value%3 == 0 {
			cmds.Kill(s)
		}
	}
	require.NoError(t, cmds.Flush(pool))

	assert.Equal(t, 4, pool.Count())
	pool.ForEach(func(m *Minion) {
		assert.NotZero(t, m.Value%3)
	})
}

func TestCommandsSpawn(t *testing.T) {
	pool := newTestPool(10)
	cmds := swarm.NewCommands[Minion, Props]()

	cmds.Spawn(func(m *Minion) { m.Name = "first" })
	cmds.Spawn(nil)
	require.NoError(t, cmds.Flush(pool))

	require.Equal(t, 2, pool.Count())
	assert.Equal(t, "first", pool.MustFetch(pool.HandleAt(0)).Name)
}

func TestCommandsComponents(t *testing.T) {
	pool := newTestPool(10)
	spawns := spawnN(pool, 2)

	cmds := swarm.NewCommands[Minion, Props]()
	cmds.AddComponent(spawns[0], HealthComponent)
	cmds.AddComponent(spawns[0], StrengthComponent)
	cmds.RemoveComponent(spawns[0], HealthComponent)
	assert.False(t, pool.HasComponent(spawns[0], StrengthComponent))

	require.NoError(t, cmds.Flush(pool))

	assert.False(t, pool.HasComponent(spawns[0], HealthComponent))
	assert.True(t, pool.HasComponent(spawns[0], StrengthComponent))
}

func TestCommandsKillWinsOverComponentChange(t *testing.T) {
	pool := newTestPool(10)
	spawns := spawnN(pool, 2)

	cmds := swarm.NewCommands[Minion, Props]()
	cmds.AddComponent(spawns[0], HealthComponent)
	cmds.Kill(spawns[0])

	require.NoError(t, cmds.Flush(pool))
	assert.False(t, pool.IsActive(spawns[0]))
	assert.Equal(t, 1, pool.Count())
}

func TestCommandsFlushJoinsErrors(t *testing.T) {
	pool := newTestPool(2)
	spawns := spawnN(pool, 2)
	require.NoError(t, pool.Kill(spawns[0]))

	cmds := swarm.NewCommands[Minion, Props]()
	cmds.Kill(spawns[0])
	cmds.Spawn(nil)
	cmds.Spawn(nil)

	err := cmds.Flush(pool)
	require.Error(t, err)
	assert.ErrorIs(t, err, swarm.ErrStaleSpawn)
	assert.ErrorIs(t, err, swarm.ErrPoolExhausted)

	// The first deferred spawn still landed
	assert.Equal(t, 2, pool.Count())
	assert.Equal(t, 0, cmds.Len())
}

func TestCommandsDeferOrder(t *testing.T) {
	pool := newTestPool(10)
	s, ok := pool.Spawn()
	require.True(t, ok)

	var order []string
	cmds := swarm.NewCommands[Minion, Props]()
	cmds.Defer(func() { order = append(order, "first") })
	cmds.Spawn(func(m *Minion) { order = append(order, "spawn") })
	cmds.Kill(s)
	cmds.Defer(func() {
		order = append(order, "last")
		assert.False(t, pool.IsActive(s), "kills apply before everything else")
	})

	require.NoError(t, cmds.Flush(pool))
	assert.Equal(t, []string{"first", "spawn", "last"}, order)
}

func TestCommandsReusableAfterFlush(t *testing.T) {
	pool := newTestPool(10)
	cmds := swarm.NewCommands[Minion, Props]()

	s, ok := pool.Spawn()
	require.True(t, ok)
	cmds.Kill(s)
	require.NoError(t, cmds.Flush(pool))

	s, ok = pool.Spawn()
	require.True(t, ok)
	cmds.Kill(s)
	assert.Equal(t, 1, cmds.Len())
	require.NoError(t, cmds.Flush(pool))
	assert.Equal(t, 0, pool.Count())
}

func TestCommandsQueuedDuringFlush(t *testing.T) {
	pool := newTestPool(10)
	spawns := spawnN(pool, 3)

	cmds := swarm.NewCommands[Minion, Props]()
	cmds.Defer(func() {
		cmds.Kill(spawns[0])
		cmds.Kill(spawns[0])
		cmds.AddComponent(spawns[0], HealthComponent)
		cmds.Spawn(func(m *Minion) {
			m.Name = "late"
			cmds.AddComponent(spawns[1], StrengthComponent)
		})
	})

	require.NoError(t, cmds.Flush(pool))
	assert.Equal(t, 0, cmds.Len(), "nothing is left behind")
	assert.False(t, pool.IsActive(spawns[0]))
	assert.True(t, pool.HasComponent(spawns[1], StrengthComponent))
	assert.Equal(t, 3, pool.Count())

	// Dedup still holds on the next batch
	cmds.Kill(spawns[2])
	cmds.Kill(spawns[2])
	assert.Equal(t, 1, cmds.Len())
	require.NoError(t, cmds.Flush(pool))
	assert.False(t, pool.IsActive(spawns[2]))
}
