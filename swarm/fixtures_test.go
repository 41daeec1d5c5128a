package swarm_test

import "github.com/plus3/spawnpool/swarm"

// Common test item types
type Minion struct {
	Name     string
	Value    int
	Calls    int
	Health   int
	Strength int
	All      int
	Friend   swarm.Spawn
	Received string
	Seen     int
}

type Props struct {
	Ticks    int
	Messages []string
}

// Common test components
const (
	HealthComponent swarm.Component = iota
	StrengthComponent
	PoisonComponent
)

func newTestPool(capacity int) *swarm.Pool[Minion, Props] {
	return swarm.New[Minion](capacity, Props{})
}

func spawnN(pool *swarm.Pool[Minion, Props], n int) []swarm.Spawn {
	spawns := make([]swarm.Spawn, 0, n)
	for i := 0; i < n; i++ {
		s, ok := pool.Spawn()
		if !ok {
			panic("test pool too small")
		}
		pool.MustFetch(s).Value = i
		spawns = append(spawns, s)
	}
	return spawns
}
