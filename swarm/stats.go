package swarm

type counters struct {
	spawns    uint64
	kills     uint64
	exhausted uint64
}

// PoolStats is a point-in-time summary of a pool.
type PoolStats struct {
	Name      string
	Count     int
	Capacity  int
	FreeDepth int
	// LiveRefs counts tracked refs that have not been collected yet.
	LiveRefs  int

	Spawns    uint64
	Kills     uint64
	Exhausted uint64

	// ComponentCounts maps each component present on an active slot to the
	// number of active slots carrying it.
	ComponentCounts map[Component]int
}

// CollectStats gathers statistics about the pool.
func (p *Pool[T, P]) CollectStats() PoolStats {
	stats := PoolStats{
		Name:            p.name,
		Count:           p.len,
		Capacity:        len(p.data),
		FreeDepth:       len(p.free),
		LiveRefs:        p.liveRefs(),
		Spawns:          p.counters.spawns,
		Kills:           p.counters.kills,
		Exhausted:       p.counters.exhausted,
		ComponentCounts: make(map[Component]int),
	}

	for i := 0; i < p.len; i++ {
		for _, c := range p.masks[i].Components() {
			stats.ComponentCounts[c]++
		}
	}

	return stats
}

func (p *Pool[T, P]) liveRefs() int {
	n := 0
	for w := range p.refs.Values() {
		if w.Value() != nil {
			n++
		}
	}
	return n
}
