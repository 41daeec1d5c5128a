package swarm

import (
	"testing"
	"weak"
)

type statsItem struct {
	Value int
}

func TestPoolStats(t *testing.T) {
	pool := New[statsItem](4, struct{}{}, WithName("stats"))

	stats := pool.CollectStats()
	if stats.Name != "stats" {
		t.Errorf("expected name stats, got %q", stats.Name)
	}
	if stats.Count != 0 {
		t.Errorf("expected 0 active slots, got %d", stats.Count)
	}
	if stats.Capacity != 4 {
		t.Errorf("expected capacity 4, got %d", stats.Capacity)
	}
	if len(stats.ComponentCounts) != 0 {
		t.Errorf("expected no component counts, got %v", stats.ComponentCounts)
	}

	spawns := make([]Spawn, 0, 4)
	for range 4 {
		s, ok := pool.Spawn()
		if !ok {
			t.Fatal("spawn failed on a pool with room")
		}
		spawns = append(spawns, s)
	}
	if _, ok := pool.Spawn(); ok {
		t.Fatal("expected spawn on a full pool to fail")
	}

	pool.AddComponent(spawns[0], 1)
	pool.AddComponent(spawns[1], 1)
	pool.AddComponent(spawns[1], 5)
	pool.AddComponent(spawns[3], 5)

	if err := pool.Kill(spawns[3]); err != nil {
		t.Fatalf("kill: %v", err)
	}

	ref, err := pool.Ref(spawns[0])
	if err != nil {
		t.Fatalf("ref: %v", err)
	}

	stats = pool.CollectStats()

	if stats.Count != 3 {
		t.Errorf("expected 3 active slots, got %d", stats.Count)
	}
	if stats.FreeDepth != 1 {
		t.Errorf("expected free depth 1, got %d", stats.FreeDepth)
	}
	if stats.Spawns != 4 {
		t.Errorf("expected 4 spawns, got %d", stats.Spawns)
	}
	if stats.Kills != 1 {
		t.Errorf("expected 1 kill, got %d", stats.Kills)
	}
	if stats.Exhausted != 1 {
		t.Errorf("expected 1 exhausted spawn, got %d", stats.Exhausted)
	}
	if stats.LiveRefs != 1 {
		t.Errorf("expected 1 live ref, got %d", stats.LiveRefs)
	}
	if stats.ComponentCounts[1] != 2 {
		t.Errorf("expected component 1 on 2 slots, got %d", stats.ComponentCounts[1])
	}
	if stats.ComponentCounts[5] != 1 {
		t.Errorf("expected component 5 on 1 slot, got %d", stats.ComponentCounts[5])
	}

	if !ref.Active {
		t.Error("expected ref to stay active")
	}
}

func TestLiveRefsSkipsCollected(t *testing.T) {
	pool := New[statsItem](4, struct{}{})
	a, _ := pool.Spawn()
	b, _ := pool.Spawn()

	ref, err := pool.Ref(a)
	if err != nil {
		t.Fatalf("ref: %v", err)
	}

	// A collected ref leaves an entry whose pointer resolves to nil
	pool.refs.Put(b.ID(), weak.Pointer[SpawnRef]{})

	stats := pool.CollectStats()
	if pool.refs.Len() != 2 {
		t.Fatalf("expected 2 tracked entries, got %d", pool.refs.Len())
	}
	if stats.LiveRefs != 1 {
		t.Errorf("expected 1 live ref, got %d", stats.LiveRefs)
	}
	if !ref.Active {
		t.Error("expected ref to stay active")
	}
}

func TestOrderTableSizedToCapacity(t *testing.T) {
	pool := New[statsItem](3, struct{}{})
	for range 3 {
		pool.Spawn()
	}

	if len(pool.order) != pool.Capacity() {
		t.Errorf("expected order table of %d entries, got %d", pool.Capacity(), len(pool.order))
	}

	// Visiting a full pool must not grow the order table
	pool.Update(func(c *Control[statsItem, struct{}]) {
		c.Target().Value++
	})
	if len(pool.order) != 3 {
		t.Errorf("order table grew to %d", len(pool.order))
	}
}

func TestHandlesAndTagsAgree(t *testing.T) {
	pool := New[statsItem](8, struct{}{})
	var spawns []Spawn
	for range 8 {
		s, _ := pool.Spawn()
		spawns = append(spawns, s)
	}
	for _, i := range []int{1, 6, 0, 3} {
		if err := pool.Kill(spawns[i]); err != nil {
			t.Fatalf("kill %d: %v", i, err)
		}
	}
	pool.Spawn()
	pool.Spawn()

	for pos, id := range pool.handles {
		if pool.tags[id].pos != pos {
			t.Errorf("handle %d at position %d has tag position %d", id, pos, pool.tags[id].pos)
		}
	}
	for pos := pool.len; pos < len(pool.masks); pos++ {
		if pool.masks[pos] != 0 {
			t.Errorf("inactive position %d carries mask %b", pos, pool.masks[pos])
		}
	}
}
