package swarm

import "iter"

// orderEntry pins one logical cursor step of a controlled pass to the slot
// identity that was active at that position when the pass began.
type orderEntry struct {
	id         uint32
	generation uint32
}

// ForEach calls fn for every active slot in storage order. fn must not spawn
// or kill; doing so panics.
func (p *Pool[T, P]) ForEach(fn func(item *T)) {
	defer p.lock("ForEach")()

	for i := 0; i < p.len; i++ {
		fn(&p.data[i])
	}
}

// ForAll calls fn once per active position, handing out the position, the
// whole active data range and the shared properties. Writes through items are
// visible to later steps of the same pass. fn must not spawn or kill.
func (p *Pool[T, P]) ForAll(fn func(pos int, items []T, props *P)) {
	defer p.lock("ForAll")()

	n := p.len
	items := p.data[:n]
	for i := 0; i < n; i++ {
		fn(i, items, &p.props)
	}
}

// All returns an iterator over the active spawns and their data in storage
// order. The loop body must not spawn or kill.
func (p *Pool[T, P]) All() iter.Seq2[Spawn, *T] {
	return func(yield func(Spawn, *T) bool) {
		defer p.lock("All")()

		for i := 0; i < p.len; i++ {
			id := p.handles[i]
			if !yield(NewSpawn(id, p.tags[id].generation), &p.data[i]) {
				return
			}
		}
	}
}

// Update runs a controlled pass: fn is called once for every slot that was
// active when the pass started, through a Control bound to that slot. fn may
// spawn and kill freely. Slots killed before their turn are skipped, and slots
// spawned during the pass are first visited by the next pass.
func (p *Pool[T, P]) Update(fn func(c *Control[T, P])) {
	c := Control[T, P]{pool: p}
	p.visit("Update", func(cursor int, id uint32) {
		c.cursor = cursor
		c.self = NewSpawn(id, p.tags[id].generation)
		fn(&c)
	})
}

// visit snapshots the active set into the order table and walks it, resolving
// each entry to its current position at the time it is reached.
func (p *Pool[T, P]) visit(op string, fn func(cursor int, id uint32)) {
	if p.updating {
		panic("swarm: " + op + " called during a controlled pass")
	}
	p.checkMutable(op)

	p.updating = true
	defer func() { p.updating = false }()

	n := p.len
	for i := 0; i < n; i++ {
		id := p.handles[i]
		p.order[i] = orderEntry{id: id, generation: p.tags[id].generation}
	}

	for cursor := 0; cursor < n; cursor++ {
		entry := p.order[cursor]
		t := &p.tags[entry.id]
		if !t.active || t.generation != entry.generation {
			continue
		}
		fn(cursor, entry.id)
	}
}
