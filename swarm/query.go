package swarm

import "iter"

// Query caches the spawns whose masks contain a required set of components.
// Execute rebuilds the cache; Iter and Values replay it, skipping spawns that
// were killed since.
type Query[T, P any] struct {
	pool     *Pool[T, P]
	required Entity

	cachedSpawns []Spawn
	cacheValid   bool
}

// NewQuery creates a Query over pool for slots carrying every given component.
func NewQuery[T, P any](pool *Pool[T, P], components ...Component) *Query[T, P] {
	return &Query[T, P]{
		pool:     pool,
		required: MaskOf(components...),
	}
}

// Required returns the mask matched by the query.
func (q *Query[T, P]) Required() Entity { return q.required }

// Execute builds the spawn cache for this frame.
func (q *Query[T, P]) Execute() {
	q.cachedSpawns = q.cachedSpawns[:0]

	p := q.pool
	for i := 0; i < p.len; i++ {
		if !p.masks[i].Contains(q.required) {
			continue
		}
		id := p.handles[i]
		q.cachedSpawns = append(q.cachedSpawns, NewSpawn(id, p.tags[id].generation))
	}

	q.cacheValid = true
}

// Count returns the number of spawns matched by the last Execute.
func (q *Query[T, P]) Count() int {
	return len(q.cachedSpawns)
}

// Iter returns an iterator over matched spawns and their data. The loop body
// may kill spawns; killed spawns are skipped.
// Panics if Execute() has not been called.
func (q *Query[T, P]) Iter() iter.Seq2[Spawn, *T] {
	if !q.cacheValid {
		panic("Query.Iter() called before Query.Execute()")
	}

	return func(yield func(Spawn, *T) bool) {
		for _, s := range q.cachedSpawns {
			t, err := q.pool.resolve(s)
			if err != nil {
				continue
			}
			if !yield(s, &q.pool.data[t.pos]) {
				return
			}
		}
	}
}

// Values returns an iterator over matched data only.
// Panics if Execute() has not been called.
func (q *Query[T, P]) Values() iter.Seq[*T] {
	if !q.cacheValid {
		panic("Query.Values() called before Query.Execute()")
	}

	return func(yield func(*T) bool) {
		for _, item := range q.Iter() {
			if !yield(item) {
				return
			}
		}
	}
}
