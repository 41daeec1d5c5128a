package swarm

import (
	"fmt"
	"math"
	"weak"

	"github.com/kamstrup/intmap"
	"go.uber.org/zap"
)

// Pool is a fixed-capacity arena of reusable slots. Active slots are kept
// contiguous at the front of the backing storage: killing a slot moves the last
// active slot into the gap, and every Spawn keeps resolving to its data through
// the move.
//
// T is the per-slot item type, P the shared properties type handed to indexed
// and controlled iteration callbacks.
type Pool[T, P any] struct {
	data    []T
	masks   []Entity
	handles []uint32 // slot id stored at each position
	tags    []tag    // identity record per slot id
	free    []uint32 // recycled slot ids, popped LIFO
	len     int
	props   P

	refs *intmap.Map[uint32, weak.Pointer[SpawnRef]]

	order    []orderEntry
	updating bool
	locked   string

	counters counters
	log      *zap.Logger
	name     string
}

// New creates a pool with the given capacity. All slots start zero-valued and
// inactive.
func New[T, P any](capacity int, props P, opts ...Option) *Pool[T, P] {
	if capacity < 0 {
		panic("swarm: negative pool capacity")
	}
	return newPool(make([]T, capacity), props, opts)
}

// NewWithBuffer creates a pool that uses buf as its slot storage. The capacity
// is len(buf); the contents of buf are left as they are. This lets a caller
// back a pool with a fixed-size array (arr[:]) instead of a fresh allocation.
func NewWithBuffer[T, P any](buf []T, props P, opts ...Option) *Pool[T, P] {
	return newPool(buf, props, opts)
}

func newPool[T, P any](buf []T, props P, opts []Option) *Pool[T, P] {
	capacity := len(buf)
	if uint64(capacity) > math.MaxUint32 {
		panic("swarm: pool capacity exceeds slot id range")
	}

	o := buildOptions(opts)
	p := &Pool[T, P]{
		data:    buf,
		masks:   make([]Entity, capacity),
		handles: make([]uint32, capacity),
		tags:    make([]tag, capacity),
		free:    make([]uint32, 0, capacity),
		props:   props,
		refs:    intmap.New[uint32, weak.Pointer[SpawnRef]](256),
		order:   make([]orderEntry, capacity),
		log:     o.logger,
		name:    o.name,
	}

	for i := range p.handles {
		p.handles[i] = uint32(i)
		p.tags[i] = tag{pos: i, generation: 1}
	}

	return p
}

// Spawn activates a slot and returns its handle. The most recently killed slot
// id is reused first; otherwise the slot at position Count() is claimed.
// Returns false when the pool is full. Slot data is not touched.
func (p *Pool[T, P]) Spawn() (Spawn, bool) {
	p.checkMutable("Spawn")

	if p.len == len(p.data) {
		p.counters.exhausted++
		p.log.Debug("pool exhausted", zap.Int("capacity", len(p.data)))
		return 0, false
	}

	var id uint32
	if n := len(p.free); n > 0 {
		id = p.free[n-1]
		p.free = p.free[:n-1]
		p.swapHandles(p.tags[id].pos, p.len)
	} else {
		id = p.handles[p.len]
	}

	t := &p.tags[id]
	t.active = true
	p.len++
	p.counters.spawns++

	return NewSpawn(id, t.generation), true
}

// Kill deactivates the slot behind s. If it is not the last active slot, the
// last active slot's data and mask are swapped into its position. The slot id
// is pushed onto the free list and its generation advanced, so s and all its
// copies become stale.
func (p *Pool[T, P]) Kill(s Spawn) error {
	p.checkMutable("Kill")

	id := s.ID()
	if int(id) >= len(p.tags) || p.tags[id].generation != s.Generation() {
		p.log.Debug("kill rejected", zap.Uint32("id", id), zap.Error(ErrStaleSpawn))
		return fmt.Errorf("kill spawn %d: %w", id, ErrStaleSpawn)
	}

	t := &p.tags[id]
	if !t.active {
		p.log.Debug("kill rejected", zap.Uint32("id", id), zap.Error(ErrKillInactive))
		return fmt.Errorf("kill spawn %d: %w", id, ErrKillInactive)
	}

	pos := t.pos
	last := p.len - 1
	if pos != last {
		p.data[pos], p.data[last] = p.data[last], p.data[pos]
		p.masks[pos], p.masks[last] = p.masks[last], p.masks[pos]
		p.swapHandles(pos, last)
		p.syncRef(p.handles[pos])
	}
	p.masks[last] = 0

	t.active = false
	t.generation++
	if t.generation == 0 {
		t.generation = 1
	}
	p.len--
	p.free = append(p.free, id)
	p.releaseRef(id)
	p.counters.kills++

	return nil
}

// Reset kills every active spawn. Slot data is left in place.
func (p *Pool[T, P]) Reset() {
	p.checkMutable("Reset")
	for p.len > 0 {
		id := p.handles[p.len-1]
		_ = p.Kill(NewSpawn(id, p.tags[id].generation))
	}
}

// Fetch returns a pointer to the data of s. The pointer is only valid until the
// next Kill, which may move data between positions.
func (p *Pool[T, P]) Fetch(s Spawn) (*T, error) {
	t, err := p.resolve(s)
	if err != nil {
		return nil, fmt.Errorf("fetch spawn %d: %w", s.ID(), err)
	}
	return &p.data[t.pos], nil
}

// MustFetch is like Fetch but panics on a stale spawn.
func (p *Pool[T, P]) MustFetch(s Spawn) *T {
	item, err := p.Fetch(s)
	if err != nil {
		panic(err)
	}
	return item
}

// Read returns a copy of the data of s.
func (p *Pool[T, P]) Read(s Spawn) (T, error) {
	t, err := p.resolve(s)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("read spawn %d: %w", s.ID(), err)
	}
	return p.data[t.pos], nil
}

// HandleAt returns the handle of the slot currently stored at pos, or the zero
// Spawn when that slot is inactive (pos at or beyond Count()).
func (p *Pool[T, P]) HandleAt(pos int) Spawn {
	if pos < 0 || pos >= len(p.handles) {
		panic(fmt.Sprintf("swarm: position %d out of range [0, %d)", pos, len(p.handles)))
	}
	id := p.handles[pos]
	if !p.tags[id].active {
		return 0
	}
	return NewSpawn(id, p.tags[id].generation)
}

// Pos returns the current storage position of s.
func (p *Pool[T, P]) Pos(s Spawn) (int, error) {
	t, err := p.resolve(s)
	if err != nil {
		return -1, err
	}
	return t.pos, nil
}

// IsActive reports whether s refers to a live slot.
func (p *Pool[T, P]) IsActive(s Spawn) bool {
	_, err := p.resolve(s)
	return err == nil
}

// Count returns the number of active slots.
func (p *Pool[T, P]) Count() int { return p.len }

// Capacity returns the fixed number of slots.
func (p *Pool[T, P]) Capacity() int { return len(p.data) }

// Properties returns the shared properties owned by the pool.
func (p *Pool[T, P]) Properties() *P { return &p.props }

// Ref returns the shared SpawnRef for s, creating it on first use. Repeated
// calls for the same live spawn return the same pointer.
func (p *Pool[T, P]) Ref(s Spawn) (*SpawnRef, error) {
	t, err := p.resolve(s)
	if err != nil {
		return nil, fmt.Errorf("ref spawn %d: %w", s.ID(), err)
	}

	id := s.ID()
	if weakPtr, ok := p.refs.Get(id); ok {
		if ref := weakPtr.Value(); ref != nil {
			return ref, nil
		}
		// Weak pointer is dead, remove it
		p.refs.Del(id)
	}

	ref := &SpawnRef{
		Spawn:  s,
		Pos:    t.pos,
		Active: true,
	}
	p.refs.Put(id, weak.Make(ref))

	return ref, nil
}

func (p *Pool[T, P]) resolve(s Spawn) (*tag, error) {
	id := s.ID()
	if int(id) >= len(p.tags) {
		return nil, ErrStaleSpawn
	}
	t := &p.tags[id]
	if !t.active || t.generation != s.Generation() {
		return nil, ErrStaleSpawn
	}
	return t, nil
}

// swapHandles exchanges the slot ids stored at positions i and j.
func (p *Pool[T, P]) swapHandles(i, j int) {
	if i == j {
		return
	}
	a, b := p.handles[i], p.handles[j]
	p.handles[i], p.handles[j] = b, a
	p.tags[a].pos = j
	p.tags[b].pos = i
}

func (p *Pool[T, P]) syncRef(id uint32) {
	weakPtr, ok := p.refs.Get(id)
	if !ok {
		return
	}
	if ref := weakPtr.Value(); ref != nil {
		ref.Pos = p.tags[id].pos
		return
	}
	p.refs.Del(id)
}

func (p *Pool[T, P]) releaseRef(id uint32) {
	weakPtr, ok := p.refs.Get(id)
	if !ok {
		return
	}
	if ref := weakPtr.Value(); ref != nil {
		ref.Active = false
	}
	p.refs.Del(id)
}

func (p *Pool[T, P]) checkMutable(op string) {
	if p.locked != "" {
		panic("swarm: " + op + " called during " + p.locked)
	}
}

// lock marks the pool as inside a non-reentrant iteration until the returned
// function is called.
func (p *Pool[T, P]) lock(op string) func() {
	prev := p.locked
	p.locked = op
	return func() { p.locked = prev }
}
