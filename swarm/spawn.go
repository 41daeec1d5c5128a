package swarm

// Spawn is a stable handle to a pool slot. It encodes the generation (upper 32
// bits) and the slot id (lower 32 bits). Copying a Spawn mirrors it; every copy
// resolves to the same slot until that slot is killed.
type Spawn uint64

// NewSpawn creates a Spawn from a slot id and a generation
func NewSpawn(id uint32, generation uint32) Spawn {
	return Spawn(uint64(generation)<<32 | uint64(id))
}

// ID extracts the slot id. Ids are stable for the lifetime of the pool and are
// reused, with a new generation, after a kill.
func (s Spawn) ID() uint32 {
	return uint32(s & 0xFFFFFFFF)
}

// Generation extracts the generation the spawn was handed out with
func (s Spawn) Generation() uint32 {
	return uint32(s >> 32)
}

// IsZero reports whether s is the zero Spawn, which no pool ever returns
func (s Spawn) IsZero() bool {
	return s == 0
}

// tag is the pool-side identity record of one slot id.
type tag struct {
	pos        int
	generation uint32
	active     bool
}

// SpawnRef is a shared, mutable view of a spawn's identity. The pool hands out
// one SpawnRef per live spawn and keeps Pos and Active current as the slot is
// moved by compaction or killed.
type SpawnRef struct {
	Spawn  Spawn
	Pos    int
	Active bool
}

// ID returns the slot id of the referenced spawn
func (r *SpawnRef) ID() uint32 {
	return r.Spawn.ID()
}
