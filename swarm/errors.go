package swarm

import "errors"

var (
	// ErrStaleSpawn is returned when a spawn's generation no longer matches its
	// slot, meaning the spawn was killed (and possibly its slot reused).
	ErrStaleSpawn = errors.New("swarm: stale spawn")

	// ErrKillInactive is returned when killing a slot that is not active.
	ErrKillInactive = errors.New("swarm: kill of inactive spawn")

	// ErrPoolExhausted is returned by deferred spawns that find the pool full.
	ErrPoolExhausted = errors.New("swarm: pool exhausted")

	// ErrInvalidComponent is returned for component ids at or above MaxComponents.
	ErrInvalidComponent = errors.New("swarm: invalid component")
)
