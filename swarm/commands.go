package swarm

import (
	"errors"
	"fmt"

	"github.com/eapache/queue"
)

// Commands buffers pool mutations so they can be applied after an iteration
// pass instead of during it. Kills are applied first, then the remaining
// commands in the order they were queued.
type Commands[T, P any] struct {
	kills  *queue.Queue
	ops    *queue.Queue
	queued map[Spawn]struct{}
}

// NewCommands creates an empty command buffer.
func NewCommands[T, P any]() *Commands[T, P] {
	return &Commands[T, P]{
		kills:  queue.New(),
		ops:    queue.New(),
		queued: make(map[Spawn]struct{}),
	}
}

type commandKind uint8

const (
	commandSpawn commandKind = iota
	commandAddComponent
	commandRemoveComponent
	commandDefer
)

type command[T any] struct {
	kind      commandKind
	spawn     Spawn
	component Component
	init      func(*T)
	fn        func()
}

// Kill queues a kill. Queuing the same spawn twice is a no-op.
func (c *Commands[T, P]) Kill(s Spawn) {
	if _, ok := c.queued[s]; ok {
		return
	}
	c.queued[s] = struct{}{}
	c.kills.Add(s)
}

// Spawn queues a spawn; init, if non-nil, populates the new slot's data.
func (c *Commands[T, P]) Spawn(init func(item *T)) {
	c.ops.Add(command[T]{kind: commandSpawn, init: init})
}

// AddComponent queues setting component comp on s.
func (c *Commands[T, P]) AddComponent(s Spawn, comp Component) {
	c.ops.Add(command[T]{kind: commandAddComponent, spawn: s, component: comp})
}

// RemoveComponent queues clearing component comp on s.
func (c *Commands[T, P]) RemoveComponent(s Spawn, comp Component) {
	c.ops.Add(command[T]{kind: commandRemoveComponent, spawn: s, component: comp})
}

// Defer queues a function execution operation.
func (c *Commands[T, P]) Defer(fn func()) {
	c.ops.Add(command[T]{kind: commandDefer, fn: fn})
}

// Len returns the number of queued commands.
func (c *Commands[T, P]) Len() int {
	return c.kills.Length() + c.ops.Length()
}

// Flush applies every queued command to pool and empties the buffer. Component
// changes aimed at spawns killed in the same flush are dropped. Commands queued
// while flushing, from a deferred function or a spawn init, are applied before
// Flush returns. Failures do not stop the flush; they are returned joined.
func (c *Commands[T, P]) Flush(pool *Pool[T, P]) error {
	var errs []error

	for c.Len() > 0 {
		for c.kills.Length() > 0 {
			s := c.kills.Remove().(Spawn)
			if err := pool.Kill(s); err != nil {
				errs = append(errs, err)
			}
		}

		// A kill queued by an op below is picked up on the next round
		for c.kills.Length() == 0 && c.ops.Length() > 0 {
			errs = c.apply(pool, c.ops.Remove().(command[T]), errs)
		}
	}

	clear(c.queued)
	return errors.Join(errs...)
}

func (c *Commands[T, P]) apply(pool *Pool[T, P], cmd command[T], errs []error) []error {
	switch cmd.kind {
	case commandSpawn:
		s, ok := pool.Spawn()
		if !ok {
			return append(errs, fmt.Errorf("deferred spawn: %w", ErrPoolExhausted))
		}
		if cmd.init != nil {
			cmd.init(pool.MustFetch(s))
		}
	case commandAddComponent:
		if _, killed := c.queued[cmd.spawn]; killed {
			return errs
		}
		if err := pool.AddComponent(cmd.spawn, cmd.component); err != nil {
			return append(errs, err)
		}
	case commandRemoveComponent:
		if _, killed := c.queued[cmd.spawn]; killed {
			return errs
		}
		if err := pool.RemoveComponent(cmd.spawn, cmd.component); err != nil {
			return append(errs, err)
		}
	case commandDefer:
		cmd.fn()
	}
	return errs
}
