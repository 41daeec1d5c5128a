package swarm

// Control is the handle a controlled pass (Pool.Update) gives its callback. It
// is bound to the slot being visited and exposes the pool operations that are
// safe to call mid-pass.
type Control[T, P any] struct {
	pool   *Pool[T, P]
	cursor int
	self   Spawn
}

// Cursor returns the logical step of the pass, counting from zero.
func (c *Control[T, P]) Cursor() int { return c.cursor }

// Self returns the spawn being visited.
func (c *Control[T, P]) Self() Spawn { return c.self }

// Pos returns the current storage position of the visited slot, or -1 once it
// has been killed.
func (c *Control[T, P]) Pos() int {
	t, err := c.pool.resolve(c.self)
	if err != nil {
		return -1
	}
	return t.pos
}

// Alive reports whether the visited slot is still active.
func (c *Control[T, P]) Alive() bool {
	return c.pool.IsActive(c.self)
}

// Target returns the data of the visited slot, or nil once it has been killed.
func (c *Control[T, P]) Target() *T {
	t, err := c.pool.resolve(c.self)
	if err != nil {
		return nil
	}
	return &c.pool.data[t.pos]
}

// Properties returns the pool's shared properties.
func (c *Control[T, P]) Properties() *P { return &c.pool.props }

// Count returns the number of active slots right now.
func (c *Control[T, P]) Count() int { return c.pool.len }

// Fetch returns the data of any live spawn, for cross-slot reads and writes.
func (c *Control[T, P]) Fetch(s Spawn) (*T, error) {
	return c.pool.Fetch(s)
}

// Spawn activates a new slot. It is not visited by the running pass.
func (c *Control[T, P]) Spawn() (Spawn, bool) {
	return c.pool.Spawn()
}

// Kill kills any live spawn. If it has not been visited yet in this pass it
// will be skipped.
func (c *Control[T, P]) Kill(s Spawn) error {
	return c.pool.Kill(s)
}

// KillCurrent kills the visited slot.
func (c *Control[T, P]) KillCurrent() error {
	return c.pool.Kill(c.self)
}

// AddComponent sets component comp on s.
func (c *Control[T, P]) AddComponent(s Spawn, comp Component) error {
	return c.pool.AddComponent(s, comp)
}

// RemoveComponent clears component comp on s.
func (c *Control[T, P]) RemoveComponent(s Spawn, comp Component) error {
	return c.pool.RemoveComponent(s, comp)
}
