package swarm

// Runner is anything a Scheduler can execute once per frame.
type Runner[T, P any] interface {
	Execute(frame *UpdateFrame[T, P])
}

// RunnerFunc adapts a plain function to a Runner.
type RunnerFunc[T, P any] func(frame *UpdateFrame[T, P])

// Execute calls f(frame).
func (f RunnerFunc[T, P]) Execute(frame *UpdateFrame[T, P]) {
	f(frame)
}

// SystemFunc is the per-slot callback of a System.
type SystemFunc[T, P any] func(spawn Spawn, pool *Pool[T, P])

// System runs its callback on every active slot whose component mask contains
// all of the system's required components.
type System[T, P any] struct {
	name     string
	required Entity
	update   SystemFunc[T, P]
}

// Run visits the pool once. Masks are tested as each slot is reached, and the
// callback may spawn, kill and change components through the pool.
func (s *System[T, P]) Run(pool *Pool[T, P]) {
	pool.visit("System.Run", func(_ int, id uint32) {
		t := &pool.tags[id]
		if !pool.masks[t.pos].Contains(s.required) {
			return
		}
		s.update(NewSpawn(id, t.generation), pool)
	})
}

// Execute runs the system against the frame's pool.
func (s *System[T, P]) Execute(frame *UpdateFrame[T, P]) {
	s.Run(frame.Pool)
}

// Required returns the mask a slot must contain for the system to act on it.
func (s *System[T, P]) Required() Entity { return s.required }

// Name returns the name given to the builder, or "System".
func (s *System[T, P]) Name() string { return s.name }

// SystemBuilder accumulates a System's requirements.
type SystemBuilder[T, P any] struct {
	system *System[T, P]
}

// NewSystemBuilder starts a System around the given callback.
func NewSystemBuilder[T, P any](update SystemFunc[T, P]) *SystemBuilder[T, P] {
	if update == nil {
		panic("swarm: nil system callback")
	}
	return &SystemBuilder[T, P]{
		system: &System[T, P]{
			name:   "System",
			update: update,
		},
	}
}

// RequiresComponent adds c to the components a slot must carry.
func (b *SystemBuilder[T, P]) RequiresComponent(c Component) *SystemBuilder[T, P] {
	b.system.required = b.system.required.With(c)
	return b
}

// Named sets the name reported in scheduler stats.
func (b *SystemBuilder[T, P]) Named(name string) *SystemBuilder[T, P] {
	b.system.name = name
	return b
}

// Build returns the finished System.
func (b *SystemBuilder[T, P]) Build() *System[T, P] {
	s := *b.system
	return &s
}
