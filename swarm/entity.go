package swarm

import (
	"fmt"
	"math/bits"
)

// MaxComponents is the number of distinct components an Entity mask can hold.
// Bit 0 is reserved so that an empty mask never collides with component 0.
const MaxComponents = 63

// Component identifies one component kind, 0 through MaxComponents-1.
type Component uint8

// Valid reports whether c fits in an Entity mask
func (c Component) Valid() bool {
	return c < MaxComponents
}

func (c Component) bit() Entity {
	return Entity(1) << (uint(c) + 1)
}

// Entity is the component bitmask carried by every pool slot. A zero Entity
// has no components.
type Entity uint64

// MaskOf builds a mask with the given components set. Panics on an invalid
// component.
func MaskOf(components ...Component) Entity {
	var e Entity
	for _, c := range components {
		e = e.With(c)
	}
	return e
}

// With returns e with component c set
func (e Entity) With(c Component) Entity {
	if !c.Valid() {
		panic(fmt.Sprintf("swarm: component %d exceeds maximum (%d)", c, MaxComponents-1))
	}
	return e | c.bit()
}

// Without returns e with component c cleared
func (e Entity) Without(c Component) Entity {
	if !c.Valid() {
		panic(fmt.Sprintf("swarm: component %d exceeds maximum (%d)", c, MaxComponents-1))
	}
	return e &^ c.bit()
}

// Has reports whether component c is set
func (e Entity) Has(c Component) bool {
	return c.Valid() && e&c.bit() != 0
}

// Contains reports whether every component in required is also set in e.
func (e Entity) Contains(required Entity) bool {
	return e&required == required
}

// IsEmpty reports whether no component is set
func (e Entity) IsEmpty() bool {
	return e == 0
}

// Components lists the set components in ascending order.
func (e Entity) Components() []Component {
	out := make([]Component, 0, bits.OnesCount64(uint64(e>>1)))
	for rest := uint64(e >> 1); rest != 0; rest &= rest - 1 {
		out = append(out, Component(bits.TrailingZeros64(rest)))
	}
	return out
}

// AddComponent sets component c on the slot behind s.
func (p *Pool[T, P]) AddComponent(s Spawn, c Component) error {
	if !c.Valid() {
		return fmt.Errorf("add component %d: %w", c, ErrInvalidComponent)
	}
	t, err := p.resolve(s)
	if err != nil {
		return fmt.Errorf("add component %d to spawn %d: %w", c, s.ID(), err)
	}
	p.masks[t.pos] |= c.bit()
	return nil
}

// RemoveComponent clears component c on the slot behind s.
func (p *Pool[T, P]) RemoveComponent(s Spawn, c Component) error {
	if !c.Valid() {
		return fmt.Errorf("remove component %d: %w", c, ErrInvalidComponent)
	}
	t, err := p.resolve(s)
	if err != nil {
		return fmt.Errorf("remove component %d from spawn %d: %w", c, s.ID(), err)
	}
	p.masks[t.pos] &^= c.bit()
	return nil
}

// HasComponent reports whether the live slot behind s carries component c.
func (p *Pool[T, P]) HasComponent(s Spawn, c Component) bool {
	t, err := p.resolve(s)
	if err != nil {
		return false
	}
	return p.masks[t.pos].Has(c)
}

// Mask returns the component mask of s.
func (p *Pool[T, P]) Mask(s Spawn) (Entity, error) {
	t, err := p.resolve(s)
	if err != nil {
		return 0, fmt.Errorf("mask of spawn %d: %w", s.ID(), err)
	}
	return p.masks[t.pos], nil
}
