// Package swarm provides a fixed-capacity pool of reusable slots with O(1)
// spawn and kill, stable generation-checked handles, three iteration modes and
// a bitmask component filter for running systems over matching slots.
package swarm
