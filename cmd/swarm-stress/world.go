package main

import (
	"fmt"
	"math/rand/v2"

	"github.com/plus3/spawnpool/swarm"
	"go.uber.org/zap"
)

// Particle is the slot type the stress run churns through the pool.
type Particle struct {
	X, Y   float64
	DX, DY float64
	Energy int
	Age    int
}

// World is shared by every slot of the pool.
type World struct {
	Frames  int64
	Spawned int64
	Killed  int64
	Dropped int64 // respawns refused by a full pool
	Expired int64
}

// maxAge is the number of frames a particle lives before it is queued for
// removal through the frame's command buffer.
const maxAge = 600

type simulation struct {
	pool      *swarm.Pool[Particle, World]
	scheduler *swarm.Scheduler[Particle, World]
	rng       *rand.Rand
	cfg       RunConfig
}

func newSimulation(cfg RunConfig, log *zap.Logger) *simulation {
	pool := swarm.New[Particle](cfg.Capacity, World{},
		swarm.WithLogger(log), swarm.WithName("particles"))

	sim := &simulation{
		pool:      pool,
		scheduler: swarm.NewScheduler(pool, swarm.WithLogger(log)),
		rng:       rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		cfg:       cfg,
	}

	sim.scheduler.Register(&movementSystem{})
	for i := range cfg.Systems {
		c := swarm.Component(i % cfg.Components)
		sim.scheduler.Register(swarm.NewSystemBuilder(energize).
			RequiresComponent(c).
			Named(fmt.Sprintf("energy-%02d", i)).
			Build())
	}
	sim.scheduler.Register(&churnSystem{sim: sim})
	sim.scheduler.Register(&expirySystem{})

	return sim
}

// populate spawns up to n particles and returns how many were placed.
func (sim *simulation) populate(n int) int {
	placed := 0
	for range n {
		s, ok := sim.pool.Spawn()
		if !ok {
			break
		}
		sim.initialize(s, sim.pool.MustFetch(s), sim.pool.AddComponent)
		placed++
	}
	return placed
}

// initialize randomizes a fresh particle and hands it one to three components.
func (sim *simulation) initialize(s swarm.Spawn, p *Particle, add func(swarm.Spawn, swarm.Component) error) {
	*p = Particle{
		X:  sim.rng.Float64() * 1000,
		Y:  sim.rng.Float64() * 1000,
		DX: sim.rng.Float64()*2 - 1,
		DY: sim.rng.Float64()*2 - 1,
	}
	for range sim.rng.IntN(3) + 1 {
		_ = add(s, swarm.Component(sim.rng.IntN(sim.cfg.Components)))
	}
}

func (sim *simulation) frame(dt float64) {
	sim.pool.Properties().Frames++
	sim.scheduler.Once(dt)
}

func energize(s swarm.Spawn, pool *swarm.Pool[Particle, World]) {
	pool.MustFetch(s).Energy++
}

type movementSystem struct{}

func (movementSystem) Execute(frame *swarm.UpdateFrame[Particle, World]) {
	dt := frame.DeltaTime
	frame.Pool.ForAll(func(pos int, items []Particle, _ *World) {
		p := &items[pos]
		p.X += p.DX * dt
		p.Y += p.DY * dt
		p.Age++
	})
}

// churnSystem kills a random fraction of the pool mid-pass and respawns the
// same number of particles in their place.
type churnSystem struct {
	sim *simulation
}

func (c *churnSystem) Execute(frame *swarm.UpdateFrame[Particle, World]) {
	rate := c.sim.cfg.Churn
	if rate == 0 {
		return
	}

	frame.Pool.Update(func(ctl *swarm.Control[Particle, World]) {
		if c.sim.rng.Float64() >= rate {
			return
		}
		if err := ctl.KillCurrent(); err != nil {
			return
		}
		world := ctl.Properties()
		world.Killed++

		s, ok := ctl.Spawn()
		if !ok {
			world.Dropped++
			return
		}
		p, _ := ctl.Fetch(s)
		c.sim.initialize(s, p, ctl.AddComponent)
		world.Spawned++
	})
}

// expirySystem queues particles past maxAge for removal at the end of the
// frame and queues a replacement for each.
type expirySystem struct{}

func (expirySystem) Execute(frame *swarm.UpdateFrame[Particle, World]) {
	world := frame.Pool.Properties()
	for s, p := range frame.Pool.All() {
		if p.Age < maxAge {
			continue
		}
		frame.Commands.Kill(s)
		frame.Commands.Spawn(func(p *Particle) {
			*p = Particle{DX: 1, DY: 1}
		})
		world.Expired++
	}
}
