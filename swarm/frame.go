package swarm

type UpdateFrame[T, P any] struct {
	DeltaTime float64
	Commands  *Commands[T, P]
	Pool      *Pool[T, P]
}

func newUpdateFrame[T, P any](dt float64, pool *Pool[T, P], commands *Commands[T, P]) *UpdateFrame[T, P] {
	return &UpdateFrame[T, P]{
		DeltaTime: dt,
		Commands:  commands,
		Pool:      pool,
	}
}
