package swarm

import "go.uber.org/zap"

type options struct {
	logger *zap.Logger
	name   string
}

// Option configures a Pool or a Scheduler.
type Option func(*options)

// WithLogger sets the logger used for diagnostics. The default discards output.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithName labels log output and stats with a pool name.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name != "" {
		o.logger = o.logger.With(zap.String("pool", o.name))
	}
	return o
}
