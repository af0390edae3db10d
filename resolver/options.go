package resolver

import "log/slog"

type options struct {
	tolerance float64
	logger    *slog.Logger
}

type Option interface {
	apply(*options)
}

type tolerance float64

func (r tolerance) apply(o *options) {
	o.tolerance = float64(r)
}

// WithTolerance sets the click buffer radius in degrees. Default: 0.01
func WithTolerance(radius float64) Option {
	return tolerance(radius)
}

type loggerOption struct {
	logger *slog.Logger
}

func (l loggerOption) apply(o *options) {
	o.logger = l.logger
}

func WithLogger(logger *slog.Logger) Option {
	return loggerOption{logger: logger}
}

func loadOptions(opts ...Option) options {
	options := options{
		tolerance: DefaultTolerance,
		logger:    slog.Default(),
	}
	for _, o := range opts {
		o.apply(&options)
	}
	return options
}
