package bootstrap

import (
	"time"

	"github.com/skillsenselab/regkit/lifecycle"
	"github.com/skillsenselab/regkit/logger"
)

// Option configures the App during creation.
type Option func(*appOptions)

type appOptions struct {
	logger          *logger.Logger
	gracefulTimeout *time.Duration
	serviceOpts     []lifecycle.Option
}

func resolveOptions(opts []Option) *appOptions {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets a custom logger for the application. If not set, the
// logger is built from the config's Logging section.
func WithLogger(l *logger.Logger) Option {
	return func(o *appOptions) { o.logger = l }
}

// WithGracefulTimeout sets the maximum duration for graceful shutdown.
func WithGracefulTimeout(d time.Duration) Option {
	return func(o *appOptions) { o.gracefulTimeout = &d }
}

// WithServiceOptions passes options through to the registration lifecycle
// service, e.g. a custom registry client factory.
func WithServiceOptions(opts ...lifecycle.Option) Option {
	return func(o *appOptions) { o.serviceOpts = append(o.serviceOpts, opts...) }
}
