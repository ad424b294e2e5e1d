package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/skillsenselab/regkit/component"
	"github.com/skillsenselab/regkit/lifecycle"
	"github.com/skillsenselab/regkit/logger"
	"github.com/skillsenselab/regkit/observability"
)

// App wires configuration, logging, observability, and the registration
// lifecycle into one managed application.
type App struct {
	Name       string
	Version    string
	Cfg        *Config
	Logger     *logger.Logger
	Components *component.Registry

	registration *lifecycle.Service

	gracefulTimeout time.Duration
	onStart         []Hook
	onStop          []Hook
	shutdowns       []func(context.Context) error
}

// New creates an App from a validated configuration.
func New(cfg *Config, opts ...Option) (*App, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	o := resolveOptions(opts)

	log := o.logger
	if log == nil {
		log = logger.New(&cfg.Logging, cfg.Name)
	}

	app := &App{
		Name:            cfg.Name,
		Version:         cfg.Version,
		Cfg:             cfg,
		Logger:          log,
		Components:      component.NewRegistry(log),
		gracefulTimeout: 15 * time.Second,
	}
	if o.gracefulTimeout != nil {
		app.gracefulTimeout = *o.gracefulTimeout
	}

	if err := app.initObservability(); err != nil {
		return nil, err
	}
	if err := app.initRegistration(o.serviceOpts); err != nil {
		return nil, err
	}
	return app, nil
}

// initObservability sets up the OTLP providers requested by the config and
// queues their shutdown.
func (a *App) initObservability() error {
	obs := a.Cfg.Observability
	ctx := context.Background()

	if obs.TracesEnabled {
		tp, err := observability.InitTracer(ctx, observability.TracerConfig{
			ServiceName:    a.Name,
			ServiceVersion: a.Version,
			Environment:    a.Cfg.Environment,
			Endpoint:       obs.Endpoint,
			Insecure:       obs.Insecure,
			SampleRate:     obs.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("init tracer: %w", err)
		}
		a.shutdowns = append(a.shutdowns, tp.Shutdown)
	}

	if obs.MetricsEnabled {
		mp, err := observability.InitMeter(ctx, observability.MeterConfig{
			ServiceName:    a.Name,
			ServiceVersion: a.Version,
			Environment:    a.Cfg.Environment,
			Endpoint:       obs.Endpoint,
			Insecure:       obs.Insecure,
		})
		if err != nil {
			return fmt.Errorf("init meter: %w", err)
		}
		a.shutdowns = append(a.shutdowns, mp.Shutdown)
	}
	return nil
}

// initRegistration builds the registration lifecycle component when enabled.
func (a *App) initRegistration(svcOpts []lifecycle.Option) error {
	if !a.Cfg.Registration.Enabled {
		return nil
	}

	svcOpts = append([]lifecycle.Option{lifecycle.WithLogger(a.Logger)}, svcOpts...)
	if a.Cfg.Observability.MetricsEnabled {
		metrics, err := observability.NewMetrics(observability.Meter(a.Name))
		if err != nil {
			return fmt.Errorf("init registry metrics: %w", err)
		}
		svcOpts = append(svcOpts, lifecycle.WithMetrics(metrics))
	}

	svc, err := lifecycle.NewFromOptions(a.Cfg.Registration, svcOpts...)
	if err != nil {
		return fmt.Errorf("registration options: %w", err)
	}
	a.registration = svc
	return a.Components.Register(lifecycle.AsComponent(svc))
}

// Registration returns the registration lifecycle service, or nil when
// registration is disabled.
func (a *App) Registration() *lifecycle.Service { return a.registration }

// RegisterComponent adds a component to the application's registry. It starts
// with the app and stops, in reverse registration order, on shutdown.
func (a *App) RegisterComponent(c component.Component) error {
	return a.Components.Register(c)
}

// Run starts all components, executes task, and shuts down when the task
// returns or a SIGINT/SIGTERM arrives. A nil task blocks until a signal.
func (a *App) Run(ctx context.Context, task func(ctx context.Context) error) error {
	if err := a.startup(ctx); err != nil {
		return err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			a.Logger.Info("shutdown signal received", logger.Fields(logger.FieldSignal, sig.String()))
			cancel()
		case <-taskCtx.Done():
		}
	}()

	var taskErr error
	if task != nil {
		taskErr = task(taskCtx)
	} else {
		<-taskCtx.Done()
	}

	if stopErr := a.stop(); stopErr != nil && taskErr == nil {
		return stopErr
	}
	return taskErr
}

// startup starts components and runs the OnStart hooks.
func (a *App) startup(ctx context.Context) error {
	a.Logger.Info("starting application", logger.Fields(
		"name", a.Name,
		"version", a.Version,
		"environment", a.Cfg.Environment,
	))
	start := time.Now()

	if err := a.Components.StartAll(ctx); err != nil {
		return fmt.Errorf("starting components: %w", err)
	}
	if err := runHooks(ctx, a.onStart); err != nil {
		return fmt.Errorf("onStart hook: %w", err)
	}

	a.logSummary(ctx, time.Since(start))
	return nil
}

// stop runs the OnStop hooks, stops components in reverse order, and flushes
// the observability providers, all within the graceful timeout.
func (a *App) stop() error {
	a.Logger.Info("shutting down application", logger.Fields(
		"timeout", a.gracefulTimeout.String(),
	))

	ctx, cancel := context.WithTimeout(context.Background(), a.gracefulTimeout)
	defer cancel()

	var shutdownErr error
	if err := runHooks(ctx, a.onStop); err != nil {
		a.Logger.Error("onStop hook failed", logger.ErrorFields("stop_hook", err))
		shutdownErr = err
	}
	if err := a.Components.StopAll(ctx); err != nil {
		a.Logger.Error("component shutdown reported errors", logger.ErrorFields("stop", err))
		if shutdownErr == nil {
			shutdownErr = err
		}
	}
	for _, shutdown := range a.shutdowns {
		if err := shutdown(ctx); err != nil {
			a.Logger.Warn("observability shutdown failed", logger.Fields("error", err.Error()))
		}
	}

	a.Logger.Info("application shutdown complete")
	return shutdownErr
}
