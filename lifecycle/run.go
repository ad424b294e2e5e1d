package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"github.com/skillsenselab/regkit/errors"
	"github.com/skillsenselab/regkit/logger"
	"github.com/skillsenselab/regkit/registry"
	"github.com/skillsenselab/regkit/util"
	"github.com/skillsenselab/regkit/validation"
)

// Options configures Run.
type Options struct {
	// Enabled turns registration on. When false, Run executes the work
	// function without touching the registry at all.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`

	// Provider selects the registry backend.
	Provider string `yaml:"provider" mapstructure:"provider"`

	// RegistryAddr is the registry server address.
	RegistryAddr string `yaml:"registry_addr" mapstructure:"registry_addr" validate:"required"`

	// Namespace isolates registrations, where the backend supports it.
	Namespace string `yaml:"namespace" mapstructure:"namespace"`

	// ServiceName is the name to register under.
	ServiceName string `yaml:"service_name" mapstructure:"service_name" validate:"required"`

	// ServiceAddr is this instance's address as "ip:port".
	ServiceAddr string `yaml:"service_addr" mapstructure:"service_addr" validate:"required"`

	// Ephemeral controls registration mode. Nil means ephemeral.
	Ephemeral *bool `yaml:"ephemeral" mapstructure:"ephemeral"`

	// Metadata is attached to the registration. An instance_id entry is
	// generated when absent.
	Metadata map[string]string `yaml:"metadata" mapstructure:"metadata"`

	// Username and Password authenticate against the registry, if required.
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`

	// Permissive downgrades failures to log lines: invalid options or a
	// failed work function no longer abort the run. Intended for services
	// where registration is an optional extra.
	Permissive bool `yaml:"permissive" mapstructure:"permissive"`

	// Config holds the lifecycle timing knobs. Zero fields get defaults.
	Config Config `yaml:"config" mapstructure:"config"`
}

// descriptor validates the options and derives the instance Descriptor.
func (o Options) descriptor() (Descriptor, error) {
	if err := validation.Validate(o); err != nil {
		return Descriptor{}, err
	}

	host, port, err := util.ParseHostPort(o.ServiceAddr)
	if err != nil {
		return Descriptor{}, errors.InvalidInput("service_addr must be \"ip:port\"").WithCause(err)
	}

	metadata := make(map[string]string, len(o.Metadata)+1)
	for k, v := range o.Metadata {
		metadata[k] = v
	}
	if _, ok := metadata["instance_id"]; !ok {
		metadata["instance_id"] = uuid.NewString()
	}

	return Descriptor{
		Name:      o.ServiceName,
		IP:        host,
		Port:      port,
		Ephemeral: util.DerefOr(o.Ephemeral, true),
		Metadata:  metadata,
	}, nil
}

// NewFromOptions validates opts and builds a Service from them. Callers that
// want to manage the lifecycle themselves (or through a component registry)
// use this instead of Run.
func NewFromOptions(opts Options, svcOpts ...Option) (*Service, error) {
	desc, err := opts.descriptor()
	if err != nil {
		return nil, err
	}
	return New(desc, registry.Config{
		Provider:  opts.Provider,
		Address:   opts.RegistryAddr,
		Namespace: opts.Namespace,
		Username:  opts.Username,
		Password:  opts.Password,
	}, append([]Option{WithConfig(opts.Config)}, svcOpts...)...), nil
}

// Run wraps work with the registration lifecycle: it registers the service,
// installs signal-driven shutdown, executes work, and deregisters when work
// returns. When opts.Enabled is false the work function runs bare.
//
// An unbuildable registry client aborts the run. A registration that fails
// after retries does not; the service runs unregistered. In permissive mode
// invalid options and work errors are logged instead of returned.
func Run(ctx context.Context, opts Options, work func(context.Context) error, svcOpts ...Option) error {
	if !opts.Enabled {
		return work(ctx)
	}

	// Surface the caller's logger, if one was passed, for the log lines
	// emitted before the Service exists.
	log := logger.NewDefault(opts.ServiceName)
	probe := &Service{}
	for _, opt := range svcOpts {
		opt(probe)
	}
	if probe.log != nil {
		log = probe.log
	}

	svc, err := NewFromOptions(opts, append([]Option{WithLogger(log)}, svcOpts...)...)
	if err != nil {
		if opts.Permissive {
			log.Warn("invalid registration options, running unregistered", logger.Fields(
				"error", err.Error(),
			))
			return work(ctx)
		}
		return err
	}

	coord := NewShutdownCoordinator(svc, log)
	coord.Install()
	defer coord.Restore()

	if err := svc.Start(ctx); err != nil {
		if opts.Permissive {
			log.Warn("registry client unavailable, running unregistered", logger.Fields(
				"error", err.Error(),
			))
			return work(ctx)
		}
		return err
	}
	defer func() { _ = svc.Stop(context.Background()) }()

	if err := work(ctx); err != nil {
		if opts.Permissive {
			log.Error("work function failed", logger.ErrorFields("work", err))
			return nil
		}
		return err
	}
	return nil
}
