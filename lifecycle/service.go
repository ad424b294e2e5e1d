package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/skillsenselab/regkit/errors"
	"github.com/skillsenselab/regkit/logger"
	"github.com/skillsenselab/regkit/observability"
	"github.com/skillsenselab/regkit/registry"
	"github.com/skillsenselab/regkit/resilience"
)

// Service manages the registration lifecycle of one service instance. It is
// single-use: a Service is started once and stopped once; build a new one to
// register again.
//
// All registry calls go through a single mutex, so at most one operation is
// in flight against the registry at any time.
type Service struct {
	desc        Descriptor
	cfg         Config
	regCfg      registry.Config
	providerCfg any
	factory     registry.Factory
	log         *logger.Logger
	metrics     *observability.Metrics

	mu         sync.Mutex
	client     registry.Client
	registered bool

	stopCh    chan struct{}
	stopOnce  sync.Once
	closeOnce sync.Once
	hbDone    chan struct{}
	hbStarted bool
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithConfig sets the lifecycle timing configuration. Zero fields are filled
// with defaults.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithClientFactory overrides how the registry client is constructed. The
// default resolves the provider named in the registry configuration.
func WithClientFactory(f registry.Factory) Option {
	return func(s *Service) { s.factory = f }
}

// WithProviderConfig passes backend-specific configuration (for example
// *consul.Config) through to the provider factory.
func WithProviderConfig(cfg any) Option {
	return func(s *Service) { s.providerCfg = cfg }
}

// WithMetrics enables recording of registry operation metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New creates a Service for the given instance and registry.
func New(desc Descriptor, regCfg registry.Config, opts ...Option) *Service {
	s := &Service{
		desc:    desc,
		regCfg:  regCfg,
		factory: registry.NewClient,
		stopCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cfg.ApplyDefaults()
	if s.log == nil {
		s.log = logger.NewDefault(desc.Name)
	}
	s.log = s.log.WithComponent("lifecycle")
	if s.log.Service() == "" {
		s.log = s.log.WithFields(map[string]interface{}{logger.FieldService: desc.Name})
	}
	return s
}

// Start builds the registry client and registers the instance, retrying per
// configuration. A client that cannot be constructed is fatal and returned as
// an error. Registration that fails after all retries is not: the error is
// logged, Start returns nil, and the service simply runs unregistered.
//
// When the instance is ephemeral and registration succeeded, Start launches
// the heartbeat loop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	err := s.initClientLocked()
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.RegisterWithRetry(ctx); err != nil {
		s.log.Error("registration failed, continuing unregistered", logger.ErrorFields("register", err))
		return nil
	}

	if s.desc.Ephemeral {
		s.startHeartbeat()
		s.log.Info("heartbeat loop started", logger.Fields(
			"interval", s.cfg.HeartbeatInterval.String(),
			"max_failures", s.cfg.HeartbeatMaxFailures,
		))
	}
	return nil
}

// Stop shuts the lifecycle down: it signals the heartbeat loop, waits up to
// UnregisterTimeout for it to exit, removes the instance from the registry if
// it is still registered, and closes the client. Deregistration is
// best-effort; a failed remove is logged, never returned. Stop is idempotent;
// only the first call touches the registry.
func (s *Service) Stop(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })

	s.mu.Lock()
	hbDone := s.hbDone
	s.mu.Unlock()
	if hbDone != nil {
		select {
		case <-hbDone:
		case <-time.After(s.cfg.UnregisterTimeout):
			s.log.Warn("heartbeat loop did not exit before timeout", logger.Fields(
				"timeout", s.cfg.UnregisterTimeout.String(),
			))
		}
	}

	var removeErr error
	s.mu.Lock()
	if s.registered {
		removeErr = s.removeLocked(ctx)
		// The registry is the source of truth. Whether or not the remove
		// went through, this instance no longer considers itself
		// registered, and an ephemeral entry expires on its own.
		s.registered = false
	}
	client := s.client
	s.mu.Unlock()

	if removeErr != nil {
		s.log.Warn("deregistration failed", logger.ErrorFields("deregister", removeErr))
	}

	if client != nil {
		s.closeOnce.Do(func() {
			if err := client.Close(); err != nil {
				s.log.Warn("registry client close failed", logger.ErrorFields("close", err))
			}
		})
	}

	s.log.Info("service lifecycle stopped")
	return nil
}

// Run executes work inside this service's lifecycle: Start, work, then Stop
// on every exit path.
func (s *Service) Run(ctx context.Context, work func(context.Context) error) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = s.Stop(context.Background()) }()
	return work(ctx)
}

// Registered reports whether the instance is currently registered.
func (s *Service) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registered
}

// RegisterWithRetry registers the instance, retrying up to RegisterRetries
// attempts with a fixed RegisterRetryDelay between them.
func (s *Service) RegisterWithRetry(ctx context.Context) error {
	err := resilience.RetryFunc(ctx, resilience.RetryConfig{
		MaxAttempts:    s.cfg.RegisterRetries,
		InitialBackoff: s.cfg.RegisterRetryDelay,
		BackoffFactor:  1.0,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			s.log.Warn("registration attempt failed", logger.Fields(
				"attempt", attempt,
				"max_attempts", s.cfg.RegisterRetries,
				"retry_in", backoff.String(),
				"error", err.Error(),
			))
		},
	}, func() error {
		return s.registerOnce(ctx)
	})
	if err != nil {
		return errors.RegistrationFailed(s.desc.Name).WithCause(err)
	}
	return nil
}

// registerOnce performs a single AddInstance call and marks the service
// registered on success.
func (s *Service) registerOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.initClientLocked(); err != nil {
		return err
	}

	start := time.Now()
	err := s.client.AddInstance(ctx, s.desc.Name, s.desc.IP, s.desc.Port, s.desc.Ephemeral, s.desc.Metadata)
	s.observe(ctx, "register", start, err)
	if err != nil {
		return err
	}

	s.registered = true
	s.log.Info("service registered", logger.Fields(
		"ip", s.desc.IP,
		"port", s.desc.Port,
		"ephemeral", s.desc.Ephemeral,
	))
	return nil
}

// removeOnce performs a single RemoveInstance call.
func (s *Service) removeOnce(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeLocked(ctx)
}

func (s *Service) removeLocked(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	start := time.Now()
	err := s.client.RemoveInstance(ctx, s.desc.Name, s.desc.IP, s.desc.Port)
	s.observe(ctx, "deregister", start, err)
	if err != nil {
		return errors.DeregistrationFailed(s.desc.Name).WithCause(err)
	}
	s.registered = false
	s.log.Info("service deregistered")
	return nil
}

// sendHeartbeat performs a single SendHeartbeat call.
func (s *Service) sendHeartbeat(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return errors.ClientUnavailable(s.regCfg.Provider)
	}
	start := time.Now()
	err := s.client.SendHeartbeat(ctx, s.desc.Name, s.desc.IP, s.desc.Port)
	s.observe(ctx, "heartbeat", start, err)
	if err != nil {
		return errors.HeartbeatFailed(s.desc.Name).WithCause(err)
	}
	return nil
}

// initClientLocked lazily builds the registry client. Callers must hold mu.
func (s *Service) initClientLocked() error {
	if s.client != nil {
		return nil
	}
	client, err := s.factory(s.regCfg, s.providerCfg, s.log)
	if err != nil {
		return errors.ClientUnavailable(s.regCfg.Provider).WithCause(err)
	}
	s.client = client
	s.log.Debug("registry client initialized", logger.Fields("provider", s.regCfg.Provider))
	return nil
}

func (s *Service) observe(ctx context.Context, operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
		s.metrics.RecordError(ctx, operation, s.desc.Name)
	}
	s.metrics.RecordOperation(ctx, s.desc.Name, operation, status, time.Since(start))
}

func (s *Service) stopped() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}
