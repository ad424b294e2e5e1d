package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/skillsenselab/regkit/logger"
)

// Common registry errors.
var (
	// ErrProviderNotRegistered means no factory is registered for the
	// requested provider name.
	ErrProviderNotRegistered = errors.New("registry provider not registered")
	// ErrInstanceNotFound means the named instance is unknown to the
	// registry, e.g. a heartbeat for an instance that was never added or
	// has been evicted.
	ErrInstanceNotFound = errors.New("instance not found")
)

// Config holds the connection settings shared by all registry backends.
type Config struct {
	// Provider selects the backend: "consul", "etcd", or "memory".
	Provider string `mapstructure:"provider"`

	// Address is the registry server address. Backends that accept multiple
	// endpoints split on commas.
	Address string `mapstructure:"address"`

	// Namespace isolates registrations, where the backend supports it.
	Namespace string `mapstructure:"namespace"`

	// Username and Password authenticate against the registry, if required.
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Client is the registry capability consumed by the lifecycle package.
// Instance identity for all three operations is (name, ip, port).
type Client interface {
	// AddInstance registers a service instance. Ephemeral instances are
	// expected to be expired by the registry absent heartbeats.
	AddInstance(ctx context.Context, name, ip string, port int, ephemeral bool, metadata map[string]string) error

	// RemoveInstance deregisters a service instance.
	RemoveInstance(ctx context.Context, name, ip string, port int) error

	// SendHeartbeat signals liveness for a previously added instance.
	SendHeartbeat(ctx context.Context, name, ip string, port int) error

	// Close releases any resources held by the client.
	Close() error
}

// Factory creates a Client from a Config. providerCfg holds provider-specific
// configuration (e.g., *etcd.Config); providers type-assert it to their own
// config type and fall back to defaults when it is nil.
type Factory func(cfg Config, providerCfg any, log *logger.Logger) (Client, error)

var (
	factoryMu sync.RWMutex
	factories = make(map[string]Factory)
)

// RegisterProviderFactory registers a registry backend factory for the given
// provider name. Implementation packages call this in an init function to
// make themselves available to NewClient.
func RegisterProviderFactory(name string, f Factory) {
	factoryMu.Lock()
	defer factoryMu.Unlock()
	factories[name] = f
}

// NewClient constructs a Client for the provider named in cfg.
func NewClient(cfg Config, providerCfg any, log *logger.Logger) (Client, error) {
	factoryMu.RLock()
	f, ok := factories[cfg.Provider]
	factoryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, cfg.Provider)
	}
	return f(cfg, providerCfg, log)
}

// InstanceID derives the canonical instance identifier used by backends that
// need a single key per instance.
func InstanceID(name, ip string, port int) string {
	return fmt.Sprintf("%s-%s-%d", name, ip, port)
}
