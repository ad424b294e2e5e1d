package lifecycle

import "time"

// Defaults for Config.
const (
	DefaultRegisterRetries      = 3
	DefaultRegisterRetryDelay   = 2 * time.Second
	DefaultHeartbeatInterval    = 5 * time.Second
	DefaultHeartbeatMaxFailures = 5
	DefaultHeartbeatRetryDelay  = 2 * time.Second
	DefaultUnregisterTimeout    = 2 * time.Second
)

// Descriptor identifies the service instance being registered.
type Descriptor struct {
	// Name is the service name as seen by the registry.
	Name string `yaml:"name" mapstructure:"name" validate:"required"`

	// IP and Port locate this instance.
	IP   string `yaml:"ip" mapstructure:"ip" validate:"required"`
	Port int    `yaml:"port" mapstructure:"port" validate:"required,min=1,max=65535"`

	// Ephemeral instances are heartbeated and expire from the registry when
	// heartbeats stop. Non-ephemeral instances persist until removed.
	Ephemeral bool `yaml:"ephemeral" mapstructure:"ephemeral"`

	// Metadata is attached to the registration.
	Metadata map[string]string `yaml:"metadata" mapstructure:"metadata"`
}

// Config holds the timing knobs of the registration lifecycle.
type Config struct {
	// RegisterRetries is the total number of registration attempts, both at
	// startup and during self-healing re-registration.
	RegisterRetries int `yaml:"register_retries" mapstructure:"register_retries"`

	// RegisterRetryDelay is the fixed delay between registration attempts.
	RegisterRetryDelay time.Duration `yaml:"register_retry_delay" mapstructure:"register_retry_delay"`

	// HeartbeatInterval is the delay between heartbeats.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" mapstructure:"heartbeat_interval"`

	// HeartbeatMaxFailures is the number of consecutive heartbeat failures
	// that triggers self-healing re-registration.
	HeartbeatMaxFailures int `yaml:"heartbeat_max_failures" mapstructure:"heartbeat_max_failures"`

	// HeartbeatRetryDelay is the delay after a failed heartbeat before the
	// next one, used instead of HeartbeatInterval while failing.
	HeartbeatRetryDelay time.Duration `yaml:"heartbeat_retry_delay" mapstructure:"heartbeat_retry_delay"`

	// UnregisterTimeout bounds how long Stop waits for the heartbeat loop to
	// exit.
	UnregisterTimeout time.Duration `yaml:"unregister_timeout" mapstructure:"unregister_timeout"`
}

// ApplyDefaults fills zero fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.RegisterRetries == 0 {
		c.RegisterRetries = DefaultRegisterRetries
	}
	if c.RegisterRetryDelay == 0 {
		c.RegisterRetryDelay = DefaultRegisterRetryDelay
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.HeartbeatMaxFailures == 0 {
		c.HeartbeatMaxFailures = DefaultHeartbeatMaxFailures
	}
	if c.HeartbeatRetryDelay == 0 {
		c.HeartbeatRetryDelay = DefaultHeartbeatRetryDelay
	}
	if c.UnregisterTimeout == 0 {
		c.UnregisterTimeout = DefaultUnregisterTimeout
	}
}
