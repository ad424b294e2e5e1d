package etcd

import (
	"time"

	"github.com/skillsenselab/regkit/security"
)

// Config holds etcd-specific settings beyond the shared registry.Config.
type Config struct {
	// DialTimeout bounds the initial connection to the cluster.
	DialTimeout time.Duration `yaml:"dial_timeout" mapstructure:"dial_timeout"`

	// LeaseTTL is the lease lifetime, in seconds, attached to ephemeral
	// instances. SendHeartbeat must be called more often than this or the
	// lease expires and the instance entry is removed.
	LeaseTTL int64 `yaml:"lease_ttl" mapstructure:"lease_ttl"`

	// KeyPrefix is the root under which instance keys are stored.
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`

	// TLS configures the connection to the cluster.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults sets sensible defaults for Config.
func (c *Config) ApplyDefaults() {
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.LeaseTTL == 0 {
		c.LeaseTTL = 15
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = "/regkit"
	}
}
