package consul

import (
	"time"

	"github.com/skillsenselab/regkit/security"
)

// Config holds Consul-specific settings beyond the shared registry.Config.
type Config struct {
	// Scheme is the URI scheme (http/https).
	Scheme string `yaml:"scheme" mapstructure:"scheme"`

	// Datacenter to use.
	Datacenter string `yaml:"datacenter" mapstructure:"datacenter"`

	// Token is the ACL token for authentication.
	Token string `yaml:"token" mapstructure:"token"`

	// CheckTTL is the TTL of the liveness check attached to ephemeral
	// instances. SendHeartbeat must be called more often than this or the
	// check turns critical.
	CheckTTL time.Duration `yaml:"check_ttl" mapstructure:"check_ttl"`

	// DeregisterAfter removes an instance whose check has been critical for
	// this duration.
	DeregisterAfter time.Duration `yaml:"deregister_after" mapstructure:"deregister_after"`

	// TLS configures the connection to the Consul agent.
	TLS security.TLSConfig `yaml:"tls" mapstructure:"tls"`
}

// ApplyDefaults sets sensible defaults for Config.
func (c *Config) ApplyDefaults() {
	if c.Scheme == "" {
		c.Scheme = "http"
	}
	if c.CheckTTL == 0 {
		c.CheckTTL = 15 * time.Second
	}
	if c.DeregisterAfter == 0 {
		c.DeregisterAfter = time.Minute
	}
}
