package etcd

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.DialTimeout != 5*time.Second {
		t.Errorf("unexpected dial timeout %v", cfg.DialTimeout)
	}
	if cfg.LeaseTTL != 15 {
		t.Errorf("unexpected lease TTL %d", cfg.LeaseTTL)
	}
	if cfg.KeyPrefix != "/regkit" {
		t.Errorf("unexpected key prefix %q", cfg.KeyPrefix)
	}
}

func TestInstanceKey(t *testing.T) {
	c := &Client{cfg: Config{KeyPrefix: "/regkit"}, namespace: "prod"}
	if got := c.key("billing", "10.0.0.1", 8080); got != "/regkit/prod/billing/10.0.0.1:8080" {
		t.Errorf("unexpected key %q", got)
	}

	c.namespace = ""
	if got := c.key("billing", "10.0.0.1", 8080); got != "/regkit/billing/10.0.0.1:8080" {
		t.Errorf("unexpected key without namespace %q", got)
	}
}
