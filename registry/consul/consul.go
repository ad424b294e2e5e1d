// Package consul implements the registry.Client capability on HashiCorp
// Consul. Ephemeral instances carry a TTL check; SendHeartbeat passes the
// check, and Consul reaps instances whose check stays critical, which is what
// makes them ephemeral.
package consul

import (
	"context"
	"fmt"

	"github.com/hashicorp/consul/api"

	"github.com/skillsenselab/regkit/logger"
	"github.com/skillsenselab/regkit/registry"
)

// Client implements registry.Client using the Consul agent API.
type Client struct {
	client *api.Client
	cfg    Config
	log    *logger.Logger
}

var _ registry.Client = (*Client)(nil)

func init() {
	registry.RegisterProviderFactory("consul", func(cfg registry.Config, providerCfg any, log *logger.Logger) (registry.Client, error) {
		var ccfg Config
		if providerCfg != nil {
			typed, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("consul: provider config must be *consul.Config, got %T", providerCfg)
			}
			ccfg = *typed
		}
		return New(cfg, ccfg, log)
	})
}

// New creates a Client connected to the Consul agent at cfg.Address.
func New(cfg registry.Config, ccfg Config, log *logger.Logger) (*Client, error) {
	ccfg.ApplyDefaults()

	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	apiCfg.Scheme = ccfg.Scheme
	apiCfg.Token = ccfg.Token
	if ccfg.Datacenter != "" {
		apiCfg.Datacenter = ccfg.Datacenter
	}
	if cfg.Namespace != "" {
		apiCfg.Namespace = cfg.Namespace
	}
	if cfg.Username != "" {
		apiCfg.HttpAuth = &api.HttpBasicAuth{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	if ccfg.TLS.Enabled() {
		if err := ccfg.TLS.Validate(); err != nil {
			return nil, err
		}
		apiCfg.Scheme = "https"
		apiCfg.TLSConfig = api.TLSConfig{
			Address:            ccfg.TLS.ServerName,
			CAFile:             ccfg.TLS.CAFile,
			CertFile:           ccfg.TLS.CertFile,
			KeyFile:            ccfg.TLS.KeyFile,
			InsecureSkipVerify: ccfg.TLS.SkipVerify,
		}
	}

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}

	return &Client{
		client: client,
		cfg:    ccfg,
		log:    log.WithComponent("consul"),
	}, nil
}

// AddInstance registers a service instance with the local Consul agent.
func (c *Client) AddInstance(ctx context.Context, name, ip string, port int, ephemeral bool, metadata map[string]string) error {
	reg := &api.AgentServiceRegistration{
		ID:      registry.InstanceID(name, ip, port),
		Name:    name,
		Address: ip,
		Port:    port,
		Meta:    metadata,
	}

	if ephemeral {
		reg.Check = &api.AgentServiceCheck{
			CheckID:                        checkID(name, ip, port),
			TTL:                            c.cfg.CheckTTL.String(),
			DeregisterCriticalServiceAfter: c.cfg.DeregisterAfter.String(),
		}
	}

	if err := c.client.Agent().ServiceRegisterOpts(reg, api.ServiceRegisterOpts{}.WithContext(ctx)); err != nil {
		return fmt.Errorf("consul register %q: %w", name, err)
	}

	// A fresh TTL check starts critical; pass it so the instance is
	// immediately discoverable.
	if ephemeral {
		if err := c.client.Agent().UpdateTTL(checkID(name, ip, port), "registered", api.HealthPassing); err != nil {
			c.log.Warn("failed to pass initial TTL check", logger.Fields(
				"service", name, "error", err.Error(),
			))
		}
	}

	c.log.Debug("instance registered", logger.Fields(
		"service", name, "address", fmt.Sprintf("%s:%d", ip, port), "ephemeral", ephemeral,
	))
	return nil
}

// RemoveInstance deregisters a service instance from the local Consul agent.
func (c *Client) RemoveInstance(ctx context.Context, name, ip string, port int) error {
	id := registry.InstanceID(name, ip, port)
	if err := c.client.Agent().ServiceDeregisterOpts(id, (&api.QueryOptions{}).WithContext(ctx)); err != nil {
		return fmt.Errorf("consul deregister %q: %w", id, err)
	}
	c.log.Debug("instance deregistered", logger.Fields("service", name))
	return nil
}

// SendHeartbeat passes the instance's TTL check.
func (c *Client) SendHeartbeat(ctx context.Context, name, ip string, port int) error {
	if err := c.client.Agent().UpdateTTL(checkID(name, ip, port), "heartbeat", api.HealthPassing); err != nil {
		return fmt.Errorf("consul heartbeat %q: %w", name, err)
	}
	return nil
}

// Close is a no-op; the underlying HTTP client needs no explicit shutdown.
func (c *Client) Close() error {
	return nil
}

func checkID(name, ip string, port int) string {
	return "service:" + registry.InstanceID(name, ip, port)
}
