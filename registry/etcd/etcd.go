// Package etcd implements the registry.Client capability on etcd v3.
//
// Instances are stored as JSON values under
//
//	{prefix}/{namespace}/{service}/{ip}:{port}
//
// Ephemeral instances attach a TTL lease to the key; SendHeartbeat renews the
// lease with a single KeepAlive round trip, and etcd removes the entry when
// the lease expires.
package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/skillsenselab/regkit/logger"
	"github.com/skillsenselab/regkit/registry"
)

// instanceRecord is the JSON document stored per instance.
type instanceRecord struct {
	Name      string            `json:"name"`
	IP        string            `json:"ip"`
	Port      int               `json:"port"`
	Ephemeral bool              `json:"ephemeral"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Client implements registry.Client using etcd v3 leases.
type Client struct {
	client    *clientv3.Client
	cfg       Config
	namespace string
	log       *logger.Logger

	mu     sync.Mutex
	leases map[string]clientv3.LeaseID // key → lease, ephemeral instances only
}

var _ registry.Client = (*Client)(nil)

func init() {
	registry.RegisterProviderFactory("etcd", func(cfg registry.Config, providerCfg any, log *logger.Logger) (registry.Client, error) {
		var ecfg Config
		if providerCfg != nil {
			typed, ok := providerCfg.(*Config)
			if !ok {
				return nil, fmt.Errorf("etcd: provider config must be *etcd.Config, got %T", providerCfg)
			}
			ecfg = *typed
		}
		return New(cfg, ecfg, log)
	})
}

// New creates a Client connected to the etcd cluster at cfg.Address
// (comma-separated endpoints).
func New(cfg registry.Config, ecfg Config, log *logger.Logger) (*Client, error) {
	ecfg.ApplyDefaults()

	tlsCfg, err := ecfg.TLS.Build()
	if err != nil {
		return nil, err
	}

	c, err := clientv3.New(clientv3.Config{
		Endpoints:   strings.Split(cfg.Address, ","),
		DialTimeout: ecfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
		TLS:         tlsCfg,
	})
	if err != nil {
		return nil, fmt.Errorf("etcd client: %w", err)
	}

	return &Client{
		client:    c,
		cfg:       ecfg,
		namespace: cfg.Namespace,
		log:       log.WithComponent("etcd"),
		leases:    make(map[string]clientv3.LeaseID),
	}, nil
}

// AddInstance writes the instance record, attaching a TTL lease when the
// instance is ephemeral.
func (c *Client) AddInstance(ctx context.Context, name, ip string, port int, ephemeral bool, metadata map[string]string) error {
	key := c.key(name, ip, port)

	val, err := json.Marshal(instanceRecord{
		Name:      name,
		IP:        ip,
		Port:      port,
		Ephemeral: ephemeral,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("etcd marshal instance: %w", err)
	}

	if !ephemeral {
		if _, err := c.client.Put(ctx, key, string(val)); err != nil {
			return fmt.Errorf("etcd register %q: %w", name, err)
		}
		return nil
	}

	lease, err := c.client.Grant(ctx, c.cfg.LeaseTTL)
	if err != nil {
		return fmt.Errorf("etcd lease grant: %w", err)
	}
	if _, err := c.client.Put(ctx, key, string(val), clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("etcd register %q: %w", name, err)
	}

	c.mu.Lock()
	c.leases[key] = lease.ID
	c.mu.Unlock()

	c.log.Debug("instance registered", logger.Fields(
		"service", name, "key", key, "lease", int64(lease.ID),
	))
	return nil
}

// RemoveInstance deletes the instance key and revokes its lease, if any.
func (c *Client) RemoveInstance(ctx context.Context, name, ip string, port int) error {
	key := c.key(name, ip, port)

	c.mu.Lock()
	leaseID, hasLease := c.leases[key]
	delete(c.leases, key)
	c.mu.Unlock()

	if _, err := c.client.Delete(ctx, key); err != nil {
		return fmt.Errorf("etcd deregister %q: %w", name, err)
	}
	if hasLease {
		// Revoking is an optimization over letting the lease expire.
		if _, err := c.client.Revoke(ctx, leaseID); err != nil {
			c.log.Debug("lease revoke failed", logger.Fields("key", key, "error", err.Error()))
		}
	}

	c.log.Debug("instance deregistered", logger.Fields("service", name, "key", key))
	return nil
}

// SendHeartbeat renews the instance's lease once.
func (c *Client) SendHeartbeat(ctx context.Context, name, ip string, port int) error {
	key := c.key(name, ip, port)

	c.mu.Lock()
	leaseID, ok := c.leases[key]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("etcd heartbeat %q: %w", name, registry.ErrInstanceNotFound)
	}

	if _, err := c.client.KeepAliveOnce(ctx, leaseID); err != nil {
		return fmt.Errorf("etcd heartbeat %q: %w", name, err)
	}
	return nil
}

// Close releases the underlying etcd connection.
func (c *Client) Close() error {
	return c.client.Close()
}

func (c *Client) key(name, ip string, port int) string {
	parts := []string{c.cfg.KeyPrefix}
	if c.namespace != "" {
		parts = append(parts, c.namespace)
	}
	parts = append(parts, name, fmt.Sprintf("%s:%d", ip, port))
	return strings.Join(parts, "/")
}
