// Package memory implements registry.Client entirely in process. It backs
// tests and local development where no external registry is available, and it
// records every call so behavior under failure can be scripted and asserted.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/skillsenselab/regkit/logger"
	"github.com/skillsenselab/regkit/registry"
)

// Op names a client operation for scripting and call inspection.
type Op string

const (
	OpAdd       Op = "add"
	OpRemove    Op = "remove"
	OpHeartbeat Op = "heartbeat"
)

// Call records one client operation.
type Call struct {
	Op    Op
	Name  string
	IP    string
	Port  int
	Start time.Time
	End   time.Time
	Err   error
}

// Instance is a registered service instance.
type Instance struct {
	Name      string
	IP        string
	Port      int
	Ephemeral bool
	Metadata  map[string]string
}

// Client is an in-memory registry.Client. The zero value is not usable; use
// New. All methods are safe for concurrent use.
type Client struct {
	log *logger.Logger

	mu        sync.Mutex
	instances map[string]Instance
	calls     []Call
	failNext  map[Op]int
	stickyErr map[Op]error
	latency   time.Duration
	closed    bool

	// concurrency tracking
	inFlight      int
	maxConcurrent int
}

var _ registry.Client = (*Client)(nil)

func init() {
	registry.RegisterProviderFactory("memory", func(cfg registry.Config, providerCfg any, log *logger.Logger) (registry.Client, error) {
		return New(log), nil
	})
}

// New creates an empty in-memory client.
func New(log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		log:       log.WithComponent("memory"),
		instances: make(map[string]Instance),
		failNext:  make(map[Op]int),
		stickyErr: make(map[Op]error),
	}
}

// FailNext makes the next n calls of op fail with err.
func (c *Client) FailNext(op Op, n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failNext[op] = n
	c.stickyErr[op] = err
}

// SetError makes every call of op fail with err until cleared with a nil err.
func (c *Client) SetError(op Op, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.stickyErr, op)
		delete(c.failNext, op)
		return
	}
	c.failNext[op] = -1
	c.stickyErr[op] = err
}

// SetLatency makes every call sleep for d before completing.
func (c *Client) SetLatency(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latency = d
}

// Calls returns a copy of all recorded calls in order.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallCount returns how many calls of op were made.
func (c *Client) CallCount(op Op) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call.Op == op {
			n++
		}
	}
	return n
}

// MaxConcurrent reports the highest number of operations observed in flight
// at the same time.
func (c *Client) MaxConcurrent() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxConcurrent
}

// Instances returns a snapshot of the currently registered instances.
func (c *Client) Instances() []Instance {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Instance, 0, len(c.instances))
	for _, inst := range c.instances {
		out = append(out, inst)
	}
	return out
}

// Has reports whether the instance is currently registered.
func (c *Client) Has(name, ip string, port int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.instances[registry.InstanceID(name, ip, port)]
	return ok
}

// Closed reports whether Close was called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// AddInstance registers the instance, overwriting any previous registration
// under the same id.
func (c *Client) AddInstance(ctx context.Context, name, ip string, port int, ephemeral bool, metadata map[string]string) error {
	return c.do(ctx, OpAdd, name, ip, port, func() error {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.instances[registry.InstanceID(name, ip, port)] = Instance{
			Name:      name,
			IP:        ip,
			Port:      port,
			Ephemeral: ephemeral,
			Metadata:  metadata,
		}
		return nil
	})
}

// RemoveInstance deregisters the instance. Removing an unknown instance is
// not an error.
func (c *Client) RemoveInstance(ctx context.Context, name, ip string, port int) error {
	return c.do(ctx, OpRemove, name, ip, port, func() error {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.instances, registry.InstanceID(name, ip, port))
		return nil
	})
}

// SendHeartbeat fails with registry.ErrInstanceNotFound when the instance is
// not registered, matching how a real registry rejects heartbeats for
// instances it reaped.
func (c *Client) SendHeartbeat(ctx context.Context, name, ip string, port int) error {
	return c.do(ctx, OpHeartbeat, name, ip, port, func() error {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.instances[registry.InstanceID(name, ip, port)]; !ok {
			return registry.ErrInstanceNotFound
		}
		return nil
	})
}

// Close marks the client closed. Calls after Close still work so shutdown
// ordering bugs surface as recorded calls rather than panics.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *Client) do(ctx context.Context, op Op, name, ip string, port int, apply func() error) error {
	c.mu.Lock()
	c.inFlight++
	if c.inFlight > c.maxConcurrent {
		c.maxConcurrent = c.inFlight
	}
	latency := c.latency
	var err error
	if n, ok := c.failNext[op]; ok && n != 0 {
		err = c.stickyErr[op]
		if n > 0 {
			c.failNext[op] = n - 1
		}
	}
	c.mu.Unlock()

	start := time.Now()
	if latency > 0 {
		select {
		case <-time.After(latency):
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil {
		err = apply()
	}

	c.mu.Lock()
	c.inFlight--
	c.calls = append(c.calls, Call{
		Op:    op,
		Name:  name,
		IP:    ip,
		Port:  port,
		Start: start,
		End:   time.Now(),
		Err:   err,
	})
	c.mu.Unlock()

	return err
}
