package lifecycle

import (
	"context"

	"github.com/skillsenselab/regkit/component"
)

// Registration adapts a Service to the component.Component interface so the
// registration lifecycle can be managed alongside other infrastructure
// components in a component.Registry.
type Registration struct {
	svc *Service
}

var _ component.Component = (*Registration)(nil)

// AsComponent wraps svc for use in a component registry.
func AsComponent(svc *Service) *Registration {
	return &Registration{svc: svc}
}

// Name implements component.Component.
func (r *Registration) Name() string { return "registration" }

// Start implements component.Component.
func (r *Registration) Start(ctx context.Context) error { return r.svc.Start(ctx) }

// Stop implements component.Component.
func (r *Registration) Stop(ctx context.Context) error { return r.svc.Stop(ctx) }

// Health implements component.Component. A registered instance is healthy, a
// stopped one unhealthy, and a running but unregistered one degraded, which
// happens when startup registration exhausted its retries or self-healing is
// in progress.
func (r *Registration) Health(ctx context.Context) component.Health {
	h := component.Health{Name: r.Name()}
	switch {
	case r.svc.stopped():
		h.Status = component.StatusUnhealthy
		h.Message = "stopped"
	case r.svc.Registered():
		h.Status = component.StatusHealthy
	default:
		h.Status = component.StatusDegraded
		h.Message = "not registered"
	}
	return h
}
