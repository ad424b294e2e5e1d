// Package lifecycle manages the registration lifecycle of a service instance
// against a service registry: registration with retry, a background heartbeat
// loop with self-healing re-registration, and graceful signal-driven
// shutdown.
//
// The central type is Service. A Service is built for one instance
// (name, ip, port) and one registry backend, started once, and stopped once:
//
//	svc := lifecycle.New(desc, registry.Config{Provider: "consul", Address: "127.0.0.1:8500"})
//	if err := svc.Start(ctx); err != nil {
//		return err
//	}
//	defer svc.Stop(context.Background())
//
// Run wraps the same lifecycle around a work function and additionally
// installs a shutdown coordinator for SIGINT/SIGTERM, which is the intended
// entry point for most callers.
package lifecycle
