// Package security provides TLS configuration for connections to the service
// registry.
package security
