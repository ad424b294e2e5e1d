// Package registry defines the client capability the lifecycle package
// drives: adding an instance to a service registry, removing it, and sending
// liveness heartbeats for it.
//
// Concrete backends register themselves through RegisterProviderFactory,
// typically in an init function:
//
//	import _ "github.com/skillsenselab/regkit/registry/consul"
//
// # Backends
//
//   - registry/consul: HashiCorp Consul (TTL checks as heartbeats)
//   - registry/etcd: etcd v3 (leases as heartbeats)
//   - registry/memory: in-memory registry for development and testing
package registry
