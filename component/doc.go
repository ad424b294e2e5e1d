// Package component defines the lifecycle contract shared by regkit's
// infrastructure pieces. A Component can be started, stopped, and asked for
// its health; the Registry starts components in registration order and stops
// them in reverse so a service registration is torn down before the
// infrastructure it advertises.
package component
