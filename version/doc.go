// Package version exposes build version information for regkit-based
// services.
package version
