// Package util contains small helpers shared across regkit packages.
package util
