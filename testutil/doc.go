// Package testutil provides helpers for tests that exercise lifecycle-managed
// components and asynchronous behavior.
package testutil
