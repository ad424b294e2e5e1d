// Package logger provides structured, leveled logging for regkit built on
// zerolog. A Logger carries a service name and optional component tag so that
// every lifecycle event can be traced back to the controller that emitted it.
//
// Callers that do not supply a logger get a console logger on stderr via
// NewDefault, so no lifecycle event is ever silently dropped.
package logger
