// Package observability provides OpenTelemetry tracing and metrics setup for
// regkit. InitTracer and InitMeter configure OTLP HTTP exporters; Metrics
// holds the instruments the lifecycle package records registry operations
// against. Everything is optional: a nil *Metrics disables recording.
package observability
