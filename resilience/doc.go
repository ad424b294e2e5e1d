// Package resilience provides retry with configurable backoff.
//
// The lifecycle package drives all of its registration retries through
// RetryFunc so the foreground start path and the heartbeat loop's
// self-healing path share identical retry semantics: a fixed number of
// attempts with a delay between them and no delay after the final attempt.
package resilience
