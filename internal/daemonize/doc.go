// Package daemonize performs the one-shot transition from foreground process
// to background daemon.
//
// A real fork(2) is unsafe under the Go runtime, so the transition is a
// re-exec detach: the parent starts a copy of its own binary in a new
// session with a marker in the environment, then exits; the copy sees the
// marker and continues as the daemon. Working-directory and standard-stream
// handling are applied to the child at spawn time, which makes them atomic
// with the detach itself.
package daemonize
