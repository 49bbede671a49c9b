//go:build !unix

package daemonize

import (
	"fmt"
	"runtime"
)

// Options configures one daemonization call. See the unix implementation.
type Options struct {
	SkipClose bool
	SkipChdir bool
}

// Detached always reports false on platforms without detach support.
func Detached() bool { return false }

// Daemonize is unsupported off Unix; there is no session/terminal model to
// detach from.
func Daemonize(Options) error {
	return fmt.Errorf("daemonize is not supported on %s", runtime.GOOS)
}
