package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/skyhawk180/tcllauncher/internal/pidfile"
	"github.com/skyhawk180/tcllauncher/internal/privdrop"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitStatus(err))
	}
}

// exitStatus maps fatal launcher conditions to their distinguished process
// exit codes; everything else is a generic failure.
func exitStatus(err error) int {
	var ident *privdrop.IdentityError
	if errors.As(err, &ident) {
		return ident.ExitCode()
	}
	if errors.Is(err, pidfile.ErrLockLost) {
		return pidfile.ExitLockLost
	}
	return 1
}
