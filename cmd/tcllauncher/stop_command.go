package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/skyhawk180/tcllauncher/internal/control"
)

func newStopCommand(ctx *commandContext) *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			pid, err := control.Stop(cfg.PidFilePath(), grace)
			if errors.Is(err, control.ErrNotRunning) {
				fmt.Fprintln(cmd.OutOrStdout(), "No running instance")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stopped instance (pid %d)\n", pid)
			return nil
		},
	}

	cmd.Flags().DurationVar(&grace, "grace", 5*time.Second, "Time to wait for a clean shutdown before SIGKILL")

	return cmd
}
