package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/skyhawk180/tcllauncher/internal/control"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether an instance is running",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			status, err := control.Probe(cfg.PidFilePath())
			if err != nil {
				return err
			}

			rows := statusRows(status)
			if isatty.IsTerminal(os.Stdout.Fd()) {
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(rows))
			} else {
				for _, row := range rows {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", row[0], row[1])
				}
			}
			return nil
		},
	}
}

func statusRows(status control.Status) [][2]string {
	rows := [][2]string{}
	if status.Running {
		rows = append(rows, [2]string{"State", "running"})
		if status.PID > 0 {
			rows = append(rows, [2]string{"Owner PID", fmt.Sprintf("%d", status.PID)})
		} else {
			rows = append(rows, [2]string{"Owner PID", "unknown"})
		}
	} else {
		rows = append(rows, [2]string{"State", "not running"})
		if status.PID > 0 {
			rows = append(rows, [2]string{"Stale PID", fmt.Sprintf("%d", status.PID)})
		}
	}
	rows = append(rows, [2]string{"Pidfile", status.PidFile})
	if status.Mtime >= 0 {
		rows = append(rows, [2]string{"Modified", time.Unix(status.Mtime, 0).Format(time.RFC3339)})
	}
	return rows
}
