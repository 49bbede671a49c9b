package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skyhawk180/tcllauncher/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}
	cmd.AddCommand(newConfigShowCommand(ctx))
	cmd.AddCommand(newConfigInitCommand(ctx))
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if path := ctx.resolvedConfigFile(); path != "" {
				fmt.Fprintf(out, "Config file: %s\n\n", path)
			} else {
				fmt.Fprintf(out, "Config file: (none, built-in defaults)\n\n")
			}
			fmt.Fprintf(out, "pidfile: %s\n", cfg.PidFilePath())
			fmt.Fprintf(out, "run_dir: %s\n", cfg.Paths.RunDir)
			fmt.Fprintf(out, "log_dir: %s\n", cfg.Paths.LogDir)
			fmt.Fprintf(out, "detach: %v\n", cfg.Daemon.Detach)
			fmt.Fprintf(out, "heartbeat_interval: %d\n", cfg.Daemon.HeartbeatInterval)
			if cfg.Identity.User != "" {
				fmt.Fprintf(out, "user: %s\n", cfg.Identity.User)
			}
			if cfg.Identity.Group != "" {
				fmt.Fprintf(out, "group: %s\n", cfg.Identity.Group)
			}
			if cfg.Payload.Command != "" {
				fmt.Fprintf(out, "payload: %s %v\n", cfg.Payload.Command, cfg.Payload.Args)
			} else {
				fmt.Fprintf(out, "payload: (none, idle under lock)\n")
			}
			return nil
		},
	}
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				expanded, err := config.ExpandPath(args[0])
				if err != nil {
					return err
				}
				path = expanded
			} else {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}

			if err := config.WriteSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample config to %s\n", path)
			return nil
		},
	}
}
