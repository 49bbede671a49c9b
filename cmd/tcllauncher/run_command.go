package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/skyhawk180/tcllauncher/internal/daemonize"
	"github.com/skyhawk180/tcllauncher/internal/logging"
	"github.com/skyhawk180/tcllauncher/internal/privdrop"
	"github.com/skyhawk180/tcllauncher/internal/supervise"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		foreground bool
		skipChdir  bool
		keepStdio  bool
	)

	cmd := &cobra.Command{
		Use:   "run [-- command [args...]]",
		Short: "Claim the instance lock and supervise the payload",
		Long: `Run claims the pidfile lock, optionally detaches into the background,
drops to the configured user and group, and supervises the payload command.
Arguments after -- override the configured payload.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("foreground") {
				cfg.Daemon.Detach = !foreground
			}
			if cmd.Flags().Changed("skip-chdir") {
				cfg.Daemon.SkipChdir = skipChdir
			}
			if cmd.Flags().Changed("keep-stdio") {
				cfg.Daemon.KeepStdio = keepStdio
			}
			if len(args) > 0 {
				cfg.Payload.Command = args[0]
				cfg.Payload.Args = args[1:]
			}

			if cfg.Daemon.Detach {
				// The detached child starts over in /; hand it the resolved
				// config path through the environment so a relative --config
				// still finds the same file.
				if path := ctx.resolvedConfigFile(); path != "" {
					if err := os.Setenv("TCLLAUNCHER_CONFIG", path); err != nil {
						return fmt.Errorf("export config path: %w", err)
					}
				}
				if err := daemonize.Daemonize(daemonize.Options{
					SkipChdir: cfg.Daemon.SkipChdir,
					SkipClose: cfg.Daemon.KeepStdio,
				}); err != nil {
					return fmt.Errorf("detach: %w", err)
				}
			}

			// Group before user: once the uid drops, setgid is off the table.
			if cfg.Identity.Group != "" {
				if err := privdrop.RequireGroup(cfg.Identity.Group); err != nil {
					return err
				}
			}
			if cfg.Identity.User != "" {
				if err := privdrop.RequireUser(cfg.Identity.User); err != nil {
					return err
				}
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			runner, err := supervise.New(cfg, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := runner.Run(runCtx); err != nil {
				var already *supervise.AlreadyRunningError
				if errors.As(err, &already) {
					return fmt.Errorf("%w (try 'tcllauncher status')", already)
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&foreground, "foreground", false, "Stay attached to the terminal instead of detaching")
	cmd.Flags().BoolVar(&skipChdir, "skip-chdir", false, "Keep the current working directory after detaching")
	cmd.Flags().BoolVar(&keepStdio, "keep-stdio", false, "Keep stdin/stdout/stderr attached after detaching")

	return cmd
}
