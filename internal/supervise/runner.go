package supervise

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/skyhawk180/tcllauncher/internal/config"
	"github.com/skyhawk180/tcllauncher/internal/logging"
	"github.com/skyhawk180/tcllauncher/internal/pidfile"
)

// AlreadyRunningError reports that another process owns the instance slot.
// It is an expected startup outcome, not a failure of this process.
type AlreadyRunningError struct {
	PID int
}

func (e *AlreadyRunningError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("another instance is already running (pid %d)", e.PID)
	}
	return "another instance is already running (owner pid unknown)"
}

// Runner executes one supervised launcher lifecycle.
type Runner struct {
	cfg    *config.Config
	logger *slog.Logger
	runID  string
}

// New constructs a runner with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("supervise requires a config")
	}
	return &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "launcher"),
		runID:  uuid.NewString(),
	}, nil
}

// Run claims the pidfile and supervises the payload until it exits or ctx is
// cancelled. A contended claim returns AlreadyRunningError; a lost lock
// surfaces as pidfile.ErrLockLost and must terminate the process with
// pidfile.ExitLockLost.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.cfg.EnsureDirectories(); err != nil {
		return err
	}

	claim, err := pidfile.Open(r.cfg.PidFilePath(), 0o600)
	if err != nil {
		return fmt.Errorf("open pidfile: %w", err)
	}
	if !claim.Owned() {
		return &AlreadyRunningError{PID: claim.OwnerPID}
	}
	handle := claim.File

	if err := handle.Write(); err != nil {
		if !errors.Is(err, pidfile.ErrLockLost) {
			_ = handle.Close()
		}
		return err
	}
	r.logger.Info("instance slot claimed",
		logging.Args(
			logging.String("pidfile", handle.Path()),
			logging.Int("pid", os.Getpid()),
			logging.String("run_id", r.runID),
		)...)

	defer func() {
		if err := handle.Remove(); err != nil {
			r.logger.Warn("surrender pidfile", logging.Args(logging.Error(err))...)
		} else {
			r.logger.Info("instance slot released", logging.Args(logging.String("run_id", r.runID))...)
		}
	}()

	payloadDone, err := r.startPayload(ctx)
	if err != nil {
		return err
	}

	var heartbeat <-chan time.Time
	if r.cfg.Daemon.HeartbeatInterval > 0 {
		ticker := time.NewTicker(time.Duration(r.cfg.Daemon.HeartbeatInterval) * time.Second)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			if payloadDone != nil {
				// CommandContext is already signalling the payload; collect it.
				<-payloadDone
			}
			return nil
		case err := <-payloadDone:
			if err != nil {
				return fmt.Errorf("payload exited: %w", err)
			}
			r.logger.Info("payload completed", logging.Args(logging.String("run_id", r.runID))...)
			return nil
		case <-heartbeat:
			if err := handle.Verify(); err != nil {
				return err
			}
			r.logger.Debug("heartbeat",
				logging.Args(
					logging.String("run_id", r.runID),
					logging.Int64("pidfile_mtime", handle.Mtime()),
				)...)
		}
	}
}

// startPayload launches the configured command, or returns a nil channel
// when the launcher should idle under the lock.
func (r *Runner) startPayload(ctx context.Context) (<-chan error, error) {
	command := r.cfg.Payload.Command
	if command == "" {
		r.logger.Info("no payload configured, idling under instance lock",
			logging.Args(logging.String("run_id", r.runID))...)
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, command, r.cfg.Payload.Args...)
	cmd.Dir = r.cfg.Payload.WorkingDir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = 5 * time.Second

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start payload %q: %w", command, err)
	}
	r.logger.Info("payload started",
		logging.Args(
			logging.String("command", command),
			logging.Int("pid", cmd.Process.Pid),
			logging.String("run_id", r.runID),
		)...)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()
	return done, nil
}
