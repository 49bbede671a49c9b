package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizeIdentity()
	if err := c.normalizePayload(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.RunDir) == "" {
		c.Paths.RunDir = defaultRunDir
	}
	if c.Paths.RunDir, err = expandPath(c.Paths.RunDir); err != nil {
		return fmt.Errorf("paths.run_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeDaemon() error {
	c.Daemon.PidFile = strings.TrimSpace(c.Daemon.PidFile)
	if c.Daemon.PidFile != "" {
		expanded, err := expandPath(c.Daemon.PidFile)
		if err != nil {
			return fmt.Errorf("daemon.pid_file: %w", err)
		}
		c.Daemon.PidFile = expanded
	}
	if c.Daemon.HeartbeatInterval == 0 {
		c.Daemon.HeartbeatInterval = defaultHeartbeatInterval
	}
	return nil
}

func (c *Config) normalizeIdentity() {
	c.Identity.User = strings.TrimSpace(c.Identity.User)
	c.Identity.Group = strings.TrimSpace(c.Identity.Group)
}

func (c *Config) normalizePayload() error {
	c.Payload.Command = strings.TrimSpace(c.Payload.Command)
	c.Payload.WorkingDir = strings.TrimSpace(c.Payload.WorkingDir)
	if c.Payload.WorkingDir != "" {
		expanded, err := expandPath(c.Payload.WorkingDir)
		if err != nil {
			return fmt.Errorf("payload.working_dir: %w", err)
		}
		c.Payload.WorkingDir = expanded
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
