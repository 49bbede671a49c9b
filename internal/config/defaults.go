package config

const (
	defaultRunDir            = "~/.local/state/tcllauncher"
	defaultLogDir            = "~/.local/share/tcllauncher/logs"
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultHeartbeatInterval = 15
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			RunDir: defaultRunDir,
			LogDir: defaultLogDir,
		},
		Daemon: Daemon{
			Detach:            true,
			HeartbeatInterval: defaultHeartbeatInterval,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
