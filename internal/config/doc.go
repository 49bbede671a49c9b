// Package config loads, normalizes, and validates launcher configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TCLLAUNCHER_CONFIG. The Config type centralizes every knob the launcher
// and CLI need: run/log directories, daemonization behavior, required
// identities, the payload command, and log output shape.
//
// Always obtain settings through this package so downstream code receives
// sanitized absolute paths and clear validation errors.
package config
