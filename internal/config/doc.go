// Package config loads and validates skipper's TOML configuration.
//
// Configuration covers filesystem paths (logs, data directory, IPC socket),
// sidecar launch settings (binary, bind address, launch mode), health-check
// timing, and log output. Values load from ~/.config/skipper/config.toml or a
// project-local skipper.toml, with defaults applied for anything unset.
package config
