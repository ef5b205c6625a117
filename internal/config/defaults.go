package config

// Default returns the baseline configuration before any file overrides.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  "~/.local/share/skipper/logs",
			DataDir: "~/.local/share/skipper",
		},
		Sidecar: Sidecar{
			Hostname:   "127.0.0.1",
			LaunchMode: "auto",
		},
		Health: Health{
			StartupTimeout:  30,
			ProbeIntervalMS: 100,
			RequestTimeout:  3,
		},
		Logging: Logging{
			Format:        "console",
			Level:         "info",
			RetentionDays: 7,
			TailLines:     1000,
		},
	}
}
