package config

// createDefaultConfig returns a configuration with sensible defaults.
func createDefaultConfig() *Config {
	return &Config{
		Database: Database{
			Path: "data/tonearm.db",
		},
		Server: Server{
			Port: 3535,
		},
		Logger: Logger{
			Level:  "info",
			Format: "logfmt",
		},
		Scan: Scan{
			MaxDepth: 0,
		},
		Import: Import{
			Mode: "update-or-create",
		},
		Dedup: Dedup{
			DurationToleranceMs: 500,
			MaxResults:          2,
		},
		Jobs: Jobs{
			Log:     false,
			LogPath: "data/jobs",
		},
	}
}
