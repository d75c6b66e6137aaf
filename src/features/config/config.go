package config

// Config holds the application configuration.
type Config struct {
	Database Database `yaml:"database"`
	Server   Server   `yaml:"server"`
	Logger   Logger   `yaml:"logger"`
	Scan     Scan     `yaml:"scan"`
	Import   Import   `yaml:"import"`
	Dedup    Dedup    `yaml:"dedup"`
	Telegram Telegram `yaml:"telegram"`
	Jobs     Jobs     `yaml:"jobs"`
}

// Database holds the configuration for the database.
type Database struct {
	Path string `yaml:"path" validate:"required"`
}

// Server holds the configuration for the Fiber server.
type Server struct {
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

// Logger holds the configuration for the app logging.
type Logger struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Scan holds the configuration for directory scanning.
type Scan struct {
	// MaxDepth limits how deep the walker descends below the root.
	// Zero means unlimited.
	MaxDepth int `yaml:"max_depth"`
}

// Import holds the configuration for importing files into the library.
type Import struct {
	// Mode decides how located files are reconciled against existing
	// entities: "update-or-create", "update-only" or "create-only".
	Mode string `yaml:"mode"`
}

// Dedup holds the tolerances for duplicate candidate searches.
type Dedup struct {
	DurationToleranceMs float64 `yaml:"duration_tolerance_ms"`
	MaxResults          int     `yaml:"max_results"`
}

// Telegram holds the configuration for the scan completion notifier.
type Telegram struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
}

// Jobs holds the configuration for background job logging.
type Jobs struct {
	Log     bool   `yaml:"log"`
	LogPath string `yaml:"log_path"`
}
