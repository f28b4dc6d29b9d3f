package store

import "fmt"

// Driver names accepted by Config.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds store initialization parameters.
type Config struct {
	Driver string `json:"driver,omitempty"` // "file", "sqlite", or "memory"; defaults to "file".
	Path   string `json:"path,omitempty"`   // FileStore root directory or SQLite database file.
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{Driver: DriverFile}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Driver != "" {
		c.Driver = source.Driver
	}
	if source.Path != "" {
		c.Path = source.Path
	}
}

// New creates a Store from configuration. The file and sqlite drivers
// require Path; the memory driver ignores it.
func New(cfg *Config) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: file driver requires a path")
		}
		return NewFileStore(cfg.Path), nil
	case DriverSQLite:
		if cfg.Path == "" {
			return nil, fmt.Errorf("store: sqlite driver requires a path")
		}
		return NewSQLiteStore(cfg.Path)
	case DriverMemory:
		return NewMemStore(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
}
