package history

const defaultMaxEntries = 50

// Config holds history store initialization parameters.
type Config struct {
	// MaxEntries caps the number of retained sessions. Zero means the
	// default; the minimum enforced bound is 1.
	MaxEntries int `json:"max_entries,omitempty"`
}

// DefaultConfig returns the default history configuration.
func DefaultConfig() Config {
	return Config{MaxEntries: defaultMaxEntries}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.MaxEntries > 0 {
		c.MaxEntries = source.MaxEntries
	}
}

func (c *Config) maxEntries() int {
	if c.MaxEntries == 0 {
		return defaultMaxEntries
	}
	if c.MaxEntries < 1 {
		return 1
	}
	return c.MaxEntries
}
