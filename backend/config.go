package backend

import "time"

const (
	defaultBaseURL   = "http://localhost:11434"
	defaultTimeoutMS = 120000

	minListTimeout = 5 * time.Second
	maxListTimeout = 15 * time.Second
)

// Config holds backend client initialization parameters.
type Config struct {
	BaseURL string `json:"base_url,omitempty"` // Ollama server address.
	// RequestTimeoutMS bounds a whole generation exchange, in milliseconds.
	RequestTimeoutMS int `json:"request_timeout_ms,omitempty"`
}

// DefaultConfig returns the default backend configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:          defaultBaseURL,
		RequestTimeoutMS: defaultTimeoutMS,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.BaseURL != "" {
		c.BaseURL = source.BaseURL
	}
	if source.RequestTimeoutMS > 0 {
		c.RequestTimeoutMS = source.RequestTimeoutMS
	}
}

func (c *Config) baseURL() string {
	if c.BaseURL == "" {
		return defaultBaseURL
	}
	return c.BaseURL
}

func (c *Config) requestTimeout() time.Duration {
	if c.RequestTimeoutMS <= 0 {
		return defaultTimeoutMS * time.Millisecond
	}
	return time.Duration(c.RequestTimeoutMS) * time.Millisecond
}
