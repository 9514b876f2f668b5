package roomlog

import "os"

// Config holds the configuration for a Log instance.
type Config struct {
	// Source is the process-local default origin tag stamped on events
	// whose callers pass an empty src.
	Source string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Source: localSource(),
	}
}

// localSource derives the default origin tag for this process.
func localSource() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "local"
	}

	return host
}
