package sqlite

import (
	"fmt"
	"strings"
)

type Config struct {
	DatabasePath string
	// BusyTimeoutMs is how long a writer waits on a locked database
	BusyTimeoutMs int
}

func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	if c.BusyTimeoutMs < 0 {
		return fmt.Errorf("busy timeout must not be negative")
	}
	return nil
}

// GetConnectionString returns the mattn/go-sqlite3 DSN with WAL and busy timeout enabled
func (c *Config) GetConnectionString() string {
	timeout := c.BusyTimeoutMs
	if timeout == 0 {
		timeout = 5000
	}
	separator := "?"
	if strings.Contains(c.DatabasePath, "?") {
		separator = "&"
	}
	return fmt.Sprintf("%s%s_journal_mode=WAL&_busy_timeout=%d", c.DatabasePath, separator, timeout)
}

func DefaultConfig() *Config {
	return &Config{
		DatabasePath:  "./enchantments.db",
		BusyTimeoutMs: 5000,
	}
}
