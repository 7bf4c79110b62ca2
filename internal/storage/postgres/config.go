package postgres

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
	SSLMode  string
	// MaxConns caps the pgx pool size
	MaxConns int32
	// ConnectTimeout bounds the initial connect and migration
	ConnectTimeout time.Duration
}

func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("PostgreSQL host is required")
	}
	if c.Port <= 0 {
		c.Port = 5432
	}
	if c.Database == "" {
		return fmt.Errorf("PostgreSQL database name is required")
	}
	if c.Username == "" {
		return fmt.Errorf("PostgreSQL username is required")
	}
	if c.SSLMode == "" {
		c.SSLMode = "prefer"
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 4
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	return nil
}

// GetConnectionString returns a postgres:// URL understood by pgxpool
func (c *Config) GetConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	} else {
		u.User = url.User(c.Username)
	}

	query := url.Values{}
	query.Set("sslmode", c.SSLMode)
	if c.MaxConns > 0 {
		query.Set("pool_max_conns", strconv.Itoa(int(c.MaxConns)))
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// NewConfigFromURL parses a postgres:// URL
func NewConfigFromURL(connStr string) (*Config, error) {
	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return nil, fmt.Errorf("invalid PostgreSQL URL scheme: %s", u.Scheme)
	}

	config := &Config{
		Host:     u.Hostname(),
		Port:     5432,
		Username: u.User.Username(),
		SSLMode:  "prefer",
	}
	if len(u.Path) > 1 {
		config.Database = u.Path[1:]
	}
	if port := u.Port(); port != "" {
		parsed, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PostgreSQL port: %s", port)
		}
		config.Port = parsed
	}
	if password, ok := u.User.Password(); ok {
		config.Password = password
	}
	if sslMode := u.Query().Get("sslmode"); sslMode != "" {
		config.SSLMode = sslMode
	}

	return config, nil
}

func DefaultConfig() *Config {
	return &Config{
		Host:     "localhost",
		Port:     5432,
		Database: "enchantments",
		Username: "postgres",
		SSLMode:  "prefer",
	}
}
