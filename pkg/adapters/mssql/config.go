package mssql

import (
	"fmt"
	"net/url"

	"github.com/cardops/legit-engine/pkg/apperrors"
)

// Config contains SQL Server-specific connection options for the source
// warehouse. Only SQL authentication is supported; the warehouse lives on
// the internal network and is reached with a read-only service account.
type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// Connection options
	Encrypt                bool
	TrustServerCertificate bool
	ConnectionTimeout      int
}

// DefaultPort returns the default SQL Server port.
func DefaultPort() int {
	return 1433
}

// Validate checks that required fields are present.
func (c *Config) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: host is required", apperrors.ErrInvalidConfig)
	}
	if c.Database == "" {
		return fmt.Errorf("%w: database is required", apperrors.ErrInvalidConfig)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: username is required", apperrors.ErrInvalidConfig)
	}
	if c.Port == 0 {
		c.Port = DefaultPort()
	}
	return nil
}

// ConnectionString builds the sqlserver:// URL understood by the
// go-mssqldb driver.
func (c *Config) ConnectionString() string {
	query := url.Values{}
	query.Add("database", c.Database)

	if c.Encrypt {
		query.Add("encrypt", "true")
	} else {
		query.Add("encrypt", "false")
	}

	if c.TrustServerCertificate {
		query.Add("TrustServerCertificate", "true")
	}

	if c.ConnectionTimeout > 0 {
		query.Add("connection timeout", fmt.Sprintf("%d", c.ConnectionTimeout))
	}

	return fmt.Sprintf("sqlserver://%s:%s@%s:%d?%s",
		url.QueryEscape(c.Username),
		url.QueryEscape(c.Password),
		c.Host,
		c.Port,
		query.Encode(),
	)
}
