package mssql

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver

	"github.com/cardops/legit-engine/pkg/apperrors"
)

// Open connects to the SQL Server warehouse and verifies connectivity
// before returning. The returned handle is safe for concurrent use and is
// shared by all source repositories.
func Open(ctx context.Context, cfg *Config) (*sqlx.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	db, err := sqlx.Open("sqlserver", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("open warehouse connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSourceUnavailable, err)
	}

	return db, nil
}
