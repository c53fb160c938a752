// Package contacts provides out-of-band contact directory sources. The
// default source is the uploaded CSV; this package covers the warehouse
// path used when no file is supplied.
package contacts

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/snowflakedb/gosnowflake" // Snowflake driver

	"github.com/ignite/outreach-analytics/internal/config"
	"github.com/ignite/outreach-analytics/internal/pkg/logger"
	"github.com/ignite/outreach-analytics/internal/reconcile"
)

// SnowflakeSource reads the contact directory from a Snowflake table.
type SnowflakeSource struct {
	cfg config.SnowflakeConfig
	db  *sql.DB
}

// NewSnowflakeSource opens a pooled Snowflake connection.
func NewSnowflakeSource(cfg config.SnowflakeConfig) (*SnowflakeSource, error) {
	// DSN format: user:password@account/database/schema?warehouse=xxx
	dsn := fmt.Sprintf("%s:%s@%s/%s/%s",
		cfg.User,
		cfg.Password,
		cfg.Account,
		cfg.Database,
		cfg.Schema,
	)
	if cfg.Warehouse != "" {
		dsn += "?warehouse=" + cfg.Warehouse
	}

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &SnowflakeSource{cfg: cfg, db: db}, nil
}

// Close closes the database connection.
func (s *SnowflakeSource) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping tests the database connection.
func (s *SnowflakeSource) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// FetchDirectory loads the full contact directory. Emails are normalized on
// the way in so the join layer never sees raw warehouse casing.
func (s *SnowflakeSource) FetchDirectory(ctx context.Context) ([]reconcile.ContactRecord, error) {
	query := fmt.Sprintf(`
		SELECT EMAIL,
		       COALESCE(COMPANY_URL, ''),
		       COALESCE(FULL_NAME, ''),
		       COALESCE(TITLE, '')
		FROM %s
		WHERE EMAIL IS NOT NULL`, s.cfg.Table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query contact directory: %w", err)
	}
	defer rows.Close()

	var records []reconcile.ContactRecord
	for rows.Next() {
		var rec reconcile.ContactRecord
		if err := rows.Scan(&rec.Email, &rec.CompanyURL, &rec.Name, &rec.Title); err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		rec.Email = reconcile.NormalizeEmail(rec.Email)
		rec.CompanyURL = strings.ToLower(strings.TrimSpace(rec.CompanyURL))
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read contact rows: %w", err)
	}

	logger.Info("contact directory loaded from snowflake", "table", s.cfg.Table, "contacts", len(records))
	return records, nil
}
