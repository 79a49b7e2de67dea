package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SedlarDavid/sqlgate/internal/gateway"
	_ "modernc.org/sqlite"
)

// SQLiteDriver implements Driver for SQLite using modernc.org/sqlite (pure Go, no CGO).
type SQLiteDriver struct {
	db *sql.DB
}

// NewSQLiteDriver opens a SQLite database at the given path (or URI such as "file:path?mode=ro").
func NewSQLiteDriver(ctx context.Context, uri string) (*SQLiteDriver, error) {
	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	return &SQLiteDriver{db: db}, nil
}

// Ping implements Driver.
func (d *SQLiteDriver) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Execute implements Driver. The connection is switched to query_only for
// the duration of the statement.
func (d *SQLiteDriver) Execute(ctx context.Context, query string) ([]*gateway.Row, error) {
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, fmt.Errorf("sqlite query_only: %w", err)
	}
	defer conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA query_only = OFF")

	rows, err := conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return sqlRowsToRows(rows)
}

// Close implements Driver.
func (d *SQLiteDriver) Close() error {
	return d.db.Close()
}

var _ Driver = (*SQLiteDriver)(nil)
