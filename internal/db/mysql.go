package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SedlarDavid/sqlgate/internal/gateway"
	_ "github.com/go-sql-driver/mysql"
)

// MySQLDriver implements Driver for MySQL using go-sql-driver/mysql.
type MySQLDriver struct {
	db *sql.DB
}

// NewMySQLDriver connects to MySQL using the given DSN
// (e.g. "user:password@tcp(localhost:3306)/dbname").
func NewMySQLDriver(ctx context.Context, dsn string) (*MySQLDriver, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("mysql open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("mysql ping: %w", err)
	}
	return &MySQLDriver{db: db}, nil
}

// Ping implements Driver.
func (d *MySQLDriver) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// Execute implements Driver. The statement runs in a START TRANSACTION READ
// ONLY block that is rolled back afterwards.
func (d *MySQLDriver) Execute(ctx context.Context, query string) ([]*gateway.Row, error) {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return sqlRowsToRows(rows)
}

// Close implements Driver.
func (d *MySQLDriver) Close() error {
	return d.db.Close()
}

var _ Driver = (*MySQLDriver)(nil)
