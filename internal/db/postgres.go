package db

import (
	"context"
	"fmt"

	"github.com/SedlarDavid/sqlgate/internal/gateway"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresDriver implements Driver for PostgreSQL using a pgx pool. Every
// statement runs inside a READ ONLY transaction that is always rolled back.
type PostgresDriver struct {
	pool *pgxpool.Pool
}

// NewPostgresDriver connects to PostgreSQL using the given URI.
func NewPostgresDriver(ctx context.Context, uri string) (*PostgresDriver, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &PostgresDriver{pool: pool}, nil
}

// Ping implements Driver.
func (d *PostgresDriver) Ping(ctx context.Context) error {
	return d.pool.Ping(ctx)
}

// Execute implements Driver.
func (d *PostgresDriver) Execute(ctx context.Context, sql string) ([]*gateway.Row, error) {
	tx, err := d.pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, fmt.Errorf("begin read-only transaction: %w", err)
	}
	defer tx.Rollback(context.WithoutCancel(ctx))

	rows, err := tx.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return pgxRowsToRows(rows)
}

func pgxRowsToRows(rows pgx.Rows) ([]*gateway.Row, error) {
	fields := rows.FieldDescriptions()
	var out []*gateway.Row
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, err
		}
		r := gateway.NewRow()
		for i, f := range fields {
			r.Set(columnKey(f.Name, i), vals[i])
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close implements Driver.
func (d *PostgresDriver) Close() error {
	d.pool.Close()
	return nil
}

// Ensure PostgresDriver implements Driver.
var _ Driver = (*PostgresDriver)(nil)
