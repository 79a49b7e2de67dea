// Package db provides the remote executors behind the gateway: one Driver
// per backend (PostgreSQL, SQL Server, MySQL, SQLite and a PostgREST
// exec_sql procedure) plus a Manager that caches them by connection ID.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/SedlarDavid/sqlgate/internal/gateway"
)

// Driver is a connection to one configured backend. Every Driver is a
// gateway.Executor.
type Driver interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Execute runs a statement the gateway has already validated and returns
	// its rows. Row keys are in the order the backend reported them.
	Execute(ctx context.Context, sql string) ([]*gateway.Row, error)
	// Close releases the connection. Caller should call once when done.
	Close() error
}

// Connection types understood by the Manager.
const (
	TypePostgres  = "postgres"
	TypeSQLServer = "sqlserver"
	TypeMySQL     = "mysql"
	TypeSQLite    = "sqlite"
	TypeRPC       = "rpc"
)

// sqlRowsToRows builds ordered rows from database/sql.Rows.
func sqlRowsToRows(rows *sql.Rows) ([]*gateway.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, nil
	}
	var out []*gateway.Row
	scan := make([]any, len(cols))
	for i := range scan {
		scan[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		r := gateway.NewRow()
		for i, c := range cols {
			r.Set(columnKey(c, i), normalizeValue(*(scan[i].(*any))))
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func columnKey(name string, i int) string {
	if name == "" {
		return fmt.Sprintf("column_%d", i+1)
	}
	return name
}

// normalizeValue turns driver byte slices (MySQL returns text that way) into
// strings so rows serialize as readable JSON.
func normalizeValue(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}
