// Package gateway runs caller-supplied SQL through a read-only pipeline:
// classify, normalize, execute through an Executor, then restore the column
// order the query asked for on rows that come back as unordered records.
//
// Every stage except the Executor call is a pure function of its inputs, so
// a Gateway can serve concurrent requests without locking.
package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Row caps applied when Options leaves them unset.
const (
	DefaultLimit = 1000
	MaxLimit     = 10000
)

// Executor runs normalized SQL somewhere else and returns its rows. Retries,
// connection handling and timeouts belong to the implementation.
type Executor interface {
	Execute(ctx context.Context, sql string) ([]*Row, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, sql string) ([]*Row, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, sql string) ([]*Row, error) {
	return f(ctx, sql)
}

// Options configures a Gateway.
type Options struct {
	// DefaultLimit is the row cap used when the caller passes limit <= 0.
	DefaultLimit int
	// MaxLimit is the largest row cap a caller may request.
	MaxLimit int
	// Strict adds the keyword and multi-statement guard to classification.
	Strict bool
	Logger *slog.Logger
}

// Gateway executes read-only queries against a single Executor.
type Gateway struct {
	exec Executor
	opts Options
	log  *slog.Logger
}

// New returns a Gateway over exec. Zero-valued options take package defaults.
func New(exec Executor, opts Options) *Gateway {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = DefaultLimit
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = MaxLimit
	}
	if opts.MaxLimit < opts.DefaultLimit {
		opts.MaxLimit = opts.DefaultLimit
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{exec: exec, opts: opts, log: log}
}

// ExecuteReadOnlyQuery runs query through a Gateway with default options.
func ExecuteReadOnlyQuery(ctx context.Context, exec Executor, query string, limit int) Result {
	return New(exec, Options{}).Execute(ctx, query, limit)
}

// RowCap returns the row cap applied for a requested limit.
func (g *Gateway) RowCap(limit int) int {
	switch {
	case limit <= 0:
		return g.opts.DefaultLimit
	case limit > g.opts.MaxLimit:
		return g.opts.MaxLimit
	default:
		return limit
	}
}

// Execute validates, normalizes and runs query, then reorders the returned
// rows. It never panics on bad input; failures are reported in Result.Err.
func (g *Gateway) Execute(ctx context.Context, query string, limit int) Result {
	start := time.Now()
	log := g.log.With("request_id", uuid.NewString())

	kind, err := Classify(query, g.opts.Strict)
	if err != nil {
		log.Info("query rejected", "error", err)
		return failed(err)
	}

	sql := Normalize(query, kind, g.RowCap(limit))
	log.Debug("executing query", "kind", kind, "sql", Echo(sql))

	execStart := time.Now()
	rows, err := g.exec.Execute(ctx, sql)
	if err != nil {
		log.Warn("executor failed", "error", err, "elapsed", time.Since(execStart))
		return failed(&RemoteExecutionError{Query: sql, Err: err})
	}
	log.Debug("executor returned", "rows", len(rows), "elapsed", time.Since(execStart))

	resolved := Resolve(sql, kind)
	if len(resolved) == 0 {
		log.Debug("column resolution fell back to row keys")
	}
	columns, ordered := Reorder(resolved, rows)

	log.Debug("query complete", "rows", len(ordered), "columns", len(columns), "elapsed", time.Since(start))
	return Result{
		Rows:            ordered,
		Columns:         columns,
		ColumnsFromRows: len(resolved) == 0,
	}
}

// Check runs the pure stages only: it classifies and normalizes query and
// resolves the column names it would produce, without executing anything.
func (g *Gateway) Check(query string, limit int) (Plan, error) {
	kind, err := Classify(query, g.opts.Strict)
	if err != nil {
		return Plan{Kind: KindRejected}, err
	}
	sql := Normalize(query, kind, g.RowCap(limit))
	resolved := Resolve(sql, kind)
	columns := make([]string, 0, len(resolved))
	for _, c := range resolved {
		columns = append(columns, c.Name)
	}
	return Plan{Kind: kind, SQL: sql, Columns: columns}, nil
}

// Plan describes how a query would be executed.
type Plan struct {
	Kind    Kind     `json:"-"`
	SQL     string   `json:"sql"`
	Columns []string `json:"columns"`
}

// MarshalJSON renders Kind by name.
func (p Plan) MarshalJSON() ([]byte, error) {
	type plan Plan
	return json.Marshal(struct {
		Kind string `json:"kind"`
		plan
	}{Kind: p.Kind.String(), plan: plan(p)})
}

// Result is the outcome of one Execute call. When Err is set Rows and
// Columns are empty. Otherwise Columns is non-empty whenever Rows is.
type Result struct {
	Rows    []*Row
	Columns []string
	Err     error
	// ColumnsFromRows reports that the select-list could not be resolved and
	// Columns was taken from the first row's keys instead.
	ColumnsFromRows bool
}

// ErrorMessage returns the error text, or "" on success.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// MarshalJSON encodes rows with their keys in reordered order.
func (r Result) MarshalJSON() ([]byte, error) {
	rows, columns := r.Rows, r.Columns
	if rows == nil {
		rows = []*Row{}
	}
	if columns == nil {
		columns = []string{}
	}
	return json.Marshal(struct {
		Rows            []*Row   `json:"rows"`
		Columns         []string `json:"columns"`
		Error           string   `json:"error,omitempty"`
		ColumnsFromRows bool     `json:"columns_from_rows,omitempty"`
	}{rows, columns, r.ErrorMessage(), r.ColumnsFromRows})
}

func failed(err error) Result {
	return Result{Rows: []*Row{}, Columns: []string{}, Err: err}
}
