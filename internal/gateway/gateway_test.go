package gateway

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is an Executor that returns canned rows and remembers the SQL it
// was given.
type recorder struct {
	mu   sync.Mutex
	sql  []string
	rows []*Row
	err  error
}

func (r *recorder) Execute(_ context.Context, sql string) ([]*Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sql = append(r.sql, sql)
	return r.rows, r.err
}

func TestExecute_endToEnd(t *testing.T) {
	exec := &recorder{rows: []*Row{row("name", "X", "id", 1)}}
	res := ExecuteReadOnlyQuery(context.Background(), exec, "select id, name from cars", 500)

	require.NoError(t, res.Err)
	assert.Equal(t, []string{"select id, name from cars LIMIT 500"}, exec.sql)
	assert.Equal(t, []string{"id", "name"}, res.Columns)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, `{"id":1,"name":"X"}`, jsonOf(t, res.Rows[0]))
	assert.False(t, res.ColumnsFromRows)
	assert.Equal(t, "", res.ErrorMessage())
}

func TestExecute_rejectedNeverReachesExecutor(t *testing.T) {
	for _, q := range []string{"delete from cars", "update cars set x = 1", "", "drop table cars", "WITH x AS (DELETE FROM t) DELETE FROM u"} {
		exec := &recorder{}
		res := ExecuteReadOnlyQuery(context.Background(), exec, q, 0)

		var verr *ValidationError
		require.True(t, errors.As(res.Err, &verr), "query %q: got %v", q, res.Err)
		assert.Empty(t, exec.sql, "executor called for %q", q)
		assert.Empty(t, res.Rows)
		assert.Empty(t, res.Columns)
	}
}

func TestExecute_remoteError(t *testing.T) {
	boom := errors.New("relation \"cars\" does not exist")
	exec := &recorder{err: boom}
	long := "select id from cars where name = '" + strings.Repeat("x", 200) + "'"
	res := ExecuteReadOnlyQuery(context.Background(), exec, long, 10)

	var rerr *RemoteExecutionError
	require.True(t, errors.As(res.Err, &rerr))
	assert.ErrorIs(t, res.Err, boom)
	assert.Equal(t, long+" LIMIT 10", rerr.Query)
	assert.True(t, strings.HasSuffix(res.ErrorMessage(), "..."))
	assert.Contains(t, res.ErrorMessage(), "does not exist")
	assert.Empty(t, res.Rows)
	assert.Empty(t, res.Columns)
}

func TestExecute_fallbackToRowKeys(t *testing.T) {
	exec := &recorder{rows: []*Row{row("?column?", 1)}}
	res := ExecuteReadOnlyQuery(context.Background(), exec, "select f(1", 0)
	require.NoError(t, res.Err)
	assert.True(t, res.ColumnsFromRows)
	assert.Equal(t, []string{"?column?"}, res.Columns)
}

func TestExecute_withQueryUsesTerminalSelect(t *testing.T) {
	exec := &recorder{rows: []*Row{row("total", 9, "maker", "BYD")}}
	q := "WITH s AS (SELECT maker, sum(units) AS total FROM sales GROUP BY maker) SELECT maker, total FROM s ORDER BY total DESC;"
	res := ExecuteReadOnlyQuery(context.Background(), exec, q, 0)
	require.NoError(t, res.Err)
	assert.Equal(t, strings.TrimSuffix(q, ";"), exec.sql[0])
	assert.Equal(t, []string{"maker", "total"}, res.Columns)
	assert.Equal(t, `{"maker":"BYD","total":9}`, jsonOf(t, res.Rows[0]))
}

func TestExecute_noRows(t *testing.T) {
	exec := &recorder{}
	res := ExecuteReadOnlyQuery(context.Background(), exec, "select a, b from t", 0)
	require.NoError(t, res.Err)
	assert.Empty(t, res.Rows)
	assert.Equal(t, []string{"a", "b"}, res.Columns)
	assert.Equal(t, `{"rows":[],"columns":["a","b"]}`, jsonOf(t, res))
}

func TestExecute_strict(t *testing.T) {
	exec := &recorder{}
	g := New(exec, Options{Strict: true})
	res := g.Execute(context.Background(), "select 1; drop table t", 0)
	require.Error(t, res.Err)
	assert.Empty(t, exec.sql)
}

func TestRowCap(t *testing.T) {
	g := New(nil, Options{DefaultLimit: 100, MaxLimit: 500})
	assert.Equal(t, 100, g.RowCap(0))
	assert.Equal(t, 100, g.RowCap(-3))
	assert.Equal(t, 250, g.RowCap(250))
	assert.Equal(t, 500, g.RowCap(9000))

	d := New(nil, Options{})
	assert.Equal(t, DefaultLimit, d.RowCap(0))
	assert.Equal(t, MaxLimit, d.RowCap(MaxLimit+1))

	inverted := New(nil, Options{DefaultLimit: 50, MaxLimit: 10})
	assert.Equal(t, 50, inverted.RowCap(80))
}

func TestCheck(t *testing.T) {
	g := New(nil, Options{})
	plan, err := g.Check("SELECT a, b AS c FROM t;", 20)
	require.NoError(t, err)
	assert.Equal(t, KindSelect, plan.Kind)
	assert.Equal(t, "SELECT a, b AS c FROM t LIMIT 20", plan.SQL)
	assert.Equal(t, []string{"a", "c"}, plan.Columns)
	assert.JSONEq(t, `{"kind":"select","sql":"SELECT a, b AS c FROM t LIMIT 20","columns":["a","c"]}`, jsonOf(t, plan))

	_, err = g.Check("insert into t values (1)", 0)
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}

func TestExecute_concurrent(t *testing.T) {
	exec := ExecutorFunc(func(_ context.Context, sql string) ([]*Row, error) {
		return []*Row{row("b", sql, "a", 1)}, nil
	})
	g := New(exec, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := g.Execute(context.Background(), "select a, b from t", 0)
			assert.NoError(t, res.Err)
			assert.Equal(t, []string{"a", "b"}, res.Columns)
		}()
	}
	wg.Wait()
}
