package db

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/SedlarDavid/sqlgate/internal/gateway"
)

// DefaultRPCFunction is the stored procedure called when none is configured.
const DefaultRPCFunction = "exec_sql"

const (
	rpcTimeout     = 60 * time.Second
	maxRPCResponse = 64 << 20
)

// RPCOptions configures an RPCDriver.
type RPCOptions struct {
	// APIKey is sent as both the apikey header and a bearer token.
	APIKey string
	// Function is the procedure name under /rest/v1/rpc/.
	Function string
	// Client overrides the HTTP client.
	Client *http.Client
}

// RPCDriver implements Driver against a PostgREST endpoint (e.g. Supabase)
// that exposes a procedure taking {"sql": text} and returning the result set
// as a JSON array of objects. Key order inside each object is kept as sent.
type RPCDriver struct {
	client   *http.Client
	endpoint string
	apiKey   string
}

// NewRPCDriver returns a driver for the project at baseURL. baseURL may be
// the project root or already end in /rest/v1.
func NewRPCDriver(baseURL string, opts RPCOptions) (*RPCDriver, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("rpc url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("rpc url: want http(s)://host, got scheme %q", u.Scheme)
	}
	fn := opts.Function
	if fn == "" {
		fn = DefaultRPCFunction
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	if strings.HasSuffix(u.Path, "/rest/v1") {
		u = u.JoinPath("rpc", fn)
	} else {
		u = u.JoinPath("rest", "v1", "rpc", fn)
	}
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: rpcTimeout}
	}
	return &RPCDriver{client: client, endpoint: u.String(), apiKey: opts.APIKey}, nil
}

// Ping implements Driver by running a trivial query through the procedure.
func (d *RPCDriver) Ping(ctx context.Context) error {
	_, err := d.Execute(ctx, "select 1")
	return err
}

// Execute implements Driver.
func (d *RPCDriver) Execute(ctx context.Context, sql string) ([]*gateway.Row, error) {
	body, err := json.Marshal(map[string]string{"sql": sql})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if d.apiKey != "" {
		req.Header.Set("apikey", d.apiKey)
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRPCResponse))
	if err != nil {
		return nil, fmt.Errorf("rpc read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rpcStatusError(resp.StatusCode, data)
	}
	return decodeRPCRows(data)
}

// decodeRPCRows accepts a JSON array of objects, a single object (one row, or
// an {"error": ...} report), or null.
func decodeRPCRows(data []byte) ([]*gateway.Row, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	switch data[0] {
	case '[':
		var rows []*gateway.Row
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("rpc decode rows: %w", err)
		}
		return rows, nil
	case '{':
		r := gateway.NewRow()
		if err := json.Unmarshal(data, r); err != nil {
			return nil, fmt.Errorf("rpc decode row: %w", err)
		}
		if msg, ok := r.Get("error"); ok {
			return nil, fmt.Errorf("%v", msg)
		}
		return []*gateway.Row{r}, nil
	default:
		return nil, fmt.Errorf("rpc: unexpected response %s", truncateMsg(string(data), 100))
	}
}

// postgrestError is the error body PostgREST sends with non-2xx statuses.
type postgrestError struct {
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
	Code    string `json:"code"`
}

func rpcStatusError(status int, body []byte) error {
	var pe postgrestError
	if err := json.Unmarshal(body, &pe); err == nil && pe.Message != "" {
		msg := pe.Message
		if pe.Details != "" {
			msg += " (" + pe.Details + ")"
		}
		if pe.Code != "" {
			msg = pe.Code + ": " + msg
		}
		return errors.New(msg)
	}
	return fmt.Errorf("rpc status %d: %s", status, truncateMsg(strings.TrimSpace(string(body)), 500))
}

// truncateMsg truncates a string to maxLen bytes for safe error reporting.
func truncateMsg(s string, maxLen int) string {
	if len(s) > maxLen {
		return s[:maxLen] + "... (truncated)"
	}
	return s
}

// Close implements Driver.
func (d *RPCDriver) Close() error {
	d.client.CloseIdleConnections()
	return nil
}

var _ Driver = (*RPCDriver)(nil)
