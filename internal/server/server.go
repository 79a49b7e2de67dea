// Package server builds the MCP server and registers tools.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/SedlarDavid/sqlgate/internal/config"
	"github.com/SedlarDavid/sqlgate/internal/db"
	"github.com/SedlarDavid/sqlgate/internal/gateway"
)

const (
	ServerName    = "sqlgate"
	ServerVersion = "1.0.0"
)

// New returns an MCP server with all tools registered and the driver
// manager backing it. The caller closes the returned Manager.
func New(cfg *config.Config) (*mcpserver.MCPServer, *db.Manager) {
	s := mcpserver.NewMCPServer(ServerName, ServerVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	return s, Register(s, cfg)
}

// Serve runs an MCP server for cfg over the given streams until ctx is
// cancelled or the input is closed.
func Serve(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	s, mgr := New(cfg)
	defer mgr.Close()

	stdio := mcpserver.NewStdioServer(s)
	stdio.SetErrorLogger(slog.NewLogLogger(slog.Default().Handler(), slog.LevelError))
	slog.Info("serving MCP over stdio", "connections", connectionIDs(cfg))
	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Register adds the tools to s and returns the Manager used by execute_query.
// With a nil cfg there are no connections, so execute_query always fails.
func Register(s *mcpserver.MCPServer, cfg *config.Config) *db.Manager {
	log := slog.Default()
	opts := gatewayOptions(cfg, log)

	s.AddTool(mcp.NewTool("ping",
		mcp.WithDescription("Simple health check. Returns pong."),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(PingOutput{Message: "pong"})
	})

	s.AddTool(mcp.NewTool("list_connections",
		mcp.WithDescription("List configured database connection IDs and their types. No credentials in response."),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := ListConnectionsOutput{Connections: []config.ConnectionInfo{}}
		if cfg != nil {
			out.Connections = cfg.ConnectionInfos()
		}
		return jsonResult(out)
	})

	s.AddTool(mcp.NewTool("check_query",
		mcp.WithDescription("Validate a query without running it. Returns its kind, the SQL that would be executed and the resolved column order."),
		mcp.WithString("sql", mcp.Required(), mcp.Description("SELECT or WITH ... SELECT statement")),
		mcp.WithNumber("limit", mcp.Description("Row cap to inject when the query has no LIMIT")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		sql, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		plan, err := gateway.New(nil, opts).Check(sql, req.GetInt("limit", 0))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(plan)
	})

	mgr := db.NewManager(cfg, log)

	s.AddTool(mcp.NewTool("execute_query",
		mcp.WithDescription("Run a read-only SQL query (SELECT or WITH ... SELECT). Rejects anything else. "+
			"A LIMIT is added when missing. Rows come back with keys in the order the query selected them."),
		mcp.WithString("connection_id", mcp.Required(), mcp.Description("Connection ID from list_connections")),
		mcp.WithString("sql", mcp.Required(), mcp.Description("SELECT or WITH ... SELECT statement")),
		mcp.WithNumber("limit", mcp.Description("Row cap; defaults to the configured default and is clamped to the configured maximum")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		connectionID, err := req.RequireString("connection_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		sql, err := req.RequireString("sql")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		driver, err := mgr.Driver(ctx, connectionID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		res := gateway.New(driver, opts).Execute(ctx, sql, req.GetInt("limit", 0))
		if res.Err != nil {
			return mcp.NewToolResultError(res.ErrorMessage()), nil
		}
		return jsonResult(ExecuteQueryOutput{
			Rows:            res.Rows,
			Columns:         res.Columns,
			ColumnsFromRows: res.ColumnsFromRows,
		})
	})

	return mgr
}

func gatewayOptions(cfg *config.Config, log *slog.Logger) gateway.Options {
	if cfg == nil {
		return gateway.Options{Strict: true, Logger: log}
	}
	return gateway.Options{
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
		Strict:       cfg.StrictReadOnly,
		Logger:       log,
	}
}

func connectionIDs(cfg *config.Config) []string {
	if cfg == nil {
		return nil
	}
	return cfg.ConnectionIDs()
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(b)), nil
}

// PingOutput is the structured result of the ping tool.
type PingOutput struct {
	Message string `json:"message"`
}

// ListConnectionsOutput is the result of list_connections.
type ListConnectionsOutput struct {
	Connections []config.ConnectionInfo `json:"connections"`
}

// ExecuteQueryOutput is the result of execute_query.
type ExecuteQueryOutput struct {
	Rows    []*gateway.Row `json:"rows"`
	Columns []string       `json:"columns"`
	// ColumnsFromRows is set when the select-list could not be resolved.
	ColumnsFromRows bool `json:"columns_from_rows,omitempty"`
}
