package db

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SedlarDavid/sqlgate/internal/config"
)

// Manager holds configuration and caches drivers by connection ID. It is
// safe for concurrent use.
type Manager struct {
	cfg     *config.Config
	log     *slog.Logger
	mu      sync.Mutex
	drivers map[string]Driver
}

// NewManager returns a manager that will create drivers from cfg. A nil
// logger uses slog.Default.
func NewManager(cfg *config.Config, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		cfg:     cfg,
		log:     log,
		drivers: make(map[string]Driver),
	}
}

// Driver returns a Driver for the given connection ID, creating and caching it if needed.
func (m *Manager) Driver(ctx context.Context, connectionID string) (Driver, error) {
	if m.cfg == nil {
		return nil, fmt.Errorf("unknown connection: %q", connectionID)
	}
	conn, ok := m.cfg.Lookup(connectionID)
	if !ok {
		return nil, fmt.Errorf("unknown connection: %q", connectionID)
	}

	m.mu.Lock()
	d, cached := m.drivers[connectionID]
	m.mu.Unlock()

	if cached {
		return d, nil
	}

	newDriver, err := open(ctx, conn)
	if err != nil {
		// Log the full error (may contain the URI) for debugging, but
		// return only a safe message to the caller: tool responses must
		// never expose connection strings or credentials.
		m.log.Error("driver open failed", "connection", connectionID, "type", conn.Type, "error", err)
		return nil, fmt.Errorf("failed to connect to %q (%s); check server logs for details", connectionID, conn.Type)
	}

	m.mu.Lock()
	if existing, ok := m.drivers[connectionID]; ok {
		m.mu.Unlock()
		newDriver.Close()
		return existing, nil
	}
	m.drivers[connectionID] = newDriver
	m.mu.Unlock()

	m.log.Info("driver opened", "connection", connectionID, "type", conn.Type)
	return newDriver, nil
}

func open(ctx context.Context, conn config.Connection) (Driver, error) {
	switch conn.Type {
	case TypePostgres:
		return NewPostgresDriver(ctx, conn.URI)
	case TypeSQLServer:
		return NewSQLServerDriver(ctx, conn.URI)
	case TypeSQLite:
		return NewSQLiteDriver(ctx, conn.URI)
	case TypeMySQL:
		return NewMySQLDriver(ctx, conn.URI)
	case TypeRPC:
		return NewRPCDriver(conn.URI, RPCOptions{APIKey: conn.APIKey, Function: conn.Function})
	default:
		return nil, fmt.Errorf("unsupported connection type %q", conn.Type)
	}
}

// Close closes all cached drivers. Call when shutting down.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, d := range m.drivers {
		_ = d.Close()
		delete(m.drivers, id)
	}
	return nil
}
