// Package config loads gateway settings and database connections from
// environment variables and an optional config file. Connection URIs and API
// keys are never logged or exposed to tool responses.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Env var names. Connection variables define connections with fixed IDs
// equal to their type ("postgres", "sqlserver", "mysql", "sqlite", "rpc").
const (
	EnvConfigPath   = "SQLGATE_CONFIG"
	EnvPostgresURI  = "SQLGATE_POSTGRES_URI"
	EnvSQLServerURI = "SQLGATE_SQLSERVER_URI"
	EnvMySQLDSN     = "SQLGATE_MYSQL_DSN"
	EnvSQLitePath   = "SQLGATE_SQLITE_PATH"
	EnvRPCURL       = "SQLGATE_RPC_URL"
	EnvRPCKey       = "SQLGATE_RPC_KEY"
	EnvDefaultLimit = "SQLGATE_DEFAULT_LIMIT"
	EnvMaxLimit     = "SQLGATE_MAX_LIMIT"
	EnvLogLevel     = "SQLGATE_LOG_LEVEL"
)

// DefaultConfigDir is the directory for the optional config file.
// Config file path: ~/.sqlgate/config.yaml
const DefaultConfigDir = ".sqlgate"
const ConfigFileName = "config.yaml"

// Defaults applied when neither file nor env set a value.
const (
	DefaultLimit    = 1000
	DefaultMaxLimit = 10000
)

// Config holds loaded configuration. URIs are stored but never included in
// logs or tool output.
type Config struct {
	// DefaultLimit is the row cap injected when a caller does not pass one.
	DefaultLimit int
	// MaxLimit is the largest row cap a caller may request.
	MaxLimit int
	// StrictReadOnly enables the keyword and multi-statement guard.
	StrictReadOnly bool
	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	connections map[string]connectionEntry
}

type connectionEntry struct {
	Type     string
	uri      string
	apiKey   string
	function string
}

// ConnectionInfo is safe to log or return to tools: no credentials.
type ConnectionInfo struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Connection is the full connection description. For use only by the db
// layer; never log it.
type Connection struct {
	Type     string
	URI      string
	APIKey   string
	Function string
}

// Load reads configuration from the environment and, if present, the file
// named by SQLGATE_CONFIG or ~/.sqlgate/config.yaml. Env vars override file
// values.
func Load() (*Config, error) {
	configPath, err := configFilePath()
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}
	return LoadFrom(configPath)
}

// LoadFrom is Load with an explicit config file path. An empty path skips
// the file.
func LoadFrom(path string) (*Config, error) {
	c := newConfig()

	// 1) Optional config file (base)
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	// 2) Env overrides
	if err := c.loadEnv(); err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func newConfig() *Config {
	return &Config{
		DefaultLimit:   DefaultLimit,
		MaxLimit:       DefaultMaxLimit,
		StrictReadOnly: true,
		LogLevel:       "info",
		connections:    make(map[string]connectionEntry),
	}
}

func configFilePath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	p := filepath.Join(home, DefaultConfigDir, ConfigFileName)
	_, err = os.Stat(p)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return p, nil
}

type fileFormat struct {
	DefaultLimit   *int                      `yaml:"default_limit"`
	MaxLimit       *int                      `yaml:"max_limit"`
	StrictReadOnly *bool                     `yaml:"strict_read_only"`
	LogLevel       string                    `yaml:"log_level"`
	Connections    map[string]connectionSpec `yaml:"connections"`
}

// connectionSpec accepts either a bare URI string or a mapping with type,
// uri, api_key and function.
type connectionSpec struct {
	Type     string `yaml:"type"`
	URI      string `yaml:"uri"`
	APIKey   string `yaml:"api_key"`
	Function string `yaml:"function"`
}

func (s *connectionSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.URI = node.Value
		return nil
	}
	type plain connectionSpec
	return node.Decode((*plain)(s))
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return c.parse(data)
}

func (c *Config) parse(data []byte) error {
	var f fileFormat
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	if f.DefaultLimit != nil {
		c.DefaultLimit = *f.DefaultLimit
	}
	if f.MaxLimit != nil {
		c.MaxLimit = *f.MaxLimit
	}
	if f.StrictReadOnly != nil {
		c.StrictReadOnly = *f.StrictReadOnly
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	for id, cs := range f.Connections {
		if cs.URI == "" {
			continue
		}
		typ := cs.Type
		if typ == "" {
			typ = inferType(id, cs.URI)
		}
		c.connections[id] = connectionEntry{
			Type:     typ,
			uri:      cs.URI,
			apiKey:   cs.APIKey,
			function: cs.Function,
		}
	}
	return nil
}

func (c *Config) loadEnv() error {
	for env, typ := range map[string]string{
		EnvPostgresURI:  "postgres",
		EnvSQLServerURI: "sqlserver",
		EnvMySQLDSN:     "mysql",
		EnvSQLitePath:   "sqlite",
	} {
		if v := os.Getenv(env); v != "" {
			c.connections[typ] = connectionEntry{Type: typ, uri: v}
		}
	}
	if v := os.Getenv(EnvRPCURL); v != "" {
		c.connections["rpc"] = connectionEntry{Type: "rpc", uri: v, apiKey: os.Getenv(EnvRPCKey)}
	}

	for env, dst := range map[string]*int{
		EnvDefaultLimit: &c.DefaultLimit,
		EnvMaxLimit:     &c.MaxLimit,
	} {
		v := os.Getenv(env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", env, err)
		}
		*dst = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	return nil
}

func (c *Config) validate() error {
	if c.DefaultLimit <= 0 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit (%d) must be at least default_limit (%d)", c.MaxLimit, c.DefaultLimit)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	for id, e := range c.connections {
		switch e.Type {
		case "postgres", "sqlserver", "mysql", "sqlite", "rpc":
		default:
			return fmt.Errorf("connection %q: unsupported type %q", id, e.Type)
		}
	}
	return nil
}

// inferType guesses a connection type from its ID, then from its URI.
func inferType(id, uri string) string {
	switch id {
	case "postgres", "sqlserver", "mysql", "sqlite", "rpc":
		return id
	}
	lower := strings.ToLower(uri)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "sqlserver://"):
		return "sqlserver"
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return "rpc"
	case strings.HasPrefix(lower, "file:"), lower == ":memory:",
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return "sqlite"
	case strings.Contains(lower, "@tcp("):
		return "mysql"
	default:
		return "postgres"
	}
}

// ConnectionIDs returns all configured connection IDs, sorted. Safe to log.
func (c *Config) ConnectionIDs() []string {
	ids := make([]string, 0, len(c.connections))
	for id := range c.connections {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ConnectionInfos returns connection id and type for each connection. Safe to return from tools.
func (c *Config) ConnectionInfos() []ConnectionInfo {
	infos := make([]ConnectionInfo, 0, len(c.connections))
	for id, e := range c.connections {
		infos = append(infos, ConnectionInfo{ID: id, Type: e.Type})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// Lookup returns the connection for the given ID. For use only by the db layer; never log the result.
func (c *Config) Lookup(id string) (Connection, bool) {
	e, ok := c.connections[id]
	if !ok {
		return Connection{}, false
	}
	return Connection{Type: e.Type, URI: e.uri, APIKey: e.apiKey, Function: e.function}, true
}

// Type returns the connection type for the given ID.
func (c *Config) Type(id string) (string, bool) {
	e, ok := c.connections[id]
	return e.Type, ok
}

// HasConnection returns whether the given connection ID is configured.
func (c *Config) HasConnection(id string) bool {
	_, ok := c.connections[id]
	return ok
}

// Level returns LogLevel as a slog level. Unknown values map to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
