package cli

import (
	"github.com/spf13/cobra"

	"github.com/SedlarDavid/sqlgate/internal/db"
	"github.com/SedlarDavid/sqlgate/internal/gateway"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Conn  string
	Limit int
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a read-only query",
		Long: `Run a read-only query against a configured connection and print the
result as JSON. Failures are printed too, with a non-zero exit code.

Example:
  sqlgate query --conn postgres --limit 10 "SELECT id, name FROM users"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Conn, "conn", "", "connection ID (see 'sqlgate connections')")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "row cap (default from config)")
	_ = cmd.MarkFlagRequired("conn")

	return cmd
}

func runQuery(cmd *cobra.Command, opts *QueryOptions, query string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	log := opts.logger(cmd.ErrOrStderr(), cfg)

	mgr := db.NewManager(cfg, log)
	defer mgr.Close()

	ctx := cmd.Context()
	driver, err := mgr.Driver(ctx, opts.Conn)
	if err != nil {
		return WrapExitError(ExitCommandError, "connection", err)
	}

	res := gateway.New(driver, gateway.Options{
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
		Strict:       cfg.StrictReadOnly,
		Logger:       log,
	}).Execute(ctx, query, opts.Limit)

	if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if res.Err != nil {
		return WrapExitError(ExitFailure, "query failed", res.Err)
	}
	return nil
}
