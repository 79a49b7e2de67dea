package cli

import (
	"github.com/spf13/cobra"

	"github.com/SedlarDavid/sqlgate/internal/gateway"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Limit int
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <sql>",
		Short: "Validate a query without running it",
		Long: `Validate a query without running it.

Prints the query kind, the SQL that would be sent to the database and the
column order the result would have.

Example:
  sqlgate check "SELECT name, maker AS brand FROM cars"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args[0])
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "row cap (default from config)")

	return cmd
}

func runCheck(cmd *cobra.Command, opts *CheckOptions, query string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	g := gateway.New(nil, gateway.Options{
		DefaultLimit: cfg.DefaultLimit,
		MaxLimit:     cfg.MaxLimit,
		Strict:       cfg.StrictReadOnly,
		Logger:       opts.logger(cmd.ErrOrStderr(), cfg),
	})
	plan, err := g.Check(query, opts.Limit)
	if err != nil {
		return WrapExitError(ExitFailure, "query rejected", err)
	}
	return writeJSON(cmd.OutOrStdout(), plan)
}
