package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/SedlarDavid/sqlgate/internal/server"
)

// NewServeCommand creates the serve command, which runs the MCP server on
// stdin/stdout.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Run the MCP server over stdio",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			// stdout carries protocol frames; logs go to stderr only.
			slog.SetDefault(rootOpts.logger(os.Stderr, cfg))
			return server.Serve(cmd.Context(), cfg, cmd.InOrStdin(), os.Stdout)
		},
	}
}
