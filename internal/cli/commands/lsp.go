package commands

import (
	"github.com/spf13/cobra"
	"github.com/supaloboto/sisuo/internal/cli/config"
	"github.com/supaloboto/sisuo/internal/lsp"
)

// NewLSPCommand creates the lsp command.
func NewLSPCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		Long: `Start the LSP server for editor integration.

The server communicates over stdin/stdout using JSON-RPC. It reads
sisuo.yaml from the project root sent in the client's initialize
request (rootUri) and reloads it whenever the file is saved.

Features: diagnostics for .ss files, completion of names, keywords,
functions and @parameters, hover with current values, go to definition.`,
		Example: `  # Start LSP server (usually called by an editor)
  sisuo lsp`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLSP(cmd)
		},
	}

	return cmd
}

func runLSP(cmd *cobra.Command) error {
	logger := config.GetLogger(cmd.Context())
	server := lsp.NewServerWithLogger(cmd.InOrStdin(), cmd.OutOrStdout(), logger)
	return server.Run()
}
