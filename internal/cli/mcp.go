package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/clauselens/internal/mcp"
	"github.com/ppiankov/clauselens/internal/pipeline"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve analysis tools to AI assistants over MCP (stdio)",
	Long: `Mcp runs a Model Context Protocol server on stdin/stdout with the tools
analyze_contract, compare_contracts, list_templates and analyze_template.

Logs go to stderr; stdout carries only protocol messages.

Example client configuration:
  {"command": "clauselens", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	addAnalysisFlags(mcpCmd)
	addFetchFlags(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.WithField("version", Version).Info("MCP server starting on stdio")
	return mcp.NewServer(p, nil, Version, logger).Run(ctx)
}
