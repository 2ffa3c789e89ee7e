package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/loanflow"
	"github.com/aretw0/loanflow/internal/cli"
	"github.com/aretw0/loanflow/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes quoting, ABN checks and the application chat as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		logger := cfg.Logger()
		app, err := cli.Build(cmd.Context(), cfg, cli.WithPacing(0), cli.WithLogger(logger))
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Engine,
			mcp.WithCalculator(app.Calculator),
			mcp.WithRegistry(app.Registry),
			mcp.WithLogger(logger),
			mcp.WithVersion(loanflow.Version),
		)

		switch transport {
		case "stdio":
			// Logs must not corrupt JSON-RPC on Stdout.
			log.SetOutput(os.Stderr)
			logger.Info("Starting loanflow MCP server (stdio)", "tools", srv.Tools())
			return srv.ServeStdio()
		case "sse":
			logger.Info("Starting loanflow MCP server (SSE)", "port", port)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			logger.Info("MCP server stopped gracefully")
			return nil
		default:
			return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().String("transport", "stdio", "Transport protocol to use: 'stdio' or 'sse'")
	mcpCmd.Flags().Int("port", 8080, "Port to listen on (only for SSE)")
}
