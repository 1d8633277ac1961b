package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aretw0/easel/internal/cli"
	"github.com/aretw0/easel/pkg/adapters/mcp"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the canvas as MCP tools (get_canvas_context, apply_commands,
edit_canvas, clear_canvas) so AI agents can edit it directly.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		// Stdout carries JSON-RPC; logs go to stderr.
		log.SetOutput(os.Stderr)
		logger := cli.NewLogger(cfg.Log, os.Stderr)

		app, err := cli.Build(cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		srv := mcp.NewServer(app.Editor, logger)

		switch transport {
		case "stdio":
			logger.Info("starting easel MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()

			addr := fmt.Sprintf(":%d", port)
			if err := srv.ServeSSE(sigCtx, addr, fmt.Sprintf("http://localhost:%d", port)); err != nil {
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
