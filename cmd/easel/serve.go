package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/easel/internal/cli"
	httpAdapter "github.com/aretw0/easel/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Starts the canvas API, the chat endpoints and the slide rewrite endpoint over HTTP.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		if cmd.Flags().Changed("store") {
			cfg.Store.Backend, _ = cmd.Flags().GetString("store")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		// The server logs JSON unless asked for text.
		if text, _ := cmd.Flags().GetBool("text-logs"); !text {
			cfg.Log.JSON = true
		}
		logger := cli.NewLogger(cfg.Log, os.Stderr)

		app, err := cli.Build(cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		handler, err := httpAdapter.NewHandler(app.Editor,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithMetrics(app.Metrics),
			httpAdapter.WithStreams(app.Streams),
			httpAdapter.WithAllowedOrigin(cfg.Server.FrontendOrigin),
		)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr(),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			logger.Info("easel server listening",
				"addr", srv.Addr,
				"store", cfg.Store.Backend,
				"origin", cfg.Server.FrontendOrigin,
				"model", cfg.OpenAI.Model,
			)
			serverErrors <- srv.ListenAndServe()
		}()

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sigCtx.Done():
			logger.Info("shutdown started", "signal", fmt.Sprint(sigCtx.Signal()))

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("easel server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", 5000, "Port to listen on (overrides config and PORT)")
	serveCmd.Flags().String("store", "", "Snapshot store: memory, redis, file or firestore (overrides config)")
	serveCmd.Flags().Bool("text-logs", false, "Log human-readable text instead of JSON")
}
