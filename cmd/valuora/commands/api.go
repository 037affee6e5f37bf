package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/valuora/backend/internal/api"
	"github.com/valuora/backend/internal/api/handlers"
)

var apiPort string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the API server",
	Long: `Starts the REST API server.

Endpoints:
  GET  /health                        - health check
  GET  /api/valuations                - results since a timestamp
  GET  /api/valuations/{ticker}       - latest stored result
  POST /api/valuations/{ticker}/run   - value now and return the result

Example:
  go run ./cmd/valuora api
  go run ./cmd/valuora api --port 8080`,
	RunE: runAPIServer,
}

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (default: PORT env)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Valuora API Server ===")

	e, err := setupEnv()
	if err != nil {
		return err
	}
	defer e.close()

	if apiPort != "" {
		e.cfg.Port = apiPort
	}

	handler := handlers.NewValuationHandler(e.service, e.results, e.log)
	router := api.NewRouter(handler, e.log)
	server := api.New(e.cfg, e.log, router)

	go func() {
		if err := server.Start(); err != nil {
			e.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", e.cfg.Port)
	fmt.Println("\nAvailable endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  GET  /api/valuations")
	fmt.Println("  GET  /api/valuations/{ticker}")
	fmt.Println("  POST /api/valuations/{ticker}/run")
	fmt.Println("\nPress Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	e.log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	e.log.Info("Server stopped")
	return nil
}
