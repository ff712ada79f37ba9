package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sawpanic/equitycore/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long:  "Boots the gorilla/mux HTTP surface over the Orchestrator: /analysis, /technical, /fundamental, /news, /context, /research, /health and /metrics.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("port", 8000, "listen port")
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if app.Scheduler != nil {
		if err := app.Scheduler.Start(); err != nil {
			app.Log.Warn().Err(err).Msg("scheduler failed to start, continuing without housekeeping jobs")
		}
	}

	host, _ := cmd.Flags().GetString("host")
	port, _ := cmd.Flags().GetInt("port")

	httpCfg := httpapi.DefaultConfig()
	httpCfg.Host = host
	httpCfg.Port = port
	httpCfg.Version = version
	httpCfg.APIKey = app.apiKey

	server := httpapi.NewServer(httpCfg, app.HTTPDeps(), app.Log)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-sigCh:
		app.Log.Info().Msg("shutdown signal received")
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	}
	return nil
}
