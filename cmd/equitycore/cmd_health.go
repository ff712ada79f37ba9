package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the dependency graph wires up and the mock provider responds",
	Long:  "A local liveness check: builds the same AppContext 'serve' would and runs one ticker-info fetch against the configured provider chain.",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().Bool("json", false, "print the result as JSON")
	healthCmd.Flags().String("ticker", "AAPL", "ticker to probe the provider chain with")
}

type healthResult struct {
	Status    string    `json:"status"`
	Ticker    string    `json:"ticker"`
	Provider  string    `json:"provider,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func runHealth(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ticker, _ := cmd.Flags().GetString("ticker")
	asJSON, _ := cmd.Flags().GetBool("json")

	_, provider, err := app.Chain.FetchTickerInfo(context.Background(), ticker)

	result := healthResult{Ticker: ticker, Timestamp: time.Now().UTC()}
	if err != nil {
		result.Status = "unhealthy"
		result.Error = err.Error()
	} else {
		result.Status = "healthy"
		result.Provider = provider
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Printf("status=%s ticker=%s provider=%s\n", result.Status, result.Ticker, result.Provider)
	if result.Error != "" {
		fmt.Printf("error=%s\n", result.Error)
	}
	if result.Status != "healthy" {
		os.Exit(1)
	}
	return nil
}
