// Command equitycore serves the decision-core HTTP API and offers one-shot
// CLI entry points over the same Orchestrator, mirroring the teacher's
// cmd/cryptorun split between a long-running `serve`-style surface and
// direct scan/health subcommands (cmd/cryptorun/main.go, cmd_health.go,
// scan_main.go).
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/sawpanic/equitycore/internal/config"
	"github.com/sawpanic/equitycore/internal/logging"
)

const (
	appName = "equitycore"
	version = "1.0.0"
)

// AppConfig is the subset of config.Config the bootstrap needs, flattened
// out of the process-wide RuntimeConfig/env split so AppContext doesn't
// depend on the config package directly.
type AppConfig struct {
	RedisURL           string
	CacheVersion       string
	MarketDataCacheTTL time.Duration
	ContextCacheTTL    time.Duration
	RateLimitPerMinute int
	JournalPath        string
	APIKey             string
}

func appConfigFromEnv(cfg *config.Config) AppConfig {
	return AppConfig{
		RedisURL:           cfg.RedisURL,
		CacheVersion:       cfg.Runtime.CacheVersion,
		MarketDataCacheTTL: cfg.Runtime.MarketDataCacheTTL,
		ContextCacheTTL:    cfg.Runtime.ContextCacheTTL,
		RateLimitPerMinute: cfg.RateLimitRequestsPerMinute,
		JournalPath:        os.Getenv("DECISION_JOURNAL_PATH"),
		APIKey:              cfg.APIKey,
	}
}

var rootCmd = &cobra.Command{
	Use:     appName,
	Short:   "Multi-horizon equity decision core",
	Version: version,
	Long: `equitycore assembles technical, fundamental, contextual, and news
signals into a single per-ticker trading decision across four horizons.

Run 'equitycore serve' to expose the HTTP API, or 'equitycore analyze
<ticker>' for a one-shot pipeline run against stdout.`,
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339

	rootCmd.PersistentFlags().String("runtime-config", "", "path to an optional runtime.yaml overriding defaults")
	rootCmd.PersistentFlags().String("env", "development", "deployment environment (development|staging|production)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func bootstrap(cmd *cobra.Command) (*AppContext, error) {
	envFlag, _ := cmd.Flags().GetString("env")
	runtimePath, _ := cmd.Flags().GetString("runtime-config")

	logging.Init(logging.Environment(envFlag), zerolog.InfoLevel)
	log := logging.Component(appName)

	cfg, err := config.Load(runtimePath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	appCfg := appConfigFromEnv(cfg)
	app := NewAppContext(appCfg, log)
	return app, nil
}
