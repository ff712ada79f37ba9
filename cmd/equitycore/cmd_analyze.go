package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sawpanic/equitycore/internal/orchestrator"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <ticker>",
	Short: "Run one analysis pass and print the response to stdout",
	Long:  "Runs the full decision-core pipeline for a single ticker and writes the assembled Response as JSON, the one-shot equivalent of GET /analysis/{ticker}.",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().String("mode", "all", "pipeline mode (all|intraday|execution)")
	analyzeCmd.Flags().Bool("force-ai", false, "force the narrative stage even on a weak or fast-path signal")
	analyzeCmd.Flags().Bool("journal", false, "append the result to the decision journal, if configured")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	app, err := bootstrap(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ticker := strings.ToUpper(strings.TrimSpace(args[0]))
	modeFlag, _ := cmd.Flags().GetString("mode")
	forceAI, _ := cmd.Flags().GetBool("force-ai")
	useJournal, _ := cmd.Flags().GetBool("journal")

	mode := orchestrator.Mode(strings.ToLower(modeFlag))
	switch mode {
	case orchestrator.ModeAll, orchestrator.ModeIntraday, orchestrator.ModeExecution:
	default:
		return fmt.Errorf("unknown mode %q: expected all, intraday, or execution", modeFlag)
	}

	ctx := context.Background()
	resp := app.Orchestrator.Analyze(ctx, orchestrator.Request{Ticker: ticker, Mode: mode, ForceAI: forceAI}, app.Fundamentals)

	if useJournal && app.Journal != nil {
		if err := app.Journal.RecordResponse(ctx, resp); err != nil {
			app.Log.Warn().Err(err).Msg("journal write failed")
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
