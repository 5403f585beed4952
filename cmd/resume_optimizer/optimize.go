package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/resume-optimizer/internal/config"
	"github.com/jonathan/resume-optimizer/internal/db"
	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/observability"
	"github.com/jonathan/resume-optimizer/internal/optimize"
	"github.com/jonathan/resume-optimizer/internal/scoring"
	"github.com/jonathan/resume-optimizer/internal/tailoring"
	"github.com/jonathan/resume-optimizer/internal/types"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run one optimization from the terminal",
	Long:  "Tailor a stored base resume to a stored job and rewrite it until it reaches the target score or the iteration budget runs out. Prints the result as JSON.",
	RunE:  runOptimize,
}

var (
	optimizeUserID     string
	optimizeBaseID     string
	optimizeJobID      string
	optimizeTarget     int
	optimizeIterations int
	optimizeProvider   string
	optimizeModel      string
	optimizeOutput     string
	optimizeVerbose    bool
)

func init() {
	optimizeCmd.Flags().StringVar(&optimizeUserID, "user", "", "Owner user ID (required)")
	optimizeCmd.Flags().StringVar(&optimizeBaseID, "base", "", "Base resume ID (required)")
	optimizeCmd.Flags().StringVar(&optimizeJobID, "job", "", "Job ID (required)")
	optimizeCmd.Flags().IntVar(&optimizeTarget, "target", -1, "Target score 0-100 (default from optimization.defaultTargetScore)")
	optimizeCmd.Flags().IntVar(&optimizeIterations, "iterations", 0, "Iteration budget 1-10 (default from optimization.defaultMaxIterations)")
	optimizeCmd.Flags().StringVar(&optimizeProvider, "provider", "", "Model provider: gemini or anthropic")
	optimizeCmd.Flags().StringVar(&optimizeModel, "model", "", "Model name for every tier")
	optimizeCmd.Flags().StringVarP(&optimizeOutput, "out", "o", "", "Write the result JSON to this file instead of stdout")
	optimizeCmd.Flags().BoolVarP(&optimizeVerbose, "verbose", "v", false, "Print progress and a summary to stderr")

	_ = optimizeCmd.MarkFlagRequired("user")
	_ = optimizeCmd.MarkFlagRequired("base")
	_ = optimizeCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(optimizeCmd)
}

// optimizationRequest builds the request from flags. A negative target or a
// non-positive budget falls back to the configured defaults.
func optimizationRequest(cfg *config.Config, baseID, jobID string, target, iterations int, provider, model string) *types.OptimizationRequest {
	if target < 0 {
		target = cfg.Optimization.DefaultTargetScore
	}
	if iterations <= 0 {
		iterations = cfg.Optimization.DefaultMaxIterations
	}
	req := &types.OptimizationRequest{
		BaseResumeID:  baseID,
		JobID:         jobID,
		TargetScore:   &target,
		MaxIterations: &iterations,
	}
	if provider != "" || model != "" {
		req.Config = &types.ModelSettings{Provider: provider, Model: model}
	}
	return req
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	userID, err := uuid.Parse(optimizeUserID)
	if err != nil {
		return fmt.Errorf("invalid --user: %w", err)
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireDatabaseURL(cfg); err != nil {
		return err
	}

	ctx := commandContext(cmd)
	database, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	factory := llm.NewFactory(factoryOptions(cfg, logger))
	controller := optimize.NewController(database, scoring.NewLLMScorer(factory), tailoring.NewLLMRewriter(factory), optimize.Options{
		Retry:      retryPolicy(cfg),
		RunTimeout: cfg.Optimization.RunTimeout,
		Recorder:   database,
		Logger:     logger,
	})

	req := optimizationRequest(cfg, optimizeBaseID, optimizeJobID, optimizeTarget, optimizeIterations, optimizeProvider, optimizeModel)

	printer := observability.NewPrinter(os.Stderr)
	var progress optimize.ProgressFunc
	if optimizeVerbose {
		progress = printer.PrintEvent
	}

	result, err := controller.RunWithProgress(ctx, userID, req, progress)
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}
	if optimizeVerbose {
		printer.PrintResult(result)
	}

	return writeJSON(optimizeOutput, result)
}

// writeJSON writes v as indented JSON to path, or stdout when path is empty
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}
