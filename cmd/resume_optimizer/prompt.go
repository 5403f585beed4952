package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/resume-optimizer/internal/optimize"
	"github.com/jonathan/resume-optimizer/internal/types"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render the optimization prompt for a scored resume",
	Long:  "Render the rewrite prompt the optimizer would send for a resume, its score and a job, read from JSON files. Makes no network calls.",
	RunE:  runPrompt,
}

var (
	promptScoreFile  string
	promptResumeFile string
	promptJobFile    string
	promptOutput     string
	promptWeakAreas  bool
)

func init() {
	promptCmd.Flags().StringVar(&promptScoreFile, "score", "", "Path to score result JSON (required)")
	promptCmd.Flags().StringVar(&promptResumeFile, "resume", "", "Path to resume JSON (required)")
	promptCmd.Flags().StringVar(&promptJobFile, "job", "", "Path to job JSON (required)")
	promptCmd.Flags().StringVarP(&promptOutput, "out", "o", "", "Write the prompt to this file instead of stdout")
	promptCmd.Flags().BoolVar(&promptWeakAreas, "weak-areas", false, "Print the weak areas as JSON instead of the prompt")

	_ = promptCmd.MarkFlagRequired("score")
	_ = promptCmd.MarkFlagRequired("resume")
	_ = promptCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(promptCmd)
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// renderPrompt loads the three inputs and synthesizes the rewrite prompt
func renderPrompt(scorePath, resumePath, jobPath string) (string, *types.ScoreResult, error) {
	var score types.ScoreResult
	if err := readJSONFile(scorePath, &score); err != nil {
		return "", nil, err
	}
	var resume types.Resume
	if err := readJSONFile(resumePath, &resume); err != nil {
		return "", nil, err
	}
	var job types.Job
	if err := readJSONFile(jobPath, &job); err != nil {
		return "", nil, err
	}

	prompt, err := optimize.SynthesizePrompt(&score, &resume, &job)
	if err != nil {
		return "", nil, fmt.Errorf("failed to render prompt: %w", err)
	}
	return prompt, &score, nil
}

func runPrompt(_ *cobra.Command, _ []string) error {
	prompt, score, err := renderPrompt(promptScoreFile, promptResumeFile, promptJobFile)
	if err != nil {
		return err
	}
	if promptWeakAreas {
		return writeJSON(promptOutput, optimize.WeakAreas(score))
	}

	if promptOutput == "" {
		fmt.Println(prompt)
		return nil
	}
	if err := os.WriteFile(promptOutput, []byte(prompt), 0o644); err != nil {
		return fmt.Errorf("failed to write prompt file: %w", err)
	}
	return nil
}
