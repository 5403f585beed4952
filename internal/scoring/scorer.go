// Package scoring scores a resume against a job description with an LLM.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/prompts"
	"github.com/jonathan/resume-optimizer/internal/schemas"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// CustomPromptKey is the ModelConfig.CustomPrompts key that replaces the
// scoring system preamble.
const CustomPromptKey = "scoring"

// LLMScorer scores resumes using a model resolved per request.
type LLMScorer struct {
	clients llm.ClientSource
}

// NewLLMScorer creates a scorer backed by the given client source.
func NewLLMScorer(clients llm.ClientSource) *LLMScorer {
	return &LLMScorer{clients: clients}
}

// Score rates the resume against the job. A nil job scores the resume on
// its own and the result carries no job alignment. Inputs are not modified.
func (s *LLMScorer) Score(ctx context.Context, resume *types.Resume, job *types.Job, mc llm.ModelConfig) (*types.ScoreResult, error) {
	if resume == nil {
		return nil, fmt.Errorf("resume is required")
	}

	prompt, err := BuildPrompt(&resume.Content, job, mc)
	if err != nil {
		return nil, err
	}

	client, err := s.clients.ClientFor(ctx, mc)
	if err != nil {
		return nil, &APICallError{Message: "failed to create LLM client", Cause: err}
	}
	defer func() { _ = client.Close() }()

	responseText, err := client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &APICallError{Message: "failed to generate score", Cause: err}
	}

	result, err := ParseResponse(responseText)
	if err != nil {
		return nil, err
	}
	if job == nil {
		result.JobAlignment = nil
	}
	return result, nil
}

// BuildPrompt renders the scoring prompt for a resume and optional job.
func BuildPrompt(content *types.ResumeContent, job *types.Job, mc llm.ModelConfig) (string, error) {
	resumeJSON, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal resume: %w", err)
	}

	system := mc.Prompt(CustomPromptKey, prompts.MustGet(prompts.ScoringFile, "scoring-system"))
	data := map[string]string{
		"System": system,
		"Resume": string(resumeJSON),
	}

	if job == nil {
		return prompts.Render(prompts.ScoringFile, "score-resume-no-job", data)
	}

	jobJSON, err := json.MarshalIndent(job.Describe(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}
	data["Job"] = string(jobJSON)
	return prompts.Render(prompts.ScoringFile, "score-resume", data)
}

// ParseResponse validates and decodes a scoring response, clamping every
// score into [0,100].
func ParseResponse(responseText string) (*types.ScoreResult, error) {
	cleaned := llm.CleanJSONBlock(responseText)

	if err := schemas.Validate(schemas.ScoreResult, []byte(cleaned)); err != nil {
		return nil, &ParseError{Message: "score does not match schema", Cause: err}
	}

	var result types.ScoreResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, &ParseError{Message: "failed to parse score JSON", Cause: err}
	}

	result.Clamp()
	return &result, nil
}
