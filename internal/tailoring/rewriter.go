// Package tailoring produces tailored and rewritten resume bodies with an LLM.
package tailoring

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
// rewrite system preamble.
const CustomPromptKey = "tailoring"

// LLMRewriter tailors and rewrites resumes using a model resolved per request.
type LLMRewriter struct {
	clients llm.ClientSource
}

// NewLLMRewriter creates a rewriter backed by the given client source.
func NewLLMRewriter(clients llm.ClientSource) *LLMRewriter {
	return &LLMRewriter{clients: clients}
}

// Tailor produces the first tailored version of a base resume for a job.
func (r *LLMRewriter) Tailor(ctx context.Context, base *types.Resume, job *types.Job, mc llm.ModelConfig) (*types.RewriteResult, error) {
	if base == nil || job == nil {
		return nil, fmt.Errorf("base resume and job are required")
	}

	resumeJSON, err := json.MarshalIndent(&base.Content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resume: %w", err)
	}
	jobJSON, err := json.MarshalIndent(job.Describe(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	prompt, err := prompts.Render(prompts.TailoringFile, "tailor-resume", map[string]string{
		"System": systemPrompt(mc),
		"Resume": string(resumeJSON),
		"Job":    string(jobJSON),
	})
	if err != nil {
		return nil, err
	}
	return r.generate(ctx, prompt, mc)
}

// Rewrite executes a synthesized optimization instruction.
func (r *LLMRewriter) Rewrite(ctx context.Context, instructions string, mc llm.ModelConfig) (*types.RewriteResult, error) {
	prompt, err := prompts.Render(prompts.TailoringFile, "rewrite-resume", map[string]string{
		"System":       systemPrompt(mc),
		"Instructions": instructions,
	})
	if err != nil {
		return nil, err
	}
	return r.generate(ctx, prompt, mc)
}

func systemPrompt(mc llm.ModelConfig) string {
	return mc.Prompt(CustomPromptKey, prompts.MustGet(prompts.TailoringFile, "tailoring-system"))
}

func (r *LLMRewriter) generate(ctx context.Context, prompt string, mc llm.ModelConfig) (*types.RewriteResult, error) {
	client, err := r.clients.ClientFor(ctx, mc)
	if err != nil {
		return nil, &APICallError{Message: "failed to create LLM client", Cause: err}
	}
	defer func() { _ = client.Close() }()

	responseText, err := client.GenerateJSON(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return nil, &APICallError{Message: "failed to generate rewrite", Cause: err}
	}
	return ParseResponse(responseText)
}

// ParseResponse validates and decodes a rewrite response, then strips any
// annotation labels the model left in the content.
func ParseResponse(responseText string) (*types.RewriteResult, error) {
	cleaned := llm.CleanJSONBlock(responseText)

	if err := schemas.Validate(schemas.RewriteResult, []byte(cleaned)); err != nil {
		return nil, &ParseError{Message: "rewrite does not match schema", Cause: err}
	}

	var result types.RewriteResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, &ParseError{Message: "failed to parse rewrite JSON", Cause: err}
	}

	StripAnnotations(&result.Content)
	if result.Changes == nil {
		result.Changes = []string{}
	}
	return &result, nil
}
