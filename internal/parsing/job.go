// Package parsing turns job posting text into a structured job with an LLM.
package parsing

import (
	"context"
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-optimizer/internal/llm"
	"github.com/jonathan/resume-optimizer/internal/prompts"
	"github.com/jonathan/resume-optimizer/internal/schemas"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// MaxPostingChars bounds the posting text sent to the model.
const MaxPostingChars = 20000

// extraction mirrors the parse-job response.
type extraction struct {
	CompanyName    string   `json:"company_name"`
	PositionTitle  string   `json:"position_title"`
	Description    string   `json:"description"`
	Location       string   `json:"location"`
	WorkLocation   string   `json:"work_location"`
	EmploymentType string   `json:"employment_type"`
	SalaryRange    string   `json:"salary_range"`
	Keywords       []string `json:"keywords"`
	Requirements   []string `json:"requirements"`
}

// ParseJob extracts a job from posting text. The returned job has no ID or
// owner; sourceURL is recorded on it.
func ParseJob(ctx context.Context, text, sourceURL string, client llm.Client) (*types.Job, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &ValidationError{Field: "text", Message: "posting text is empty"}
	}

	prompt, err := BuildPrompt(text, sourceURL)
	if err != nil {
		return nil, err
	}

	responseText, err := client.GenerateJSON(ctx, prompt, llm.TierStandard)
	if err != nil {
		return nil, &APICallError{Message: "failed to extract job", Cause: err}
	}

	job, err := ParseResponse(responseText)
	if err != nil {
		return nil, err
	}
	job.URL = sourceURL
	if job.Description == "" {
		job.Description = text
	}
	return job, nil
}

// BuildPrompt renders the parse-job prompt, truncating long postings.
func BuildPrompt(text, sourceURL string) (string, error) {
	text = truncate(text, MaxPostingChars)
	return prompts.Render(prompts.ParsingFile, "parse-job", map[string]string{
		"URL":  sourceURL,
		"Text": text,
	})
}

// truncate cuts s to at most limit bytes without splitting a UTF-8 sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ParseResponse validates and decodes a parse-job response.
func ParseResponse(responseText string) (*types.Job, error) {
	cleaned := llm.CleanJSONBlock(responseText)

	if err := schemas.Validate(schemas.JobExtraction, []byte(cleaned)); err != nil {
		return nil, &ParseError{Message: "job extraction does not match schema", Cause: err}
	}

	var ex extraction
	if err := json.Unmarshal([]byte(cleaned), &ex); err != nil {
		return nil, &ParseError{Message: "failed to parse job JSON", Cause: err}
	}

	job := &types.Job{
		CompanyName:    strings.TrimSpace(ex.CompanyName),
		PositionTitle:  strings.TrimSpace(ex.PositionTitle),
		Description:    strings.TrimSpace(ex.Description),
		Location:       strings.TrimSpace(ex.Location),
		WorkLocation:   ex.WorkLocation,
		EmploymentType: ex.EmploymentType,
		SalaryRange:    strings.TrimSpace(ex.SalaryRange),
		Keywords:       NormalizeKeywords(ex.Keywords),
		Requirements:   NormalizeRequirements(ex.Requirements),
	}
	if job.CompanyName == "" {
		return nil, &ValidationError{Field: "company_name", Message: "company name is required"}
	}
	if job.PositionTitle == "" {
		return nil, &ValidationError{Field: "position_title", Message: "position title is required"}
	}
	return job, nil
}
