package optimize

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/prompts"
	"github.com/jonathan/resume-optimizer/internal/types"
)

// WeakThreshold is the score below which a sub-score is a weak area.
const WeakThreshold = 80

const noneIdentified = "None identified"

// WeakArea is a sub-score that fell below WeakThreshold.
type WeakArea struct {
	Label  string
	Score  int
	Reason string
}

type namedScore struct {
	label string
	score types.SubScore
}

// checkedScores lists the sub-scores in the order they are examined.
// Job alignment is only examined when the score carries it.
func checkedScores(s *types.ScoreResult) []namedScore {
	out := []namedScore{
		{"Contact Information", s.Completeness.ContactInformation},
		{"Detail Level", s.Completeness.DetailLevel},
		{"Active Voice Usage", s.ImpactScore.ActiveVoice},
		{"Quantified Achievements", s.ImpactScore.QuantifiedAchievements},
		{"Skills Relevance", s.RoleMatch.SkillsRelevance},
		{"Experience Alignment", s.RoleMatch.ExperienceAlignment},
		{"Education Fit", s.RoleMatch.EducationFit},
	}
	if ja := s.JobAlignment; ja != nil {
		out = append(out,
			namedScore{"Keyword Match", ja.KeywordMatch.SubScore},
			namedScore{"Requirements Match", ja.RequirementsMatch.SubScore},
			namedScore{"Company Fit", ja.CompanyFit},
		)
	}
	return out
}

// WeakAreas returns every sub-score below WeakThreshold in check order.
func WeakAreas(s *types.ScoreResult) []WeakArea {
	var weak []WeakArea
	for _, ns := range checkedScores(s) {
		if ns.score.Score < WeakThreshold {
			weak = append(weak, WeakArea{Label: ns.label, Score: ns.score.Score, Reason: ns.score.Reason})
		}
	}
	return weak
}

// Suggestions returns the improvement guidance for a score: the reason of
// every weak area, then missing keywords and gaps, then the model's own
// overall and job-specific improvements. A weak area with a blank reason
// still contributes one line naming the area.
func Suggestions(s *types.ScoreResult) []string {
	var out []string
	for _, w := range WeakAreas(s) {
		r := strings.TrimSpace(w.Reason)
		if r == "" {
			r = "Improve " + strings.ToLower(w.Label)
		}
		out = append(out, r)
	}

	if ja := s.JobAlignment; ja != nil {
		if ja.KeywordMatch.Score < WeakThreshold && len(ja.KeywordMatch.MissingKeywords) > 0 {
			out = append(out, "Incorporate these missing keywords: "+strings.Join(ja.KeywordMatch.MissingKeywords, ", "))
		}
		if ja.RequirementsMatch.Score < WeakThreshold && len(ja.RequirementsMatch.GapAnalysis) > 0 {
			out = append(out, "Gaps: "+strings.Join(ja.RequirementsMatch.GapAnalysis, ", "))
		}
	}

	out = append(out, s.OverallImprovements...)
	out = append(out, s.JobSpecificImprovements...)
	return out
}

func numbered(items []string) string {
	if len(items) == 0 {
		return noneIdentified
	}
	var sb strings.Builder
	for i, item := range items {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString(". ")
		sb.WriteString(item)
	}
	return sb.String()
}

// SynthesizePrompt builds the rewrite instruction for the current resume
// from its score. The output depends only on its inputs.
func SynthesizePrompt(score *types.ScoreResult, resume *types.Resume, job *types.Job) (string, error) {
	if score == nil || resume == nil || job == nil {
		return "", fmt.Errorf("score, resume and job are required")
	}

	resumeJSON, err := json.MarshalIndent(&resume.Content, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal resume: %w", err)
	}
	jobJSON, err := json.MarshalIndent(job.Describe(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	weak := WeakAreas(score)
	labels := make([]string, len(weak))
	for i, w := range weak {
		labels[i] = w.Label
	}

	return prompts.Render(prompts.OptimizationFile, "optimize-resume", map[string]string{
		"Resume":      string(resumeJSON),
		"Job":         string(jobJSON),
		"Score":       strconv.Itoa(score.OverallScore.Score),
		"WeakAreas":   numbered(labels),
		"Suggestions": numbered(Suggestions(score)),
	})
}
