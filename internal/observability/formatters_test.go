package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-optimizer/internal/optimize"
	"github.com/jonathan/resume-optimizer/internal/types"
)

func TestPrinter_PrintJob(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintJob(&types.Job{
		CompanyName:   "Acme",
		PositionTitle: "SRE",
		Keywords:      []string{"a", "b", "c", "d", "e", "f", "g"},
	})

	out := buf.String()
	assert.Contains(t, out, "Company:  Acme")
	assert.Contains(t, out, "• e")
	assert.NotContains(t, out, "• f")
	assert.Contains(t, out, "... and 2 more")
}

func TestPrinter_PrintScore_ListsWeakAreas(t *testing.T) {
	var buf bytes.Buffer
	score := &types.ScoreResult{OverallScore: types.SubScore{Score: 72}}
	score.Completeness.ContactInformation = types.SubScore{Score: 95}
	score.Completeness.DetailLevel = types.SubScore{Score: 40}

	NewPrinter(&buf).PrintScore(score)

	out := buf.String()
	assert.Contains(t, out, "Overall: 72/100")
	assert.Contains(t, out, "Detail Level (40)")
	assert.NotContains(t, out, "Contact Information")
}

func TestPrinter_PrintResult(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintResult(&types.OptimizationResult{
		Score:          &types.ScoreResult{OverallScore: types.SubScore{Score: 90}},
		Iterations:     2,
		TargetAchieved: true,
		OptimizationHistory: []types.OptimizationIterationRecord{
			{Iteration: 1, Score: 70, Changes: []string{"Quantified impact"}},
			{Iteration: 2, Score: 88, Changes: []string{types.TargetAchievedChange}},
		},
	})

	out := buf.String()
	assert.Contains(t, out, "#1  score 70")
	assert.Contains(t, out, "Final score: 90/100")
	assert.Contains(t, out, "Target achieved")
}

func TestPrinter_PrintEvent(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintEvent(optimize.Event{Stage: optimize.StageRewritten, Message: "Iteration 1 applied 2 changes", Changes: []string{"a", "b"}})
	assert.Equal(t, "[rewritten] Iteration 1 applied 2 changes (2 changes)\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
