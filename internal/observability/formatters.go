// Package observability provides logging, Prometheus metrics and the
// human-readable output of the command line tool.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/optimize"
	"github.com/jonathan/resume-optimizer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer writes boxed summaries for verbose CLI output.
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer.
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// writeList writes up to maxItemsToShow bullet lines and a remainder note.
func writeList(sb *strings.Builder, items []string) {
	count := min(len(items), maxItemsToShow)
	for i := 0; i < count; i++ {
		fmt.Fprintf(sb, "  • %s\n", items[i])
	}
	if len(items) > maxItemsToShow {
		fmt.Fprintf(sb, "  ... and %d more\n", len(items)-maxItemsToShow)
	}
}

// PrintJob outputs a summary of a job description.
func (p *Printer) PrintJob(job *types.Job) {
	if job == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Company:  %s\n", job.CompanyName)
	fmt.Fprintf(&sb, "Role:     %s\n", job.PositionTitle)
	if job.Location != "" {
		fmt.Fprintf(&sb, "Location: %s\n", job.Location)
	}
	if len(job.Keywords) > 0 {
		sb.WriteString("\nKeywords:\n")
		writeList(&sb, job.Keywords)
	}
	if len(job.Requirements) > 0 {
		sb.WriteString("\nRequirements:\n")
		writeList(&sb, job.Requirements)
	}

	p.printBox("JOB", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScore outputs the overall score and the areas below the weak threshold.
func (p *Printer) PrintScore(score *types.ScoreResult) {
	if score == nil {
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Overall: %d/100\n", score.OverallScore.Score)

	weak := optimize.WeakAreas(score)
	if len(weak) == 0 {
		sb.WriteString("\nNo weak areas")
	} else {
		sb.WriteString("\nWeak areas:\n")
		for _, w := range weak {
			fmt.Fprintf(&sb, "  ⚠ %s (%d)\n", w.Label, w.Score)
		}
	}

	p.printBox("SCORE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintEvent writes one progress line.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintEvent(e optimize.Event) {
	line := fmt.Sprintf("[%s] %s", e.Stage, e.Message)
	if len(e.Changes) > 0 {
		line += fmt.Sprintf(" (%d changes)", len(e.Changes))
	}
	fmt.Fprintln(p.out, line)
}

// PrintResult outputs the optimization history and final outcome.
func (p *Printer) PrintResult(result *types.OptimizationResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	for _, rec := range result.OptimizationHistory {
		fmt.Fprintf(&sb, "#%d  score %d\n", rec.Iteration, rec.Score)
		writeList(&sb, rec.Changes)
	}
	if len(result.OptimizationHistory) > 0 {
		sb.WriteString("\n")
	}

	final := 0
	if result.Score != nil {
		final = result.Score.OverallScore.Score
	}
	fmt.Fprintf(&sb, "Final score: %d/100\n", final)
	fmt.Fprintf(&sb, "Iterations:  %d\n", result.Iterations)
	if result.TargetAchieved {
		sb.WriteString("✅ Target achieved")
	} else {
		sb.WriteString("Target not reached within the iteration budget")
	}

	p.printBox("OPTIMIZATION RESULT", sb.String())
}
