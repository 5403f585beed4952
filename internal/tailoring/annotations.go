package tailoring

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-optimizer/internal/types"
)

// annotationLabels are the markers rewrite models tend to leave behind.
var annotationLabels = []string{
	"improved", "updated", "new", "added", "revised", "modified",
	"optimized", "enhanced", "rewritten", "keyword", "keywords",
}

// annotationPattern matches a label in parentheses or brackets, with an
// optional ": detail" suffix, e.g. "(Improved)" or "[Keyword: Go]".
var annotationPattern = regexp.MustCompile(
	`(?i)\s*[\(\[]\s*(?:` + strings.Join(annotationLabels, "|") + `)(?:\s*:[^\)\]]*)?\s*[\)\]]`,
)

// stripText removes annotation labels and markdown emphasis from one line.
func stripText(text string) string {
	if text == "" {
		return text
	}
	text = annotationPattern.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "**", "")
	return strings.TrimSpace(text)
}

func stripAll(lines []string) {
	for i := range lines {
		lines[i] = stripText(lines[i])
	}
}

// StripAnnotations removes annotation labels from every free-text field of
// the resume body in place.
func StripAnnotations(c *types.ResumeContent) {
	c.Summary = stripText(c.Summary)
	for i := range c.WorkExperience {
		w := &c.WorkExperience[i]
		w.Position = stripText(w.Position)
		stripAll(w.Description)
	}
	for i := range c.Education {
		stripAll(c.Education[i].Achievements)
	}
	for i := range c.Skills {
		stripAll(c.Skills[i].Items)
	}
	for i := range c.Projects {
		stripAll(c.Projects[i].Description)
	}
}
