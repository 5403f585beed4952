package parsing

import (
	"strings"
)

// keywordAliases maps common keyword variants to canonical names.
var keywordAliases = map[string]string{
	"golang":     "Go",
	"go lang":    "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"react.js":   "React",
	"reactjs":    "React",
	"vue.js":     "Vue",
	"vuejs":      "Vue",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
	"gcp":        "GCP",
	"aws":        "AWS",
}

// NormalizeKeyword returns the canonical form of a keyword. Known aliases
// are mapped; all-caps acronyms and mixed-case names are kept; a lowercase
// single word is capitalized.
func NormalizeKeyword(keyword string) string {
	normalized := strings.TrimSpace(keyword)
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if canonical, ok := keywordAliases[lower]; ok {
		return canonical
	}
	if normalized == lower && !strings.Contains(normalized, " ") {
		return strings.ToUpper(normalized[:1]) + normalized[1:]
	}
	return normalized
}

// NormalizeKeywords normalizes keywords and drops case-insensitive duplicates,
// keeping first-seen order.
func NormalizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		n := NormalizeKeyword(k)
		key := strings.ToLower(n)
		if n == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, n)
	}
	return out
}

// NormalizeRequirements trims list markers and whitespace from requirement
// lines and drops empty or repeated ones.
func NormalizeRequirements(reqs []string) []string {
	out := make([]string, 0, len(reqs))
	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		r = strings.TrimSpace(r)
		r = strings.TrimSpace(strings.TrimLeft(r, "-*•·"))
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
