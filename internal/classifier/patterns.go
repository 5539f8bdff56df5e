package classifier

import (
	"regexp"
	"strings"
)

// IntentPattern represents a pattern for rule-based intent matching.
type IntentPattern struct {
	ID         string
	Category   string
	Capability string
	Keywords   []string
	Regex      *regexp.Regexp
	Confidence float64
}

// Matches checks if the pattern matches the given message. At least one
// keyword must appear, and the regex, when set, must match too.
func (p *IntentPattern) Matches(message string) bool {
	msg := strings.ToLower(message)

	if len(p.Keywords) > 0 {
		found := false
		for _, kw := range p.Keywords {
			if strings.Contains(msg, strings.ToLower(kw)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if p.Regex != nil {
		return p.Regex.MatchString(msg)
	}

	return true
}

// defaultPatterns returns the default intent patterns, most specific first.
func defaultPatterns() []*IntentPattern {
	return []*IntentPattern{
		// ============================================================
		// CODE
		// ============================================================
		{
			ID:         "code_debug",
			Category:   "code",
			Capability: "debugging",
			Keywords:   []string{"bug", "error", "exception", "stack trace", "traceback", "crash", "debug"},
			Regex:      regexp.MustCompile(`(?i)(fix|debug|why does|what causes).*(bug|error|exception|crash|trace)|stack ?trace|traceback`),
			Confidence: 0.9,
		},
		{
			ID:         "code_write",
			Category:   "code",
			Capability: "coding",
			Keywords:   []string{"code", "function", "script", "program", "class", "regex", "sql", "python", "golang", "javascript", "typescript", "rust", "java"},
			Regex:      regexp.MustCompile(`(?i)\b(write|implement|refactor|generate|convert|explain|review)\b.*\b(code|function|script|program|class|method|regex|query|sql|python|go|golang|javascript|typescript|rust|java)\b`),
			Confidence: 0.85,
		},

		// ============================================================
		// CREATIVE
		// ============================================================
		{
			ID:         "creative_story",
			Category:   "creative",
			Capability: "storytelling",
			Keywords:   []string{"story", "poem", "fairy tale", "fiction", "lyrics"},
			Regex:      regexp.MustCompile(`(?i)\b(write|tell|compose|create)\b.*\b(story|poem|fairy tale|fiction|lyrics)\b`),
			Confidence: 0.85,
		},
		{
			ID:         "creative_writing",
			Category:   "creative",
			Capability: "writing",
			Keywords:   []string{"email", "letter", "essay", "blog", "article", "draft", "rewrite", "proofread"},
			Regex:      regexp.MustCompile(`(?i)\b(write|draft|compose|rewrite|proofread|polish)\b.*\b(email|letter|essay|blog|article|post|memo|cover letter)\b|\bproofread\b`),
			Confidence: 0.8,
		},

		// ============================================================
		// DATA
		// ============================================================
		{
			ID:         "data_analysis",
			Category:   "data",
			Capability: "analysis",
			Keywords:   []string{"analyze", "analyse", "compare", "trend", "statistics", "data", "csv", "spreadsheet"},
			Regex:      regexp.MustCompile(`(?i)\b(analy[sz]e|compare|evaluate|assess)\b|\b(trend|statistics|dataset|csv|spreadsheet)s?\b`),
			Confidence: 0.75,
		},
		{
			ID:         "data_summary",
			Category:   "data",
			Capability: "summaries",
			Keywords:   []string{"summarize", "summarise", "summary", "tl;dr", "tldr", "key points"},
			Confidence: 0.8,
		},

		// ============================================================
		// GENERAL
		// ============================================================
		{
			ID:         "general_lookup",
			Category:   "general",
			Capability: "qa",
			Keywords:   []string{"what is", "who is", "when did", "where is", "how many", "define", "meaning of"},
			Regex:      regexp.MustCompile(`(?i)^\s*(what|who|when|where|how many|define)\b`),
			Confidence: 0.65,
		},
	}
}
