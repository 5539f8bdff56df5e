// Package classifier picks a model capability for free-form queries.
//
// Classification is rule-based: the first pattern that matches wins, and
// anything unmatched is general conversation.
package classifier

import (
	"fmt"
	"strings"
)

// Intent represents a classified query.
type Intent struct {
	Category   string  `json:"category"`   // e.g. "code", "creative"
	Capability string  `json:"capability"` // model capability to look for
	Confidence float64 `json:"confidence"` // 0-1
	PatternID  string  `json:"pattern_id,omitempty"`
}

// String returns "category/capability".
func (i *Intent) String() string {
	return fmt.Sprintf("%s/%s", i.Category, i.Capability)
}

// General is returned when no pattern matches.
var General = Intent{Category: "general", Capability: "conversation", Confidence: 0.5}

// Classifier classifies queries. It is read-only after construction and
// safe for concurrent use.
type Classifier struct {
	patterns      []*IntentPattern
	minConfidence float64
}

// Config for classifier.
type Config struct {
	MinConfidence float64
	Patterns      []*IntentPattern // nil uses the defaults
}

// NewClassifier creates a new intent classifier.
func NewClassifier(cfg *Config) *Classifier {
	if cfg == nil {
		cfg = &Config{MinConfidence: 0.6}
	}
	patterns := cfg.Patterns
	if patterns == nil {
		patterns = defaultPatterns()
	}
	return &Classifier{
		patterns:      patterns,
		minConfidence: cfg.MinConfidence,
	}
}

// Classify determines the intent of a query.
func (c *Classifier) Classify(text string) Intent {
	msg := strings.ToLower(text)

	for _, p := range c.patterns {
		if p.Confidence < c.minConfidence {
			continue
		}
		if p.Matches(msg) {
			return Intent{
				Category:   p.Category,
				Capability: p.Capability,
				Confidence: p.Confidence,
				PatternID:  p.ID,
			}
		}
	}

	return General
}
