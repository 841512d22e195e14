// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-agent:
// paper and source records, research tasks, compressed results, notes, and
// the configuration blocks each stage reads.
package types

import (
	"fmt"
	"strings"
)

// Strategy selects how broadly a research task searches.
type Strategy string

const (
	StrategyBroad      Strategy = "broad"
	StrategyFocused    Strategy = "focused"
	StrategyComparison Strategy = "comparison"
)

// ParseStrategy maps a tool argument to a Strategy. Unknown or empty
// values fall back to StrategyBroad.
func ParseStrategy(s string) Strategy {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyFocused:
		return StrategyFocused
	case StrategyComparison:
		return StrategyComparison
	default:
		return StrategyBroad
	}
}

// MaxSearchKeywords caps the keywords carried by a ResearchTask.
const MaxSearchKeywords = 4

// ResearchTask is one unit of work dispatched to the Researcher. Build it
// with NewResearchTask so the keyword invariants hold.
type ResearchTask struct {
	Topic          string   `json:"topic" yaml:"topic"`
	SearchKeywords []string `json:"search_keywords" yaml:"search_keywords"`
	Strategy       Strategy `json:"strategy" yaml:"strategy"`
	FocusPoints    []string `json:"focus_points,omitempty" yaml:"focus_points,omitempty"`
}

// NewResearchTask builds a task. Blank keywords are dropped; when none
// remain the topic is used as the only keyword. At most MaxSearchKeywords
// keywords are kept.
func NewResearchTask(topic string, keywords []string, strategy Strategy, focusPoints []string) ResearchTask {
	var kws []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	if len(kws) == 0 {
		kws = []string{topic}
	}
	if len(kws) > MaxSearchKeywords {
		kws = kws[:MaxSearchKeywords]
	}
	if strategy == "" {
		strategy = StrategyBroad
	}
	return ResearchTask{
		Topic:          topic,
		SearchKeywords: kws,
		Strategy:       strategy,
		FocusPoints:    focusPoints,
	}
}

// String renders the task for log lines.
func (t ResearchTask) String() string {
	return fmt.Sprintf("[research] %s (keywords: %s, strategy: %s)",
		t.Topic, strings.Join(t.SearchKeywords, ", "), t.Strategy)
}
