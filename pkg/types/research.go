// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"time"
)

// CompressedResearch is what the Researcher returns to the Supervisor: a
// short synthesis plus the selected sources. The full paper list travels
// separately in a RawNote.
type CompressedResearch struct {
	Topic          string         `json:"topic" yaml:"topic"`
	Findings       string         `json:"findings" yaml:"findings"`
	KeyPoints      []string       `json:"key_points" yaml:"key_points"`
	Sources        []SourceRecord `json:"sources" yaml:"sources"`
	Gaps           string         `json:"gaps,omitempty" yaml:"gaps,omitempty"`
	PapersSearched int            `json:"papers_searched" yaml:"papers_searched"`
	PapersSelected int            `json:"papers_selected" yaml:"papers_selected"`
}

// maxMessageSources bounds the sources listed in a tool result message.
const maxMessageSources = 5

// ToMessage renders the result as the tool message the Supervisor reads.
func (c CompressedResearch) ToMessage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "### Research result: %s\n\n", c.Topic)
	fmt.Fprintf(&b, "**Findings:**\n%s\n\n", c.Findings)
	b.WriteString("**Key points:**\n")
	for _, p := range c.KeyPoints {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	fmt.Fprintf(&b, "\n**Sources (%d/%d relevant):**\n", c.PapersSelected, c.PapersSearched)
	for i, s := range c.Sources {
		if i == maxMessageSources {
			break
		}
		fmt.Fprintf(&b, "  - [%s] %s...\n", YearString(s.Year), truncateRunes(s.Title, 60))
	}
	if c.Gaps != "" {
		fmt.Fprintf(&b, "\n**Gaps:** %s", c.Gaps)
	}
	return b.String()
}

// ResearchNote is the compressed record of one research task, appended to
// the agent state after every conduct_research call.
type ResearchNote struct {
	Topic       string         `json:"topic" yaml:"topic"`
	Findings    string         `json:"findings" yaml:"findings"`
	KeyPoints   []string       `json:"key_points" yaml:"key_points"`
	Sources     []SourceRecord `json:"sources" yaml:"sources"`
	RoundNumber int            `json:"round_number" yaml:"round_number"`
	CreatedAt   time.Time      `json:"created_at" yaml:"created_at"`
}

// NoteFromResearch builds the note for a compressed result produced in round.
func NoteFromResearch(c CompressedResearch, round int) ResearchNote {
	return ResearchNote{
		Topic:       c.Topic,
		Findings:    c.Findings,
		KeyPoints:   c.KeyPoints,
		Sources:     c.Sources,
		RoundNumber: round,
		CreatedAt:   time.Now(),
	}
}

// RawNote keeps the full, uncompressed paper list of one research task.
// It is offloaded and never rendered into an LLM prompt.
type RawNote struct {
	Topic          string        `json:"topic" yaml:"topic"`
	Papers         []PaperRecord `json:"papers" yaml:"papers"`
	SearchKeywords []string      `json:"search_keywords" yaml:"search_keywords"`
	RoundNumber    int           `json:"round_number" yaml:"round_number"`
	LLMResponse    string        `json:"llm_response,omitempty" yaml:"llm_response,omitempty"`
	CreatedAt      time.Time     `json:"created_at" yaml:"created_at"`
}

// Thought is one entry of the supervisor's thinking log.
type Thought struct {
	Round   int    `json:"round" yaml:"round"`
	Thought string `json:"thought" yaml:"thought"`
}

// YearString renders a publication year, or "N/A" when unknown.
func YearString(year int) string {
	if year <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d", year)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
