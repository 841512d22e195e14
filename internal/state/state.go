// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package state holds the per-run research ledger. An AgentState is owned
// by one supervisor run and mutated only from its control loop; notes, raw
// notes, and the thinking log are append-only, and the source list and
// notes summary are recomputed from the notes on every read.
package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/pdiddy/research-agent/pkg/types"
)

// AgentState is the full mutable session of one research run.
type AgentState struct {
	Query         string `json:"query"`
	ResearchBrief string `json:"research_brief"`

	// Messages is the supervisor's conversation, in order.
	Messages []*schema.Message `json:"messages"`

	Notes    []types.ResearchNote `json:"notes"`
	RawNotes []types.RawNote      `json:"raw_notes"`

	// CurrentRound never decreases.
	CurrentRound int `json:"current_round"`
	MaxRounds    int `json:"max_rounds"`

	IsComplete       bool   `json:"is_complete"`
	CompletionReason string `json:"completion_reason"`

	ThinkingHistory []types.Thought `json:"thinking_history"`

	Metadata map[string]any `json:"metadata"`
}

// DefaultBrief builds the research brief used when the caller supplies none.
func DefaultBrief(query string) string {
	return fmt.Sprintf("Research topic: %s\n\nPlease research this topic in depth, exploring related concepts, recent progress and key findings.", query)
}

// New creates the initial state for query. An empty brief is replaced by
// DefaultBrief.
func New(query, brief string) *AgentState {
	if strings.TrimSpace(brief) == "" {
		brief = DefaultBrief(query)
	}
	return &AgentState{
		Query:         query,
		ResearchBrief: brief,
		MaxRounds:     types.DefaultSupervisorConfig().MaxRounds,
		Metadata: map[string]any{
			"created_at": time.Now().Format(time.RFC3339),
			"query":      query,
		},
	}
}

// AddMessage appends messages to the conversation.
func (s *AgentState) AddMessage(msgs ...*schema.Message) {
	for _, m := range msgs {
		if m != nil {
			s.Messages = append(s.Messages, m)
		}
	}
}

// AddNote appends a research note and raises CurrentRound to the note's
// round if it is larger.
func (s *AgentState) AddNote(note types.ResearchNote) {
	s.Notes = append(s.Notes, note)
	s.advanceRound(note.RoundNumber)
}

// AddRawNote appends an offloaded raw note.
func (s *AgentState) AddRawNote(raw types.RawNote) {
	s.RawNotes = append(s.RawNotes, raw)
}

// AddThinking records a reflection made in round.
func (s *AgentState) AddThinking(thought string, round int) {
	s.ThinkingHistory = append(s.ThinkingHistory, types.Thought{Round: round, Thought: thought})
}

// MarkComplete moves the state to complete. Only the first call sets the
// reason; it reports whether this call did.
func (s *AgentState) MarkComplete(reason string) bool {
	if s.IsComplete {
		return false
	}
	s.IsComplete = true
	s.CompletionReason = reason
	return true
}

func (s *AgentState) advanceRound(round int) {
	if round > s.CurrentRound {
		s.CurrentRound = round
	}
}

// NotesSummary renders every note under its topic. Round numbers are left
// out so report text never refers to internal iterations.
func (s *AgentState) NotesSummary() string {
	if len(s.Notes) == 0 {
		return "No research findings yet."
	}

	parts := make([]string, 0, len(s.Notes))
	for _, n := range s.Notes {
		var b strings.Builder
		fmt.Fprintf(&b, "### %s\n\n", n.Topic)
		fmt.Fprintf(&b, "**Findings:** %s\n\n", n.Findings)
		b.WriteString("**Key points:**\n")
		points := make([]string, len(n.KeyPoints))
		for i, p := range n.KeyPoints {
			points[i] = "- " + p
		}
		b.WriteString(strings.Join(points, "\n"))
		b.WriteString("\n")
		parts = append(parts, b.String())
	}
	return strings.Join(parts, "\n---\n\n")
}

// AllSources flattens the sources of every note, dropping untitled entries
// and repeats of a normalized title. First-seen order is kept; the result
// is the numbering used for report citations.
func (s *AgentState) AllSources() []types.SourceRecord {
	seen := make(map[string]bool)
	var out []types.SourceRecord
	for _, n := range s.Notes {
		for _, src := range n.Sources {
			key := types.NormalizeTitle(src.Title)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, src)
		}
	}
	return out
}

// PapersSearched totals the raw papers across every raw note.
func (s *AgentState) PapersSearched() int {
	total := 0
	for _, r := range s.RawNotes {
		total += len(r.Papers)
	}
	return total
}
