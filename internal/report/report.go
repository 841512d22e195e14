// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report turns a finished research state into a Markdown report.
// The model writes the body with bracket citations numbered like
// AgentState.AllSources; the reference list is always appended here so
// the numbering cannot drift. Without a model, or when the call fails,
// the notes are concatenated instead.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/state"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Generator writes reports.
type Generator struct {
	gateway llm.Gateway
	cfg     types.ReportConfig
	logger  zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New builds a Generator. gateway may be nil. Zero config fields take
// defaults.
func New(gateway llm.Gateway, cfg types.ReportConfig, opts ...Option) *Generator {
	def := types.DefaultReportConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	g := &Generator{gateway: gateway, cfg: cfg, logger: zerolog.Nop()}
	for _, o := range opts {
		o(g)
	}
	return g
}

// Generate writes the report for query from st.
func (g *Generator) Generate(ctx context.Context, query string, st *state.AgentState) string {
	if len(st.Notes) == 0 {
		return Empty(query)
	}
	if g.gateway == nil {
		return Fallback(query, st)
	}

	sources := st.AllSources()
	prompt, err := renderPrompt(query, st.NotesSummary(), sources)
	if err != nil {
		g.logger.Error().Err(err).Msg("rendering report prompt")
		return Fallback(query, st)
	}

	body, err := g.gateway.Chat(ctx, llm.ChatRequest{
		Prompt:      prompt,
		Task:        llm.TaskReport,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Timeout:     g.cfg.Timeout,
	})
	if err != nil {
		g.logger.Error().Err(err).Msg("report generation failed, using fallback")
		return Fallback(query, st)
	}
	return body + FormatSources(sources)
}

// Empty is the report for a run that produced no notes.
func Empty(query string) string {
	return fmt.Sprintf(`## Research report

**Query:** %s

**Result:** No relevant research was found.

Possible causes:
1. The search keywords need adjusting
2. Few papers exist in this area
3. More specific terminology may help

Suggestion: try different keywords or simplify the query.
`, query)
}

// Fallback concatenates the notes by topic and appends the numbered
// source list.
func Fallback(query string, st *state.AgentState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Research report\n\n**Query:** %s\n\n---\n\n", query)
	for _, n := range st.Notes {
		fmt.Fprintf(&b, "### %s\n\n**Findings:** %s\n\n**Key points:**\n", n.Topic, n.Findings)
		for _, p := range n.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}
	b.WriteString(FormatSources(st.AllSources()))
	return b.String()
}

// Error is the report returned when a run fails outright.
func Error(query string, err error, elapsed time.Duration) string {
	return fmt.Sprintf(`## Research failed

**Query:** %s

**Error:** %v

**Elapsed:** %.1f seconds

Please retry later or simplify the query.
`, query, err, elapsed.Seconds())
}

// Timeout is the notice for a run stopped by its wall-clock budget.
func Timeout(elapsed, limit time.Duration) string {
	return fmt.Sprintf(`## Research timed out

Ran for %.0f seconds, over the %.0f second limit.

Please retry later or simplify the query.
`, elapsed.Seconds(), limit.Seconds())
}

// FormatSources renders the reference list appended to every report with
// notes. It is empty when there are no sources.
//
//	[1] Ashish Vaswani, Noam Shazeer et al. *Attention Is All You Need*. 2017. [ARXIV] [link](https://arxiv.org/abs/1706.03762)
func FormatSources(sources []types.SourceRecord) string {
	if len(sources) == 0 {
		return ""
	}
	lines := []string{"\n\n---\n\n## References\n"}
	for i, s := range sources {
		lines = append(lines, formatSource(i+1, s))
	}
	return strings.Join(lines, "\n\n")
}

func formatSource(n int, s types.SourceRecord) string {
	authors := "Unknown"
	if len(s.Authors) > 0 {
		authors = strings.Join(s.Authors[:min(2, len(s.Authors))], ", ")
		if len(s.Authors) > 2 {
			authors += " et al"
		}
	}
	title := s.Title
	if title == "" {
		title = "Unknown"
	}

	line := fmt.Sprintf("[%d] %s. *%s*. %s.", n, authors, title, types.YearString(s.Year))
	if s.Source != "" {
		line += fmt.Sprintf(" [%s]", strings.ToUpper(s.Source))
	}
	if s.URL != "" {
		line += fmt.Sprintf(" [link](%s)", s.URL)
	}
	return line
}
