// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package guide turns a search result list into reading advice: where to
// start, which papers are core, what is newest, and a reading order.
package guide

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/pkg/types"
)

const (
	guideTimeout     = 30 * time.Second
	guideMaxTokens   = 500
	guideTemperature = 0.3
	abstractPreview  = 200
)

// Pick is one recommended paper. Index is 1-based into the paper list.
type Pick struct {
	Index  int    `json:"index" yaml:"index"`
	Title  string `json:"title" yaml:"title"`
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Category groups papers by theme.
type Category struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Papers      []Pick `json:"papers" yaml:"papers"`
}

// Guide is the reading advice for a paper list.
type Guide struct {
	Summary      string     `json:"summary" yaml:"summary"`
	EntryPoint   *Pick      `json:"entry_point,omitempty" yaml:"entry_point,omitempty"`
	CorePapers   []Pick     `json:"core_papers" yaml:"core_papers"`
	Latest       *Pick      `json:"latest,omitempty" yaml:"latest,omitempty"`
	ReadingOrder []int      `json:"reading_order" yaml:"reading_order"`
	Categories   []Category `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Generator writes guides.
type Generator struct {
	gateway llm.Gateway
	logger  zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Generator) { g.logger = l }
}

// New builds a Generator. A nil gateway always uses the citation-based
// fallback.
func New(gateway llm.Gateway, opts ...Option) *Generator {
	g := &Generator{gateway: gateway, logger: zerolog.Nop()}
	for _, o := range opts {
		o(g)
	}
	return g
}

type rawPick struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

type rawCategory struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Papers      []int  `json:"papers"`
}

type guideResponse struct {
	Summary      string        `json:"summary"`
	EntryPoint   *rawPick      `json:"entry_point"`
	CorePapers   []rawPick     `json:"core_papers"`
	Latest       *rawPick      `json:"latest"`
	ReadingOrder []int         `json:"reading_order"`
	Categories   []rawCategory `json:"categories"`
}

// Generate returns reading advice for papers. It returns nil for an empty
// list. Model failures fall back to ranking by citations and year.
func (g *Generator) Generate(ctx context.Context, query string, papers []types.PaperRecord) *Guide {
	if len(papers) == 0 {
		return nil
	}
	if g.gateway == nil {
		return Fallback(papers)
	}

	reply, err := g.gateway.Chat(ctx, llm.ChatRequest{
		Prompt:      renderPrompt(query, papers),
		Task:        llm.TaskScreen,
		MaxTokens:   guideMaxTokens,
		Temperature: guideTemperature,
		Timeout:     guideTimeout,
	})
	if err != nil {
		g.logger.Warn().Err(err).Msg("reading guide failed, using fallback")
		return Fallback(papers)
	}
	var parsed guideResponse
	if err := llm.DecodeJSON(reply, &parsed); err != nil {
		g.logger.Warn().Err(err).Msg("unparseable reading guide, using fallback")
		return Fallback(papers)
	}
	return fromResponse(parsed, papers)
}

// fromResponse attaches titles and drops out-of-range indexes.
func fromResponse(r guideResponse, papers []types.PaperRecord) *Guide {
	pick := func(p *rawPick) *Pick {
		if p == nil || p.Index < 1 || p.Index > len(papers) {
			return nil
		}
		return &Pick{Index: p.Index, Title: papers[p.Index-1].Title, Reason: p.Reason}
	}

	g := &Guide{
		Summary:    r.Summary,
		EntryPoint: pick(r.EntryPoint),
		Latest:     pick(r.Latest),
	}
	for i := range r.CorePapers {
		if p := pick(&r.CorePapers[i]); p != nil {
			g.CorePapers = append(g.CorePapers, *p)
		}
	}
	for _, idx := range r.ReadingOrder {
		if idx >= 1 && idx <= len(papers) {
			g.ReadingOrder = append(g.ReadingOrder, idx)
		}
	}
	for _, c := range r.Categories {
		name := c.Name
		if name == "" {
			name = "Other"
		}
		cat := Category{Name: name, Description: c.Description}
		for _, idx := range c.Papers {
			if p := pick(&rawPick{Index: idx}); p != nil {
				cat.Papers = append(cat.Papers, *p)
			}
		}
		if len(cat.Papers) > 0 {
			g.Categories = append(g.Categories, cat)
		}
	}
	return g
}

// Fallback recommends by citations: the most cited paper is the entry
// point, the top two are core, the newest is latest, and the top five by
// citations are the reading order.
func Fallback(papers []types.PaperRecord) *Guide {
	if len(papers) == 0 {
		return nil
	}
	byCites := indexes(len(papers))
	sort.SliceStable(byCites, func(i, j int) bool {
		return papers[byCites[i]-1].CitationCount > papers[byCites[j]-1].CitationCount
	})
	byYear := indexes(len(papers))
	sort.SliceStable(byYear, func(i, j int) bool {
		return papers[byYear[i]-1].Year > papers[byYear[j]-1].Year
	})

	at := func(idx int, reason string) Pick {
		return Pick{Index: idx, Title: papers[idx-1].Title, Reason: reason}
	}
	entry := at(byCites[0], "highly cited, a good starting point")
	latestPaper := papers[byYear[0]-1]
	latest := at(byYear[0], fmt.Sprintf("published %s", types.YearString(latestPaper.Year)))

	g := &Guide{
		Summary:      fmt.Sprintf("Found %d related papers.", len(papers)),
		EntryPoint:   &entry,
		Latest:       &latest,
		ReadingOrder: byCites[:min(5, len(byCites))],
	}
	for _, idx := range byCites[:min(2, len(byCites))] {
		g.CorePapers = append(g.CorePapers, at(idx, fmt.Sprintf("%d citations", papers[idx-1].CitationCount)))
	}
	return g
}

func indexes(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// Markdown renders the guide for the terminal or a report.
func (g *Guide) Markdown() string {
	if g == nil {
		return "No papers to advise on.\n"
	}
	var b strings.Builder
	b.WriteString("## Reading guide\n\n")
	if g.Summary != "" {
		fmt.Fprintf(&b, "%s\n\n", g.Summary)
	}
	if g.EntryPoint != nil {
		b.WriteString("**Start here**\n\n")
		writePick(&b, *g.EntryPoint)
		b.WriteString("\n")
	}
	if len(g.CorePapers) > 0 {
		b.WriteString("**Core papers**\n\n")
		for _, p := range g.CorePapers {
			writePick(&b, p)
		}
		b.WriteString("\n")
	}
	if g.Latest != nil {
		b.WriteString("**Latest work**\n\n")
		writePick(&b, *g.Latest)
		b.WriteString("\n")
	}
	for _, c := range g.Categories {
		fmt.Fprintf(&b, "**%s**", c.Name)
		if c.Description != "" {
			fmt.Fprintf(&b, " (%s)", c.Description)
		}
		b.WriteString("\n\n")
		for _, p := range c.Papers {
			writePick(&b, p)
		}
		b.WriteString("\n")
	}
	if len(g.ReadingOrder) > 0 {
		order := make([]string, len(g.ReadingOrder))
		for i, idx := range g.ReadingOrder {
			order[i] = fmt.Sprintf("[%d]", idx)
		}
		fmt.Fprintf(&b, "**Suggested order:** %s\n", strings.Join(order, " → "))
	}
	return b.String()
}

func writePick(b *strings.Builder, p Pick) {
	fmt.Fprintf(b, "- [%d] %s", p.Index, p.Title)
	if p.Reason != "" {
		fmt.Fprintf(b, ": %s", p.Reason)
	}
	b.WriteString("\n")
}
