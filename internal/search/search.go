// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search queries academic APIs and returns unified, deduplicated
// paper records. The research core depends only on the Searcher interface;
// provider fan-out, merging, and ranking stay inside this package.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-agent/pkg/types"
)

// ErrNoBackends is returned when a gateway is built without providers.
var ErrNoBackends = errors.New("no search providers configured")

// Searcher is the capability the research core consumes: a keyword in, a
// bounded list of papers out.
type Searcher interface {
	Search(ctx context.Context, keyword string, limit int) ([]types.PaperRecord, error)
}

// Provider searches a single academic API (arXiv, OpenAlex, Semantic Scholar).
type Provider interface {
	Name() string
	Search(ctx context.Context, keyword string, limit int) ([]types.PaperRecord, error)
}

// Unified fans a keyword out to every provider, merges duplicates, and
// orders the result: arXiv first in provider order, then OpenAlex by
// citations plus a recency bonus, then everything else.
type Unified struct {
	providers []Provider
	logger    zerolog.Logger
	now       func() time.Time
}

// NewUnified builds a gateway over the given providers.
func NewUnified(providers []Provider, logger zerolog.Logger) *Unified {
	return &Unified{providers: providers, logger: logger, now: time.Now}
}

// New builds a gateway from configuration. Unknown provider names are an error.
func New(cfg types.SearchConfig, logger zerolog.Logger) (*Unified, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	names := cfg.Providers
	if len(names) == 0 {
		names = types.DefaultSearchConfig().Providers
	}

	var providers []Provider
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "arxiv":
			providers = append(providers, &ArxivBackend{Client: client, UserAgent: cfg.UserAgent, MaxRetries: cfg.MaxRetries})
		case "openalex":
			providers = append(providers, &OpenAlexBackend{Client: client, UserAgent: cfg.UserAgent, Email: cfg.OpenAlexEmail, MaxRetries: cfg.MaxRetries})
		case "semantic_scholar", "semanticscholar", "s2":
			providers = append(providers, &SemanticScholarBackend{Client: client, UserAgent: cfg.UserAgent, APIKey: cfg.SemanticScholarAPIKey, MaxRetries: cfg.MaxRetries})
		default:
			return nil, fmt.Errorf("unknown search provider %q", name)
		}
	}
	return NewUnified(providers, logger), nil
}

// Providers returns the provider names in merge order.
func (u *Unified) Providers() []string {
	names := make([]string, len(u.providers))
	for i, p := range u.providers {
		names[i] = p.Name()
	}
	return names
}

// Search queries every provider concurrently with the same limit, then
// merges and ranks. Provider failures are logged and skipped; an error is
// returned only when every provider failed. At most 2*limit papers are
// returned.
func (u *Unified) Search(ctx context.Context, keyword string, limit int) ([]types.PaperRecord, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil, fmt.Errorf("keyword is empty")
	}
	if len(u.providers) == 0 {
		return nil, ErrNoBackends
	}
	if limit <= 0 {
		limit = 10
	}

	type providerResult struct {
		papers []types.PaperRecord
		err    error
	}

	results := make([]providerResult, len(u.providers))
	var wg sync.WaitGroup
	for i, p := range u.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			papers, err := p.Search(ctx, keyword, limit)
			results[i] = providerResult{papers: papers, err: err}
		}(i, p)
	}
	wg.Wait()

	var all []types.PaperRecord
	var errs []error
	for i, r := range results {
		name := u.providers[i].Name()
		if r.err != nil {
			u.logger.Warn().Err(r.err).Str("provider", name).Str("keyword", keyword).Msg("search provider failed")
			errs = append(errs, fmt.Errorf("%s: %w", name, r.err))
			continue
		}
		u.logger.Debug().Str("provider", name).Str("keyword", keyword).Int("papers", len(r.papers)).Msg("search provider returned")
		all = append(all, r.papers...)
	}
	if len(errs) == len(u.providers) {
		return nil, errors.Join(errs...)
	}

	ranked := groupBySource(deduplicate(all), u.now().Year())
	if len(ranked) > 2*limit {
		ranked = ranked[:2*limit]
	}
	return ranked, nil
}

// deduplicate keeps the first paper for each title key and fills its empty
// fields from later duplicates.
func deduplicate(papers []types.PaperRecord) []types.PaperRecord {
	seen := make(map[string]int)
	var out []types.PaperRecord
	for _, p := range papers {
		key := titleKey(p.Title)
		if key == "" {
			continue
		}
		if idx, ok := seen[key]; ok {
			mergeInto(&out[idx], p)
			continue
		}
		seen[key] = len(out)
		out = append(out, p)
	}
	return out
}

// mergeInto fills empty fields of dst from src and keeps the higher citation count.
func mergeInto(dst *types.PaperRecord, src types.PaperRecord) {
	if len(dst.Authors) == 0 && len(src.Authors) > 0 {
		dst.Authors = src.Authors
	}
	if dst.Abstract == "" && src.Abstract != "" {
		dst.Abstract = src.Abstract
	}
	if dst.Year == 0 && src.Year != 0 {
		dst.Year = src.Year
	}
	if dst.URL == "" && src.URL != "" {
		dst.URL = src.URL
	}
	if dst.ArxivID == "" && src.ArxivID != "" {
		dst.ArxivID = src.ArxivID
	}
	if src.CitationCount > dst.CitationCount {
		dst.CitationCount = src.CitationCount
	}
}

// titleKey returns a lowercased, punctuation-stripped version of the title
// so the same paper from two providers collapses to one record.
func titleKey(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// recencyWindow is the number of years that earn an OpenAlex recency bonus.
const (
	recencyWindow   = 4
	recencyPerYear  = 500
	unknownYearBase = 2000
)

// openAlexScore ranks OpenAlex papers by citations plus a bonus for
// papers published in the last few years.
func openAlexScore(p types.PaperRecord, currentYear int) int {
	year := p.Year
	if year == 0 {
		year = unknownYearBase
	}
	bonus := (recencyWindow - (currentYear - year)) * recencyPerYear
	if bonus < 0 {
		bonus = 0
	}
	return p.CitationCount + bonus
}

// groupBySource orders papers arXiv first (provider order), then OpenAlex
// by score, then every other source in input order.
func groupBySource(papers []types.PaperRecord, currentYear int) []types.PaperRecord {
	var arxiv, openalex, other []types.PaperRecord
	for _, p := range papers {
		switch p.Source {
		case "arxiv":
			arxiv = append(arxiv, p)
		case "openalex":
			openalex = append(openalex, p)
		default:
			other = append(other, p)
		}
	}
	sort.SliceStable(openalex, func(i, j int) bool {
		return openAlexScore(openalex[i], currentYear) > openAlexScore(openalex[j], currentYear)
	})

	out := make([]types.PaperRecord, 0, len(papers))
	out = append(out, arxiv...)
	out = append(out, openalex...)
	return append(out, other...)
}

// FormatTable writes papers as a human-readable table to w.
func FormatTable(papers []types.PaperRecord, w io.Writer) {
	if len(papers) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %-6s  %s\n",
		"Rank", "Title", "Authors", "Year", "Cites", "Source")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, p := range papers {
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %-6d  %s\n",
			i+1, truncate(p.Title, 60), formatAuthors(p.Authors), types.YearString(p.Year), p.CitationCount, p.Source)
	}
	fmt.Fprintf(w, "\n%d results\n", len(papers))
}

// FormatJSON writes papers as indented JSON to w.
func FormatJSON(papers []types.PaperRecord, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(papers)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// firstAuthors caps the author list carried on each record.
func firstAuthors(names []string, n int) []string {
	if len(names) > n {
		return names[:n]
	}
	return names
}

const maxAuthors = 3
