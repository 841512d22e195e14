// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-agent/pkg/types"
)

// --- mock provider ---

type mockProvider struct {
	name   string
	papers []types.PaperRecord
	err    error
	limit  int32
}

func (m *mockProvider) Name() string { return m.name }

func (m *mockProvider) Search(_ context.Context, _ string, limit int) ([]types.PaperRecord, error) {
	atomic.StoreInt32(&m.limit, int32(limit))
	return m.papers, m.err
}

func fixedYear(year int) func() time.Time {
	return func() time.Time { return time.Date(year, 6, 1, 0, 0, 0, 0, time.UTC) }
}

func newTestUnified(providers ...Provider) *Unified {
	u := NewUnified(providers, zerolog.Nop())
	u.now = fixedYear(2025)
	return u
}

// --- Unified.Search ---

func TestUnifiedSearchOrdersArxivThenOpenAlex(t *testing.T) {
	arxiv := &mockProvider{name: "arxiv", papers: []types.PaperRecord{
		{Title: "Newest Preprint", Source: "arxiv", Year: 2025},
		{Title: "Older Preprint", Source: "arxiv", Year: 2019},
	}}
	openalex := &mockProvider{name: "openalex", papers: []types.PaperRecord{
		{Title: "Old Classic", Source: "openalex", Year: 2015, CitationCount: 900},
		{Title: "Recent Work", Source: "openalex", Year: 2024, CitationCount: 100},
		{Title: "Highly Cited", Source: "openalex", Year: 2017, CitationCount: 50000},
	}}

	papers, err := newTestUnified(arxiv, openalex).Search(context.Background(), "attention", 10)
	require.NoError(t, err)

	var titles []string
	for _, p := range papers {
		titles = append(titles, p.Title)
	}
	// Recent Work: 100 + (4-1)*500 = 1600 beats Old Classic at 900.
	assert.Equal(t, []string{"Newest Preprint", "Older Preprint", "Highly Cited", "Recent Work", "Old Classic"}, titles)
	assert.Equal(t, int32(10), atomic.LoadInt32(&arxiv.limit))
}

func TestUnifiedSearchDeduplicatesAcrossProviders(t *testing.T) {
	arxiv := &mockProvider{name: "arxiv", papers: []types.PaperRecord{
		{Title: "Attention Is All You Need", Source: "arxiv", ArxivID: "1706.03762"},
	}}
	openalex := &mockProvider{name: "openalex", papers: []types.PaperRecord{
		{Title: "attention is all you need!", Source: "openalex", Year: 2017, CitationCount: 120000, Authors: []string{"Vaswani"}},
	}}

	papers, err := newTestUnified(arxiv, openalex).Search(context.Background(), "attention", 5)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "arxiv", papers[0].Source)
	assert.Equal(t, 2017, papers[0].Year)
	assert.Equal(t, 120000, papers[0].CitationCount)
	assert.Equal(t, []string{"Vaswani"}, papers[0].Authors)
}

func TestUnifiedSearchCapsAtTwiceLimit(t *testing.T) {
	var many []types.PaperRecord
	for i := 0; i < 10; i++ {
		many = append(many, types.PaperRecord{Title: strings.Repeat("p", i+1), Source: "arxiv"})
	}
	papers, err := newTestUnified(&mockProvider{name: "arxiv", papers: many}).Search(context.Background(), "x", 3)
	require.NoError(t, err)
	assert.Len(t, papers, 6)
}

func TestUnifiedSearchSkipsFailedProvider(t *testing.T) {
	ok := &mockProvider{name: "openalex", papers: []types.PaperRecord{{Title: "Survives", Source: "openalex"}}}
	bad := &mockProvider{name: "arxiv", err: errors.New("boom")}

	papers, err := newTestUnified(bad, ok).Search(context.Background(), "x", 5)
	require.NoError(t, err)
	require.Len(t, papers, 1)
	assert.Equal(t, "Survives", papers[0].Title)
}

func TestUnifiedSearchAllProvidersFail(t *testing.T) {
	u := newTestUnified(
		&mockProvider{name: "arxiv", err: errors.New("down")},
		&mockProvider{name: "openalex", err: errors.New("down too")},
	)
	_, err := u.Search(context.Background(), "x", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "arxiv: down")
	assert.Contains(t, err.Error(), "openalex: down too")
}

func TestUnifiedSearchRejectsEmptyKeyword(t *testing.T) {
	_, err := newTestUnified(&mockProvider{name: "arxiv"}).Search(context.Background(), "  ", 5)
	assert.Error(t, err)
}

func TestUnifiedSearchNoProviders(t *testing.T) {
	_, err := newTestUnified().Search(context.Background(), "x", 5)
	assert.ErrorIs(t, err, ErrNoBackends)
}

// --- New ---

func TestNewFromConfig(t *testing.T) {
	cfg := types.DefaultSearchConfig()
	cfg.Providers = []string{"arxiv", "openalex", "semantic_scholar"}
	u, err := New(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"arxiv", "openalex", "semantic_scholar"}, u.Providers())

	cfg.Providers = []string{"google"}
	_, err = New(cfg, zerolog.Nop())
	assert.Error(t, err)
}

// --- ranking helpers ---

func TestOpenAlexScore(t *testing.T) {
	tests := []struct {
		name  string
		paper types.PaperRecord
		want  int
	}{
		{"current year", types.PaperRecord{Year: 2025, CitationCount: 10}, 2010},
		{"three years ago", types.PaperRecord{Year: 2022, CitationCount: 10}, 510},
		{"old paper no bonus", types.PaperRecord{Year: 2010, CitationCount: 10}, 10},
		{"unknown year treated as 2000", types.PaperRecord{CitationCount: 7}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := openAlexScore(tt.paper, 2025); got != tt.want {
				t.Errorf("openAlexScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGroupBySourceKeepsOtherSourcesLast(t *testing.T) {
	in := []types.PaperRecord{
		{Title: "s2", Source: "semantic_scholar"},
		{Title: "oa", Source: "openalex"},
		{Title: "ax", Source: "arxiv"},
	}
	out := groupBySource(in, 2025)
	assert.Equal(t, "ax", out[0].Title)
	assert.Equal(t, "oa", out[1].Title)
	assert.Equal(t, "s2", out[2].Title)
}

func TestTitleKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Attention Is All You Need", "attention is all you need"},
		{"  BERT: Pre-training of Deep   Bidirectional Transformers ", "bert pretraining of deep bidirectional transformers"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := titleKey(tt.in); got != tt.want {
			t.Errorf("titleKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- formatting ---

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable([]types.PaperRecord{
		{Title: "Attention Is All You Need", Authors: []string{"Vaswani", "Shazeer"}, Year: 2017, Source: "arxiv"},
	}, &buf)
	out := buf.String()
	assert.Contains(t, out, "Attention Is All You Need")
	assert.Contains(t, out, "Vaswani et al.")
	assert.Contains(t, out, "1 results")
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(nil, &buf)
	assert.Equal(t, "No results found.\n", buf.String())
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON([]types.PaperRecord{{Title: "T", Source: "openalex", CitationCount: 3}}, &buf))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "T", decoded[0]["title"])
	assert.Equal(t, float64(3), decoded[0]["citation_count"])
}
