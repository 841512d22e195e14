// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>ArXiv Query</title>
  <id>http://arxiv.org/api/query</id>
  <updated>2024-01-01T00:00:00-05:00</updated>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <updated>2023-08-02T00:00:00Z</updated>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models are based on complex
      recurrent networks.  </summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <author><name>Niki Parmar</name></author>
    <author><name>Jakob Uszkoreit</name></author>
    <link href="http://arxiv.org/abs/1706.03762v7" rel="alternate" type="text/html"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2401.00001v1</id>
    <updated>2024-01-01T00:00:00Z</updated>
    <published>2024-01-01T00:00:00Z</published>
    <title></title>
    <summary>untitled entries are skipped</summary>
  </entry>
</feed>`

func withArxivServer(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	old := arxivAPIBase
	arxivAPIBase = ts.URL
	t.Cleanup(func() { arxivAPIBase = old })
}

func TestArxivSearch(t *testing.T) {
	var gotQuery string
	withArxivServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprint(w, arxivFixture)
	})

	b := &ArxivBackend{Client: http.DefaultClient, UserAgent: "test/0.1"}
	papers, err := b.Search(context.Background(), "self attention", 7)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "search_query=all:self+attention")
	assert.Contains(t, gotQuery, "max_results=7")

	require.Len(t, papers, 1)
	p := papers[0]
	assert.Equal(t, "Attention Is All You Need", p.Title)
	assert.Equal(t, "1706.03762", p.ArxivID)
	assert.Equal(t, "https://arxiv.org/abs/1706.03762", p.URL)
	assert.Equal(t, 2017, p.Year)
	assert.Equal(t, "arxiv", p.Source)
	assert.Equal(t, []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar"}, p.Authors)
	assert.True(t, strings.HasPrefix(p.Abstract, "The dominant sequence"))
	assert.Zero(t, p.CitationCount)
}

func TestArxivSearchHTTPError(t *testing.T) {
	withArxivServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := (&ArxivBackend{}).Search(context.Background(), "x", 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestArxivSearchEmptyKeyword(t *testing.T) {
	_, err := (&ArxivBackend{}).Search(context.Background(), "   ", 5)
	assert.Error(t, err)
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041v12", "2301.07041"},
		{"http://arxiv.org/abs/hep-th/9901001v1", "hep-th/9901001"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"https://example.com/paper", ""},
	}
	for _, tt := range tests {
		if got := extractArxivID(tt.in); got != tt.want {
			t.Errorf("extractArxivID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildArxivQuery(t *testing.T) {
	assert.Equal(t, "all:transformer+vs+rnn", buildArxivQuery(" transformer  vs rnn "))
	assert.Equal(t, "", buildArxivQuery(""))
	assert.Equal(t, "all:c%2B%2B", buildArxivQuery("c++"))
}
