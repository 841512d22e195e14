// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/pdiddy/research-agent/internal/httputil"
	"github.com/pdiddy/research-agent/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv Atom API. arXiv reports no citation
// counts, so CitationCount is always zero.
type ArxivBackend struct {
	Client     *http.Client
	UserAgent  string
	MaxRetries int
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Search queries arXiv by relevance and returns up to limit papers.
func (b *ArxivBackend) Search(ctx context.Context, keyword string, limit int) ([]types.PaperRecord, error) {
	q := buildArxivQuery(keyword)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}
	if limit <= 0 {
		limit = 10
	}

	reqURL := fmt.Sprintf("%s?search_query=%s&start=0&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, q, limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if b.UserAgent != "" {
		req.Header.Set("User-Agent", b.UserAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, client(b.Client), req, b.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var papers []types.PaperRecord
	for _, item := range feed.Items {
		if p, ok := arxivPaper(item); ok {
			papers = append(papers, p)
		}
	}
	return papers, nil
}

// arxivPaper maps one Atom entry to a paper record. Entries without an
// arXiv id or title are skipped.
func arxivPaper(item *gofeed.Item) (types.PaperRecord, bool) {
	arxivID := extractArxivID(item.GUID)
	if arxivID == "" {
		arxivID = extractArxivID(item.Link)
	}
	title := strings.Join(strings.Fields(item.Title), " ")
	if arxivID == "" || title == "" {
		return types.PaperRecord{}, false
	}

	p := types.PaperRecord{
		Title:    title,
		Abstract: strings.Join(strings.Fields(item.Description), " "),
		URL:      "https://arxiv.org/abs/" + arxivID,
		Source:   "arxiv",
		ArxivID:  arxivID,
	}

	var authors []string
	for _, a := range item.Authors {
		if a != nil && strings.TrimSpace(a.Name) != "" {
			authors = append(authors, strings.TrimSpace(a.Name))
		}
	}
	p.Authors = firstAuthors(authors, maxAuthors)

	if item.PublishedParsed != nil {
		p.Year = item.PublishedParsed.Year()
	}
	return p, true
}

// buildArxivQuery turns a keyword phrase into an all: query term.
func buildArxivQuery(keyword string) string {
	terms := strings.Fields(keyword)
	if len(terms) == 0 {
		return ""
	}
	escaped := make([]string, len(terms))
	for i, t := range terms {
		escaped[i] = url.QueryEscape(t)
	}
	return "all:" + strings.Join(escaped, "+")
}

// extractArxivID pulls the arXiv ID from an entry id URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" to "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}

func client(c *http.Client) *http.Client {
	if c == nil {
		return http.DefaultClient
	}
	return c
}
