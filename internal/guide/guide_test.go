// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package guide

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/pkg/types"
)

type fakeGateway struct {
	reply string
	err   error
	req   llm.ChatRequest
}

func (f *fakeGateway) Chat(_ context.Context, req llm.ChatRequest) (string, error) {
	f.req = req
	return f.reply, f.err
}

var papers = []types.PaperRecord{
	{Title: "Attention Is All You Need", Year: 2017, CitationCount: 50000, Source: "openalex", Abstract: "Sequence transduction with attention only."},
	{Title: "BERT", Year: 2018, CitationCount: 40000, Source: "openalex"},
	{Title: "GPT-4 Technical Report", Year: 2023, CitationCount: 2000, Source: "arxiv"},
}

func TestGenerateWithLLM(t *testing.T) {
	gw := &fakeGateway{reply: "```json\n" + `{
		"summary": "Transformer lineage.",
		"entry_point": {"index": 1, "reason": "the origin"},
		"core_papers": [{"index": 2, "reason": "pretraining"}, {"index": 9, "reason": "out of range"}],
		"latest": {"index": 3, "reason": "newest"},
		"reading_order": [1, 2, 0, 3],
		"categories": [
			{"name": "Foundations", "papers": [1, 2], "description": "architecture"},
			{"name": "Empty", "papers": [7]}
		]
	}` + "\n```"}

	g := New(gw).Generate(context.Background(), "transformers", papers)
	require.NotNil(t, g)

	want := &Guide{
		Summary:      "Transformer lineage.",
		EntryPoint:   &Pick{Index: 1, Title: "Attention Is All You Need", Reason: "the origin"},
		CorePapers:   []Pick{{Index: 2, Title: "BERT", Reason: "pretraining"}},
		Latest:       &Pick{Index: 3, Title: "GPT-4 Technical Report", Reason: "newest"},
		ReadingOrder: []int{1, 2, 3},
		Categories: []Category{{Name: "Foundations", Description: "architecture", Papers: []Pick{
			{Index: 1, Title: "Attention Is All You Need"}, {Index: 2, Title: "BERT"},
		}}},
	}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("guide mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, llm.TaskScreen, gw.req.Task)
	assert.Equal(t, 500, gw.req.MaxTokens)
	assert.Contains(t, gw.req.Prompt, "Research question: transformers")
	assert.Contains(t, gw.req.Prompt, "[3] [ARXIV] GPT-4 Technical Report")
}

func TestGenerateFallsBack(t *testing.T) {
	for name, gw := range map[string]llm.Gateway{
		"no gateway":  nil,
		"error":       &fakeGateway{err: errors.New("429")},
		"unparseable": &fakeGateway{reply: "read them all"},
	} {
		t.Run(name, func(t *testing.T) {
			g := New(gw).Generate(context.Background(), "q", papers)
			assert.Equal(t, Fallback(papers), g)
		})
	}
}

func TestGenerateEmpty(t *testing.T) {
	assert.Nil(t, New(&fakeGateway{}).Generate(context.Background(), "q", nil))
}

func TestFallback(t *testing.T) {
	g := Fallback(papers)
	require.NotNil(t, g)
	assert.Equal(t, "Found 3 related papers.", g.Summary)
	assert.Equal(t, 1, g.EntryPoint.Index)
	assert.Equal(t, []Pick{
		{Index: 1, Title: "Attention Is All You Need", Reason: "50000 citations"},
		{Index: 2, Title: "BERT", Reason: "40000 citations"},
	}, g.CorePapers)
	assert.Equal(t, Pick{Index: 3, Title: "GPT-4 Technical Report", Reason: "published 2023"}, *g.Latest)
	assert.Equal(t, []int{1, 2, 3}, g.ReadingOrder)
}

func TestMarkdown(t *testing.T) {
	md := Fallback(papers).Markdown()
	assert.Contains(t, md, "## Reading guide")
	assert.Contains(t, md, "**Start here**\n\n- [1] Attention Is All You Need: highly cited, a good starting point\n")
	assert.Contains(t, md, "**Suggested order:** [1] → [2] → [3]")

	var nilGuide *Guide
	assert.Equal(t, "No papers to advise on.\n", nilGuide.Markdown())
}
