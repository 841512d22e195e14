// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/state"
	"github.com/pdiddy/research-agent/pkg/types"
)

type fakeGateway struct {
	reply string
	err   error
	req   llm.ChatRequest
	calls int
}

func (f *fakeGateway) Chat(_ context.Context, req llm.ChatRequest) (string, error) {
	f.calls++
	f.req = req
	return f.reply, f.err
}

var (
	attention = types.NewSourceRecord(types.PaperRecord{
		Title:   "Attention Is All You Need",
		Authors: []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar"},
		Year:    2017,
		URL:     "https://arxiv.org/abs/1706.03762",
		Source:  "arxiv",
		ArxivID: "1706.03762",
	}, "introduces the Transformer")
	lstm = types.NewSourceRecord(types.PaperRecord{
		Title:   "Long Short-Term Memory",
		Authors: []string{"Sepp Hochreiter", "Jürgen Schmidhuber"},
		Year:    1997,
		URL:     "https://doi.org/10.1162/neco.1997.9.8.1735",
		Source:  "openalex",
	}, "gated recurrence")
)

func researchedState() *state.AgentState {
	st := state.New("Transformer vs RNN", "")
	st.AddNote(types.ResearchNote{
		Topic:       "Transformer architecture",
		Findings:    "Self-attention replaces recurrence.",
		KeyPoints:   []string{"parallel training"},
		Sources:     []types.SourceRecord{attention},
		RoundNumber: 1,
	})
	st.AddNote(types.ResearchNote{
		Topic:       "RNN limitations",
		Findings:    "Gradients vanish over long sequences.",
		KeyPoints:   []string{"sequential computation", "gating helps"},
		Sources:     []types.SourceRecord{lstm, attention},
		RoundNumber: 2,
	})
	return st
}

func TestGenerateWithLLM(t *testing.T) {
	gw := &fakeGateway{reply: "## Overview\n\nTransformers parallelize [1]; LSTMs gate [2]."}
	got := New(gw, types.DefaultReportConfig()).Generate(context.Background(), "Transformer vs RNN", researchedState())

	assert.True(t, strings.HasPrefix(got, gw.reply))
	assert.Contains(t, got, "\n\n---\n\n## References\n")
	assert.Contains(t, got, "[1] Ashish Vaswani, Noam Shazeer et al. *Attention Is All You Need*. 2017. [ARXIV] [link](https://arxiv.org/abs/1706.03762)")
	assert.Contains(t, got, "[2] Sepp Hochreiter, Jürgen Schmidhuber. *Long Short-Term Memory*. 1997. [OPENALEX]")
	assert.NotContains(t, got, "[3]")

	assert.Equal(t, llm.TaskReport, gw.req.Task)
	assert.Equal(t, 3000, gw.req.MaxTokens)
	assert.InDelta(t, 0.4, gw.req.Temperature, 1e-6)
	assert.Equal(t, 60*time.Second, gw.req.Timeout)
	assert.Contains(t, gw.req.Prompt, "[1] Attention Is All You Need (2017) [ARXIV]\n[2] Long Short-Term Memory (1997) [OPENALEX]")
	assert.Contains(t, gw.req.Prompt, "### RNN limitations")
	assert.NotContains(t, gw.req.Prompt, "round 1")
}

func TestGenerateFallsBackOnError(t *testing.T) {
	gw := &fakeGateway{err: errors.New("timeout")}
	got := New(gw, types.ReportConfig{}).Generate(context.Background(), "q", researchedState())

	assert.True(t, strings.HasPrefix(got, "## Research report\n\n**Query:** q"))
	assert.Contains(t, got, "### Transformer architecture\n\n**Findings:** Self-attention replaces recurrence.")
	assert.Contains(t, got, "- gating helps\n")
	assert.Contains(t, got, "## References")
}

func TestGenerateWithoutGateway(t *testing.T) {
	got := New(nil, types.ReportConfig{}).Generate(context.Background(), "q", researchedState())
	assert.Equal(t, Fallback("q", researchedState()), got)
}

func TestGenerateEmptyState(t *testing.T) {
	gw := &fakeGateway{reply: "should not be used"}
	got := New(gw, types.ReportConfig{}).Generate(context.Background(), "obscure topic", state.New("obscure topic", ""))

	assert.Equal(t, Empty("obscure topic"), got)
	assert.Contains(t, got, "No relevant research was found.")
	assert.Zero(t, gw.calls)
}

func TestFormatSources(t *testing.T) {
	assert.Empty(t, FormatSources(nil))

	got := FormatSources([]types.SourceRecord{
		{PaperRecord: types.PaperRecord{Title: "Untitled Work"}},
		{PaperRecord: types.PaperRecord{Authors: []string{"A"}, Year: 2020, Source: "semantic_scholar"}},
	})
	assert.Equal(t, "\n\n---\n\n## References\n"+
		"\n\n[1] Unknown. *Untitled Work*. N/A."+
		"\n\n[2] A. *Unknown*. 2020. [SEMANTIC_SCHOLAR]", got)
}

func TestError(t *testing.T) {
	got := Error("q", errors.New("boom"), 1500*time.Millisecond)
	assert.Contains(t, got, "**Error:** boom")
	assert.Contains(t, got, "**Elapsed:** 1.5 seconds")
}

func TestHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, HTML("Transformer <vs> RNN", "## Overview\n\n| a | b |\n|---|---|\n| 1 | 2 |\n", &buf))

	out := buf.String()
	assert.Contains(t, out, "<title>Transformer &lt;vs&gt; RNN</title>")
	assert.Contains(t, out, "<h2>Overview</h2>")
	assert.Contains(t, out, "<table>")
}

func TestBibTeX(t *testing.T) {
	dup := types.NewSourceRecord(types.PaperRecord{Title: "Another", Authors: []string{"Ashish Vaswani"}, Year: 2017}, "")
	anon := types.NewSourceRecord(types.PaperRecord{Title: "Über Alles"}, "")

	got := BibTeX([]types.SourceRecord{attention, lstm, dup, anon})

	assert.Contains(t, got, "@misc{vaswani2017,\n  title = {Attention Is All You Need},\n  author = {Ashish Vaswani and Noam Shazeer and Niki Parmar},\n  year = {2017},\n  eprint = {1706.03762},\n")
	assert.Contains(t, got, "@article{hochreiter1997,")
	assert.Contains(t, got, "@article{vaswani2017a,")
	assert.Contains(t, got, "@article{bernd,")
	assert.Equal(t, 4, strings.Count(got, "}\n\n"))
}

func TestCitationKey(t *testing.T) {
	tests := []struct {
		p    types.PaperRecord
		want string
	}{
		{types.PaperRecord{Authors: []string{"Jürgen Schmidhuber"}, Year: 1997}, "schmidhuber1997"},
		{types.PaperRecord{Authors: []string{"  "}, Title: "Deep Learning", Year: 2015}, "deep2015"},
		{types.PaperRecord{}, "refnd"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, citationKey(tt.p))
	}
}

func TestCSL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSL([]types.SourceRecord{attention, lstm}, &buf))

	var items []map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)
	assert.Equal(t, "ref1", items[0]["id"])
	assert.Equal(t, "Long Short-Term Memory", items[1]["title"])
}

func TestTimeout(t *testing.T) {
	got := Timeout(190*time.Second, 180*time.Second)
	assert.Contains(t, got, "Ran for 190 seconds, over the 180 second limit.")
}

func TestFormatSourceEtAlSinglePeriod(t *testing.T) {
	src := types.NewSourceRecord(types.PaperRecord{
		Title:   "Language Models are Few-Shot Learners",
		Authors: []string{"Tom Brown", "Benjamin Mann", "Nick Ryder"},
		Year:    2020,
	}, "")

	got := formatSource(3, src)
	assert.Equal(t, "[3] Tom Brown, Benjamin Mann et al. *Language Models are Few-Shot Learners*. 2020.", got)
	assert.NotContains(t, got, "..")
}
