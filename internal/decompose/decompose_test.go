// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package decompose

import (
	"context"
	"errors"
	"testing"

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

const llmReply = `Here is the plan:
{
  "query_type": "overview",
  "research_strategy": "split by theme",
  "sub_questions": [
    {"question": "Graph neural network architectures", "purpose": "taxonomy", "search_keywords": ["graph neural network survey"]},
    {"question": "  ", "purpose": "dropped", "search_keywords": []},
    {"question": "GNN applications in chemistry", "purpose": "applications", "search_keywords": ["GNN molecular property prediction"]},
    {"question": "Scalability of GNNs", "purpose": "limits", "search_keywords": ["GNN scalability"]},
    {"question": "Over-smoothing", "purpose": "limits", "search_keywords": ["over-smoothing GNN"]}
  ]
}`

func TestDecomposeWithLLM(t *testing.T) {
	gw := &fakeGateway{reply: llmReply}
	res := New(gw).Decompose(context.Background(), "state of graph neural networks", 3)

	assert.Equal(t, QueryOverview, res.QueryType)
	assert.Equal(t, "split by theme", res.Strategy)
	require.Len(t, res.SubQuestions, 3)
	assert.Equal(t, "GNN applications in chemistry", res.SubQuestions[1].Question)

	assert.Equal(t, llm.TaskDecompose, gw.req.Task)
	assert.Equal(t, 1000, gw.req.MaxTokens)
	assert.Contains(t, gw.req.Prompt, "Research question: state of graph neural networks")
}

func TestDecomposeUnlimited(t *testing.T) {
	res := New(&fakeGateway{reply: llmReply}).Decompose(context.Background(), "q", 0)
	assert.Len(t, res.SubQuestions, 4)
}

func TestDecomposeUnknownQueryTypeDefaults(t *testing.T) {
	gw := &fakeGateway{reply: `{"query_type": "survey", "sub_questions": [{"question": "x"}]}`}
	res := New(gw).Decompose(context.Background(), "q", 3)
	assert.Equal(t, QueryDeepDive, res.QueryType)
}

func TestDecomposeFallbacks(t *testing.T) {
	tests := []struct {
		name string
		gw   llm.Gateway
	}{
		{"no gateway", nil},
		{"gateway error", &fakeGateway{err: errors.New("timeout")}},
		{"not json", &fakeGateway{reply: "sorry"}},
		{"no sub-questions", &fakeGateway{reply: `{"query_type": "trend", "sub_questions": []}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := New(tt.gw).Decompose(context.Background(), "Transformer vs RNN", 3)
			assert.Equal(t, Fallback("Transformer vs RNN"), res)
		})
	}
}

func TestIsComparison(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"Transformer vs RNN", true},
		{"CNN versus ViT for images", true},
		{"Compare BERT and GPT", true},
		{"differences between LSTM and GRU", true},
		{"graph neural networks", false},
		{"recent progress in diffusion models", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsComparison(tt.query), tt.query)
	}
}

func TestFallback(t *testing.T) {
	cmp := Fallback("BERT vs GPT")
	assert.Equal(t, QueryComparison, cmp.QueryType)
	require.Len(t, cmp.SubQuestions, 3)
	assert.Equal(t, []string{"BERT vs GPT", "comparison"}, cmp.SubQuestions[2].SearchKeywords)

	deep := Fallback("diffusion models")
	assert.Equal(t, QueryDeepDive, deep.QueryType)
	require.Len(t, deep.SubQuestions, 3)
	assert.Equal(t, "diffusion models - fundamental concepts", deep.SubQuestions[0].Question)
}

func TestResultTasks(t *testing.T) {
	tasks := Fallback("BERT vs GPT").Tasks()
	require.Len(t, tasks, 3)
	for _, task := range tasks {
		assert.Equal(t, types.StrategyComparison, task.Strategy)
	}
	assert.Equal(t, []string{"compare"}, tasks[2].FocusPoints)

	tasks = Result{SubQuestions: []SubQuestion{{Question: "q"}}}.Tasks()
	assert.Equal(t, types.StrategyBroad, tasks[0].Strategy)
	assert.Equal(t, []string{"q"}, tasks[0].SearchKeywords)
	assert.Nil(t, tasks[0].FocusPoints)
}
