// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewResearchTask(t *testing.T) {
	tests := []struct {
		name     string
		topic    string
		keywords []string
		strategy Strategy
		want     []string
		wantStr  Strategy
	}{
		{"defaults to topic", "RNN basics", nil, "", []string{"RNN basics"}, StrategyBroad},
		{"blank keywords dropped", "RNN", []string{" ", ""}, StrategyFocused, []string{"RNN"}, StrategyFocused},
		{"capped at four", "x", []string{"a", "b", "c", "d", "e"}, StrategyComparison, []string{"a", "b", "c", "d"}, StrategyComparison},
		{"trimmed", "x", []string{" lstm "}, StrategyBroad, []string{"lstm"}, StrategyBroad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := NewResearchTask(tt.topic, tt.keywords, tt.strategy, nil)
			assert.Equal(t, tt.want, task.SearchKeywords)
			assert.Equal(t, tt.wantStr, task.Strategy)
			assert.NotEmpty(t, task.SearchKeywords)
			assert.LessOrEqual(t, len(task.SearchKeywords), MaxSearchKeywords)
		})
	}
}

func TestParseStrategy(t *testing.T) {
	assert.Equal(t, StrategyFocused, ParseStrategy("focused"))
	assert.Equal(t, StrategyComparison, ParseStrategy(" Comparison "))
	assert.Equal(t, StrategyBroad, ParseStrategy("deep"))
	assert.Equal(t, StrategyBroad, ParseStrategy(""))
}

func TestCompressedResearchToMessage(t *testing.T) {
	c := CompressedResearch{
		Topic:     "Transformer attention",
		Findings:  "Self-attention replaces recurrence.",
		KeyPoints: []string{"parallel training", "positional encoding"},
		Sources: []SourceRecord{
			NewSourceRecord(PaperRecord{Title: "Attention Is All You Need", Year: 2017}, "introduces the Transformer"),
			NewSourceRecord(PaperRecord{Title: "Undated"}, ""),
		},
		Gaps:           "long-context efficiency",
		PapersSearched: 12,
		PapersSelected: 2,
	}

	msg := c.ToMessage()
	assert.Contains(t, msg, "### Research result: Transformer attention")
	assert.Contains(t, msg, "- parallel training")
	assert.Contains(t, msg, "(2/12 relevant)")
	assert.Contains(t, msg, "[2017] Attention Is All You Need")
	assert.Contains(t, msg, "[N/A] Undated")
	assert.True(t, strings.HasSuffix(msg, "**Gaps:** long-context efficiency"))
}

func TestCompressedResearchToMessageListsFiveSources(t *testing.T) {
	var sources []SourceRecord
	for _, title := range []string{"a1", "a2", "a3", "a4", "a5", "a6", "a7"} {
		sources = append(sources, NewSourceRecord(PaperRecord{Title: title}, ""))
	}
	msg := CompressedResearch{Topic: "t", Sources: sources}.ToMessage()
	assert.Contains(t, msg, "a5")
	assert.NotContains(t, msg, "a6")
	assert.NotContains(t, msg, "**Gaps:**")
}

func TestNormalizeTitle(t *testing.T) {
	assert.Equal(t, "attention is all you need", NormalizeTitle("  Attention Is All You Need "))
	assert.Equal(t, NormalizeTitle("LSTM"), NormalizeTitle("lstm"))
}
