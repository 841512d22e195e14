// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-agent/internal/offload"
	"github.com/pdiddy/research-agent/internal/secrets"
	"github.com/pdiddy/research-agent/pkg/types"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(viper.New(), secrets.Credentials{})
	require.NoError(t, err)
	assert.Equal(t, defaultAppConfig(), cfg)
}

func TestLoadConfigFile(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
llm:
  provider: anthropic
  models:
    plus: claude-sonnet
deep:
  timeout: 2m
  supervisor:
    max_rounds: 4
parallel:
  workers: 2
offload:
  backend: redis
`)))

	cfg, err := loadConfig(v, secrets.Credentials{AnthropicAPIKey: "ak", LLMAPIKey: "qk", RedisURL: "redis://localhost:6379/0"})
	require.NoError(t, err)

	assert.Equal(t, types.ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "ak", cfg.LLM.APIKey)
	assert.Equal(t, "claude-sonnet", cfg.LLM.Models["plus"])
	assert.Equal(t, 2*time.Minute, cfg.Deep.Timeout)
	assert.Equal(t, 4, cfg.Deep.Supervisor.MaxRounds)
	assert.Equal(t, types.DefaultSupervisorConfig().DecisionMaxTokens, cfg.Deep.Supervisor.DecisionMaxTokens)
	assert.Equal(t, 2, cfg.Parallel.Workers)
	assert.Equal(t, "redis", cfg.Offload.Backend)
	assert.Equal(t, "redis://localhost:6379/0", cfg.Offload.RedisURL)
}

func TestApplyCredentialsKeepsConfiguredKeys(t *testing.T) {
	cfg := defaultAppConfig()
	cfg.LLM.APIKey = "from-config"
	cfg.Search.OpenAlexEmail = "me@example.org"

	applyCredentials(&cfg, secrets.Credentials{LLMAPIKey: "env", OpenAlexEmail: "other@example.org", SemanticScholarAPIKey: "s2"})

	assert.Equal(t, "from-config", cfg.LLM.APIKey)
	assert.Equal(t, "me@example.org", cfg.Search.OpenAlexEmail)
	assert.Equal(t, "s2", cfg.Search.SemanticScholarAPIKey)
}

func TestApplyCredentialsByProvider(t *testing.T) {
	c := secrets.Credentials{LLMAPIKey: "qwen", AnthropicAPIKey: "claude", GeminiAPIKey: "gemini"}
	for provider, want := range map[types.LLMProvider]string{
		types.ProviderOpenAI:    "qwen",
		types.ProviderAnthropic: "claude",
		types.ProviderGemini:    "gemini",
	} {
		cfg := defaultAppConfig()
		cfg.LLM.Provider = provider
		applyCredentials(&cfg, c)
		assert.Equal(t, want, cfg.LLM.APIKey, "provider %s", provider)
	}
}

func TestFormatHits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, formatHits(&buf, nil, false))
	assert.Equal(t, "No results found.\n", buf.String())

	buf.Reset()
	hits := []offload.Hit{{RunID: "run-1", Topic: "Transformers", Round: 2, Paper: types.PaperRecord{Title: "Attention Is All You Need", Year: 2017}}}
	require.NoError(t, formatHits(&buf, hits, false))
	assert.Contains(t, buf.String(), "Attention Is All You Need")
	assert.Contains(t, buf.String(), "2017")

	buf.Reset()
	require.NoError(t, formatHits(&buf, hits, true))
	assert.Contains(t, buf.String(), `"run_id": "run-1"`)
}

func TestExportRecord(t *testing.T) {
	rec := offload.RunRecord{
		RunID:   "run-1",
		Query:   "transformers",
		Report:  "## Report\n\nBody [1].",
		Sources: []types.SourceRecord{types.NewSourceRecord(types.PaperRecord{Title: "Attention Is All You Need", Authors: []string{"Ashish Vaswani"}, Year: 2017, Source: "openalex"}, "")},
	}

	var buf bytes.Buffer
	require.NoError(t, exportRecord(&buf, rec, "html"))
	assert.Contains(t, buf.String(), "<h2>Report</h2>")

	buf.Reset()
	require.NoError(t, exportRecord(&buf, rec, "bibtex"))
	assert.Contains(t, buf.String(), "vaswani2017")

	buf.Reset()
	require.NoError(t, exportRecord(&buf, rec, "yaml"))
	assert.Contains(t, buf.String(), "run_id: run-1")
	assert.NotContains(t, buf.String(), "Body [1]")

	assert.Error(t, exportRecord(&buf, rec, "docx"))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "short", clip("short", 10))
	assert.Equal(t, "abcdefg...", clip("abcdefghijklmnop", 10))
}

func TestPrintGuidedWithoutModel(t *testing.T) {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	papers := []types.PaperRecord{
		{Title: "Dropout", Year: 2014, CitationCount: 30000, Source: "openalex"},
		{Title: "Batch Normalization", Year: 2015, CitationCount: 40000, Source: "openalex"},
	}

	var buf bytes.Buffer
	printGuided(&buf, cmd, nil, "regularization", papers)

	out := buf.String()
	assert.Contains(t, out, "Dropout")
	assert.Contains(t, out, "## Reading guide")
	assert.Contains(t, out, "- [2] Batch Normalization: highly cited, a good starting point")
}
