// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/offload"
	"github.com/pdiddy/research-agent/internal/orchestrate"
	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/internal/secrets"
	"github.com/pdiddy/research-agent/pkg/types"
)

type logConfig struct {
	Env   string `yaml:"env" mapstructure:"env"`
	Level string `yaml:"level" mapstructure:"level"`
}

// appConfig is the research-agent.yaml layout.
type appConfig struct {
	Log      logConfig                `yaml:"log" mapstructure:"log"`
	Search   types.SearchConfig       `yaml:"search" mapstructure:"search"`
	LLM      types.LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Deep     types.DeepResearchConfig `yaml:"deep" mapstructure:"deep"`
	Parallel types.ParallelConfig     `yaml:"parallel" mapstructure:"parallel"`
	Offload  types.OffloadConfig      `yaml:"offload" mapstructure:"offload"`
}

func defaultAppConfig() appConfig {
	return appConfig{
		Search:   types.DefaultSearchConfig(),
		LLM:      types.DefaultLLMConfig(),
		Deep:     types.DefaultDeepResearchConfig(),
		Parallel: types.DefaultParallelConfig(),
		Offload:  types.DefaultOffloadConfig(),
	}
}

// loadConfig overlays viper settings on the defaults and fills API keys
// the config file leaves empty from c.
func loadConfig(v *viper.Viper, c secrets.Credentials) (appConfig, error) {
	cfg := defaultAppConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return appConfig{}, fmt.Errorf("parsing config: %w", err)
	}
	applyCredentials(&cfg, c)
	return cfg, nil
}

func applyCredentials(cfg *appConfig, c secrets.Credentials) {
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case types.ProviderAnthropic:
			cfg.LLM.APIKey = c.AnthropicAPIKey
		case types.ProviderGemini:
			cfg.LLM.APIKey = c.GeminiAPIKey
		default:
			cfg.LLM.APIKey = c.LLMAPIKey
		}
	}
	if cfg.Search.SemanticScholarAPIKey == "" {
		cfg.Search.SemanticScholarAPIKey = c.SemanticScholarAPIKey
	}
	if cfg.Search.OpenAlexEmail == "" {
		cfg.Search.OpenAlexEmail = c.OpenAlexEmail
	}
	if cfg.Offload.RedisURL == "" {
		cfg.Offload.RedisURL = c.RedisURL
	}
}

// session bundles what the research commands share.
type session struct {
	cfg      appConfig
	searcher *search.Unified
	gateway  llm.Gateway
	runner   *orchestrate.Runner
	store    offload.Store
}

// newSession builds the search gateway, the LLM client, and the offload
// store. A missing LLM key is not an error: the run falls back to
// extractive summaries, and only deep research refuses to start.
func newSession(ctx context.Context, cfg appConfig, progress orchestrate.ProgressFunc) (*session, error) {
	searcher, err := search.New(cfg.Search, logger)
	if err != nil {
		return nil, err
	}

	client, err := optionalClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	var (
		gateway llm.Gateway
		decider llm.Decider
	)
	if client != nil {
		gateway, decider = client, client
	}

	store, err := offload.Open(ctx, cfg.Offload)
	if err != nil {
		return nil, fmt.Errorf("opening offload store: %w", err)
	}

	opts := []orchestrate.Option{orchestrate.WithLogger(logger), orchestrate.WithProgress(progress)}
	if store != nil {
		opts = append(opts, orchestrate.WithStore(store))
	}
	return &session{
		cfg:      cfg,
		searcher: searcher,
		gateway:  gateway,
		runner:   orchestrate.New(searcher, gateway, decider, opts...),
		store:    store,
	}, nil
}

// optionalClient returns nil without error when no API key is set.
func optionalClient(ctx context.Context, cfg appConfig) (*llm.Client, error) {
	client, err := llm.New(ctx, cfg.LLM, logger)
	if errors.Is(err, llm.ErrNotConfigured) {
		logger.Warn().Str("provider", string(cfg.LLM.Provider)).Msg("no LLM API key; summaries will be extractive")
		return nil, nil
	}
	return client, err
}

func (s *session) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
