package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-agent/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the search gateway.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Providers lists the enabled providers in merge order
	// (default ["arxiv", "openalex"]).
	Providers []string `json:"providers" yaml:"providers" mapstructure:"providers"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// OpenAlexEmail is sent as mailto for the OpenAlex polite pool.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	// MaxRetries bounds rate-limit retries per provider call (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// DefaultSearchConfig returns the gateway defaults: arXiv and OpenAlex.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "research-agent/0.1",
		},
		Providers:  []string{"arxiv", "openalex"},
		MaxRetries: 3,
	}
}

// LLMProvider selects the chat backend.
type LLMProvider string

const (
	ProviderOpenAI    LLMProvider = "openai"
	ProviderAnthropic LLMProvider = "anthropic"
	ProviderGemini    LLMProvider = "gemini"
)

// LLMConfig holds shared settings for stages that call a language model.
type LLMConfig struct {
	// Provider selects the backend: openai (any OpenAI-compatible endpoint,
	// DashScope by default), anthropic, or gemini.
	Provider LLMProvider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// BaseURL overrides the provider endpoint.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// APIKey is the authentication key for the provider.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Models maps model sizes (turbo, plus, max) to provider model names.
	Models map[string]string `json:"models" yaml:"models" mapstructure:"models"`

	// MaxRetries is the number of retry attempts for rate-limited calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// DefaultLLMConfig returns the DashScope (Qwen) compatible-mode defaults.
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider: ProviderOpenAI,
		Models: map[string]string{
			"turbo": "qwen-turbo",
			"plus":  "qwen-plus",
			"max":   "qwen-max",
		},
		MaxRetries: 3,
	}
}

// ResearcherConfig holds settings for a single research task.
type ResearcherConfig struct {
	// PapersPerSearch is the per-keyword search limit (default 15).
	// Focused tasks use half of it.
	PapersPerSearch int `json:"papers_per_search" yaml:"papers_per_search" mapstructure:"papers_per_search"`

	// KeywordsPerTask bounds how many task keywords are searched (default 3).
	KeywordsPerTask int `json:"keywords_per_task" yaml:"keywords_per_task" mapstructure:"keywords_per_task"`

	// CompressTimeout bounds the compression call (default 30s).
	CompressTimeout time.Duration `json:"compress_timeout" yaml:"compress_timeout" mapstructure:"compress_timeout"`

	// CompressMaxTokens caps the compression output (default 1500).
	CompressMaxTokens int `json:"compress_max_tokens" yaml:"compress_max_tokens" mapstructure:"compress_max_tokens"`

	// CompressTemperature is the sampling temperature (default 0.3).
	CompressTemperature float32 `json:"compress_temperature" yaml:"compress_temperature" mapstructure:"compress_temperature"`
}

// DefaultResearcherConfig returns the researcher defaults.
func DefaultResearcherConfig() ResearcherConfig {
	return ResearcherConfig{
		PapersPerSearch:     15,
		KeywordsPerTask:     3,
		CompressTimeout:     30 * time.Second,
		CompressMaxTokens:   1500,
		CompressTemperature: 0.3,
	}
}

// SaturationConfig tunes the low-yield nudge.
type SaturationConfig struct {
	// LowYieldMax is the largest number of new sources a research call may
	// add and still count as low yield (default 1).
	LowYieldMax int `json:"low_yield_max" yaml:"low_yield_max" mapstructure:"low_yield_max"`

	// Streak is the number of consecutive low-yield calls before nudging (default 2).
	Streak int `json:"streak" yaml:"streak" mapstructure:"streak"`

	// MinRound is the earliest round a nudge may be sent (default 3).
	MinRound int `json:"min_round" yaml:"min_round" mapstructure:"min_round"`
}

// DefaultSaturationConfig returns the saturation defaults.
func DefaultSaturationConfig() SaturationConfig {
	return SaturationConfig{LowYieldMax: 1, Streak: 2, MinRound: 3}
}

// SupervisorConfig holds settings for the research loop.
type SupervisorConfig struct {
	// MaxRounds bounds the number of decision rounds (default 10).
	MaxRounds int `json:"max_rounds" yaml:"max_rounds" mapstructure:"max_rounds"`

	// DecisionTimeout bounds each decision call (default 60s).
	DecisionTimeout time.Duration `json:"decision_timeout" yaml:"decision_timeout" mapstructure:"decision_timeout"`

	// DecisionMaxTokens caps each decision reply (default 2000).
	DecisionMaxTokens int `json:"decision_max_tokens" yaml:"decision_max_tokens" mapstructure:"decision_max_tokens"`

	// DecisionTemperature is the decision sampling temperature (default 0.3).
	DecisionTemperature float32 `json:"decision_temperature" yaml:"decision_temperature" mapstructure:"decision_temperature"`

	Saturation SaturationConfig `json:"saturation" yaml:"saturation" mapstructure:"saturation"`
}

// DefaultSupervisorConfig returns the supervisor defaults.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		MaxRounds:           10,
		DecisionTimeout:     60 * time.Second,
		DecisionMaxTokens:   2000,
		DecisionTemperature: 0.3,
		Saturation:          DefaultSaturationConfig(),
	}
}

// ReportConfig holds settings for the report LLM call.
type ReportConfig struct {
	Timeout     time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32       `json:"temperature" yaml:"temperature" mapstructure:"temperature"`
}

// DefaultReportConfig returns the report defaults (60s, 3000 tokens, 0.4).
func DefaultReportConfig() ReportConfig {
	return ReportConfig{Timeout: 60 * time.Second, MaxTokens: 3000, Temperature: 0.4}
}

// DeepResearchConfig groups the settings of the supervisor-driven run.
type DeepResearchConfig struct {
	Supervisor SupervisorConfig `json:"supervisor" yaml:"supervisor" mapstructure:"supervisor"`
	Researcher ResearcherConfig `json:"researcher" yaml:"researcher" mapstructure:"researcher"`
	Report     ReportConfig     `json:"report" yaml:"report" mapstructure:"report"`

	// Timeout is the wall-clock budget checked between stages. Zero disables it.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// DefaultDeepResearchConfig returns the deep research defaults.
func DefaultDeepResearchConfig() DeepResearchConfig {
	return DeepResearchConfig{
		Supervisor: DefaultSupervisorConfig(),
		Researcher: DefaultResearcherConfig(),
		Report:     DefaultReportConfig(),
		Timeout:    300 * time.Second,
	}
}

// ParallelConfig holds settings for the decompose-then-fan-out run.
type ParallelConfig struct {
	// MaxSubQuestions caps the decomposition (default 3).
	MaxSubQuestions int `json:"max_sub_questions" yaml:"max_sub_questions" mapstructure:"max_sub_questions"`

	// Workers bounds concurrent research tasks (default 3, clamped to 1..5).
	Workers int `json:"workers" yaml:"workers" mapstructure:"workers"`

	// Timeout is the wall-clock budget checked between stages (default 180s).
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	Researcher ResearcherConfig `json:"researcher" yaml:"researcher" mapstructure:"researcher"`
	Report     ReportConfig     `json:"report" yaml:"report" mapstructure:"report"`
}

// DefaultParallelConfig returns the parallel run defaults.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		MaxSubQuestions: 3,
		Workers:         3,
		Timeout:         180 * time.Second,
		Researcher:      DefaultResearcherConfig(),
		Report:          DefaultReportConfig(),
	}
}

// OffloadConfig selects where raw notes and finished runs are archived.
type OffloadConfig struct {
	// Backend is "sqlite", "redis", or "none" (default "sqlite").
	Backend string `json:"backend" yaml:"backend" mapstructure:"backend"`

	// Dir is the run archive directory (default "runs").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// RedisURL is the connection URL for the redis backend.
	RedisURL string `json:"redis_url,omitempty" yaml:"redis_url,omitempty" mapstructure:"redis_url"`

	// TTL expires redis entries; zero keeps them.
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`
}

// DefaultOffloadConfig returns the offload defaults.
func DefaultOffloadConfig() OffloadConfig {
	return OffloadConfig{Backend: "sqlite", Dir: "runs"}
}
