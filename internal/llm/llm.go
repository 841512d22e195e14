// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm is the gateway to chat-completion providers. A Client routes
// each call to a model size by task type, applies the per-call timeout,
// and hands provider-neutral eino messages to a Backend.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/pdiddy/research-agent/pkg/types"
)

var (
	// ErrNotConfigured is returned when no API key is available for the
	// selected provider.
	ErrNotConfigured = errors.New("llm: provider not configured")

	// ErrEmptyResponse is returned when a provider answers 2xx with no content.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// StatusError reports a non-2xx provider response.
type StatusError struct {
	Provider string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API returned %d: %s", e.Provider, e.Code, e.Body)
}

// Task names the kind of call being made. Tasks map to model sizes.
type Task string

const (
	TaskIntent    Task = "intent"
	TaskScreen    Task = "screen"
	TaskCompress  Task = "compress"
	TaskReport    Task = "report"
	TaskDecompose Task = "decompose"
	TaskSupervise Task = "supervise"
)

// Model sizes.
const (
	SizeTurbo = "turbo"
	SizePlus  = "plus"
	SizeMax   = "max"
)

var taskSizes = map[Task]string{
	TaskIntent:    SizeTurbo,
	TaskScreen:    SizeTurbo,
	TaskCompress:  SizePlus,
	TaskReport:    SizePlus,
	TaskDecompose: SizeTurbo,
	TaskSupervise: SizePlus,
}

// SizeFor returns the model size for task. Unknown tasks use plus.
func SizeFor(task Task) string {
	if s, ok := taskSizes[task]; ok {
		return s
	}
	return SizePlus
}

// CallOptions tunes one call.
type CallOptions struct {
	Task Task
	// Model overrides task routing when non-empty.
	Model       string
	MaxTokens   int
	Temperature float32
	// Timeout bounds the call. Zero means the caller's context only.
	Timeout time.Duration
}

// ChatRequest is a single-prompt text completion.
type ChatRequest struct {
	Prompt string
	// System is an optional system message placed before the prompt.
	System      string
	Task        Task
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

func (r ChatRequest) options() CallOptions {
	return CallOptions{
		Task:        r.Task,
		Model:       r.Model,
		MaxTokens:   r.MaxTokens,
		Temperature: r.Temperature,
		Timeout:     r.Timeout,
	}
}

// Gateway is the text completion capability used by the researcher,
// report assembler, and decomposer.
type Gateway interface {
	Chat(ctx context.Context, req ChatRequest) (string, error)
}

// Decider is the tool-calling capability used by the supervisor.
type Decider interface {
	Decide(ctx context.Context, msgs []*schema.Message, tools []*schema.ToolInfo, opts CallOptions) (*schema.Message, error)
}

// Params are the sampling parameters passed to a Backend.
type Params struct {
	MaxTokens   int
	Temperature float32
}

// Backend is one provider wire protocol.
type Backend interface {
	Name() string
	Generate(ctx context.Context, model string, msgs []*schema.Message, tools []*schema.ToolInfo, p Params) (*schema.Message, error)
}

// Client implements Gateway and Decider over a Backend.
type Client struct {
	backend Backend
	models  map[string]string
	logger  zerolog.Logger
}

// NewClient wraps backend. models maps sizes to provider model names;
// missing sizes fall back to the Qwen defaults.
func NewClient(backend Backend, models map[string]string, logger zerolog.Logger) *Client {
	merged := types.DefaultLLMConfig().Models
	for k, v := range models {
		if v != "" {
			merged[k] = v
		}
	}
	return &Client{backend: backend, models: merged, logger: logger}
}

// New builds a Client for cfg.Provider. It returns ErrNotConfigured when
// cfg.APIKey is empty.
func New(ctx context.Context, cfg types.LLMConfig, logger zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrNotConfigured
	}

	var backend Backend
	switch cfg.Provider {
	case types.ProviderOpenAI, "":
		backend = &OpenAIBackend{URL: cfg.BaseURL, APIKey: cfg.APIKey, MaxRetries: cfg.MaxRetries}
	case types.ProviderAnthropic:
		backend = &AnthropicBackend{URL: cfg.BaseURL, APIKey: cfg.APIKey, MaxRetries: cfg.MaxRetries}
	case types.ProviderGemini:
		g, err := NewGeminiBackend(ctx, cfg.APIKey, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		backend = g
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	return NewClient(backend, cfg.Models, logger), nil
}

// ModelFor resolves the provider model name for a call.
func (c *Client) ModelFor(task Task, override string) string {
	if override != "" {
		return override
	}
	return c.models[SizeFor(task)]
}

// Chat sends a single prompt and returns the reply text.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (string, error) {
	var msgs []*schema.Message
	if req.System != "" {
		msgs = append(msgs, schema.SystemMessage(req.System))
	}
	msgs = append(msgs, schema.UserMessage(req.Prompt))

	msg, err := c.generate(ctx, msgs, nil, req.options())
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(msg.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Decide sends the conversation with the tool catalog and returns the
// assistant message, which may carry tool calls.
func (c *Client) Decide(ctx context.Context, msgs []*schema.Message, tools []*schema.ToolInfo, opts CallOptions) (*schema.Message, error) {
	return c.generate(ctx, msgs, tools, opts)
}

func (c *Client) generate(ctx context.Context, msgs []*schema.Message, tools []*schema.ToolInfo, opts CallOptions) (*schema.Message, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	model := c.ModelFor(opts.Task, opts.Model)
	start := time.Now()
	msg, err := c.backend.Generate(ctx, model, msgs, tools, Params{MaxTokens: opts.MaxTokens, Temperature: opts.Temperature})
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%s call timed out after %s: %w", opts.Task, opts.Timeout, err)
		} else {
			err = fmt.Errorf("%s call: %w", opts.Task, err)
		}
		c.logger.Warn().Err(err).Str("task", string(opts.Task)).Str("model", model).Dur("elapsed", elapsed).Msg("llm call failed")
		return nil, err
	}
	if msg == nil {
		return nil, ErrEmptyResponse
	}

	c.logger.Debug().
		Str("provider", c.backend.Name()).
		Str("task", string(opts.Task)).
		Str("model", model).
		Int("tool_calls", len(msg.ToolCalls)).
		Dur("elapsed", elapsed).
		Msg("llm call")
	return msg, nil
}
