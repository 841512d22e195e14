// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// EinoBackend adapts eino chat models. Models are built lazily, one per
// provider model name, and reused across calls.
type EinoBackend struct {
	name     string
	newModel func(ctx context.Context, name string) (model.BaseChatModel, error)

	mu     sync.Mutex
	models map[string]model.BaseChatModel
}

// NewEinoBackend returns a backend that builds models with newModel.
func NewEinoBackend(name string, newModel func(ctx context.Context, name string) (model.BaseChatModel, error)) *EinoBackend {
	return &EinoBackend{name: name, newModel: newModel, models: make(map[string]model.BaseChatModel)}
}

// NewGeminiBackend connects to the Gemini API.
func NewGeminiBackend(ctx context.Context, apiKey, baseURL string) (*EinoBackend, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		clientCfg.HTTPOptions.BaseURL = baseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating Gemini client: %w", err)
	}

	return NewEinoBackend("gemini", func(ctx context.Context, name string) (model.BaseChatModel, error) {
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{Client: client, Model: name})
		if err != nil {
			return nil, err
		}
		return cm, nil
	}), nil
}

// Name returns the backend identifier.
func (b *EinoBackend) Name() string { return b.name }

// Generate runs one model call, passing sampling parameters and tools as
// eino call options.
func (b *EinoBackend) Generate(ctx context.Context, modelName string, msgs []*schema.Message, tools []*schema.ToolInfo, p Params) (*schema.Message, error) {
	cm, err := b.model(ctx, modelName)
	if err != nil {
		return nil, err
	}

	opts := []model.Option{model.WithTemperature(p.Temperature)}
	if p.MaxTokens > 0 {
		opts = append(opts, model.WithMaxTokens(p.MaxTokens))
	}
	if len(tools) > 0 {
		opts = append(opts, model.WithTools(tools))
	}
	return cm.Generate(ctx, msgs, opts...)
}

func (b *EinoBackend) model(ctx context.Context, name string) (model.BaseChatModel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cm, ok := b.models[name]; ok {
		return cm, nil
	}
	cm, err := b.newModel(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("creating %s model %s: %w", b.name, name, err)
	}
	b.models[name] = cm
	return cm, nil
}
