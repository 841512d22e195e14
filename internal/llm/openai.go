// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/cloudwego/eino/schema"

	"github.com/pdiddy/research-agent/internal/httputil"
)

// openAIDefaultURL is the DashScope OpenAI-compatible endpoint. Package-level
// var for test substitution.
var openAIDefaultURL = "https://dashscope.aliyuncs.com/compatible-mode/v1/chat/completions"

// OpenAIBackend speaks the OpenAI chat completions protocol. It serves
// DashScope (Qwen), OpenAI, and any compatible gateway.
type OpenAIBackend struct {
	// URL is the full chat completions endpoint. Empty uses DashScope.
	URL        string
	APIKey     string
	Client     *http.Client
	MaxRetries int
}

// Name returns the backend identifier.
func (b *OpenAIBackend) Name() string { return "openai" }

type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature float32         `json:"temperature"`
	Tools       []openAITool    `json:"tools,omitempty"`
	ToolChoice  string          `json:"tool_choice,omitempty"`
}

type openAIMessage struct {
	Role         string              `json:"role"`
	Content      string              `json:"content"`
	ToolCalls    []openAIToolCall    `json:"tool_calls,omitempty"`
	ToolCallID   string              `json:"tool_call_id,omitempty"`
	FunctionCall *openAIFunctionCall `json:"function_call,omitempty"`
}

type openAIToolCall struct {
	ID       string             `json:"id"`
	Type     string             `json:"type"`
	Function openAIFunctionCall `json:"function"`
}

type openAIFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type openAITool struct {
	Type     string         `json:"type"`
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters"`
}

type openAIResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

// Generate posts one chat completion request.
func (b *OpenAIBackend) Generate(ctx context.Context, model string, msgs []*schema.Message, tools []*schema.ToolInfo, p Params) (*schema.Message, error) {
	reqBody := openAIRequest{
		Model:       model,
		Messages:    toOpenAIMessages(msgs),
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	}
	if len(tools) > 0 {
		converted, err := toOpenAITools(tools)
		if err != nil {
			return nil, err
		}
		reqBody.Tools = converted
		reqBody.ToolChoice = "auto"
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := b.URL
	if url == "" {
		url = openAIDefaultURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling chat completions: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{Provider: "openai", Code: resp.StatusCode, Body: string(body)}
	}

	var oResp openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&oResp); err != nil {
		return nil, fmt.Errorf("decoding chat completions response: %w", err)
	}
	if len(oResp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}
	return fromOpenAIMessage(oResp.Choices[0].Message), nil
}

func toOpenAIMessages(msgs []*schema.Message) []openAIMessage {
	out := make([]openAIMessage, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		om := openAIMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			typ := tc.Type
			if typ == "" {
				typ = "function"
			}
			om.ToolCalls = append(om.ToolCalls, openAIToolCall{
				ID:       tc.ID,
				Type:     typ,
				Function: openAIFunctionCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments},
			})
		}
		out = append(out, om)
	}
	return out
}

func fromOpenAIMessage(om openAIMessage) *schema.Message {
	var calls []schema.ToolCall
	for _, tc := range om.ToolCalls {
		calls = append(calls, schema.ToolCall{
			ID:       tc.ID,
			Type:     "function",
			Function: schema.FunctionCall{Name: tc.Function.Name, Arguments: tc.Function.Arguments},
		})
	}
	if len(calls) == 0 && om.FunctionCall != nil && om.FunctionCall.Name != "" {
		// function_call carries no id; callers assign one per round.
		calls = append(calls, schema.ToolCall{
			Type:     "function",
			Function: schema.FunctionCall{Name: om.FunctionCall.Name, Arguments: om.FunctionCall.Arguments},
		})
	}
	return schema.AssistantMessage(om.Content, calls)
}

func toOpenAITools(tools []*schema.ToolInfo) ([]openAITool, error) {
	out := make([]openAITool, 0, len(tools))
	for _, t := range tools {
		params, err := toolParameters(t)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		out = append(out, openAITool{
			Type:     "function",
			Function: openAIFunction{Name: t.Name, Description: t.Desc, Parameters: params},
		})
	}
	return out, nil
}

// toolParameters renders a tool's parameters as a JSON Schema object.
func toolParameters(t *schema.ToolInfo) (json.RawMessage, error) {
	if t.ParamsOneOf == nil {
		return json.RawMessage(`{"type":"object","properties":{}}`), nil
	}
	js, err := t.ParamsOneOf.ToJSONSchema()
	if err != nil {
		return nil, fmt.Errorf("building parameter schema: %w", err)
	}
	raw, err := json.Marshal(js)
	if err != nil {
		return nil, fmt.Errorf("marshaling parameter schema: %w", err)
	}
	return raw, nil
}
