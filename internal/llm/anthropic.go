// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/pdiddy/research-agent/internal/httputil"
)

// claudeAPIURL is the Claude API endpoint. Package-level var for test substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// AnthropicBackend calls the Claude Messages API.
type AnthropicBackend struct {
	URL        string
	APIKey     string
	Client     *http.Client
	MaxRetries int
}

// Name returns the backend identifier.
func (b *AnthropicBackend) Name() string { return "anthropic" }

type claudeRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float32         `json:"temperature"`
	System      string          `json:"system,omitempty"`
	Messages    []claudeMessage `json:"messages"`
	Tools       []claudeTool    `json:"tools,omitempty"`
}

type claudeMessage struct {
	Role    string          `json:"role"`
	Content []claudeContent `json:"content"`
}

// claudeContent is a content block in either direction.
type claudeContent struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type claudeTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

// Generate posts one Messages API request.
func (b *AnthropicBackend) Generate(ctx context.Context, model string, msgs []*schema.Message, tools []*schema.ToolInfo, p Params) (*schema.Message, error) {
	maxTokens := p.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	system, converted := toClaudeMessages(msgs)
	reqBody := claudeRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: p.Temperature,
		System:      system,
		Messages:    converted,
	}
	for _, t := range tools {
		params, err := toolParameters(t)
		if err != nil {
			return nil, fmt.Errorf("tool %s: %w", t.Name, err)
		}
		reqBody.Tools = append(reqBody.Tools, claudeTool{Name: t.Name, Description: t.Desc, InputSchema: params})
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := b.URL
	if url == "" {
		url = claudeAPIURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, b.MaxRetries)
	if err != nil {
		return nil, fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, &StatusError{Provider: "Claude", Code: resp.StatusCode, Body: string(body)}
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return nil, fmt.Errorf("decoding Claude response: %w", err)
	}
	if len(cResp.Content) == 0 {
		return nil, ErrEmptyResponse
	}

	var text []string
	var calls []schema.ToolCall
	for _, block := range cResp.Content {
		switch block.Type {
		case "text":
			text = append(text, block.Text)
		case "tool_use":
			args := string(block.Input)
			if args == "" {
				args = "{}"
			}
			calls = append(calls, schema.ToolCall{
				ID:       block.ID,
				Type:     "function",
				Function: schema.FunctionCall{Name: block.Name, Arguments: args},
			})
		}
	}
	return schema.AssistantMessage(strings.Join(text, "\n"), calls), nil
}

// toClaudeMessages splits out system messages and converts the rest to
// content blocks. Tool results travel as user turns; consecutive turns of
// the same role are merged.
func toClaudeMessages(msgs []*schema.Message) (string, []claudeMessage) {
	var system []string
	var out []claudeMessage
	for _, m := range msgs {
		if m == nil {
			continue
		}
		var role string
		var blocks []claudeContent
		switch m.Role {
		case schema.System:
			system = append(system, m.Content)
			continue
		case schema.Tool:
			role = "user"
			blocks = []claudeContent{{Type: "tool_result", ToolUseID: m.ToolCallID, Content: m.Content}}
		case schema.Assistant:
			role = "assistant"
			if m.Content != "" {
				blocks = append(blocks, claudeContent{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				input := json.RawMessage(tc.Function.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, claudeContent{Type: "tool_use", ID: tc.ID, Name: tc.Function.Name, Input: input})
			}
		default:
			role = "user"
			blocks = []claudeContent{{Type: "text", Text: m.Content}}
		}
		if len(blocks) == 0 {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			continue
		}
		out = append(out, claudeMessage{Role: role, Content: blocks})
	}
	return strings.Join(system, "\n\n"), out
}
