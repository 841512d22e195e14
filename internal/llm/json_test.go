// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type findings struct {
	Findings  string   `json:"findings"`
	KeyPoints []string `json:"key_points"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"findings": "direct"}`, "direct"},
		{"fenced json", "Here you go:\n```json\n{\"findings\": \"fenced\"}\n```\nthanks", "fenced"},
		{"fenced no language", "```\n{\"findings\": \"plain fence\"}\n```", "plain fence"},
		{"braces in prose", `Sure. {"findings": "embedded", "key_points": ["a"]} Hope that helps.`, "embedded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f findings
			require.NoError(t, DecodeJSON(tt.in, &f))
			assert.Equal(t, tt.want, f.Findings)
		})
	}
}

func TestDecodeJSONFailure(t *testing.T) {
	for _, in := range []string{"", "no json here", "{broken", "} backwards {"} {
		var f findings
		assert.ErrorIs(t, DecodeJSON(in, &f), ErrNoJSON, "input %q", in)
	}
}
