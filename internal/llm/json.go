// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned by DecodeJSON when no candidate parses.
var ErrNoJSON = errors.New("llm: no JSON object in response")

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// DecodeJSON decodes a model reply into v. It tries the whole reply, then
// the first fenced code block, then the span from the first '{' to the
// last '}'.
func DecodeJSON(text string, v any) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrNoJSON
	}
	if json.Unmarshal([]byte(text), v) == nil {
		return nil
	}
	if m := fencedJSON.FindStringSubmatch(text); m != nil {
		if json.Unmarshal([]byte(m[1]), v) == nil {
			return nil
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if json.Unmarshal([]byte(text[start:end+1]), v) == nil {
			return nil
		}
	}
	return ErrNoJSON
}
