// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files
// and from the environment. Each file in the directory represents one secret: the
// filename is the key name and the file contents (trimmed) are the value.
//
// Supported key files: llm-api-key, anthropic-api-key, gemini-api-key,
// semantic-scholar-api-key, openalex-email, redis-url.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Key file names recognised in the secrets directory.
const (
	KeyLLM             = "llm-api-key"
	KeyAnthropic       = "anthropic-api-key"
	KeyGemini          = "gemini-api-key"
	KeySemanticScholar = "semantic-scholar-api-key"
	KeyOpenAlexEmail   = "openalex-email"
	KeyRedisURL        = "redis-url"
)

// Credentials holds every secret the agent can use. Environment variables
// are read by envconfig; DASHSCOPE_API_KEY is the Qwen-compatible default.
type Credentials struct {
	LLMAPIKey             string `envconfig:"DASHSCOPE_API_KEY"`
	AnthropicAPIKey       string `envconfig:"ANTHROPIC_API_KEY"`
	GeminiAPIKey          string `envconfig:"GEMINI_API_KEY"`
	SemanticScholarAPIKey string `envconfig:"SEMANTIC_SCHOLAR_API_KEY"`
	OpenAlexEmail         string `envconfig:"OPENALEX_EMAIL"`
	RedisURL              string `envconfig:"REDIS_URL"`
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			log.Warn().Err(err).Str("secret", name).Msg("could not read secret")
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// Resolve returns credentials from dir, with environment variables filling
// any key the directory does not provide. Files win over the environment.
func Resolve(dir string) (Credentials, error) {
	var creds Credentials
	if err := envconfig.Process("", &creds); err != nil {
		return Credentials{}, fmt.Errorf("reading credentials from environment: %w", err)
	}

	files, err := Load(dir)
	if err != nil {
		return Credentials{}, err
	}

	override(&creds.LLMAPIKey, files[KeyLLM])
	override(&creds.AnthropicAPIKey, files[KeyAnthropic])
	override(&creds.GeminiAPIKey, files[KeyGemini])
	override(&creds.SemanticScholarAPIKey, files[KeySemanticScholar])
	override(&creds.OpenAlexEmail, files[KeyOpenAlexEmail])
	override(&creds.RedisURL, files[KeyRedisURL])
	return creds, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
