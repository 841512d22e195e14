// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package offload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/research-agent/pkg/types"
)

const (
	runYAML    = "run.yaml"
	runJSON    = "run.json"
	reportFile = "report.md"
)

// RunRecord is the archived outcome of one run. The report body is kept
// in report.md next to it.
type RunRecord struct {
	RunID            string               `json:"run_id" yaml:"run_id"`
	Query            string               `json:"query" yaml:"query"`
	Version          string               `json:"version" yaml:"version"`
	CompletionReason string               `json:"completion_reason,omitempty" yaml:"completion_reason,omitempty"`
	Notes            []types.ResearchNote `json:"notes" yaml:"notes"`
	Thinking         []types.Thought      `json:"thinking,omitempty" yaml:"thinking,omitempty"`
	Sources          []types.SourceRecord `json:"sources" yaml:"sources"`
	Metadata         map[string]any       `json:"metadata" yaml:"metadata"`
	CreatedAt        time.Time            `json:"created_at" yaml:"created_at"`
	Report           string               `json:"-" yaml:"-"`
}

// Archive writes finished runs under Dir/<run-id>/.
type Archive struct {
	Dir string
}

// RunDir returns the directory of runID.
func (a Archive) RunDir(runID string) string {
	return filepath.Join(a.Dir, runID)
}

// Save writes run.yaml, run.json, and report.md for rec and returns the
// run directory.
func (a Archive) Save(rec RunRecord) (string, error) {
	if rec.RunID == "" {
		return "", fmt.Errorf("archiving run: empty run ID")
	}
	dir := a.RunDir(rec.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating run directory: %w", err)
	}

	y, err := yaml.Marshal(&rec)
	if err != nil {
		return "", fmt.Errorf("marshaling YAML: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, runYAML), y, 0o644); err != nil {
		return "", err
	}

	j, err := json.MarshalIndent(&rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling JSON: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, runJSON), j, 0o644); err != nil {
		return "", err
	}

	if err := os.WriteFile(filepath.Join(dir, reportFile), []byte(rec.Report), 0o644); err != nil {
		return "", err
	}
	return dir, nil
}

// Load reads an archived run, including its report.
func (a Archive) Load(runID string) (RunRecord, error) {
	dir := a.RunDir(runID)
	data, err := os.ReadFile(filepath.Join(dir, runYAML))
	if err != nil {
		if os.IsNotExist(err) {
			return RunRecord{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return RunRecord{}, err
	}
	var rec RunRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return RunRecord{}, fmt.Errorf("parsing %s: %w", runYAML, err)
	}
	report, err := os.ReadFile(filepath.Join(dir, reportFile))
	if err != nil && !os.IsNotExist(err) {
		return RunRecord{}, err
	}
	rec.Report = string(report)
	return rec, nil
}
