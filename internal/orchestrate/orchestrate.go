// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrate wires the research stages into complete runs.
// DeepResearch drives the supervisor loop; Parallel decomposes the query
// and researches the sub-questions concurrently. Both return a finished
// Output: failures and timeouts become a report describing them rather
// than an error.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/research-agent/internal/decompose"
	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/offload"
	"github.com/pdiddy/research-agent/internal/report"
	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/internal/state"
)

// Run versions recorded in metadata.
const (
	VersionParallel = "v1"
	VersionDeep     = "v2"
)

// ErrTimeout is wrapped by the error of a run that exceeded its budget.
var ErrTimeout = errors.New("research timed out")

// ErrNoDecider is returned for a deep research run without a tool-calling
// model.
var ErrNoDecider = errors.New("deep research requires a tool-calling LLM")

// ProgressFunc receives a stage message and a completion ratio in [0, 1].
type ProgressFunc func(message string, ratio float64)

// Output is a finished run.
type Output struct {
	RunID   string
	Query   string
	Version string

	// State holds the notes, raw notes, and thinking of the run. It is
	// never nil.
	State *state.AgentState

	// Decomposition is set for parallel runs.
	Decomposition *decompose.Result

	// Report is the Markdown report, or a description of the failure.
	Report   string
	Metadata map[string]any

	// Err is set when the run failed or timed out.
	Err error
}

// Record converts the output into its archive form.
func (o Output) Record() offload.RunRecord {
	return offload.RunRecord{
		RunID:            o.RunID,
		Query:            o.Query,
		Version:          o.Version,
		CompletionReason: o.State.CompletionReason,
		Notes:            o.State.Notes,
		Thinking:         o.State.ThinkingHistory,
		Sources:          o.State.AllSources(),
		Metadata:         o.Metadata,
		CreatedAt:        time.Now(),
		Report:           o.Report,
	}
}

// Runner holds the collaborators shared by every run.
type Runner struct {
	searcher search.Searcher
	gateway  llm.Gateway
	decider  llm.Decider
	store    offload.Store
	logger   zerolog.Logger
	progress ProgressFunc
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithProgress sets the progress sink.
func WithProgress(fn ProgressFunc) Option {
	return func(r *Runner) { r.progress = fn }
}

// WithStore offloads the raw notes of every run to s.
func WithStore(s offload.Store) Option {
	return func(r *Runner) { r.store = s }
}

// New builds a Runner. gateway may be nil, which disables LLM compression,
// decomposition, and report writing. decider is required for DeepResearch
// only.
func New(searcher search.Searcher, gateway llm.Gateway, decider llm.Decider, opts ...Option) *Runner {
	r := &Runner{
		searcher: searcher,
		gateway:  gateway,
		decider:  decider,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Runner) report(msg string, ratio float64) {
	r.logger.Info().Float64("progress", ratio).Msg(msg)
	if r.progress != nil {
		r.progress(msg, ratio)
	}
}

// checkDeadline returns an ErrTimeout error once limit has passed since
// start. A zero limit disables the check.
func (r *Runner) checkDeadline(start time.Time, limit time.Duration, stage string) error {
	if limit <= 0 {
		return nil
	}
	elapsed := r.now().Sub(start)
	if elapsed > limit {
		return fmt.Errorf("%w after %.0fs (limit %.0fs), stage: %s", ErrTimeout, elapsed.Seconds(), limit.Seconds(), stage)
	}
	return nil
}

// offload stores the raw notes and records the outcome in meta.
func (r *Runner) offload(ctx context.Context, runID string, st *state.AgentState, meta map[string]any, log zerolog.Logger) {
	if r.store == nil || len(st.RawNotes) == 0 {
		meta["offloaded"] = false
		return
	}
	if err := r.store.Put(ctx, runID, st.RawNotes); err != nil {
		log.Error().Err(err).Msg("offloading raw notes")
		meta["offloaded"] = false
		meta["offload_error"] = err.Error()
		return
	}
	meta["offloaded"] = true
}

// failed builds the output of a run that could not proceed.
func (r *Runner) failed(out Output, start time.Time, err error) Output {
	elapsed := r.now().Sub(start)
	out.Err = err
	out.Report = report.Error(out.Query, err, elapsed)
	out.Metadata = map[string]any{
		"run_id":           out.RunID,
		"version":          out.Version,
		"error":            err.Error(),
		"duration_seconds": elapsed.Seconds(),
	}
	return out
}

// timedOut builds the partial output of a run that exceeded its budget:
// the notice, then whatever notes were gathered.
func (r *Runner) timedOut(out Output, start time.Time, limit time.Duration, err error) Output {
	elapsed := r.now().Sub(start)
	r.report(fmt.Sprintf("research timed out (%.0fs)", elapsed.Seconds()), 1.0)
	out.Err = err
	out.Report = report.Timeout(elapsed, limit)
	if len(out.State.Notes) > 0 {
		out.Report += "\n" + report.Fallback(out.Query, out.State)
	}
	out.Metadata = map[string]any{
		"run_id":           out.RunID,
		"version":          out.Version,
		"error":            err.Error(),
		"timeout":          true,
		"duration_seconds": elapsed.Seconds(),
	}
	return out
}
