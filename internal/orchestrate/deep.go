// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/research-agent/internal/report"
	"github.com/pdiddy/research-agent/internal/researcher"
	"github.com/pdiddy/research-agent/internal/state"
	"github.com/pdiddy/research-agent/internal/supervisor"
	"github.com/pdiddy/research-agent/pkg/types"
)

// DeepResearch runs the supervisor loop for query and writes the report.
// Supervisor progress maps to 0-80%; the report covers 85-100%. An empty
// brief is generated from the query.
func (r *Runner) DeepResearch(ctx context.Context, query, brief string, cfg types.DeepResearchConfig) Output {
	start := r.now()
	out := Output{
		RunID:   uuid.NewString(),
		Query:   query,
		Version: VersionDeep,
		State:   state.New(query, brief),
	}
	log := r.logger.With().Str("run_id", out.RunID).Str("version", out.Version).Logger()
	r.report("starting research", 0)

	if r.decider == nil {
		log.Error().Err(ErrNoDecider).Msg("research failed")
		return r.failed(out, start, ErrNoDecider)
	}

	res := researcher.New(r.searcher, r.gateway, cfg.Researcher, researcher.WithLogger(log))
	sup := supervisor.New(r.decider, res, cfg.Supervisor,
		supervisor.WithLogger(log),
		supervisor.WithProgress(func(msg string, ratio float64) { r.report(msg, ratio*0.8) }),
	)
	result := sup.Run(ctx, query, brief)
	out.State = result.State

	if err := r.checkDeadline(start, cfg.Timeout, "before report"); err != nil {
		log.Warn().Err(err).Msg("research timed out")
		return r.timedOut(out, start, cfg.Timeout, err)
	}

	r.report("generating report", 0.85)
	gen := report.New(r.gateway, cfg.Report, report.WithLogger(log))
	out.Report = gen.Generate(ctx, query, out.State)

	st := out.State
	meta := map[string]any{
		"run_id":            out.RunID,
		"version":           out.Version,
		"total_rounds":      result.TotalRounds,
		"completion_reason": result.CompletionReason,
		"total_searched":    st.PapersSearched(),
		"total_selected":    len(st.AllSources()),
		"thinking_count":    len(st.ThinkingHistory),
	}
	r.offload(ctx, out.RunID, st, meta, log)

	elapsed := r.now().Sub(start)
	meta["duration_seconds"] = elapsed.Seconds()
	meta["completed_at"] = r.now().Format(time.RFC3339)
	out.Metadata = meta

	r.report("research complete", 1.0)
	return out
}
