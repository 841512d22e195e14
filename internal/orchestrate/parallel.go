// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrate

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/research-agent/internal/decompose"
	"github.com/pdiddy/research-agent/internal/report"
	"github.com/pdiddy/research-agent/internal/researcher"
	"github.com/pdiddy/research-agent/internal/state"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Worker pool bounds for parallel runs.
const (
	defaultWorkers = 3
	maxWorkers     = 5
)

func clampWorkers(n int) int {
	if n <= 0 {
		return defaultWorkers
	}
	return min(n, maxWorkers)
}

// Parallel decomposes query into sub-questions, researches them on a
// bounded worker pool, and writes the report. The wall-clock budget is
// checked between stages; a run over budget returns what it has.
func (r *Runner) Parallel(ctx context.Context, query string, cfg types.ParallelConfig) Output {
	start := r.now()
	out := Output{
		RunID:   uuid.NewString(),
		Query:   query,
		Version: VersionParallel,
		State:   state.New(query, ""),
	}
	log := r.logger.With().Str("run_id", out.RunID).Str("version", out.Version).Logger()
	stageTimes := map[string]float64{}

	// Stage 1: decomposition (0-20%).
	stageStart := r.now()
	r.report("analyzing question", 0)
	dec := decompose.New(r.gateway, decompose.WithLogger(log)).Decompose(ctx, query, cfg.MaxSubQuestions)
	out.Decomposition = &dec
	stageTimes["decompose"] = r.now().Sub(stageStart).Seconds()
	if err := r.checkDeadline(start, cfg.Timeout, "decomposition"); err != nil {
		return r.timedOut(out, start, cfg.Timeout, err)
	}
	r.report(fmt.Sprintf("decomposed into %d sub-questions", len(dec.SubQuestions)), 0.2)

	// Stage 2: parallel research (20-70%).
	stageStart = r.now()
	r.report("searching papers", 0.25)
	if err := r.checkDeadline(start, cfg.Timeout, "before search"); err != nil {
		return r.timedOut(out, start, cfg.Timeout, err)
	}
	results, raws, err := r.researchAll(ctx, dec.Tasks(), cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("parallel research aborted")
		return r.failed(out, start, err)
	}
	for i := range results {
		out.State.AddNote(types.NoteFromResearch(results[i], 1))
		out.State.AddRawNote(raws[i])
	}
	stageTimes["research"] = r.now().Sub(stageStart).Seconds()
	if err := r.checkDeadline(start, cfg.Timeout, "after search"); err != nil {
		return r.timedOut(out, start, cfg.Timeout, err)
	}
	r.report(fmt.Sprintf("found %d papers", out.State.PapersSearched()), 0.7)

	// Stage 3: report (70-100%).
	stageStart = r.now()
	r.report("generating report", 0.75)
	if err := r.checkDeadline(start, cfg.Timeout, "before report"); err != nil {
		return r.timedOut(out, start, cfg.Timeout, err)
	}
	out.Report = report.New(r.gateway, cfg.Report, report.WithLogger(log)).Generate(ctx, query, out.State)
	out.State.MarkComplete("parallel research finished")
	stageTimes["report"] = r.now().Sub(stageStart).Seconds()

	meta := map[string]any{
		"run_id":              out.RunID,
		"version":             out.Version,
		"sub_questions_count": len(dec.SubQuestions),
		"total_papers":        out.State.PapersSearched(),
		"total_selected":      len(out.State.AllSources()),
		"query_type":          string(dec.QueryType),
		"stage_times":         stageTimes,
	}
	r.offload(ctx, out.RunID, out.State, meta, log)

	elapsed := r.now().Sub(start)
	meta["duration_seconds"] = elapsed.Seconds()
	meta["completed_at"] = r.now().Format(time.RFC3339)
	out.Metadata = meta

	r.report(fmt.Sprintf("research complete in %.1fs", elapsed.Seconds()), 1.0)
	return out
}

// researchAll runs every task on the worker pool. Results are indexed by
// task, whatever order the workers finish in. Each worker builds its own
// Researcher over the shared search gateway.
func (r *Runner) researchAll(ctx context.Context, tasks []types.ResearchTask, cfg types.ParallelConfig, log zerolog.Logger) ([]types.CompressedResearch, []types.RawNote, error) {
	results := make([]types.CompressedResearch, len(tasks))
	raws := make([]types.RawNote, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(clampWorkers(cfg.Workers))
	for i, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := researcher.New(r.searcher, r.gateway, cfg.Researcher, researcher.WithLogger(log))
			results[i], raws[i] = res.Research(gctx, task, 1)
			log.Debug().Int("task", i).Str("topic", task.Topic).Msg("sub-question done")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return results, raws, nil
}
