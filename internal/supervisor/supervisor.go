// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package supervisor runs the research decision loop. Each round the model
// sees the conversation so far and answers with tool calls: think,
// conduct_research, or research_complete. The loop ends when the model
// completes, when the decision call fails, or when the round budget is
// spent. Run never returns an error; the outcome is in the completion
// reason.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/pdiddy/research-agent/internal/llm"
	"github.com/pdiddy/research-agent/internal/state"
	"github.com/pdiddy/research-agent/pkg/types"
)

// Researcher runs one research task for a round.
type Researcher interface {
	Research(ctx context.Context, task types.ResearchTask, round int) (types.CompressedResearch, types.RawNote)
}

// ProgressFunc receives a stage message and a completion ratio in [0, 1].
type ProgressFunc func(message string, ratio float64)

// Result is the outcome of a run.
type Result struct {
	State            *state.AgentState
	TotalRounds      int
	CompletionReason string
	Duration         time.Duration
}

// Supervisor drives one research run at a time. It holds no per-run state;
// every Run builds a fresh AgentState.
type Supervisor struct {
	decider    llm.Decider
	researcher Researcher
	cfg        types.SupervisorConfig
	logger     zerolog.Logger
	progress   ProgressFunc
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Supervisor) { s.logger = l }
}

// WithProgress sets the progress sink.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Supervisor) { s.progress = fn }
}

// New builds a Supervisor. Zero config fields take defaults.
func New(decider llm.Decider, researcher Researcher, cfg types.SupervisorConfig, opts ...Option) *Supervisor {
	def := types.DefaultSupervisorConfig()
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = def.MaxRounds
	}
	if cfg.DecisionTimeout <= 0 {
		cfg.DecisionTimeout = def.DecisionTimeout
	}
	if cfg.DecisionMaxTokens <= 0 {
		cfg.DecisionMaxTokens = def.DecisionMaxTokens
	}
	if cfg.Saturation.Streak <= 0 {
		cfg.Saturation = def.Saturation
	}
	s := &Supervisor{
		decider:    decider,
		researcher: researcher,
		cfg:        cfg,
		logger:     zerolog.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// saturation tracks consecutive low-yield research calls.
type saturation struct {
	cfg           types.SaturationConfig
	prevSources   int
	lowYieldCount int
}

// observe records the source total after a research call and reports
// whether the model should be nudged toward completion.
func (t *saturation) observe(totalSources, round int) bool {
	added := totalSources - t.prevSources
	t.prevSources = totalSources
	if added <= t.cfg.LowYieldMax {
		t.lowYieldCount++
	} else {
		t.lowYieldCount = 0
	}
	return t.lowYieldCount >= t.cfg.Streak && round >= t.cfg.MinRound
}

// Run researches query until completion or the round budget. An empty
// brief is replaced by the default brief for query.
func (s *Supervisor) Run(ctx context.Context, query, brief string) Result {
	start := time.Now()
	st := state.New(query, brief)
	state.Reduce(st,
		state.OverrideUpdate{Field: state.FieldMaxRounds, Value: s.cfg.MaxRounds},
		state.AppendUpdate{Field: state.FieldMessages, Value: []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(renderStartPrompt(st.ResearchBrief)),
		}},
	)

	log := s.logger.With().Str("query", query).Logger()
	log.Info().Int("max_rounds", s.cfg.MaxRounds).Msg("supervisor started")

	tools := Tools()
	sat := &saturation{cfg: s.cfg.Saturation}
	round := 0

	// CurrentRound advances only through research notes; round counts
	// decision calls.
	for !st.IsComplete && round < s.cfg.MaxRounds {
		if err := ctx.Err(); err != nil {
			st.MarkComplete(fmt.Sprintf("cancelled: %v", err))
			break
		}

		round++
		progress := 0.1 + float64(round)/float64(s.cfg.MaxRounds)*0.7
		s.report(fmt.Sprintf("research round %d/%d", round, s.cfg.MaxRounds), progress)

		reply, err := s.decider.Decide(ctx, st.Messages, tools, llm.CallOptions{
			Task:        llm.TaskSupervise,
			MaxTokens:   s.cfg.DecisionMaxTokens,
			Temperature: s.cfg.DecisionTemperature,
			Timeout:     s.cfg.DecisionTimeout,
		})
		if err == nil && reply == nil {
			err = llm.ErrEmptyResponse
		}
		if err != nil {
			log.Error().Err(err).Int("round", round).Msg("decision call failed")
			st.MarkComplete(llmFailedReason)
			break
		}

		if len(reply.ToolCalls) == 0 {
			log.Warn().Int("round", round).Msg("no tool call in reply")
			st.AddMessage(schema.AssistantMessage(reply.Content, nil), schema.UserMessage(nudgeNoTool))
			continue
		}

		s.dispatch(ctx, st, reply.ToolCalls, round, progress, sat, log)
	}

	if !st.IsComplete {
		st.MarkComplete(fmt.Sprintf(maxRoundsReasonFmt, s.cfg.MaxRounds))
	}
	s.report("research complete", 0.85)

	res := Result{
		State:            st,
		TotalRounds:      round,
		CompletionReason: st.CompletionReason,
		Duration:         time.Since(start),
	}
	log.Info().
		Int("rounds", res.TotalRounds).
		Int("notes", len(st.Notes)).
		Int("sources", len(st.AllSources())).
		Str("reason", res.CompletionReason).
		Dur("duration", res.Duration).
		Msg("supervisor finished")
	return res
}

// dispatch executes the tool calls of one reply in order. A
// research_complete call ends the turn; later calls are dropped.
func (s *Supervisor) dispatch(ctx context.Context, st *state.AgentState, calls []schema.ToolCall, round int, progress float64, sat *saturation, log zerolog.Logger) {
	for i, tc := range calls {
		call, ok := ParseToolCall(tc.Function.Name, tc.Function.Arguments)
		if !ok {
			log.Warn().Str("tool", tc.Function.Name).Int("round", round).Msg("unknown tool, skipping")
			continue
		}

		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", round)
			if i > 0 {
				id = fmt.Sprintf("call_%d_%d", round, i)
			}
		}
		request := schema.AssistantMessage("", []schema.ToolCall{{
			ID:       id,
			Type:     "function",
			Function: tc.Function,
		}})

		switch c := call.(type) {
		case Think:
			log.Debug().Int("round", round).Str("thought", c.Thought).Msg("think")
			state.Reduce(st,
				state.AppendUpdate{Field: state.FieldThinkingHistory, Value: types.Thought{Round: round, Thought: c.Thought}},
				state.AppendUpdate{Field: state.FieldMessages, Value: []*schema.Message{request, schema.ToolMessage(thinkAck, id)}},
			)

		case ConductResearch:
			s.report("researching: "+c.Task.Topic, progress+0.05)
			result, raw := s.researcher.Research(ctx, c.Task, round)
			state.Reduce(st,
				state.AppendUpdate{Field: state.FieldNotes, Value: types.NoteFromResearch(result, round)},
				state.AppendUpdate{Field: state.FieldRawNotes, Value: raw},
				state.AppendUpdate{Field: state.FieldMessages, Value: []*schema.Message{request, schema.ToolMessage(result.ToMessage(), id)}},
			)
			if sat.observe(len(st.AllSources()), round) {
				log.Info().Int("round", round).Msg("sources saturated, nudging completion")
				st.AddMessage(schema.UserMessage(saturationNudge(s.cfg.Saturation.Streak)))
			}

		case ResearchComplete:
			st.MarkComplete(c.Reason)
			st.AddMessage(request, schema.ToolMessage(fmt.Sprintf(completeAckFormat, c.Reason), id))
			log.Info().Int("round", round).Str("reason", c.Reason).Msg("research complete")
			return
		}
	}
}

func (s *Supervisor) report(msg string, ratio float64) {
	if s.progress != nil {
		s.progress(msg, min(ratio, 1))
	}
}
