// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package state

import (
	"github.com/cloudwego/eino/schema"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Field names an AgentState field addressable by the reducer.
type Field string

const (
	FieldQuery            Field = "query"
	FieldResearchBrief    Field = "research_brief"
	FieldMessages         Field = "messages"
	FieldNotes            Field = "notes"
	FieldRawNotes         Field = "raw_notes"
	FieldCurrentRound     Field = "current_round"
	FieldMaxRounds        Field = "max_rounds"
	FieldIsComplete       Field = "is_complete"
	FieldCompletionReason Field = "completion_reason"
	FieldThinkingHistory  Field = "thinking_history"
	FieldMetadata         Field = "metadata"
)

// Update is one reducer command. The only implementations are
// AppendUpdate and OverrideUpdate.
type Update interface {
	apply(s *AgentState)
}

// AppendUpdate extends a list field with Value, which may be a single
// element or a slice of elements. Non-list fields and values of the wrong
// type are ignored.
type AppendUpdate struct {
	Field Field
	Value any
}

// OverrideUpdate replaces a field with Value. Values of the wrong type are
// ignored. CurrentRound only moves forward, IsComplete only moves from
// false to true, and the append-only logs cannot be overridden.
type OverrideUpdate struct {
	Field Field
	Value any
}

// Reduce applies updates to s in order and returns s.
func Reduce(s *AgentState, updates ...Update) *AgentState {
	for _, u := range updates {
		if u != nil {
			u.apply(s)
		}
	}
	return s
}

func (u AppendUpdate) apply(s *AgentState) {
	switch u.Field {
	case FieldMessages:
		switch v := u.Value.(type) {
		case *schema.Message:
			s.AddMessage(v)
		case []*schema.Message:
			s.AddMessage(v...)
		}
	case FieldNotes:
		switch v := u.Value.(type) {
		case types.ResearchNote:
			s.AddNote(v)
		case []types.ResearchNote:
			for _, n := range v {
				s.AddNote(n)
			}
		}
	case FieldRawNotes:
		switch v := u.Value.(type) {
		case types.RawNote:
			s.AddRawNote(v)
		case []types.RawNote:
			for _, r := range v {
				s.AddRawNote(r)
			}
		}
	case FieldThinkingHistory:
		switch v := u.Value.(type) {
		case types.Thought:
			s.ThinkingHistory = append(s.ThinkingHistory, v)
		case []types.Thought:
			s.ThinkingHistory = append(s.ThinkingHistory, v...)
		}
	}
}

func (u OverrideUpdate) apply(s *AgentState) {
	switch u.Field {
	case FieldQuery:
		if v, ok := u.Value.(string); ok {
			s.Query = v
		}
	case FieldResearchBrief:
		if v, ok := u.Value.(string); ok {
			s.ResearchBrief = v
		}
	case FieldMessages:
		if v, ok := u.Value.([]*schema.Message); ok {
			s.Messages = v
		}
	case FieldCurrentRound:
		if v, ok := u.Value.(int); ok {
			s.advanceRound(v)
		}
	case FieldMaxRounds:
		if v, ok := u.Value.(int); ok {
			s.MaxRounds = v
		}
	case FieldIsComplete:
		if v, ok := u.Value.(bool); ok && v {
			s.IsComplete = true
		}
	case FieldCompletionReason:
		if v, ok := u.Value.(string); ok {
			s.CompletionReason = v
		}
	case FieldMetadata:
		if v, ok := u.Value.(map[string]any); ok {
			s.Metadata = v
		}
	}
}
