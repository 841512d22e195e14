// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package supervisor

import (
	"encoding/json"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/pdiddy/research-agent/pkg/types"
)

// Tool names the supervisor accepts.
const (
	ToolThink            = "think"
	ToolConductResearch  = "conduct_research"
	ToolResearchComplete = "research_complete"
)

// ToolCall is one decision emitted by the model. The concrete types are
// Think, ConductResearch, and ResearchComplete.
type ToolCall interface {
	toolName() string
}

// Think records a reflection. It never ends the loop.
type Think struct {
	Thought string
}

// ConductResearch dispatches one task to the researcher.
type ConductResearch struct {
	Task types.ResearchTask
}

// ResearchComplete ends the run.
type ResearchComplete struct {
	Reason  string
	Summary string
}

func (Think) toolName() string            { return ToolThink }
func (ConductResearch) toolName() string  { return ToolConductResearch }
func (ResearchComplete) toolName() string { return ToolResearchComplete }

type thinkArgs struct {
	Thought string `json:"thought"`
}

type conductResearchArgs struct {
	Topic          string   `json:"topic"`
	SearchKeywords []string `json:"search_keywords"`
	Strategy       string   `json:"strategy"`
	FocusPoints    []string `json:"focus_points"`
}

type researchCompleteArgs struct {
	Reason  string `json:"reason"`
	Summary string `json:"summary"`
}

// ParseToolCall decodes a tool call by name. Missing fields take defaults
// (empty strings, broad strategy). Malformed arguments are treated as an
// empty object. It reports false for names outside the three tools.
func ParseToolCall(name, arguments string) (ToolCall, bool) {
	switch name {
	case ToolThink:
		var a thinkArgs
		decodeArgs(arguments, &a)
		return Think{Thought: a.Thought}, true
	case ToolConductResearch:
		var a conductResearchArgs
		decodeArgs(arguments, &a)
		return ConductResearch{
			Task: types.NewResearchTask(a.Topic, a.SearchKeywords, types.ParseStrategy(a.Strategy), a.FocusPoints),
		}, true
	case ToolResearchComplete:
		var a researchCompleteArgs
		decodeArgs(arguments, &a)
		return ResearchComplete{Reason: a.Reason, Summary: a.Summary}, true
	default:
		return nil, false
	}
}

func decodeArgs(arguments string, v any) {
	if strings.TrimSpace(arguments) == "" {
		return
	}
	// Partially decoded fields are kept; the rest stay zero.
	_ = json.Unmarshal([]byte(arguments), v)
}

// Tools returns the schemas offered to the model on every decision call.
func Tools() []*schema.ToolInfo {
	return []*schema.ToolInfo{
		{
			Name: ToolThink,
			Desc: "Reflect on progress and plan next steps. Use it to analyze the question, evaluate results so far, and decide what to search next.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"thought": {
					Type:     schema.String,
					Desc:     "Your analysis: what has been found, what is missing, what to do next.",
					Required: true,
				},
			}),
		},
		{
			Name: ToolConductResearch,
			Desc: "Search academic papers on a specific topic and return compressed findings.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"topic": {
					Type:     schema.String,
					Desc:     "A specific research topic or question.",
					Required: true,
				},
				"search_keywords": {
					Type:     schema.Array,
					ElemInfo: &schema.ParameterInfo{Type: schema.String},
					Desc:     "One to four English search keywords using standard academic terms.",
					Required: true,
				},
				"strategy": {
					Type: schema.String,
					Desc: "broad for wide coverage, focused for a narrow question, comparison for contrasting approaches.",
					Enum: []string{string(types.StrategyBroad), string(types.StrategyFocused), string(types.StrategyComparison)},
				},
				"focus_points": {
					Type:     schema.Array,
					ElemInfo: &schema.ParameterInfo{Type: schema.String},
					Desc:     "Aspects the compressed findings should emphasize.",
				},
			}),
		},
		{
			Name: ToolResearchComplete,
			Desc: "Finish the research when the findings are sufficient to answer the question.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"reason": {
					Type:     schema.String,
					Desc:     "Why the research is sufficient.",
					Required: true,
				},
				"summary": {
					Type: schema.String,
					Desc: "A short summary of the main findings.",
				},
			}),
		},
	}
}
