// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package supervisor

import (
	"bytes"
	"fmt"
	"text/template"
)

const systemPrompt = `You are a research supervisor coordinating an academic literature review. You decide, one step at a time, how to investigate the user's question.

## Tools
1. think: reflect on what you know, what is missing, and what to search next.
2. conduct_research: search academic papers on one topic and receive compressed findings.
3. research_complete: finish when the findings answer the question.

## How to work
- Start with think to analyze the question and plan research directions.
- Dispatch conduct_research for one direction at a time, then think about the results.
- Prefer standard academic terminology in search keywords; two or three precise keywords beat many vague ones.
- Cover different aspects of the question instead of repeating the same search.
- When new searches stop finding new papers, or the question is answered, call research_complete.

Always respond with a tool call.`

var startPromptTmpl = template.Must(template.New("start").Parse(`## Research task

{{.}}

Begin the research. First use the think tool to analyze the question and plan directions.`))

const (
	nudgeNoTool        = "Please use a tool to continue researching, or call research_complete to finish."
	thinkAck           = "Thought recorded. Please continue with the next step."
	completeAckFormat  = "Research marked complete. Reason: %s"
	llmFailedReason    = "LLM call failed"
	maxRoundsReasonFmt = "reached max rounds (%d)"
)

func renderStartPrompt(brief string) string {
	var buf bytes.Buffer
	if err := startPromptTmpl.Execute(&buf, brief); err != nil {
		return fmt.Sprintf("## Research task\n\n%s", brief)
	}
	return buf.String()
}

// saturationNudge tells the model that the last streak searches added
// little.
func saturationNudge(streak int) string {
	searches := "the last search"
	if streak != 1 {
		searches = fmt.Sprintf("the last %d searches", streak)
	}
	return fmt.Sprintf("Note: %s found no new high-quality papers; information may be saturated. If research is sufficient, call research_complete.", searches)
}
