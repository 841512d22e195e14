// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/research-agent/pkg/types"
)

var reportPromptTmpl = template.Must(template.New("report").Parse(`You are an expert writer of academic research reports. Write a structured report from the research findings below.

## Original query
{{.Query}}

## Research findings
{{.Notes}}

## Sources (use these numbers)
{{.Sources}}

## Report structure

1. **Overview** (100-150 words)
   - Answer the question briefly
   - State the core findings

2. **Main findings**
   - Organize by theme, not by the order of the research
   - Support every finding with evidence
   - Cite with the source numbers above, e.g. [1][2]

3. **Synthesis**
   - Insights across studies
   - A clear conclusion where approaches are compared
   - Points of consensus and disagreement

4. **Limitations and outlook** (optional, under 50 words)

## Format
- Markdown
- Concise and professional
- Never refer to research rounds or iterations
- Citation numbers must match the source list above
- Do not append a reference list; it is added automatically

Output the report directly.
`))

func renderPrompt(query, notesSummary string, sources []types.SourceRecord) (string, error) {
	data := struct {
		Query, Notes, Sources string
	}{
		Query:   query,
		Notes:   notesSummary,
		Sources: formatPromptSources(sources),
	}
	var buf bytes.Buffer
	if err := reportPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatPromptSources numbers sources for the prompt:
//
//	[1] Attention Is All You Need (2017) [ARXIV]
func formatPromptSources(sources []types.SourceRecord) string {
	if len(sources) == 0 {
		return "(no sources)"
	}
	lines := make([]string, len(sources))
	for i, s := range sources {
		lines[i] = fmt.Sprintf("[%d] %s (%s) [%s]", i+1, s.Title, types.YearString(s.Year), strings.ToUpper(s.Source))
	}
	return strings.Join(lines, "\n")
}
