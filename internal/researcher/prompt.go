// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package researcher

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pdiddy/research-agent/pkg/types"
)

// compressPromptTmpl asks the model to select relevant papers and
// summarize what they support, answering in JSON.
var compressPromptTmpl = template.Must(template.New("compress").Parse(`You are a rigorous academic research assistant. Your job is to:
1. Select only the papers that are directly relevant to the research topic
2. Summarize the findings those papers support

## Research topic
{{.Topic}}

## Search keywords
{{.Keywords}}

## Focus points
{{.Focus}}

## Papers found
{{.Papers}}

## Output
Respond with a JSON object and nothing else:
{"findings": "synthesis of the relevant papers (100-200 words, grounded in specific results)",
 "key_points": ["specific finding 1", "specific finding 2", "specific finding 3"],
 "relevant_papers": [{"title": "full paper title", "year": 2020, "relevance_score": 5, "key_contribution": "core contribution in under 20 words"}],
 "gaps": "open questions or directions worth exploring (optional)"}

## Relevance score
- 5: a core paper on the question itself (must include)
- 4: an important paper on one aspect of the question (should include)
- 3: background only (low priority)
- 1-2: indirectly related, do not include

## Selection rules
1. Include only papers with relevance_score >= 4.
2. Balance recent and established work: ARXIV papers show recent progress, OPENALEX papers show the established literature.
3. Do not rank by citations alone; a recent paper with few citations may be the most relevant.
4. If no paper is highly relevant, say so honestly.
`))

// promptAbstractLen bounds each abstract in the compression prompt.
const promptAbstractLen = 400

func renderCompressPrompt(task types.ResearchTask, papers []types.PaperRecord) (string, error) {
	focus := "none"
	if len(task.FocusPoints) > 0 {
		focus = strings.Join(task.FocusPoints, ", ")
	}
	data := struct {
		Topic, Keywords, Focus, Papers string
	}{
		Topic:    task.Topic,
		Keywords: strings.Join(task.SearchKeywords, ", "),
		Focus:    focus,
		Papers:   formatPapers(papers),
	}

	var buf bytes.Buffer
	if err := compressPromptTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatPapers numbers papers for the prompt:
//
//	[1] [ARXIV] Title
//	    Year: 2017, citations: 0
//	    Abstract: ...
func formatPapers(papers []types.PaperRecord) string {
	if len(papers) == 0 {
		return "(no search results)"
	}
	lines := make([]string, len(papers))
	for i, p := range papers {
		abstract := "(no abstract)"
		if p.Abstract != "" {
			abstract = truncate(p.Abstract, promptAbstractLen)
		}
		lines[i] = fmt.Sprintf("[%d] [%s] %s\n    Year: %s, citations: %d\n    Abstract: %s...",
			i+1, strings.ToUpper(p.Source), p.Title, types.YearString(p.Year), p.CitationCount, abstract)
	}
	return strings.Join(lines, "\n\n")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
