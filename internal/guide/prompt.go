// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package guide

import (
	"fmt"
	"strings"

	"github.com/pdiddy/research-agent/pkg/types"
)

const systemPrompt = `You are an academic reading advisor. Given a research question and a numbered list of papers, recommend a reading order and group the papers by theme.

Sources:
- [ARXIV]: recent preprints
- [OPENALEX]: highly cited published work

Reply with JSON only:
{
  "summary": "one or two sentences on what the papers cover",
  "entry_point": {"index": 1, "reason": "why start here, under 15 words"},
  "core_papers": [{"index": 2, "reason": "under 15 words"}],
  "latest": {"index": 3, "reason": "under 15 words"},
  "reading_order": [1, 2, 3],
  "categories": [{"name": "Foundations", "papers": [1, 2], "description": "under 15 words"}]
}

Rules:
- entry_point: the single best introduction, usually a highly cited OPENALEX paper.
- core_papers: the two or three most important papers, from both sources when possible.
- latest: the most notable recent work, preferring ARXIV.
- categories: three to five themes; each paper belongs to exactly one.
- Indexes start at 1.`

func renderPrompt(query string, papers []types.PaperRecord) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	fmt.Fprintf(&b, "\n\nResearch question: %s\n\nPapers:\n", query)
	for i, p := range papers {
		abstract := []rune(p.Abstract)
		if len(abstract) > abstractPreview {
			abstract = abstract[:abstractPreview]
		}
		fmt.Fprintf(&b, "[%d] [%s] %s\n    Year: %s, citations: %d\n    Abstract: %s...\n",
			i+1, strings.ToUpper(p.Source), p.Title, types.YearString(p.Year), p.CitationCount, string(abstract))
	}
	return b.String()
}
