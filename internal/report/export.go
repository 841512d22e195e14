// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/pdiddy/research-agent/internal/search"
	"github.com/pdiddy/research-agent/pkg/types"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { max-width: 48rem; margin: 2rem auto; font-family: system-ui, sans-serif; line-height: 1.6; padding: 0 1rem; }
code, pre { background: #f4f4f4; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

// HTML renders a Markdown report as a standalone HTML page.
func HTML(title, markdown string, w io.Writer) error {
	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return fmt.Errorf("converting markdown: %w", err)
	}
	return pageTmpl.Execute(w, map[string]any{
		"Title": title,
		"Body":  template.HTML(body.String()), //nolint: gosec
	})
}

// CSL writes the sources as a CSL-YAML bibliography, numbered like the
// report references.
func CSL(sources []types.SourceRecord, w io.Writer) error {
	papers := make([]types.PaperRecord, len(sources))
	for i, s := range sources {
		papers[i] = s.PaperRecord
	}
	return search.FormatCSL(papers, w)
}

// BibTeX renders the sources as BibTeX entries. Keys are the first
// author's family name plus the year, with a letter suffix on collisions.
func BibTeX(sources []types.SourceRecord) string {
	var b strings.Builder
	used := make(map[string]int)
	for _, s := range sources {
		key := citationKey(s.PaperRecord)
		used[key]++
		if n := used[key]; n > 1 {
			key += string(rune('a' + n - 2))
		}

		kind := "article"
		if s.ArxivID != "" {
			kind = "misc"
		}
		fmt.Fprintf(&b, "@%s{%s,\n", kind, key)
		fmt.Fprintf(&b, "  title = {%s},\n", s.Title)
		if len(s.Authors) > 0 {
			fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(s.Authors, " and "))
		}
		if s.Year > 0 {
			fmt.Fprintf(&b, "  year = {%d},\n", s.Year)
		}
		if s.ArxivID != "" {
			fmt.Fprintf(&b, "  eprint = {%s},\n  archivePrefix = {arXiv},\n", s.ArxivID)
		}
		if s.URL != "" {
			fmt.Fprintf(&b, "  url = {%s},\n", s.URL)
		}
		b.WriteString("}\n\n")
	}
	return b.String()
}

// citationKey builds "vaswani2017" style keys. Papers without authors use
// the first title word.
func citationKey(p types.PaperRecord) string {
	base := ""
	if len(p.Authors) > 0 {
		fields := strings.Fields(p.Authors[0])
		if len(fields) > 0 {
			base = fields[len(fields)-1]
		}
	}
	if base == "" {
		if fields := strings.Fields(p.Title); len(fields) > 0 {
			base = fields[0]
		}
	}
	key := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) && r < unicode.MaxASCII {
			return unicode.ToLower(r)
		}
		return -1
	}, base)
	if key == "" {
		key = "ref"
	}
	if p.Year > 0 {
		key += fmt.Sprintf("%d", p.Year)
	} else {
		key += "nd"
	}
	return key
}
