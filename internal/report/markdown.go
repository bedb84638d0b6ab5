package report

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
)

// notes renders CommonMark without the unsafe option, so raw HTML in a
// note is dropped instead of passed through.
var notes = goldmark.New()

// NoteHTML renders a justification note as HTML. A single paragraph is
// unwrapped so the note sits inline in a table cell.
func NoteHTML(note string) template.HTML {
	note = strings.TrimSpace(note)
	if note == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := notes.Convert([]byte(note), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(note))
	}
	out := strings.TrimSpace(buf.String())
	if strings.HasPrefix(out, "<p>") && strings.HasSuffix(out, "</p>") && strings.Count(out, "<p>") == 1 {
		out = strings.TrimSuffix(strings.TrimPrefix(out, "<p>"), "</p>")
	}
	return template.HTML(out)
}
