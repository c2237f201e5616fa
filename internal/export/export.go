// Package export renders a doctree.Document as Markdown, HTML or DOCX.
// Markdown and DOCX output use the same page/frame heading layout the
// loader package reads, so exported documents can be loaded back.
package export

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"strings"

	"github.com/dgallion1/docscaffold/internal/doctree"
	"github.com/yuin/goldmark"
)

// Format names an export format.
type Format string

const (
	FormatMarkdown Format = "md"
	FormatHTML     Format = "html"
	FormatDOCX     Format = "docx"
)

// ParseFormat accepts a format name or file extension, e.g. "markdown" or ".docx".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "", "md", "markdown":
		return FormatMarkdown, nil
	case "html", "htm":
		return FormatHTML, nil
	case "docx":
		return FormatDOCX, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "text/markdown; charset=utf-8"
	}
}

// Write renders doc in format f to w.
func Write(w io.Writer, doc *doctree.Document, f Format) error {
	switch f {
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(doc))
		return err
	case FormatHTML:
		out, err := HTML(doc)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	case FormatDOCX:
		return DOCX(w, doc)
	}
	return fmt.Errorf("unsupported export format: %q", f)
}

// Markdown renders each page as a level-1 heading and each frame as a
// level-2 heading. Text nodes and frame text become paragraphs.
func Markdown(doc *doctree.Document) string {
	var b strings.Builder
	for i, p := range doc.Pages {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "# %s\n", oneLine(p.Name))
		for _, n := range p.Children {
			switch n.Kind {
			case doctree.KindText:
				writeParagraph(&b, n.Text)
			default:
				fmt.Fprintf(&b, "\n## %s\n", oneLine(n.Name))
				writeParagraph(&b, n.Text)
			}
		}
	}
	return b.String()
}

func writeParagraph(b *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(text)
	b.WriteString("\n")
}

// oneLine keeps a name on its heading line.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// HTML renders the Markdown export through goldmark inside a minimal page.
func HTML(doc *doctree.Document) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(doc)), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var out bytes.Buffer
	out.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&out, "<title>%s</title>\n", html.EscapeString(doc.Title))
	out.WriteString("</head>\n<body>\n")
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}
