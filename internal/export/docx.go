package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docscaffold/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCX writes doc as a Word document: Heading1 per page, Heading2 per
// frame, and normal paragraphs for text.
func DOCX(w io.Writer, doc *doctree.Document) error {
	d := docx.New().WithDefaultTheme().WithA4Page()
	for _, p := range doc.Pages {
		d.AddParagraph().Style("Heading1").AddText(p.Name)
		for _, n := range p.Children {
			if n.Kind != doctree.KindText {
				d.AddParagraph().Style("Heading2").AddText(n.Name)
			}
			for _, para := range strings.Split(strings.TrimSpace(n.Text), "\n\n") {
				if para = strings.TrimSpace(para); para != "" {
					d.AddParagraph().AddText(para)
				}
			}
		}
	}
	if _, err := d.WriteTo(w); err != nil {
		return fmt.Errorf("write docx: %w", err)
	}
	return nil
}
