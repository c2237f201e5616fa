package loader

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/dgallion1/docscaffold/internal/doctree"
)

// XMLLoader reads the native outline format:
//
//	<document title="Site">
//	  <page name="Home">
//	    <text>Landing page</text>
//	    <frame name="Hero" width="800" height="600">Headline</frame>
//	  </page>
//	</document>
type XMLLoader struct{}

func (l *XMLLoader) Load(r io.Reader, filename string) (*doctree.Document, error) {
	root, err := xmlquery.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}

	title := stem(filename)
	if d := xmlquery.FindOne(root, "/document"); d != nil {
		if t := d.SelectAttr("title"); t != "" {
			title = t
		}
	}
	b := newBuilder(title)

	for _, pn := range xmlquery.Find(root, "//page") {
		b.startPage(strings.TrimSpace(pn.SelectAttr("name")))
		for c := pn.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != xmlquery.ElementNode {
				continue
			}
			switch c.Data {
			case "frame":
				f := b.startFrame(strings.TrimSpace(c.SelectAttr("name")))
				f.Text = strings.TrimSpace(c.InnerText())
				w, h, err := xmlSize(c)
				if err != nil {
					return nil, fmt.Errorf("page %q frame %q: %w", b.page.Name, f.Name, err)
				}
				if w > 0 && h > 0 {
					f.Resize(w, h)
				}
			case "text":
				// Text nodes sit directly on the page, not inside the last frame.
				b.frame = nil
				b.addText(c.InnerText())
			}
		}
	}
	return b.doc, nil
}

func xmlSize(n *xmlquery.Node) (float64, float64, error) {
	var dims [2]float64
	for i, attr := range []string{"width", "height"} {
		v := n.SelectAttr(attr)
		if v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return 0, 0, fmt.Errorf("invalid %s %q", attr, v)
		}
		dims[i] = f
	}
	return dims[0], dims[1], nil
}
