// Package loader reads outline documents in several file formats into a
// doctree.Document and merges them into a host tree.
//
// Every format maps onto the same two levels: a top-level section becomes a
// page and a second-level section becomes a frame on that page. Body text
// under a frame is kept as the frame's text; body text directly under a page
// becomes a text node.
package loader

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docscaffold/internal/doctree"
)

// Loader converts raw document bytes into a Document.
type Loader interface {
	Load(r io.Reader, filename string) (*doctree.Document, error)
}

// SupportedExtensions lists file extensions this service can load. Any of
// them may also carry a trailing ".xz".
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".csv":      true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".xml":      true,
}

// Option configures the loaders returned by ForFile and LoadFile.
type Option func(*options)

type options struct {
	pdfFallback bool
}

// WithPDFFallback lets the PDF loader retry with the pdftotext binary when
// the Go reader cannot parse a file.
func WithPDFFallback(enabled bool) Option {
	return func(o *options) {
		o.pdfFallback = enabled
	}
}

// ForFile returns the appropriate loader for a filename.
func ForFile(filename string, opts ...Option) (Loader, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xz":
		inner, err := ForFile(strings.TrimSuffix(filename, filepath.Ext(filename)), opts...)
		if err != nil {
			return nil, err
		}
		return &XZLoader{Inner: inner}, nil
	case ".txt":
		return &TextLoader{}, nil
	case ".md", ".markdown":
		return &MarkdownLoader{}, nil
	case ".csv":
		return &CSVLoader{}, nil
	case ".html", ".htm":
		return &HTMLLoader{}, nil
	case ".pdf":
		return &PDFLoader{FallbackPdftotext: o.pdfFallback}, nil
	case ".docx":
		return &DOCXLoader{}, nil
	case ".xml":
		return &XMLLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".xz" {
		return IsSupportedExtension(strings.TrimSuffix(filename, filepath.Ext(filename)))
	}
	return SupportedExtensions[ext]
}

// stem returns the base filename without its format and compression
// extensions, for use as a document title.
func stem(filename string) string {
	name := filepath.Base(filename)
	if strings.EqualFold(filepath.Ext(name), ".xz") {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// builder assembles a two-level Document as sections are encountered.
type builder struct {
	doc   *doctree.Document
	page  *doctree.Page
	frame *doctree.Node
}

func newBuilder(title string) *builder {
	return &builder{doc: &doctree.Document{Title: title, Pages: []*doctree.Page{}}}
}

func (b *builder) startPage(name string) {
	b.page = doctree.NewPage()
	b.page.Name = name
	b.page.Children = []*doctree.Node{}
	b.doc.Pages = append(b.doc.Pages, b.page)
	b.frame = nil
}

// ensurePage opens a page named after the document when content appears
// before the first page heading.
func (b *builder) ensurePage() {
	if b.page == nil {
		b.startPage(b.doc.Title)
	}
}

func (b *builder) startFrame(name string) *doctree.Node {
	b.ensurePage()
	b.frame = doctree.NewFrame()
	b.frame.Name = name
	b.page.Children = append(b.page.Children, b.frame)
	return b.frame
}

func (b *builder) addText(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if b.frame != nil {
		if b.frame.Text != "" {
			b.frame.Text += "\n\n" + text
		} else {
			b.frame.Text = text
		}
		return
	}
	b.ensurePage()
	b.page.Children = append(b.page.Children, doctree.NewText(text))
}

// MergeResult counts what Merge changed.
type MergeResult struct {
	PagesCreated int `json:"pages_created"`
	PagesReused  int `json:"pages_reused"`
	NodesAdded   int `json:"nodes_added"`
}

// Merge applies doc to tree additively. Pages are matched by exact name and
// created when missing; every child is appended after the page's existing
// children, in document order. Nothing already in tree is changed.
func Merge(tree doctree.Tree, doc *doctree.Document) (MergeResult, error) {
	var res MergeResult
	for _, src := range doc.Pages {
		page, created, err := doctree.FindOrCreatePage(tree, src.Name)
		if err != nil {
			return res, err
		}
		if created {
			res.PagesCreated++
		} else {
			res.PagesReused++
		}

		for _, child := range src.Children {
			n, err := newNodeFor(tree, child)
			if err != nil {
				return res, err
			}
			if err := tree.InsertChild(page, len(page.Children), n); err != nil {
				return res, err
			}
			res.NodesAdded++
		}
	}
	return res, nil
}

func newNodeFor(tree doctree.Tree, src *doctree.Node) (*doctree.Node, error) {
	if src.Kind == doctree.KindText {
		n := doctree.NewText(src.Text)
		n.Name = src.Name
		return n, nil
	}
	n, err := tree.CreateFrame()
	if err != nil {
		return nil, fmt.Errorf("create frame %q: %w", src.Name, err)
	}
	n.Name = src.Name
	n.Text = src.Text
	if src.Width > 0 && src.Height > 0 {
		n.Resize(src.Width, src.Height)
	}
	return n, nil
}

// LoadFile opens path and loads it with the loader for its extension.
func LoadFile(path string, opts ...Option) (*doctree.Document, error) {
	l, err := ForFile(path, opts...)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := l.Load(f, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}
