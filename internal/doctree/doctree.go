package doctree

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies what a page child represents.
type Kind string

const (
	KindFrame Kind = "frame"
	KindText  Kind = "text"
)

var (
	ErrPageNotFound    = errors.New("page not found")
	ErrAlreadyAttached = errors.New("node already attached")
	ErrIndexOutOfRange = errors.New("child index out of range")
	ErrLimitExceeded   = errors.New("document limit exceeded")
)

// Document is a point-in-time copy of a host document.
type Document struct {
	Title        string  `json:"title"`
	Pages        []*Page `json:"pages"`
	ActivePageID string  `json:"active_page_id,omitempty"`
}

// Page is a top-level named container.
type Page struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Children []*Node `json:"children"`
}

// Node is a child of a page. Frames carry a size; text nodes carry text.
type Node struct {
	ID     string  `json:"id"`
	Kind   Kind    `json:"kind"`
	Name   string  `json:"name"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Text   string  `json:"text,omitempty"`
}

// Tree is the set of host document operations the generator depends on.
// Pages and nodes returned by CreatePage and CreateFrame are unattached
// until AppendPage or InsertChild is called.
type Tree interface {
	Pages() ([]*Page, error)
	CreatePage() (*Page, error)
	AppendPage(p *Page) error
	CreateFrame() (*Node, error)
	InsertChild(p *Page, index int, n *Node) error
	SetActivePage(p *Page) error
}

// Store is a Tree that can also produce a snapshot of its contents.
type Store interface {
	Tree
	Snapshot() (*Document, error)
}

// Host default size for a freshly created frame, before any resize.
const (
	DefaultFrameWidth  = 100
	DefaultFrameHeight = 100
)

// NewPage returns an unattached page with a fresh ID.
func NewPage() *Page {
	return &Page{ID: uuid.NewString()}
}

// NewFrame returns an unattached frame with a fresh ID and the host default size.
func NewFrame() *Node {
	return &Node{
		ID:     uuid.NewString(),
		Kind:   KindFrame,
		Width:  DefaultFrameWidth,
		Height: DefaultFrameHeight,
	}
}

// NewText returns an unattached text node.
func NewText(text string) *Node {
	return &Node{ID: uuid.NewString(), Kind: KindText, Text: text}
}

// Resize sets the node's dimensions.
func (n *Node) Resize(width, height float64) {
	n.Width = width
	n.Height = height
}

// ChildNames returns the names of the page's children, top to bottom.
func (p *Page) ChildNames() []string {
	names := make([]string, 0, len(p.Children))
	for _, c := range p.Children {
		names = append(names, c.Name)
	}
	return names
}

// FindPage returns the first page with exactly the given name.
func (d *Document) FindPage(name string) *Page {
	for _, p := range d.Pages {
		if p.Name == name {
			return p
		}
	}
	return nil
}

// FindOrCreatePage returns the first top-level page of tree named exactly
// name, creating and appending one if none exists. The bool reports whether
// the page was created. Existing content is untouched.
func FindOrCreatePage(tree Tree, name string) (*Page, bool, error) {
	pages, err := tree.Pages()
	if err != nil {
		return nil, false, fmt.Errorf("list pages: %w", err)
	}
	for _, p := range pages {
		if p.Name == name {
			return p, false, nil
		}
	}

	p, err := tree.CreatePage()
	if err != nil {
		return nil, false, fmt.Errorf("create page %q: %w", name, err)
	}
	p.Name = name
	if err := tree.AppendPage(p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func (p *Page) clone() *Page {
	cp := &Page{ID: p.ID, Name: p.Name, Children: make([]*Node, 0, len(p.Children))}
	for _, c := range p.Children {
		n := *c
		cp.Children = append(cp.Children, &n)
	}
	return cp
}
