package doctree

import (
	"fmt"
	"sync"
)

// Limits caps what a Memory tree accepts. Zero means unlimited.
type Limits struct {
	MaxPages    int
	MaxChildren int
}

// Memory is an in-memory host document.
type Memory struct {
	mu       sync.Mutex
	title    string
	pages    []*Page
	attached map[string]bool
	active   *Page
	limits   Limits
}

func NewMemory(title string, limits Limits) *Memory {
	return &Memory{
		title:    title,
		attached: make(map[string]bool),
		limits:   limits,
	}
}

func (m *Memory) Pages() ([]*Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Page, len(m.pages))
	copy(out, m.pages)
	return out, nil
}

func (m *Memory) CreatePage() (*Page, error) {
	return NewPage(), nil
}

func (m *Memory) AppendPage(p *Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.attached[p.ID] {
		return fmt.Errorf("append page %q: %w", p.Name, ErrAlreadyAttached)
	}
	if m.limits.MaxPages > 0 && len(m.pages) >= m.limits.MaxPages {
		return fmt.Errorf("append page %q: %w (max %d pages)", p.Name, ErrLimitExceeded, m.limits.MaxPages)
	}
	m.pages = append(m.pages, p)
	m.attached[p.ID] = true
	return nil
}

func (m *Memory) CreateFrame() (*Node, error) {
	return NewFrame(), nil
}

func (m *Memory) InsertChild(p *Page, index int, n *Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasPageLocked(p) {
		return fmt.Errorf("insert into %q: %w", p.Name, ErrPageNotFound)
	}
	if m.attached[n.ID] {
		return fmt.Errorf("insert %q: %w", n.Name, ErrAlreadyAttached)
	}
	if index < 0 || index > len(p.Children) {
		return fmt.Errorf("insert %q at %d: %w", n.Name, index, ErrIndexOutOfRange)
	}
	if m.limits.MaxChildren > 0 && len(p.Children) >= m.limits.MaxChildren {
		return fmt.Errorf("insert %q into %q: %w (max %d children)", n.Name, p.Name, ErrLimitExceeded, m.limits.MaxChildren)
	}
	p.Children = append(p.Children, nil)
	copy(p.Children[index+1:], p.Children[index:])
	p.Children[index] = n
	m.attached[n.ID] = true
	return nil
}

func (m *Memory) SetActivePage(p *Page) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasPageLocked(p) {
		return fmt.Errorf("activate %q: %w", p.Name, ErrPageNotFound)
	}
	m.active = p
	return nil
}

// ActivePage returns the current active page, or nil.
func (m *Memory) ActivePage() *Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// Snapshot returns a deep copy of the document.
func (m *Memory) Snapshot() (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc := &Document{Title: m.title, Pages: make([]*Page, 0, len(m.pages))}
	for _, p := range m.pages {
		doc.Pages = append(doc.Pages, p.clone())
	}
	if m.active != nil {
		doc.ActivePageID = m.active.ID
	}
	return doc, nil
}

func (m *Memory) hasPageLocked(p *Page) bool {
	for _, existing := range m.pages {
		if existing == p {
			return true
		}
	}
	return false
}
