// Package store persists a host document in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/dgallion1/docscaffold/internal/doctree"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS pages (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	position INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	id       TEXT PRIMARY KEY,
	page_id  TEXT NOT NULL REFERENCES pages(id) ON DELETE CASCADE,
	kind     TEXT NOT NULL,
	name     TEXT NOT NULL DEFAULT '',
	width    REAL NOT NULL DEFAULT 0,
	height   REAL NOT NULL DEFAULT 0,
	text     TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS nodes_page_position ON nodes(page_id, position);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

const (
	metaTitle  = "title"
	metaActive = "active_page_id"
)

// SQLite is a doctree.Store backed by a SQLite database.
//
// Page objects handed out by Pages are cached by ID, so the same *Page is
// returned on every call and can be passed back to InsertChild or
// SetActivePage. The cache is kept in sync with every write.
type SQLite struct {
	db *sql.DB

	mu    sync.Mutex
	pages map[string]*doctree.Page
}

// Open opens (creating if needed) the database at path. title is stored
// only when the database has none yet.
func Open(path, title string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases coherent and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO meta(key, value) VALUES (?, ?)`, metaTitle, title); err != nil {
		db.Close()
		return nil, fmt.Errorf("store title: %w", err)
	}
	return &SQLite{db: db, pages: make(map[string]*doctree.Page)}, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Pages() ([]*doctree.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`SELECT id, name FROM pages ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	var out []*doctree.Page
	var missing []*doctree.Page
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p, ok := s.pages[id]
		if !ok {
			p = &doctree.Page{ID: id, Name: name}
			s.pages[id] = p
			missing = append(missing, p)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, p := range missing {
		children, err := s.loadChildren(p.ID)
		if err != nil {
			delete(s.pages, p.ID)
			return nil, err
		}
		p.Children = children
	}
	return out, nil
}

func (s *SQLite) CreatePage() (*doctree.Page, error) {
	return doctree.NewPage(), nil
}

func (s *SQLite) AppendPage(p *doctree.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	attached, err := s.exists(`SELECT 1 FROM pages WHERE id = ?`, p.ID)
	if err != nil {
		return err
	}
	if attached {
		return fmt.Errorf("append page %q: %w", p.Name, doctree.ErrAlreadyAttached)
	}
	_, err = s.db.Exec(
		`INSERT INTO pages(id, name, position) VALUES (?, ?, (SELECT COALESCE(MAX(position) + 1, 0) FROM pages))`,
		p.ID, p.Name,
	)
	if err != nil {
		return fmt.Errorf("append page %q: %w", p.Name, err)
	}
	s.pages[p.ID] = p
	return nil
}

func (s *SQLite) CreateFrame() (*doctree.Node, error) {
	return doctree.NewFrame(), nil
}

func (s *SQLite) InsertChild(p *doctree.Page, index int, n *doctree.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pages[p.ID] != p {
		return fmt.Errorf("insert into %q: %w", p.Name, doctree.ErrPageNotFound)
	}
	attached, err := s.exists(`SELECT 1 FROM nodes WHERE id = ?`, n.ID)
	if err != nil {
		return err
	}
	if attached {
		return fmt.Errorf("insert %q: %w", n.Name, doctree.ErrAlreadyAttached)
	}
	if index < 0 || index > len(p.Children) {
		return fmt.Errorf("insert %q at %d: %w", n.Name, index, doctree.ErrIndexOutOfRange)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE nodes SET position = position + 1 WHERE page_id = ? AND position >= ?`, p.ID, index); err != nil {
		return fmt.Errorf("shift children of %q: %w", p.Name, err)
	}
	_, err = tx.Exec(
		`INSERT INTO nodes(id, page_id, kind, name, width, height, text, position) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, p.ID, string(n.Kind), n.Name, n.Width, n.Height, n.Text, index,
	)
	if err != nil {
		return fmt.Errorf("insert %q into %q: %w", n.Name, p.Name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	p.Children = append(p.Children, nil)
	copy(p.Children[index+1:], p.Children[index:])
	p.Children[index] = n
	return nil
}

func (s *SQLite) SetActivePage(p *doctree.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pages[p.ID] != p {
		return fmt.Errorf("activate %q: %w", p.Name, doctree.ErrPageNotFound)
	}
	_, err := s.db.Exec(
		`INSERT INTO meta(key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		metaActive, p.ID,
	)
	if err != nil {
		return fmt.Errorf("activate %q: %w", p.Name, err)
	}
	return nil
}

// Snapshot reads the whole document from the database.
func (s *SQLite) Snapshot() (*doctree.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := &doctree.Document{Pages: []*doctree.Page{}}
	title, err := s.meta(metaTitle)
	if err != nil {
		return nil, err
	}
	doc.Title = title
	if doc.ActivePageID, err = s.meta(metaActive); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`SELECT id, name FROM pages ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query pages: %w", err)
	}
	for rows.Next() {
		p := &doctree.Page{}
		if err := rows.Scan(&p.ID, &p.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan page: %w", err)
		}
		doc.Pages = append(doc.Pages, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for _, p := range doc.Pages {
		if p.Children, err = s.loadChildren(p.ID); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func (s *SQLite) loadChildren(pageID string) ([]*doctree.Node, error) {
	rows, err := s.db.Query(
		`SELECT id, kind, name, width, height, text FROM nodes WHERE page_id = ? ORDER BY position`,
		pageID,
	)
	if err != nil {
		return nil, fmt.Errorf("query children of %s: %w", pageID, err)
	}
	defer rows.Close()

	children := []*doctree.Node{}
	for rows.Next() {
		n := &doctree.Node{}
		var kind string
		if err := rows.Scan(&n.ID, &kind, &n.Name, &n.Width, &n.Height, &n.Text); err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		n.Kind = doctree.Kind(kind)
		children = append(children, n)
	}
	return children, rows.Err()
}

func (s *SQLite) exists(query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRow(query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLite) meta(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read meta %s: %w", key, err)
	}
	return value, nil
}

var _ doctree.Store = (*SQLite)(nil)
