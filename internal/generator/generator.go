// Package generator materializes a parsed command into a host document tree.
package generator

import (
	"fmt"
	"log/slog"

	"github.com/dgallion1/docscaffold/internal/command"
	"github.com/dgallion1/docscaffold/internal/doctree"
)

// Frame canvas applied to every generated frame.
const (
	DefaultFrameWidth  = 800
	DefaultFrameHeight = 600
)

// Result summarizes one Generate call.
type Result struct {
	Active        *doctree.Page
	PagesCreated  int
	PagesReused   int
	FramesCreated int
}

// Generator performs additive create-or-reuse operations against a tree.
// It assumes a validated command.Config and does no business validation of
// its own; any error comes from the tree and is returned as-is.
type Generator struct {
	tree   doctree.Tree
	log    *slog.Logger
	width  float64
	height float64
}

// Option configures a Generator.
type Option func(*Generator)

// WithFrameSize overrides the 800x600 frame canvas.
func WithFrameSize(width, height float64) Option {
	return func(g *Generator) {
		if width > 0 && height > 0 {
			g.width, g.height = width, height
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(log *slog.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

func New(tree doctree.Tree, opts ...Option) *Generator {
	g := &Generator{
		tree:   tree,
		log:    slog.Default(),
		width:  DefaultFrameWidth,
		height: DefaultFrameHeight,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate walks cfg in input order. The page of the first page name or
// spec becomes Result.Active, whether it was created or reused.
func (g *Generator) Generate(cfg command.Config) (Result, error) {
	run := &run{gen: g}
	if err := cfg.Accept(run); err != nil {
		return run.res, err
	}
	return run.res, nil
}

// FrameName formats the i-th global layer name, e.g. "Layer 07".
func FrameName(prefix string, i int) string {
	return fmt.Sprintf("%s %02d", prefix, i)
}

// CreateOrGetPage returns the first top-level page named exactly name,
// creating and appending one if none exists. Existing content is untouched.
func (g *Generator) CreateOrGetPage(name string) (*doctree.Page, bool, error) {
	return doctree.FindOrCreatePage(g.tree, name)
}

// CreateFrame inserts a new named frame as the page's first child.
func (g *Generator) CreateFrame(page *doctree.Page, name string) (*doctree.Node, error) {
	f, err := g.tree.CreateFrame()
	if err != nil {
		return nil, fmt.Errorf("create frame %q: %w", name, err)
	}
	f.Name = name
	f.Resize(g.width, g.height)
	if err := g.tree.InsertChild(page, 0, f); err != nil {
		return nil, err
	}
	return f, nil
}

// run is the per-call visitor; it owns the Result being built.
type run struct {
	gen *Generator
	res Result
}

func (r *run) page(name string) (*doctree.Page, error) {
	p, created, err := r.gen.CreateOrGetPage(name)
	if err != nil {
		return nil, err
	}
	if created {
		r.res.PagesCreated++
	} else {
		r.res.PagesReused++
	}
	if r.res.Active == nil {
		r.res.Active = p
	}
	return p, nil
}

func (r *run) frame(p *doctree.Page, name string) error {
	if _, err := r.gen.CreateFrame(p, name); err != nil {
		return err
	}
	r.res.FramesCreated++
	return nil
}

// Frames are inserted at index 0, so each list is created last-first to
// leave it in ascending order top to bottom.

func (r *run) VisitGlobal(cfg command.Global) error {
	for _, name := range cfg.Pages {
		p, err := r.page(name)
		if err != nil {
			return err
		}
		for i := cfg.Layers; i >= 1; i-- {
			if err := r.frame(p, FrameName(cfg.LayerPrefix, i)); err != nil {
				return err
			}
		}
		r.gen.log.Debug("generated page", "page", name, "frames", cfg.Layers)
	}
	return nil
}

func (r *run) VisitPageSpecific(cfg command.PageSpecific) error {
	for _, spec := range cfg.Pages {
		p, err := r.page(spec.Name)
		if err != nil {
			return err
		}
		for i := len(spec.Layers) - 1; i >= 0; i-- {
			if err := r.frame(p, spec.Layers[i]); err != nil {
				return err
			}
		}
		r.gen.log.Debug("generated page", "page", spec.Name, "frames", len(spec.Layers))
	}
	return nil
}
