// Package command parses outline commands into a typed configuration.
//
// Two grammars are accepted. The global grammar applies one layer count and
// prefix to every listed page:
//
//	pages: Home, About
//	layers: 3
//	layerPrefix: Section
//
// The page-specific grammar gives every page its own ordered layer list:
//
//	Home -> Hero, Features, Footer
//	About -> Team
//
// Input containing "->" anywhere is page-specific; anything else is global.
package command

// Mode names the grammar a command was written in.
type Mode string

const (
	ModeGlobal       Mode = "GLOBAL"
	ModePageSpecific Mode = "PAGE_SPECIFIC"
)

// DefaultLayerPrefix is used when a global command has no layerPrefix key.
const DefaultLayerPrefix = "Layer"

// Config is the parsed form of a command. It is either a Global or a
// PageSpecific value; callers handle both through a Visitor.
type Config interface {
	Mode() Mode
	Accept(v Visitor) error
	sealed()
}

// Visitor has one method per Config variant, so a new variant fails to
// compile until every visitor handles it.
type Visitor interface {
	VisitGlobal(g Global) error
	VisitPageSpecific(p PageSpecific) error
}

// Global applies Layers frames named "{LayerPrefix} NN" to every page.
type Global struct {
	Pages       []string `json:"pages"`
	Layers      int      `json:"layers"`
	LayerPrefix string   `json:"layer_prefix"`
}

func (Global) Mode() Mode               { return ModeGlobal }
func (g Global) Accept(v Visitor) error { return v.VisitGlobal(g) }
func (Global) sealed()                  {}

// PageSpec is one "Page -> A, B, C" line.
type PageSpec struct {
	Name   string   `json:"name"`
	Layers []string `json:"layers"`
}

// PageSpecific lists pages with explicit layer names, in input order.
// Repeated page names stay separate entries.
type PageSpecific struct {
	Pages []PageSpec `json:"pages"`
}

func (PageSpecific) Mode() Mode               { return ModePageSpecific }
func (p PageSpecific) Accept(v Visitor) error { return v.VisitPageSpecific(p) }
func (PageSpecific) sealed()                  {}
