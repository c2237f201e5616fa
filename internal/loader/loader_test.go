package loader

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dgallion1/docscaffold/internal/doctree"
	"github.com/ulikunitz/xz"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     Loader
	}{
		{"a.txt", &TextLoader{}},
		{"a.MD", &MarkdownLoader{}},
		{"a.markdown", &MarkdownLoader{}},
		{"a.csv", &CSVLoader{}},
		{"a.htm", &HTMLLoader{}},
		{"a.html", &HTMLLoader{}},
		{"a.pdf", &PDFLoader{}},
		{"a.docx", &DOCXLoader{}},
		{"a.xml", &XMLLoader{}},
		{"a.md.xz", &XZLoader{Inner: &MarkdownLoader{}}},
	}
	for _, tt := range tests {
		got, err := ForFile(tt.filename)
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.filename, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s: got %T, want %T", tt.filename, got, tt.want)
		}
	}

	for _, name := range []string{"a.exe", "a", "a.xz", "a.exe.xz"} {
		if _, err := ForFile(name); err == nil {
			t.Errorf("%s: expected unsupported extension error", name)
		}
		if IsSupportedExtension(name) {
			t.Errorf("%s: expected unsupported", name)
		}
	}
	if !IsSupportedExtension("Site.CSV.xz") {
		t.Error("expected compressed csv to be supported")
	}
}

func TestCSVLoader(t *testing.T) {
	input := "page,frame,text\nHome,Hero,Headline\nAbout,,\nHome,Footer\n\"Pricing, Plans\",Table\n"
	doc, err := (&CSVLoader{}).Load(strings.NewReader(input), "site.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := pageNames(doc); !reflect.DeepEqual(got, []string{"Home", "About", "Pricing, Plans"}) {
		t.Fatalf("unexpected pages %v", got)
	}
	if got := doc.Pages[0].ChildNames(); !reflect.DeepEqual(got, []string{"Hero", "Footer"}) {
		t.Errorf("expected non-adjacent rows to collect on Home, got %v", got)
	}
	if doc.Pages[0].Children[0].Text != "Headline" {
		t.Errorf("expected frame text from third column, got %q", doc.Pages[0].Children[0].Text)
	}
	if len(doc.Pages[1].Children) != 0 {
		t.Errorf("expected About to have no frames")
	}
}

func TestCSVLoader_EmptyPageName(t *testing.T) {
	_, err := (&CSVLoader{}).Load(strings.NewReader("Home,Hero\n,Orphan\n"), "bad.csv")
	if err == nil || !strings.Contains(err.Error(), "row 2") {
		t.Fatalf("expected row 2 error, got %v", err)
	}
}

func TestXMLLoader(t *testing.T) {
	input := `<?xml version="1.0"?>
<document title="Marketing Site">
  <page name="Home">
    <text>Landing page</text>
    <frame name="Hero" width="1440" height="900">Headline</frame>
    <frame name="Footer"/>
  </page>
  <page name="About"><frame name="Team"/></page>
</document>`

	doc, err := (&XMLLoader{}).Load(strings.NewReader(input), "site.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Marketing Site" {
		t.Errorf("expected title from attribute, got %q", doc.Title)
	}
	if got := pageNames(doc); !reflect.DeepEqual(got, []string{"Home", "About"}) {
		t.Fatalf("unexpected pages %v", got)
	}
	home := doc.Pages[0].Children
	if len(home) != 3 || home[0].Kind != doctree.KindText || home[0].Text != "Landing page" {
		t.Fatalf("unexpected Home children %+v", home)
	}
	hero := home[1]
	if hero.Name != "Hero" || hero.Width != 1440 || hero.Height != 900 || hero.Text != "Headline" {
		t.Errorf("unexpected hero frame %+v", hero)
	}
	if home[2].Width != doctree.DefaultFrameWidth {
		t.Errorf("expected default size for unsized frame, got %v", home[2].Width)
	}
}

func TestXMLLoader_Errors(t *testing.T) {
	if _, err := (&XMLLoader{}).Load(strings.NewReader("<document><page>"), "broken.xml"); err == nil {
		t.Error("expected parse error for truncated xml")
	}
	bad := `<document><page name="A"><frame name="F" width="wide"/></page></document>`
	if _, err := (&XMLLoader{}).Load(strings.NewReader(bad), "bad.xml"); err == nil {
		t.Error("expected error for non-numeric width")
	}
}

func TestHTMLLoader(t *testing.T) {
	input := `<html><head><title>Docs Site</title><style>h1{}</style></head>
<body>
  <nav><h1>Skip me</h1></nav>
  <h1>Guide</h1>
  <p>Welcome.</p>
  <h2>Install</h2>
  <p>Run the installer.</p>
  <h3>Verify</h3>
  <h1>FAQ</h1>
</body></html>`

	doc, err := (&HTMLLoader{}).Load(strings.NewReader(input), "docs.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "Docs Site" {
		t.Errorf("expected <title> to win, got %q", doc.Title)
	}
	if got := pageNames(doc); !reflect.DeepEqual(got, []string{"Guide", "FAQ"}) {
		t.Fatalf("unexpected pages %v", got)
	}
	guide := doc.Pages[0].Children
	if len(guide) != 3 || guide[0].Text != "Welcome." || guide[1].Name != "Install" || guide[2].Name != "Verify" {
		t.Fatalf("unexpected Guide children %+v", guide)
	}
	if guide[1].Text != "Run the installer." {
		t.Errorf("expected frame text, got %q", guide[1].Text)
	}
}

func TestXZLoader(t *testing.T) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.Write([]byte("Home\nHero\n")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	l, err := ForFile("outline.txt.xz")
	if err != nil {
		t.Fatal(err)
	}
	doc, err := l.Load(&buf, "outline.txt.xz")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Title != "outline" || len(doc.Pages) != 1 || doc.Pages[0].Children[0].Name != "Hero" {
		t.Errorf("unexpected document %+v", doc)
	}

	if _, err := l.Load(strings.NewReader("not xz"), "outline.txt.xz"); err == nil {
		t.Error("expected error for invalid xz stream")
	}
}

func TestMerge(t *testing.T) {
	mem := doctree.NewMemory("doc", doctree.Limits{})
	existing := doctree.NewPage()
	existing.Name = "Home"
	if err := mem.AppendPage(existing); err != nil {
		t.Fatal(err)
	}
	nav := doctree.NewFrame()
	nav.Name = "Nav"
	if err := mem.InsertChild(existing, 0, nav); err != nil {
		t.Fatal(err)
	}

	doc, err := (&TextLoader{}).Load(strings.NewReader("Home\nHero\nFooter\n\nAbout\nTeam"), "o.txt")
	if err != nil {
		t.Fatal(err)
	}
	doc.Pages[0].Children[0].Resize(640, 480)

	res, err := Merge(mem, doc)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if res != (MergeResult{PagesCreated: 1, PagesReused: 1, NodesAdded: 3}) {
		t.Errorf("unexpected result %+v", res)
	}

	pages, _ := mem.Pages()
	if pages[0] != existing {
		t.Fatal("expected existing page to be reused")
	}
	if got := existing.ChildNames(); !reflect.DeepEqual(got, []string{"Nav", "Hero", "Footer"}) {
		t.Errorf("expected appended frames after existing content, got %v", got)
	}
	if existing.Children[1].Width != 640 {
		t.Errorf("expected loaded size to carry over, got %v", existing.Children[1].Width)
	}
	if existing.Children[1].ID == doc.Pages[0].Children[0].ID {
		t.Error("merged nodes must be fresh host nodes")
	}
	if got := pages[1].ChildNames(); pages[1].Name != "About" || !reflect.DeepEqual(got, []string{"Team"}) {
		t.Errorf("unexpected About page %+v", pages[1])
	}
}

func TestMerge_StopsAtHostError(t *testing.T) {
	mem := doctree.NewMemory("doc", doctree.Limits{MaxPages: 1})
	doc, err := (&TextLoader{}).Load(strings.NewReader("A\nx\n\nB\ny"), "o.txt")
	if err != nil {
		t.Fatal(err)
	}
	res, err := Merge(mem, doc)
	if !errors.Is(err, doctree.ErrLimitExceeded) {
		t.Fatalf("expected limit error, got %v", err)
	}
	if res.PagesCreated != 1 || res.NodesAdded != 1 {
		t.Errorf("expected partial result, got %+v", res)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "site.csv")
	if err := os.WriteFile(path, []byte("Home,Hero\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Title != "site" || len(doc.Pages) != 1 {
		t.Errorf("unexpected document %+v", doc)
	}

	if _, err := LoadFile(filepath.Join(dir, "missing.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
	if _, err := LoadFile(filepath.Join(dir, "site.bin")); err == nil {
		t.Error("expected unsupported extension error")
	}
}
