package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docscaffold/internal/doctree"
	"github.com/ulikunitz/xz"
)

// XZLoader decompresses an .xz stream and hands it to Inner.
type XZLoader struct {
	Inner Loader
}

func (l *XZLoader) Load(r io.Reader, filename string) (*doctree.Document, error) {
	zr, err := xz.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xz: %w", err)
	}
	return l.Inner.Load(zr, strings.TrimSuffix(filename, filepath.Ext(filename)))
}
