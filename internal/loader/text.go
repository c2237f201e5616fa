package loader

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docscaffold/internal/doctree"
)

// TextLoader handles plain text outlines. Blocks are separated by blank
// lines; the first line of a block names a page and each following line
// names a frame on it.
type TextLoader struct{}

func (l *TextLoader) Load(r io.Reader, filename string) (*doctree.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := newBuilder(stem(filename))
	inBlock := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			inBlock = false
		case !inBlock:
			b.startPage(line)
			inBlock = true
		default:
			b.startFrame(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.doc, nil
}
