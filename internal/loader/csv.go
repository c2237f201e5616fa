package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docscaffold/internal/doctree"
)

// CSVLoader handles "page,frame[,text]" rows. A row with an empty frame
// column only ensures the page exists. An optional header row starting with
// "page" is skipped. Rows for the same page need not be adjacent.
type CSVLoader struct{}

func (l *CSVLoader) Load(r io.Reader, filename string) (*doctree.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := newBuilder(stem(filename))
	if len(records) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "page") {
		records = records[1:]
	}

	byName := make(map[string]*doctree.Page)
	for i, row := range records {
		name := strings.TrimSpace(row[0])
		if name == "" {
			return nil, fmt.Errorf("csv row %d: page name is empty", i+1)
		}
		page, ok := byName[name]
		if !ok {
			b.startPage(name)
			page = b.page
			byName[name] = page
		}
		b.page = page

		if len(row) < 2 || strings.TrimSpace(row[1]) == "" {
			continue
		}
		f := b.startFrame(strings.TrimSpace(row[1]))
		if len(row) > 2 {
			f.Text = strings.TrimSpace(row[2])
		}
	}
	return b.doc, nil
}
