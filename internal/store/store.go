package store

import (
	"fmt"

	"github.com/dgallion1/docscaffold/internal/config"
	"github.com/dgallion1/docscaffold/internal/doctree"
)

// New opens the host document selected by cfg.Store. The returned close
// function releases any underlying database.
func New(cfg config.Config) (doctree.Store, func() error, error) {
	switch cfg.Store {
	case config.StoreMemory:
		mem := doctree.NewMemory(cfg.Title, doctree.Limits{
			MaxPages:    cfg.MaxPages,
			MaxChildren: cfg.MaxChildren,
		})
		return mem, func() error { return nil }, nil
	case config.StoreSQLite:
		db, err := Open(cfg.SQLitePath, cfg.Title)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
}
