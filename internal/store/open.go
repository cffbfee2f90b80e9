package store

import (
	"fmt"
	"strings"

	"github.com/stellarlinkco/finbench/internal/config"
)

const DefaultSQLitePath = "data/finbench.db"

func Open(cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, fmt.Errorf("store: missing config")
	}

	path := strings.TrimSpace(cfg.Storage.Path)
	if path == "" {
		path = DefaultSQLitePath
	}
	return NewSQLiteStore(path)
}
