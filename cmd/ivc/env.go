package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/franz/imagevault/internal/feature"
	"github.com/franz/imagevault/internal/index"
	"github.com/franz/imagevault/internal/journal"
	"github.com/franz/imagevault/internal/layout"
	"github.com/franz/imagevault/internal/storage"
	"github.com/franz/imagevault/internal/versioning"
)

// deployLayout resolves the configured deployment root.
func deployLayout() layout.Layout {
	return layout.New(viper.GetString("root"))
}

// newEngine builds the version engine and originals store for the
// configured root. Each CLI invocation owns its index handle.
func newEngine() (*versioning.Engine, *storage.Store) {
	l := deployLayout()
	eng := versioning.New(l, index.Open(l.IndexPath()), feature.New())
	return eng, storage.New(l)
}

// openJournal opens the recording journal at the configured path.
func openJournal() (*journal.Journal, error) {
	path := viper.GetString("db")
	if path == "" {
		path = filepath.Join(viper.GetString("root"), "state", "journal.db")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return journal.Open(path)
}
