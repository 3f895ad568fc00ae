package cmd

import (
	"context"
	"fmt"

	"github.com/codewithjohnson/folio/pkg/config"
	"github.com/codewithjohnson/folio/pkg/content"
	"github.com/codewithjohnson/folio/pkg/storage"
)

// loadLibrary reads every post under the configured content root.
func loadLibrary(cfg *config.Config) (*content.Library, error) {
	lib := content.NewLibrary(content.NewLoader(cfg.ContentDir, cfg.IncludeDrafts))
	if _, err := lib.Reload(); err != nil {
		return nil, fmt.Errorf("loading content from %s: %w", cfg.ContentDir, err)
	}
	return lib, nil
}

// openSyncedIndex opens the search index and rewrites it from lib, so
// commands never answer from a stale index.
func openSyncedIndex(ctx context.Context, cfg *config.Config, lib *content.Library) (*storage.Index, error) {
	index, err := storage.Open(ctx, cfg.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}
	if err := index.Replace(ctx, lib.Posts()); err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("indexing posts: %w", err)
	}
	return index, nil
}
