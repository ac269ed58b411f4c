package adapters

import (
	"context"
	"io"

	"bootstrapper/internal/ports"
)

type ArchiveHTTPAdapter struct {
	fetcher httpFetcher
}

func NewArchiveHTTPAdapter(cfg HTTPConfig) ArchiveHTTPAdapter {
	return ArchiveHTTPAdapter{fetcher: newHTTPFetcher(cfg, true)}
}

// OpenArchive starts streaming a component archive. The caller owns the
// returned body.
func (a ArchiveHTTPAdapter) OpenArchive(ctx context.Context, url string) (io.ReadCloser, error) {
	return a.fetcher.get(ctx, url)
}

var _ ports.ArchiveSourcePort = ArchiveHTTPAdapter{}
