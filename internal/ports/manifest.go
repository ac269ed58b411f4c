package ports

import (
	"context"

	"bootstrapper/internal/types"
)

type ManifestSourcePort interface {
	FetchManifest(ctx context.Context, url string) (types.ComponentList, error)
}

type ManifestWriterPort interface {
	WriteManifest(path string, list types.ComponentList) error
}
