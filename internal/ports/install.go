package ports

import (
	"context"
	"io"
)

type ArchiveSourcePort interface {
	OpenArchive(ctx context.Context, url string) (io.ReadCloser, error)
}

// DownloadFile is the scratch file an archive is streamed into before it
// is opened for extraction.
type DownloadFile interface {
	io.Writer
	io.ReaderAt
	io.Closer
	Name() string
}

type ArchiveExtractorPort interface {
	Extract(archive io.ReaderAt, size int64, destDir string) error
}

// InstallTreePort owns the scratch download files, the staging area and
// promotion of staged content into the live install root.
type InstallTreePort interface {
	CreateDownload() (DownloadFile, error)
	RemoveDownload(name string) error
	ResetStaging(stagingRoot string) error
	RemoveStaging(stagingRoot string) error
	Promote(stagingRoot string, destRoot string) error
}

type InstallPathPort interface {
	IsEmptyOrMissing(path string) (bool, error)
}
