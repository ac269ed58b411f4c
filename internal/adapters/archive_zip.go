package adapters

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"bootstrapper/internal/ports"
)

type ZipExtractorAdapter struct {
	fs afero.Fs
}

func NewZipExtractorAdapterWithFs(fs afero.Fs) ZipExtractorAdapter {
	return ZipExtractorAdapter{fs: fs}
}

// Extract unpacks a ZIP archive below destDir. Entries that would land
// outside destDir and symlinks are skipped.
func (a ZipExtractorAdapter) Extract(archive io.ReaderAt, size int64, destDir string) error {
	reader, err := zip.NewReader(archive, size)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to open component archive").
			WithCause(err)
	}
	if err := a.fs.MkdirAll(destDir, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create extraction directory").
			WithCause(err)
	}
	for _, file := range reader.File {
		name, ok := enclosedName(file.Name)
		if !ok {
			log.Debug().Str("entry", file.Name).Msg("skipping archive entry outside extraction directory")
			continue
		}
		if name == "" {
			continue
		}
		target := filepath.Join(destDir, name)
		mode := file.Mode()
		switch {
		case mode.IsDir():
			if err := a.fs.MkdirAll(target, 0o755); err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to create archive directory").
					WithCause(err)
			}
		case mode&os.ModeSymlink != 0:
			continue
		default:
			if err := a.extractFile(file, target); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a ZipExtractorAdapter) extractFile(file *zip.File, target string) error {
	if err := a.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create archive directory").
			WithCause(err)
	}
	src, err := file.Open()
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to read archive entry %q", file.Name)).
			WithCause(err)
	}
	defer src.Close()
	perm := os.FileMode(0o644) | file.Mode().Perm()&0o111
	dest, err := a.fs.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create extracted file").
			WithCause(err)
	}
	defer dest.Close()
	if _, err := io.Copy(dest, src); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("failed to extract archive entry %q", file.Name)).
			WithCause(err)
	}
	return nil
}

// enclosedName normalises an archive entry name to a local relative path.
// An empty result with ok set means the entry is the archive root.
func enclosedName(name string) (string, bool) {
	name = strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(name, "/") {
		return "", false
	}
	cleaned := path.Clean(name)
	if cleaned == "." {
		return "", true
	}
	local := filepath.FromSlash(cleaned)
	if !filepath.IsLocal(local) {
		return "", false
	}
	return local, true
}

var _ ports.ArchiveExtractorPort = ZipExtractorAdapter{}
