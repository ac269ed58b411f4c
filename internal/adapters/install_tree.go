package adapters

import (
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/afero"

	"bootstrapper/internal/ports"
)

const downloadPattern = "bootstrapper-*.zip"

// InstallTreeAdapter manages scratch downloads, the staging area and the
// live installation tree on an afero filesystem.
type InstallTreeAdapter struct {
	fs          afero.Fs
	downloadDir string
}

// NewInstallTreeAdapterWithFs places scratch downloads in downloadDir, or
// the system temp directory when it is empty.
func NewInstallTreeAdapterWithFs(fs afero.Fs, downloadDir string) InstallTreeAdapter {
	return InstallTreeAdapter{fs: fs, downloadDir: downloadDir}
}

func (a InstallTreeAdapter) CreateDownload() (ports.DownloadFile, error) {
	if a.downloadDir != "" {
		if err := a.fs.MkdirAll(a.downloadDir, 0o755); err != nil {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to create download directory").
				WithCause(err)
		}
	}
	file, err := afero.TempFile(a.fs, a.downloadDir, downloadPattern)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create download file").
			WithCause(err)
	}
	return file, nil
}

func (a InstallTreeAdapter) RemoveDownload(name string) error {
	if err := a.fs.Remove(name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to remove download file").
			WithCause(err)
	}
	return nil
}

// ResetStaging leaves an empty staging directory behind.
func (a InstallTreeAdapter) ResetStaging(stagingRoot string) error {
	if err := a.RemoveStaging(stagingRoot); err != nil {
		return err
	}
	if err := a.fs.MkdirAll(stagingRoot, 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create staging directory").
			WithCause(err)
	}
	return nil
}

func (a InstallTreeAdapter) RemoveStaging(stagingRoot string) error {
	if err := a.fs.RemoveAll(stagingRoot); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to remove staging directory").
			WithCause(err)
	}
	return nil
}

// Promote copies everything below stagingRoot into destRoot, replacing
// existing files even when they are marked read-only.
func (a InstallTreeAdapter) Promote(stagingRoot string, destRoot string) error {
	return afero.Walk(a.fs, stagingRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to walk staging directory").
				WithCause(err)
		}
		rel, err := filepath.Rel(stagingRoot, path)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to resolve staged path").
				WithCause(err)
		}
		target := filepath.Join(destRoot, rel)
		if info.IsDir() {
			if err := a.fs.MkdirAll(target, 0o755); err != nil {
				return errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to create installation directory").
					WithCause(err)
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return a.copyFile(path, target, info.Mode().Perm())
	})
}

func (a InstallTreeAdapter) copyFile(srcPath string, destPath string, perm os.FileMode) error {
	if err := clearReadOnly(a.fs, destPath); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to clear read-only attribute").
			WithCause(err)
	}
	srcFile, err := a.fs.Open(srcPath)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("failed to open staged file").
			WithCause(err)
	}
	defer srcFile.Close()
	destFile, err := a.fs.OpenFile(destPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create installed file").
			WithCause(err)
	}
	defer destFile.Close()
	if _, err := io.Copy(destFile, srcFile); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to copy staged file").
			WithCause(err)
	}
	return nil
}

// IsEmptyOrMissing reports whether path can be installed into: it either
// does not exist or is an empty directory.
func (a InstallTreeAdapter) IsEmptyOrMissing(path string) (bool, error) {
	info, err := a.fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to inspect installation path").
			WithCause(err)
	}
	if !info.IsDir() {
		return false, nil
	}
	empty, err := afero.IsEmpty(a.fs, path)
	if err != nil {
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to list installation path").
			WithCause(err)
	}
	return empty, nil
}

// ensureWritable makes an existing file writable for its owner.
func ensureWritable(fs afero.Fs, path string) error {
	info, err := fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode().Perm()&0o200 != 0 {
		return nil
	}
	return fs.Chmod(path, info.Mode().Perm()|0o200)
}

var _ ports.InstallTreePort = InstallTreeAdapter{}
var _ ports.InstallPathPort = InstallTreeAdapter{}
