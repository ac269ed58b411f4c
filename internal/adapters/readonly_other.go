//go:build !windows

package adapters

import "github.com/spf13/afero"

func clearReadOnly(fs afero.Fs, path string) error {
	return ensureWritable(fs, path)
}
