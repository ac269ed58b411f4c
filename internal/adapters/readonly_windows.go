//go:build windows

package adapters

import (
	"github.com/spf13/afero"
	"golang.org/x/sys/windows"
)

// clearReadOnly drops FILE_ATTRIBUTE_READONLY on the real filesystem;
// other filesystems only know the permission bits.
func clearReadOnly(fs afero.Fs, path string) error {
	if _, ok := fs.(*afero.OsFs); !ok {
		return ensureWritable(fs, path)
	}
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(name)
	if err != nil {
		if err == windows.ERROR_FILE_NOT_FOUND || err == windows.ERROR_PATH_NOT_FOUND {
			return nil
		}
		return err
	}
	if attrs&windows.FILE_ATTRIBUTE_READONLY == 0 {
		return nil
	}
	return windows.SetFileAttributes(name, attrs&^windows.FILE_ATTRIBUTE_READONLY)
}
