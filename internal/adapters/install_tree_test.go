package adapters

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestInstallTreeAdapterPromote(t *testing.T) {
	fs := afero.NewMemMapFs()
	adapter := NewInstallTreeAdapterWithFs(fs, "/downloads")
	staging := filepath.Join(string(filepath.Separator), "dest", "Temp")
	dest := filepath.Join(string(filepath.Separator), "dest")

	require.NoError(t, afero.WriteFile(fs, filepath.Join(staging, "bin", "tool"), []byte("new tool"), 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(staging, "readme.txt"), []byte("new readme"), 0o644))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dest, "readme.txt"), []byte("old readme"), 0o644))
	require.NoError(t, fs.Chmod(filepath.Join(dest, "readme.txt"), 0o444))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dest, "keep.txt"), []byte("keep"), 0o644))

	require.NoError(t, adapter.Promote(staging, dest))

	for path, want := range map[string]string{
		filepath.Join("bin", "tool"): "new tool",
		"readme.txt":                 "new readme",
		"keep.txt":                   "keep",
	} {
		data, err := afero.ReadFile(fs, filepath.Join(dest, path))
		require.NoError(t, err)
		if diff := cmp.Diff(want, string(data)); diff != "" {
			t.Fatalf("unexpected content of %s (-want +got):\n%s", path, diff)
		}
	}
	info, err := fs.Stat(filepath.Join(dest, "readme.txt"))
	require.NoError(t, err)
	require.NotZero(t, info.Mode().Perm()&0o200)
}

func TestInstallTreeAdapterStaging(t *testing.T) {
	fs := afero.NewMemMapFs()
	adapter := NewInstallTreeAdapterWithFs(fs, "")
	staging := filepath.Join(string(filepath.Separator), "dest", "Temp")
	require.NoError(t, afero.WriteFile(fs, filepath.Join(staging, "stale.txt"), []byte("stale"), 0o644))

	require.NoError(t, adapter.ResetStaging(staging))
	empty, err := afero.IsEmpty(fs, staging)
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, adapter.RemoveStaging(staging))
	exists, err := afero.DirExists(fs, staging)
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, adapter.RemoveStaging(staging))
}

func TestInstallTreeAdapterDownloads(t *testing.T) {
	fs := afero.NewMemMapFs()
	adapter := NewInstallTreeAdapterWithFs(fs, "/downloads")

	file, err := adapter.CreateDownload()
	require.NoError(t, err)
	_, err = io.WriteString(file, "payload")
	require.NoError(t, err)
	require.NoError(t, file.Close())
	require.True(t, strings.HasPrefix(file.Name(), filepath.Join("/downloads", "bootstrapper-")))
	require.True(t, strings.HasSuffix(file.Name(), ".zip"))

	require.NoError(t, adapter.RemoveDownload(file.Name()))
	exists, err := afero.Exists(fs, file.Name())
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, adapter.RemoveDownload(file.Name()))
}

func TestInstallTreeAdapterIsEmptyOrMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	adapter := NewInstallTreeAdapterWithFs(fs, "")
	require.NoError(t, fs.MkdirAll("/empty", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/full/file.txt", []byte("x"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/plain.txt", []byte("x"), 0o644))

	tests := []struct {
		name string
		path string
		want bool
	}{
		{name: "missing", path: "/missing", want: true},
		{name: "empty directory", path: "/empty", want: true},
		{name: "non-empty directory", path: "/full", want: false},
		{name: "regular file", path: "/plain.txt", want: false},
	}
	for _, tt := range tests {
		got, err := adapter.IsEmptyOrMissing(filepath.FromSlash(tt.path))
		require.NoError(t, err)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Fatalf("%s: unexpected result (-want +got):\n%s", tt.name, diff)
		}
	}
}

func TestEnsureWritable(t *testing.T) {
	fs := afero.NewMemMapFs()
	path := filepath.Join(string(filepath.Separator), "dest", "locked.txt")
	require.NoError(t, afero.WriteFile(fs, path, []byte("x"), 0o444))

	require.NoError(t, ensureWritable(fs, path))
	info, err := fs.Stat(path)
	require.NoError(t, err)
	if diff := cmp.Diff(os.FileMode(0o644), info.Mode().Perm()); diff != "" {
		t.Fatalf("unexpected permissions (-want +got):\n%s", diff)
	}

	require.NoError(t, ensureWritable(fs, filepath.Join(string(filepath.Separator), "dest", "missing.txt")))
}
