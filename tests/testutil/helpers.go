// Package testutil provides shared test helpers used across integration,
// e2e, and unit test packages.
package testutil

import (
	"archive/zip"
	"bytes"
	"fmt"
	"hash/crc32"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// BuildZip returns a ZIP archive holding files, keyed by slash separated
// entry name. Entries are written in name order.
func BuildZip(t testing.TB, files map[string]string) []byte {
	t.Helper()
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for _, name := range names {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

// CRC32Hex formats the IEEE CRC-32 of data the way manifests declare it.
func CRC32Hex(data []byte) string {
	return fmt.Sprintf("%08X", crc32.ChecksumIEEE(data))
}

// ServeFiles starts an httptest server answering GET requests for the
// given paths and 404 for everything else.
func ServeFiles(t testing.TB, files map[string][]byte) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := files[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

// WriteProductConfig writes a bootstrapper.toml with a single Windows
// channel pointing at manifestURL and returns its path.
func WriteProductConfig(t testing.TB, dir string, channel string, manifestURL string) string {
	t.Helper()
	content := fmt.Sprintf(`name = "Test Product"

[windows]
default_path = %q
relative_executable = "./Launcher/Product.exe"
default_channel = %q

[windows.channels]
%q = %q

[linux]
default_path = %q
relative_executable = "./Launcher/product"
default_channel = %q

[linux.channels]
%q = %q
`, filepath.ToSlash(filepath.Join(dir, "install")), channel, channel, manifestURL,
		filepath.ToSlash(filepath.Join(dir, "install")), channel, channel, manifestURL)
	path := filepath.Join(dir, "bootstrapper.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// SampleManifestPath is where ServeFiles exposes the SampleRepository
// manifest.
const SampleManifestPath = "/components.xml"

// SampleRepository returns a small component repository: a required core
// category holding the launcher, and an optional extras category whose
// docs component depends on the launcher.
func SampleRepository(t testing.TB) map[string][]byte {
	t.Helper()
	launcher := BuildZip(t, map[string]string{
		"launcher.exe":       "launcher binary",
		"data/settings.json": "{}",
	})
	docs := BuildZip(t, map[string]string{"Docs/manual.txt": "read me"})
	media := BuildZip(t, map[string]string{"Media/intro.txt": "intro"})
	manifest := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<list>
  <category id="core" title="Core" required="true">
    <component id="launcher" title="Launcher" path="Launcher" download-size="%d" install-size="%d" hash="%s"/>
  </category>
  <category id="extras" title="Extras">
    <component id="docs" title="Docs" download-size="%d" install-size="%d" hash="%s" depends="launcher"/>
    <component id="media" title="Media" download-size="%d" install-size="%d" hash="00000000"/>
  </category>
</list>
`, len(launcher), len(launcher)*2, CRC32Hex(launcher),
		len(docs), len(docs)*2, CRC32Hex(docs),
		len(media), len(media)*2)
	return map[string][]byte{
		SampleManifestPath: []byte(manifest),
		"/launcher.zip":    launcher,
		"/docs.zip":        docs,
		"/media.zip":       media,
	}
}
