package adapters

import (
	"io"
	"path/filepath"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"bootstrapper/internal/ports"
	"bootstrapper/internal/types"
)

type ManifestYAMLAdapter struct {
	fs afero.Fs
}

func NewManifestYAMLAdapter() ManifestYAMLAdapter {
	return NewManifestYAMLAdapterWithFs(afero.NewOsFs())
}

func NewManifestYAMLAdapterWithFs(fs afero.Fs) ManifestYAMLAdapter {
	return ManifestYAMLAdapter{fs: fs}
}

func (a ManifestYAMLAdapter) WriteManifest(path string, list types.ComponentList) error {
	if path == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output path is empty")
	}
	if err := a.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	file, err := a.fs.Create(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create manifest output").
			WithCause(err)
	}
	defer file.Close()
	return EncodeManifestYAML(file, list)
}

// EncodeManifestYAML writes the derived manifest tree with two space
// indentation.
func EncodeManifestYAML(w io.Writer, list types.ComponentList) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(list); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode manifest").
			WithCause(err)
	}
	if err := encoder.Close(); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode manifest").
			WithCause(err)
	}
	return nil
}

var _ ports.ManifestWriterPort = ManifestYAMLAdapter{}
