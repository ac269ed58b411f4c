package app

import (
	"time"

	"github.com/spf13/afero"

	"bootstrapper/internal/adapters"
	"bootstrapper/internal/core"
	"bootstrapper/internal/ports"
)

type Service struct {
	ConfigSource     ports.ConfigSourcePort
	Manifests        ports.ManifestSourcePort
	Archives         ports.ArchiveSourcePort
	Extractor        ports.ArchiveExtractorPort
	Tree             ports.InstallTreePort
	Paths            ports.InstallPathPort
	ManifestWriter   ports.ManifestWriterPort
	ProgressInterval time.Duration
}

type ServiceOptions struct {
	HTTP adapters.HTTPConfig
	// Fs defaults to the OS filesystem.
	Fs               afero.Fs
	DownloadDir      string
	ProgressInterval time.Duration
}

func NewServiceWithOptions(opts ServiceOptions) Service {
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = core.DefaultProgressInterval
	}
	tree := adapters.NewInstallTreeAdapterWithFs(fs, opts.DownloadDir)
	return Service{
		ConfigSource:     adapters.NewConfigFileAdapterWithFs(fs),
		Manifests:        adapters.NewManifestHTTPAdapter(opts.HTTP),
		Archives:         adapters.NewArchiveHTTPAdapter(opts.HTTP),
		Extractor:        adapters.NewZipExtractorAdapterWithFs(fs),
		Tree:             tree,
		Paths:            tree,
		ManifestWriter:   adapters.NewManifestYAMLAdapterWithFs(fs),
		ProgressInterval: interval,
	}
}

func (s Service) installer(sink ports.EventSinkPort) core.Installer {
	installer := core.NewInstaller(s.Archives, s.Extractor, s.Tree, sink)
	if s.ProgressInterval > 0 {
		installer.ProgressInterval = s.ProgressInterval
	}
	return installer
}
