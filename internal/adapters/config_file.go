package adapters

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"

	"bootstrapper/internal/ports"
	"bootstrapper/internal/types"
)

const DefaultConfigFile = "bootstrapper.toml"

type ConfigFileAdapter struct {
	fs afero.Fs
}

func NewConfigFileAdapterWithFs(fs afero.Fs) ConfigFileAdapter {
	return ConfigFileAdapter{fs: fs}
}

// LoadConfig reads the product configuration. A missing file yields the
// built-in defaults; unknown keys are rejected.
func (a ConfigFileAdapter) LoadConfig(path string) (types.AppConfig, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultConfigFile
	}
	data, err := afero.ReadFile(a.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return types.DefaultAppConfig(), false, nil
	}
	if err != nil {
		return types.DefaultAppConfig(), true, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("error reading config file").
			WithCause(err)
	}
	cfg, err := ParseConfigTOML(data)
	if err != nil {
		return types.DefaultAppConfig(), true, err
	}
	return cfg, true, nil
}

func ParseConfigTOML(data []byte) (types.AppConfig, error) {
	var cfg types.AppConfig
	decoder := toml.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return types.AppConfig{}, configError(err)
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return types.AppConfig{}, configError(fmt.Errorf("name is required"))
	}
	for _, platform := range []struct {
		name string
		cfg  *types.OsConfig
	}{
		{"windows", cfg.Windows},
		{"linux", cfg.Linux},
		{"macos", cfg.Macos},
	} {
		if platform.cfg == nil {
			continue
		}
		for channel, url := range platform.cfg.Channels {
			if strings.TrimSpace(url) == "" {
				return types.AppConfig{}, configError(fmt.Errorf("%s channel %q has no url", platform.name, channel))
			}
		}
	}
	return cfg, nil
}

func configError(err error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg("error reading config file").
		WithCause(err)
}

var _ ports.ConfigSourcePort = ConfigFileAdapter{}
