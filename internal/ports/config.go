package ports

import "bootstrapper/internal/types"

type ConfigSourcePort interface {
	// LoadConfig returns the defaults and found=false when no file exists.
	LoadConfig(path string) (cfg types.AppConfig, found bool, err error)
}
