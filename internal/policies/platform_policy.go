package policies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bootstrapper/internal/types"
)

// PlatformPolicy decides which per-platform configuration applies to an
// installation target and which manifest URL a channel name maps to.
type PlatformPolicy struct {
	Config types.AppConfig
}

func NewPlatformPolicy(cfg types.AppConfig) PlatformPolicy {
	return PlatformPolicy{Config: cfg}
}

func (p PlatformPolicy) OsConfig(target types.OperatingSystem) (types.OsConfig, bool) {
	var cfg *types.OsConfig
	switch target {
	case types.OperatingSystemLinux:
		cfg = p.Config.Linux
	case types.OperatingSystemWindows:
		cfg = p.Config.Windows
	case types.OperatingSystemMacOS:
		cfg = p.Config.Macos
	}
	if cfg == nil {
		return types.OsConfig{}, false
	}
	return *cfg, true
}

// AdjustTarget falls back to the Windows build for Linux and macOS hosts
// without their own configuration and returns the default installation
// path of the resulting target, or "" when it has none.
func (p PlatformPolicy) AdjustTarget(target types.OperatingSystem) (types.OperatingSystem, string) {
	if target != types.OperatingSystemWindows {
		if _, ok := p.OsConfig(target); !ok {
			target = types.OperatingSystemWindows
		}
	}
	cfg, ok := p.OsConfig(target)
	if !ok {
		return target, ""
	}
	return target, strings.TrimSpace(cfg.DefaultPath)
}

func (p PlatformPolicy) DefaultChannel(target types.OperatingSystem) string {
	cfg, ok := p.OsConfig(target)
	if !ok {
		return ""
	}
	return strings.TrimSpace(cfg.DefaultChannel)
}

func (p PlatformPolicy) Channels(target types.OperatingSystem) []string {
	cfg, ok := p.OsConfig(target)
	if !ok {
		return nil
	}
	names := make([]string, 0, len(cfg.Channels))
	for name := range cfg.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p PlatformPolicy) ChannelURL(target types.OperatingSystem, channel string) (string, error) {
	cfg, ok := p.OsConfig(target)
	if !ok {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("Selected platform does not have an installation candidate")
	}
	url := strings.TrimSpace(cfg.Channels[channel])
	if url == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("Selected channel does not exist").
			WithCause(fmt.Errorf("target=%s channel=%q available=%s", target, channel, strings.Join(p.Channels(target), ",")))
	}
	return url, nil
}
