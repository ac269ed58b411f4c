package app

import (
	"context"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"bootstrapper/internal/core"
	"bootstrapper/internal/policies"
	"bootstrapper/internal/ports"
	"bootstrapper/internal/types"
)

// NewSession starts a session in SETUP. A broken product configuration
// does not fail here: the session falls back to the defaults and reports
// the error through its first Snapshot.
func (s Service) NewSession(ctx context.Context, req SessionRequest, sink ports.EventSinkPort) *core.Session {
	cfg, cfgErr := s.loadConfig(ctx, req.ConfigPath)
	return s.newSession(req, cfg, cfgErr, sink)
}

func (s Service) newSession(req SessionRequest, cfg types.AppConfig, cfgErr error, sink ports.EventSinkPort) *core.Session {
	return core.NewSession(core.SessionDeps{
		Manifests: s.Manifests,
		Paths:     s.Paths,
		Installer: s.installer(sink),
		Sink:      sink,
	}, core.SessionOptions{
		Config:     cfg,
		ConfigErr:  cfgErr,
		Host:       req.Host,
		ProductDir: req.ProductDir,
	})
}

func (s Service) loadConfig(ctx context.Context, path string) (types.AppConfig, error) {
	cfg, found, err := s.ConfigSource.LoadConfig(path)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("config", path).Msg("failed to load product configuration")
		return cfg, err
	}
	if !found {
		log.Ctx(ctx).Debug().Str("config", path).Msg("no product configuration found, using defaults")
	}
	return cfg, nil
}

// loadManifest fetches and sets up the manifest of one channel without a
// session. The target falls back the same way a session's would.
// loadedChannel is a fetched manifest together with the channel choice
// that produced it.
type loadedChannel struct {
	manifest *core.Manifest
	target   types.OperatingSystem
	channel  string
	url      string
	channels []string
}

func (s Service) loadManifest(ctx context.Context, req ChannelRequest) (loadedChannel, error) {
	cfg, err := s.loadConfig(ctx, req.ConfigPath)
	if err != nil {
		return loadedChannel{}, err
	}
	policy := policies.NewPlatformPolicy(cfg)
	target := types.HostOperatingSystem()
	if strings.TrimSpace(req.Target) != "" {
		parsed, err := parseTarget(req.Target)
		if err != nil {
			return loadedChannel{}, err
		}
		target = parsed
	}
	target, _ = policy.AdjustTarget(target)
	channel := strings.TrimSpace(req.Channel)
	if channel == "" {
		channel = policy.DefaultChannel(target)
	}
	url, err := policy.ChannelURL(target, channel)
	if err != nil {
		return loadedChannel{}, err
	}
	list, err := s.Manifests.FetchManifest(ctx, url)
	if err != nil {
		return loadedChannel{}, err
	}
	return loadedChannel{
		manifest: core.NewManifest(ctx, list),
		target:   target,
		channel:  channel,
		url:      url,
		channels: policy.Channels(target),
	}, nil
}

func parseTarget(value string) (types.OperatingSystem, error) {
	target, ok := types.ParseOperatingSystem(value)
	if !ok {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("unknown installation target: " + value)
	}
	return target, nil
}

func requireKnownID(manifest interface{ Has(string) bool }, id string) error {
	if !manifest.Has(id) {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("unknown component or category: " + id)
	}
	return nil
}
