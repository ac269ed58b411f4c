package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"bootstrapper/internal/ports"
	"bootstrapper/internal/types"
)

// Install drives a session through every view without user interaction:
// settings, manifest fetch, selection, installation and finish.
func (s Service) Install(ctx context.Context, req InstallRequest, sink ports.EventSinkPort) (InstallResult, error) {
	cfg, cfgErr := s.loadConfig(ctx, req.Session.ConfigPath)
	if cfgErr != nil {
		sink.FatalError(cfgErr.Error())
		return InstallResult{}, cfgErr
	}
	session := s.newSession(req.Session, cfg, nil, sink)
	session.Snapshot()

	if strings.TrimSpace(req.Target) != "" {
		target, err := parseTarget(req.Target)
		if err != nil {
			return InstallResult{}, err
		}
		if err := session.SetInstallationTarget(target); err != nil {
			return InstallResult{}, err
		}
	}
	if strings.TrimSpace(req.Path) != "" {
		if err := session.SetInstallationPath(req.Path); err != nil {
			return InstallResult{}, err
		}
	}
	if strings.TrimSpace(req.Channel) != "" {
		if err := session.SetInstallationChannel(req.Channel); err != nil {
			return InstallResult{}, err
		}
	}
	if err := session.ChangePhase(ctx, types.PhaseSelect); err != nil {
		return InstallResult{}, err
	}
	for _, id := range req.Select {
		if err := requireKnownID(session, id); err != nil {
			return InstallResult{}, err
		}
		if _, err := session.Select(id); err != nil {
			return InstallResult{}, err
		}
	}
	for _, id := range req.Unselect {
		if err := requireKnownID(session, id); err != nil {
			return InstallResult{}, err
		}
		if _, err := session.Unselect(id); err != nil {
			return InstallResult{}, err
		}
	}
	selected := session.Selected()
	log.Ctx(ctx).Info().Strs("selected", selected).Msg("selection complete")

	if err := session.ChangePhase(ctx, types.PhaseInstallation); err != nil {
		return InstallResult{}, err
	}
	if err := session.WaitInstallation(ctx); err != nil {
		return InstallResult{}, err
	}
	if err := session.ChangePhase(ctx, types.PhaseFinished); err != nil {
		return InstallResult{}, err
	}
	snapshot := session.Snapshot()
	return InstallResult{
		SessionID: snapshot.SessionID,
		Path:      snapshot.InstallationPath,
		Target:    snapshot.InstallationTarget,
		Channel:   snapshot.InstallationChannel,
		Selected:  selected,
	}, nil
}
