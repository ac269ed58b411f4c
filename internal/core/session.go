package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog/log"

	"bootstrapper/internal/policies"
	"bootstrapper/internal/ports"
	"bootstrapper/internal/types"
)

type SessionDeps struct {
	Manifests ports.ManifestSourcePort
	Paths     ports.InstallPathPort
	Installer Installer
	Sink      ports.EventSinkPort
}

type SessionOptions struct {
	Config types.AppConfig
	// ConfigErr is a configuration failure from startup. It is reported
	// on the first Snapshot instead of aborting the process.
	ConfigErr        error
	Host             types.OperatingSystem
	ProductDir       string
	InstallationPath string
	Channel          string
}

// Session is the single long-lived installer state. Every operation takes
// the session lock for its whole duration; the install run handle sits
// behind its own lock so progress queries never wait on a phase change.
type Session struct {
	mu         sync.Mutex
	id         string
	phase      types.Phase
	host       types.OperatingSystem
	target     types.OperatingSystem
	path       string
	channel    string
	config     types.AppConfig
	policy     policies.PlatformPolicy
	manifest   *Manifest
	fatalError string
	productDir string
	deps       SessionDeps

	runMu sync.Mutex
	run   *InstallRun
}

func NewSession(deps SessionDeps, opts SessionOptions) *Session {
	host := opts.Host
	if host == "" {
		host = types.HostOperatingSystem()
	}
	productDir := strings.TrimSpace(opts.ProductDir)
	if productDir == "" {
		productDir = types.DefaultProductDir
	}
	cfg := opts.Config.Clone()
	policy := policies.NewPlatformPolicy(cfg)
	target, defaultPath := policy.AdjustTarget(host)

	path := strings.TrimSpace(opts.InstallationPath)
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		path = types.DefaultInstallationPath
	}
	channel := strings.TrimSpace(opts.Channel)
	if channel == "" {
		channel = policy.DefaultChannel(target)
	}
	if channel == "" {
		channel = types.DefaultChannel
	}
	s := &Session{
		id:         uuid.NewString(),
		phase:      types.PhaseSetup,
		host:       host,
		target:     target,
		path:       path,
		channel:    channel,
		config:     cfg,
		policy:     policy,
		productDir: productDir,
		deps:       deps,
	}
	if opts.ConfigErr != nil {
		s.fatalError = opts.ConfigErr.Error()
	}
	return s
}

// Snapshot returns the current state. A configuration error recorded at
// startup is re-broadcast as fatal_error on every call.
func (s *Session) Snapshot() types.SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fatalError != "" {
		s.deps.Sink.FatalError(s.fatalError)
	}
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() types.SessionSnapshot {
	snapshot := types.SessionSnapshot{
		SessionID:           s.id,
		FatalError:          s.fatalError,
		Phase:               s.phase,
		OperatingSystem:     s.host,
		InstallationTarget:  s.target,
		InstallationPath:    s.path,
		InstallationChannel: s.channel,
		Config:              s.config.Clone(),
	}
	if s.manifest != nil {
		snapshot.Components = s.manifest.List()
	}
	return snapshot
}

func (s *Session) Phase() types.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *Session) SetInstallationPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSetupLocked(); err != nil {
		return err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("installation path is required")
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("invalid installation path %q", path)).
			WithCause(err)
	}
	s.path = expanded
	s.deps.Sink.Sync(s.snapshotLocked())
	return nil
}

func (s *Session) SetInstallationTarget(target types.OperatingSystem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSetupLocked(); err != nil {
		return err
	}
	if _, ok := types.ParseOperatingSystem(string(target)); !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unknown installation target %q", target))
	}
	adjusted, defaultPath := s.policy.AdjustTarget(target)
	s.target = adjusted
	if defaultPath != "" {
		s.path = defaultPath
	}
	s.deps.Sink.Sync(s.snapshotLocked())
	return nil
}

func (s *Session) SetInstallationChannel(channel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireSetupLocked(); err != nil {
		return err
	}
	s.channel = strings.TrimSpace(channel)
	s.deps.Sink.Sync(s.snapshotLocked())
	return nil
}

func (s *Session) requireSetupLocked() error {
	if s.phase != types.PhaseSetup {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("installation settings are locked in phase %s", s.phase))
	}
	return nil
}

// ChangePhase performs a view transition. The phase only moves once every
// side effect of the transition has succeeded.
func (s *Session) ChangePhase(ctx context.Context, next types.Phase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assert.NotEmpty(ctx, string(s.phase), "session phase must be set")

	logger := log.Ctx(ctx).With().
		Str("session", s.id).
		Str("from", string(s.phase)).
		Str("to", string(next)).
		Logger()
	var err error
	switch {
	case s.phase == types.PhaseSetup && next == types.PhaseSelect:
		err = s.enterSelectLocked(logger.WithContext(ctx))
	case s.phase == types.PhaseSelect && next == types.PhaseInstallation:
		s.enterInstallationLocked(logger.WithContext(ctx))
	case s.phase == types.PhaseInstallation && next == types.PhaseFinished:
		err = s.enterFinishedLocked()
	default:
		err = errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("Invalid view transition").
			WithCause(fmt.Errorf("%s -> %s", s.phase, next))
	}
	if err != nil {
		logger.Debug().Err(err).Msg("view transition rejected")
		return err
	}
	s.phase = next
	logger.Info().Msg("view changed")
	s.deps.Sink.Sync(s.snapshotLocked())
	return nil
}

func (s *Session) enterSelectLocked(ctx context.Context) error {
	path, err := s.resolveInstallPathLocked()
	if err != nil {
		return err
	}
	url, err := s.policy.ChannelURL(s.target, s.channel)
	if err != nil {
		return err
	}
	list, err := s.deps.Manifests.FetchManifest(ctx, url)
	if err != nil {
		return err
	}
	s.manifest = NewManifest(ctx, list)
	if path != s.path {
		log.Ctx(ctx).Info().Str("path", path).Msg("using product directory inside installation path")
	}
	s.path = path
	return nil
}

// resolveInstallPathLocked accepts the configured path when it is missing
// or empty and otherwise retries once with the product directory below it.
func (s *Session) resolveInstallPathLocked() (string, error) {
	candidates := []string{s.path, filepath.Join(s.path, s.productDir)}
	for _, candidate := range candidates {
		usable, err := s.deps.Paths.IsEmptyOrMissing(candidate)
		if err != nil {
			return "", err
		}
		if usable {
			return candidate, nil
		}
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeAlreadyExists).
		WithMsg(fmt.Sprintf("Installation path already contains files or a %s directory", s.productDir)).
		WithCause(fmt.Errorf("path=%s", s.path))
}

func (s *Session) enterInstallationLocked(ctx context.Context) {
	req := InstallRequest{
		BaseURL:    s.manifest.URL(),
		DestRoot:   s.path,
		Components: s.manifest.SelectedComponents(),
	}
	run := s.deps.Installer.Start(ctx, req)
	log.Ctx(ctx).Info().
		Str("run", run.ID).
		Int("components", len(req.Components)).
		Msg("installation run started")
	s.runMu.Lock()
	s.run = run
	s.runMu.Unlock()
}

func (s *Session) enterFinishedLocked() error {
	run := s.InstallRun()
	if run == nil || !run.Succeeded() {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("installation has not finished")
	}
	return nil
}

func (s *Session) InstallRun() *InstallRun {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.run
}

// WaitInstallation blocks until the current run is done and returns its
// error.
func (s *Session) WaitInstallation(ctx context.Context) error {
	run := s.InstallRun()
	if run == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("no installation has been started")
	}
	return run.Wait(ctx)
}

func (s *Session) FindDependencies(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manifest == nil {
		return []string{}
	}
	return s.manifest.FindDependencies(id)
}

func (s *Session) FindDependants(id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manifest == nil {
		return []string{}
	}
	return s.manifest.FindDependants(id)
}

func (s *Session) Select(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireManifestLocked(); err != nil {
		return nil, err
	}
	selected := s.manifest.Select(id)
	s.deps.Sink.SyncSelected(selected)
	return selected, nil
}

func (s *Session) Unselect(id string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireManifestLocked(); err != nil {
		return nil, err
	}
	selected := s.manifest.Unselect(id)
	s.deps.Sink.SyncSelected(selected)
	return selected, nil
}

func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.manifest == nil {
		return []string{}
	}
	return s.manifest.Selected()
}

// Has reports whether id names a component or category of the loaded
// manifest.
func (s *Session) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.manifest != nil && s.manifest.Has(id)
}

func (s *Session) requireManifestLocked() error {
	if s.manifest == nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("no component manifest has been loaded")
	}
	return nil
}
