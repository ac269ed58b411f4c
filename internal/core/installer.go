package core

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"bootstrapper/internal/ports"
	"bootstrapper/internal/types"
)

const (
	DefaultProgressInterval = 200 * time.Millisecond
	// HashVerificationDisabled as a component hash skips checksum
	// verification for that component.
	HashVerificationDisabled = "00000000"
	StagingDirName           = "Temp"
	archiveExtension         = ".zip"
	downloadChunkSize        = 32 * 1024
)

type InstallRequest struct {
	BaseURL    string
	DestRoot   string
	Components []types.Component
}

type Installer struct {
	Archives         ports.ArchiveSourcePort
	Extractor        ports.ArchiveExtractorPort
	Tree             ports.InstallTreePort
	Sink             ports.EventSinkPort
	ProgressInterval time.Duration
	Clock            func() time.Time
}

func NewInstaller(archives ports.ArchiveSourcePort, extractor ports.ArchiveExtractorPort, tree ports.InstallTreePort, sink ports.EventSinkPort) Installer {
	return Installer{
		Archives:         archives,
		Extractor:        extractor,
		Tree:             tree,
		Sink:             sink,
		ProgressInterval: DefaultProgressInterval,
		Clock:            time.Now,
	}
}

// InstallRun is the handle of one background install batch.
type InstallRun struct {
	ID   string
	done chan struct{}

	mu  sync.Mutex
	err error
}

func (r *InstallRun) Done() <-chan struct{} {
	return r.done
}

// Err returns the batch error once the run is done.
func (r *InstallRun) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *InstallRun) Finished() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Succeeded reports whether the installation_finished signal was sent.
func (r *InstallRun) Succeeded() bool {
	return r.Finished() && r.Err() == nil
}

func (r *InstallRun) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.Err()
	case <-ctx.Done():
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("stopped waiting for installation").
			WithCause(ctx.Err())
	}
}

// Start runs the batch in its own goroutine. The component list is
// copied, so later selection edits do not reach the running batch.
func (i Installer) Start(ctx context.Context, req InstallRequest) *InstallRun {
	run := &InstallRun{
		ID:   uuid.NewString(),
		done: make(chan struct{}),
	}
	req.Components = append([]types.Component(nil), req.Components...)
	logger := log.Ctx(ctx).With().Str("run", run.ID).Logger()
	runCtx := logger.WithContext(context.WithoutCancel(ctx))
	go func() {
		defer close(run.done)
		err := i.Run(runCtx, req)
		run.mu.Lock()
		run.err = err
		run.mu.Unlock()
	}()
	return run
}

// Run installs every component of the batch in order and stops at the
// first failure, which is also broadcast as a fatal_error event.
func (i Installer) Run(ctx context.Context, req InstallRequest) error {
	logger := log.Ctx(ctx)
	if strings.TrimSpace(req.DestRoot) == "" {
		err := errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("installation path is required")
		i.Sink.FatalError(err.Error())
		return err
	}
	state := types.DownloadState{TotalComponents: len(req.Components)}
	for _, component := range req.Components {
		state.TotalSize += component.DownloadSize
	}
	logger.Info().
		Int("components", state.TotalComponents).
		Uint64("bytes", state.TotalSize).
		Str("destination", req.DestRoot).
		Msg("installation started")

	stagingRoot := filepath.Join(req.DestRoot, StagingDirName)
	for _, component := range req.Components {
		state.ComponentNumber++
		current := component
		state.Current = &current
		state.Stage = types.StageDownloading
		i.Sink.DownloadState(state.Clone())

		componentCtx := logger.With().Str("component", component.ID).Logger().WithContext(ctx)
		if err := i.installComponent(componentCtx, component, req.BaseURL, req.DestRoot, stagingRoot, &state); err != nil {
			i.Sink.FatalError(fmt.Sprintf("During install of %q - %s", component.RawID, err.Error()))
			logger.Error().Err(err).Str("component", component.ID).Msg("installation failed")
			if removeErr := i.Tree.RemoveStaging(stagingRoot); removeErr != nil {
				logger.Warn().Err(removeErr).Str("staging", stagingRoot).Msg("failed to remove staging area")
			}
			return errbuilder.New().
				WithCode(errbuilder.CodeOf(err)).
				WithMsg(fmt.Sprintf("failed to install component %s", component.ID)).
				WithCause(err)
		}
	}
	if err := i.Tree.RemoveStaging(stagingRoot); err != nil {
		logger.Warn().Err(err).Str("staging", stagingRoot).Msg("failed to remove staging area")
	}
	logger.Info().Uint64("downloaded", state.TotalDownloaded).Msg("installation finished")
	i.Sink.InstallationFinished()
	return nil
}

func (i Installer) installComponent(ctx context.Context, component types.Component, baseURL string, destRoot string, stagingRoot string, state *types.DownloadState) error {
	stagingDir, err := stagingDirFor(stagingRoot, component.Path)
	if err != nil {
		return err
	}
	url := baseURL + component.RawID + archiveExtension

	file, size, err := i.download(ctx, url, component.Hash, state)
	if file != nil {
		defer func() {
			_ = file.Close()
			if err := i.Tree.RemoveDownload(file.Name()); err != nil {
				log.Ctx(ctx).Debug().Err(err).Str("file", file.Name()).Msg("failed to remove download")
			}
		}()
	}
	if err != nil {
		return err
	}

	state.Stage = types.StageExtracting
	i.Sink.DownloadState(state.Clone())

	if err := i.Tree.ResetStaging(stagingRoot); err != nil {
		return err
	}
	if err := i.Extractor.Extract(file, size, stagingDir); err != nil {
		return err
	}
	if err := i.Tree.Promote(stagingRoot, destRoot); err != nil {
		return err
	}
	if err := i.Tree.ResetStaging(stagingRoot); err != nil {
		return err
	}
	log.Ctx(ctx).Debug().Int64("bytes", size).Msg("component installed")
	return nil
}

// download streams the archive into a scratch file while hashing it and
// pushing throttled progress. The returned file is non-nil whenever one
// was created, so the caller can always clean it up.
func (i Installer) download(ctx context.Context, url string, expectedHash string, state *types.DownloadState) (ports.DownloadFile, int64, error) {
	body, err := i.Archives.OpenArchive(ctx, url)
	if err != nil {
		return nil, 0, err
	}
	defer body.Close()

	file, err := i.Tree.CreateDownload()
	if err != nil {
		return nil, 0, err
	}

	hasher := crc32.NewIEEE()
	interval := i.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}
	lastEmit := i.now()
	var written int64
	buf := make([]byte, downloadChunkSize)
	for {
		if ctx.Err() != nil {
			return file, written, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("download canceled").
				WithCause(ctx.Err())
		}
		n, readErr := body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			state.TotalDownloaded += uint64(n)
			if now := i.now(); now.Sub(lastEmit) >= interval {
				i.Sink.DownloadState(state.Clone())
				lastEmit = now
			}
			_, _ = hasher.Write(chunk)
			if _, err := file.Write(chunk); err != nil {
				return file, written, errbuilder.New().
					WithCode(errbuilder.CodeInternal).
					WithMsg("failed to write download").
					WithCause(err)
			}
			written += int64(n)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return file, written, errbuilder.New().
				WithCode(errbuilder.CodeInternal).
				WithMsg("failed to read archive stream").
				WithCause(readErr)
		}
	}
	if err := VerifyChecksum(expectedHash, hasher.Sum32(), url); err != nil {
		return file, written, err
	}
	return file, written, nil
}

// VerifyChecksum compares a CRC-32 against the manifest hash, ignoring
// case. The all-zero hash disables the check.
func VerifyChecksum(expected string, sum uint32, url string) error {
	expected = strings.ToUpper(strings.TrimSpace(expected))
	if expected == HashVerificationDisabled {
		return nil
	}
	calculated := FormatChecksum(sum)
	if calculated != expected {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg(fmt.Sprintf("Download failed, hash mismatch: Got %q expected %q - URL: %q", calculated, expected, url))
	}
	return nil
}

func FormatChecksum(sum uint32) string {
	return fmt.Sprintf("%08X", sum)
}

func stagingDirFor(stagingRoot string, subpath string) (string, error) {
	subpath = strings.TrimSpace(subpath)
	if subpath == "" {
		return stagingRoot, nil
	}
	local := filepath.Clean(filepath.FromSlash(subpath))
	if !filepath.IsLocal(local) {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("component path %q escapes the installation root", subpath))
	}
	return filepath.Join(stagingRoot, local), nil
}

func (i Installer) now() time.Time {
	if i.Clock != nil {
		return i.Clock()
	}
	return time.Now()
}
