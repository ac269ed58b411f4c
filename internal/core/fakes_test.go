package core

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bootstrapper/internal/types"
)

type recordingSink struct {
	mu       sync.Mutex
	events   []types.EventName
	states   []types.DownloadState
	fatal    []string
	selected [][]string
	syncs    []types.SessionSnapshot
}

func (s *recordingSink) DownloadState(state types.DownloadState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, types.EventDownloadState)
	s.states = append(s.states, state)
}

func (s *recordingSink) InstallationFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, types.EventInstallationFinished)
}

func (s *recordingSink) FatalError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, types.EventFatalError)
	s.fatal = append(s.fatal, message)
}

func (s *recordingSink) Sync(snapshot types.SessionSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, types.EventSync)
	s.syncs = append(s.syncs, snapshot)
}

func (s *recordingSink) SyncSelected(selected []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, types.EventSyncSelected)
	s.selected = append(s.selected, selected)
}

func (s *recordingSink) fatalMessages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fatal...)
}

func (s *recordingSink) count(name types.EventName) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, event := range s.events {
		if event == name {
			n++
		}
	}
	return n
}

type fakeArchives struct {
	mu       sync.Mutex
	archives map[string][]byte
	requests []string
	// chunk caps the bytes returned per Read when set.
	chunk int
}

type chunkedReader struct {
	reader io.Reader
	size   int
}

func (r chunkedReader) Read(p []byte) (int, error) {
	if len(p) > r.size {
		p = p[:r.size]
	}
	return r.reader.Read(p)
}

type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func (f *fakeArchives) OpenArchive(_ context.Context, url string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, url)
	data, ok := f.archives[url]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("archive not found: " + url)
	}
	if f.chunk > 0 {
		return io.NopCloser(chunkedReader{reader: bytes.NewReader(data), size: f.chunk}), nil
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type fakeManifests struct {
	lists    map[string]types.ComponentList
	requests []string
}

func (f *fakeManifests) FetchManifest(_ context.Context, url string) (types.ComponentList, error) {
	f.requests = append(f.requests, url)
	list, ok := f.lists[url]
	if !ok {
		return types.ComponentList{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("request failed")
	}
	return list, nil
}

type fakePaths struct {
	usable map[string]bool
}

func (f fakePaths) IsEmptyOrMissing(path string) (bool, error) {
	usable, ok := f.usable[path]
	if !ok {
		return true, nil
	}
	return usable, nil
}
