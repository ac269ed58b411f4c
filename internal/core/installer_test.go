package core

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"bootstrapper/internal/adapters"
	"bootstrapper/internal/types"
	"bootstrapper/tests/testutil"
)

const testBaseURL = "https://example.invalid/components/"

type installerFixture struct {
	fs        afero.Fs
	archives  *fakeArchives
	sink      *recordingSink
	installer Installer
	dest      string
}

func newInstallerFixture(t *testing.T) installerFixture {
	t.Helper()
	fs := afero.NewMemMapFs()
	archives := &fakeArchives{archives: map[string][]byte{}}
	sink := &recordingSink{}
	tree := adapters.NewInstallTreeAdapterWithFs(fs, filepath.Join(string(filepath.Separator), "downloads"))
	installer := NewInstaller(archives, adapters.NewZipExtractorAdapterWithFs(fs), tree, sink)
	return installerFixture{
		fs:        fs,
		archives:  archives,
		sink:      sink,
		installer: installer,
		dest:      filepath.Join(string(filepath.Separator), "games", "product"),
	}
}

func (f installerFixture) addComponent(t *testing.T, rawID string, path string, files map[string]string) types.Component {
	t.Helper()
	archive := testutil.BuildZip(t, files)
	f.archives.archives[testBaseURL+rawID+".zip"] = archive
	return types.Component{
		ID:           "cat-" + rawID,
		RawID:        rawID,
		Path:         path,
		Hash:         testutil.CRC32Hex(archive),
		DownloadSize: uint64(len(archive)),
	}
}

func (f installerFixture) readFile(t *testing.T, parts ...string) string {
	t.Helper()
	data, err := afero.ReadFile(f.fs, filepath.Join(append([]string{f.dest}, parts...)...))
	require.NoError(t, err)
	return string(data)
}

func TestInstallerRunInstallsComponentsInOrder(t *testing.T) {
	f := newInstallerFixture(t)
	first := f.addComponent(t, "launcher", "", map[string]string{"Launcher/app.txt": "launcher"})
	second := f.addComponent(t, "data", "Data/Games", map[string]string{"game.bin": "payload", "nested/readme.txt": "hi"})

	err := f.installer.Run(t.Context(), InstallRequest{
		BaseURL:    testBaseURL,
		DestRoot:   f.dest,
		Components: []types.Component{first, second},
	})
	require.NoError(t, err)

	if diff := cmp.Diff("launcher", f.readFile(t, "Launcher", "app.txt")); diff != "" {
		t.Fatalf("unexpected launcher file (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("payload", f.readFile(t, "Data", "Games", "game.bin")); diff != "" {
		t.Fatalf("unexpected game file (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff("hi", f.readFile(t, "Data", "Games", "nested", "readme.txt")); diff != "" {
		t.Fatalf("unexpected nested file (-want +got):\n%s", diff)
	}
	exists, err := afero.Exists(f.fs, filepath.Join(f.dest, StagingDirName))
	require.NoError(t, err)
	require.False(t, exists, "staging area left behind")

	wantRequests := []string{testBaseURL + "launcher.zip", testBaseURL + "data.zip"}
	if diff := cmp.Diff(wantRequests, f.archives.requests); diff != "" {
		t.Fatalf("unexpected archive requests (-want +got):\n%s", diff)
	}
	require.Equal(t, 1, f.sink.count(types.EventInstallationFinished))
	require.Empty(t, f.sink.fatalMessages())
}

func TestInstallerRunReportsProgress(t *testing.T) {
	f := newInstallerFixture(t)
	f.installer.ProgressInterval = time.Nanosecond
	first := f.addComponent(t, "one", "", map[string]string{"one.txt": strings.Repeat("1", 4096)})
	second := f.addComponent(t, "two", "", map[string]string{"two.txt": strings.Repeat("2", 4096)})
	total := first.DownloadSize + second.DownloadSize

	err := f.installer.Run(t.Context(), InstallRequest{
		BaseURL:    testBaseURL,
		DestRoot:   f.dest,
		Components: []types.Component{first, second},
	})
	require.NoError(t, err)

	states := f.sink.states
	require.NotEmpty(t, states)
	start := states[0]
	if diff := cmp.Diff(types.DownloadState{
		TotalSize:       total,
		TotalComponents: 2,
		ComponentNumber: 1,
		Current:         &first,
		Stage:           types.StageDownloading,
	}, start); diff != "" {
		t.Fatalf("unexpected initial state (-want +got):\n%s", diff)
	}
	var previous uint64
	var sawExtracting bool
	for _, state := range states {
		require.GreaterOrEqual(t, state.TotalDownloaded, previous, "download counter went backwards")
		previous = state.TotalDownloaded
		if state.Stage == types.StageExtracting {
			sawExtracting = true
		}
	}
	require.True(t, sawExtracting)
	last := states[len(states)-1]
	if diff := cmp.Diff(total, last.TotalDownloaded); diff != "" {
		t.Fatalf("unexpected downloaded total (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2, last.ComponentNumber); diff != "" {
		t.Fatalf("unexpected final component number (-want +got):\n%s", diff)
	}
}

func TestInstallerRunThrottlesProgress(t *testing.T) {
	const chunk = 64
	tests := []struct {
		name  string
		step  time.Duration
		every int
	}{
		{name: "clock below interval", step: 0},
		{name: "clock reaches interval every fourth chunk", step: DefaultProgressInterval / 4, every: 4},
		{name: "clock reaches interval every chunk", step: DefaultProgressInterval, every: 1},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			f := newInstallerFixture(t)
			f.archives.chunk = chunk
			clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), step: tt.step}
			f.installer.Clock = clock.Now
			files := map[string]string{}
			for n := range 16 {
				files[fmt.Sprintf("data/file-%02d.txt", n)] = strings.Repeat("payload", n+1)
			}
			component := f.addComponent(t, "big", "", files)
			chunks := (int(component.DownloadSize) + chunk - 1) / chunk
			require.Greater(t, chunks, 8)

			err := f.installer.Run(t.Context(), InstallRequest{
				BaseURL:    testBaseURL,
				DestRoot:   f.dest,
				Components: []types.Component{component},
			})
			require.NoError(t, err)

			states := f.sink.states
			require.GreaterOrEqual(t, len(states), 2)
			first, last := states[0], states[len(states)-1]
			require.Equal(t, types.StageDownloading, first.Stage)
			require.Zero(t, first.TotalDownloaded)
			require.Equal(t, types.StageExtracting, last.Stage)
			require.Equal(t, component.DownloadSize, last.TotalDownloaded)

			intermediate := states[1 : len(states)-1]
			wantIntermediate := 0
			if tt.every > 0 {
				wantIntermediate = chunks / tt.every
			}
			require.Len(t, intermediate, wantIntermediate)
			for n, state := range intermediate {
				require.Equal(t, types.StageDownloading, state.Stage)
				want := uint64((n + 1) * tt.every * chunk)
				if want > component.DownloadSize {
					want = component.DownloadSize
				}
				require.Equal(t, want, state.TotalDownloaded)
			}
		})
	}
}

func TestInstallerRunRemovesStagingOnFailure(t *testing.T) {
	f := newInstallerFixture(t)
	good := f.addComponent(t, "good", "", map[string]string{"good.txt": "ok"})
	f.archives.archives[testBaseURL+"broken.zip"] = []byte("not a zip archive")
	broken := types.Component{ID: "cat-broken", RawID: "broken", Hash: HashVerificationDisabled}

	err := f.installer.Run(t.Context(), InstallRequest{
		BaseURL:    testBaseURL,
		DestRoot:   f.dest,
		Components: []types.Component{good, broken},
	})
	require.Error(t, err)
	require.Equal(t, "ok", f.readFile(t, "good.txt"))
	exists, err := afero.Exists(f.fs, filepath.Join(f.dest, StagingDirName))
	require.NoError(t, err)
	require.False(t, exists, "staging area left behind after failure")
	require.Len(t, f.sink.fatalMessages(), 1)
}

func TestInstallerRunStopsOnHashMismatch(t *testing.T) {
	f := newInstallerFixture(t)
	first := f.addComponent(t, "good", "", map[string]string{"good.txt": "ok"})
	second := f.addComponent(t, "bad", "", map[string]string{"bad.txt": "tampered"})
	calculated := second.Hash
	second.Hash = "deadbeef"
	third := f.addComponent(t, "never", "", map[string]string{"never.txt": "x"})

	err := f.installer.Run(t.Context(), InstallRequest{
		BaseURL:    testBaseURL,
		DestRoot:   f.dest,
		Components: []types.Component{first, second, third},
	})
	require.Error(t, err)
	if diff := cmp.Diff(errbuilder.CodeFailedPrecondition, errbuilder.CodeOf(err)); diff != "" {
		t.Fatalf("unexpected error code (-want +got):\n%s", diff)
	}

	require.Equal(t, "ok", f.readFile(t, "good.txt"))
	for _, name := range []string{"bad.txt", "never.txt"} {
		exists, err := afero.Exists(f.fs, filepath.Join(f.dest, name))
		require.NoError(t, err)
		require.False(t, exists, "%s should not be installed", name)
	}

	fatal := f.sink.fatalMessages()
	require.Len(t, fatal, 1)
	require.True(t, strings.HasPrefix(fatal[0], `During install of "bad" - `), fatal[0])
	wantReason := `Download failed, hash mismatch: Got "` + calculated + `" expected "DEADBEEF" - URL: "` + testBaseURL + `bad.zip"`
	require.Contains(t, fatal[0], wantReason)
	require.Zero(t, f.sink.count(types.EventInstallationFinished))
	require.NotContains(t, f.archives.requests, testBaseURL+"never.zip")
}

func TestInstallerRunSkipsDisabledHash(t *testing.T) {
	f := newInstallerFixture(t)
	component := f.addComponent(t, "unchecked", "", map[string]string{"file.txt": "content"})
	component.Hash = HashVerificationDisabled

	err := f.installer.Run(t.Context(), InstallRequest{
		BaseURL:    testBaseURL,
		DestRoot:   f.dest,
		Components: []types.Component{component},
	})
	require.NoError(t, err)
	require.Equal(t, "content", f.readFile(t, "file.txt"))
}

func TestInstallerRunRejectsEscapingPath(t *testing.T) {
	f := newInstallerFixture(t)
	component := f.addComponent(t, "evil", "../outside", map[string]string{"file.txt": "x"})

	err := f.installer.Run(t.Context(), InstallRequest{
		BaseURL:    testBaseURL,
		DestRoot:   f.dest,
		Components: []types.Component{component},
	})
	require.Error(t, err)
	if diff := cmp.Diff(errbuilder.CodeInvalidArgument, errbuilder.CodeOf(err)); diff != "" {
		t.Fatalf("unexpected error code (-want +got):\n%s", diff)
	}
	require.Empty(t, f.archives.requests)
}

func TestInstallerRunTransportFailure(t *testing.T) {
	f := newInstallerFixture(t)
	component := types.Component{ID: "cat-missing", RawID: "missing", Hash: HashVerificationDisabled}

	err := f.installer.Run(t.Context(), InstallRequest{
		BaseURL:    testBaseURL,
		DestRoot:   f.dest,
		Components: []types.Component{component},
	})
	require.Error(t, err)
	fatal := f.sink.fatalMessages()
	require.Len(t, fatal, 1)
	require.True(t, strings.HasPrefix(fatal[0], `During install of "missing" - `), fatal[0])
}

func TestInstallerEmptyBatchFinishesImmediately(t *testing.T) {
	f := newInstallerFixture(t)

	run := f.installer.Start(t.Context(), InstallRequest{BaseURL: testBaseURL, DestRoot: f.dest})
	require.NoError(t, run.Wait(t.Context()))
	require.True(t, run.Finished())
	require.True(t, run.Succeeded())
	require.NotEmpty(t, run.ID)
	require.Equal(t, 1, f.sink.count(types.EventInstallationFinished))
}

func TestInstallerStartSnapshotsComponents(t *testing.T) {
	f := newInstallerFixture(t)
	component := f.addComponent(t, "only", "", map[string]string{"only.txt": "1"})
	components := []types.Component{component}

	run := f.installer.Start(t.Context(), InstallRequest{BaseURL: testBaseURL, DestRoot: f.dest, Components: components})
	components[0].RawID = "changed"
	require.NoError(t, run.Wait(t.Context()))
	require.Equal(t, "1", f.readFile(t, "only.txt"))
}

func TestVerifyChecksum(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		sum      uint32
		wantErr  bool
	}{
		{name: "match", expected: "0000ABCD", sum: 0xabcd},
		{name: "case insensitive", expected: "0000abcd", sum: 0xabcd},
		{name: "sentinel", expected: "00000000", sum: 0x1234},
		{name: "mismatch", expected: "00001234", sum: 0xabcd, wantErr: true},
		{name: "empty declared hash", expected: "", sum: 0xabcd, wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyChecksum(tt.expected, tt.sum, "https://example.invalid/x.zip")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}
