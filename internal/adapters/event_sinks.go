package adapters

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/rs/zerolog"

	"bootstrapper/internal/ports"
	"bootstrapper/internal/shared"
	"bootstrapper/internal/types"
)

// LogEventSink writes every event to a zerolog logger.
type LogEventSink struct {
	logger zerolog.Logger
}

func NewLogEventSink(logger zerolog.Logger) LogEventSink {
	return LogEventSink{logger: logger}
}

func (s LogEventSink) DownloadState(state types.DownloadState) {
	event := s.logger.Debug().
		Str("event", string(types.EventDownloadState)).
		Str("stage", string(state.Stage)).
		Int("component_number", state.ComponentNumber).
		Int("total_components", state.TotalComponents).
		Uint64("total_downloaded", state.TotalDownloaded).
		Uint64("total_size", state.TotalSize)
	if state.Current != nil {
		event = event.Str("component", state.Current.ID)
	}
	event.Msg("download state")
}

func (s LogEventSink) InstallationFinished() {
	s.logger.Info().Str("event", string(types.EventInstallationFinished)).Msg("installation finished")
}

func (s LogEventSink) FatalError(message string) {
	s.logger.Error().Str("event", string(types.EventFatalError)).Msg(message)
}

func (s LogEventSink) Sync(snapshot types.SessionSnapshot) {
	s.logger.Debug().
		Str("event", string(types.EventSync)).
		Str("view", string(snapshot.Phase)).
		Str("path", snapshot.InstallationPath).
		Str("target", string(snapshot.InstallationTarget)).
		Str("channel", snapshot.InstallationChannel).
		Msg("session synced")
}

func (s LogEventSink) SyncSelected(selected []string) {
	s.logger.Debug().
		Str("event", string(types.EventSyncSelected)).
		Int("selected", len(selected)).
		Msg("selection synced")
}

// ConsoleEventSink prints human readable installation progress.
type ConsoleEventSink struct {
	mu        sync.Mutex
	out       io.Writer
	lastStage types.Stage
	lastIndex int
}

func NewConsoleEventSink(out io.Writer) *ConsoleEventSink {
	return &ConsoleEventSink{out: out}
}

var (
	consoleStageColor = color.New(color.FgCyan)
	consoleDoneColor  = color.New(color.FgGreen)
	consoleErrorColor = color.New(color.FgRed)
)

func (s *ConsoleEventSink) DownloadState(state types.DownloadState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state.Current == nil {
		return
	}
	if state.ComponentNumber != s.lastIndex || state.Stage != s.lastStage {
		_, _ = consoleStageColor.Fprintf(s.out, "[%d/%d] %s %s\n",
			state.ComponentNumber, state.TotalComponents, state.Stage, displayName(*state.Current))
		s.lastIndex = state.ComponentNumber
		s.lastStage = state.Stage
		return
	}
	_, _ = fmt.Fprintf(s.out, "      %s / %s (%d%%)\n",
		shared.ReadableByteSize(state.TotalDownloaded),
		shared.ReadableByteSize(state.TotalSize),
		shared.Percent(state.TotalDownloaded, state.TotalSize))
}

func (s *ConsoleEventSink) InstallationFinished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = consoleDoneColor.Fprintln(s.out, "Installation finished")
}

func (s *ConsoleEventSink) FatalError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = consoleErrorColor.Fprintf(s.out, "Error: %s\n", message)
}

func (s *ConsoleEventSink) Sync(types.SessionSnapshot) {}

func (s *ConsoleEventSink) SyncSelected(selected []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.out, "%d components selected\n", len(selected))
}

func displayName(component types.Component) string {
	if component.Name != "" {
		return component.Name
	}
	return component.ID
}

// JSONEventSink writes newline delimited {"event", "payload"} records for
// a front end reading the process output.
type JSONEventSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

type eventRecord struct {
	Event   types.EventName `json:"event"`
	Payload any             `json:"payload,omitempty"`
}

func NewJSONEventSink(out io.Writer) *JSONEventSink {
	return &JSONEventSink{enc: json.NewEncoder(out)}
}

func (s *JSONEventSink) emit(name types.EventName, payload any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(eventRecord{Event: name, Payload: payload})
}

func (s *JSONEventSink) DownloadState(state types.DownloadState) {
	s.emit(types.EventDownloadState, state)
}

func (s *JSONEventSink) InstallationFinished() {
	s.emit(types.EventInstallationFinished, nil)
}

func (s *JSONEventSink) FatalError(message string) {
	s.emit(types.EventFatalError, message)
}

func (s *JSONEventSink) Sync(snapshot types.SessionSnapshot) {
	s.emit(types.EventSync, snapshot)
}

func (s *JSONEventSink) SyncSelected(selected []string) {
	s.emit(types.EventSyncSelected, selected)
}

// MultiEventSink fans every event out to each sink in order.
type MultiEventSink []ports.EventSinkPort

func (m MultiEventSink) DownloadState(state types.DownloadState) {
	for _, sink := range m {
		sink.DownloadState(state.Clone())
	}
}

func (m MultiEventSink) InstallationFinished() {
	for _, sink := range m {
		sink.InstallationFinished()
	}
}

func (m MultiEventSink) FatalError(message string) {
	for _, sink := range m {
		sink.FatalError(message)
	}
}

func (m MultiEventSink) Sync(snapshot types.SessionSnapshot) {
	for _, sink := range m {
		sink.Sync(snapshot)
	}
}

func (m MultiEventSink) SyncSelected(selected []string) {
	for _, sink := range m {
		sink.SyncSelected(append([]string(nil), selected...))
	}
}

var _ ports.EventSinkPort = LogEventSink{}
var _ ports.EventSinkPort = (*ConsoleEventSink)(nil)
var _ ports.EventSinkPort = (*JSONEventSink)(nil)
var _ ports.EventSinkPort = MultiEventSink{}
