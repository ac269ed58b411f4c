package ports

import "bootstrapper/internal/types"

// EventSinkPort receives everything the session and installer broadcast
// to the front end. Implementations must be safe for concurrent use: the
// installer emits from its own goroutine.
type EventSinkPort interface {
	DownloadState(state types.DownloadState)
	InstallationFinished()
	FatalError(message string)
	Sync(snapshot types.SessionSnapshot)
	SyncSelected(selected []string)
}
