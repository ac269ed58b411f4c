package types

import (
	"runtime"
	"strings"
)

type OperatingSystem string

const (
	OperatingSystemLinux   OperatingSystem = "LINUX"
	OperatingSystemWindows OperatingSystem = "WINDOWS"
	OperatingSystemMacOS   OperatingSystem = "MACOS"
)

// HostOperatingSystem reports the platform the bootstrapper itself runs on.
func HostOperatingSystem() OperatingSystem {
	return OperatingSystemFor(runtime.GOOS)
}

func OperatingSystemFor(goos string) OperatingSystem {
	switch goos {
	case "windows":
		return OperatingSystemWindows
	case "darwin":
		return OperatingSystemMacOS
	default:
		return OperatingSystemLinux
	}
}

func ParseOperatingSystem(value string) (OperatingSystem, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "linux":
		return OperatingSystemLinux, true
	case "windows", "win":
		return OperatingSystemWindows, true
	case "macos", "mac", "darwin":
		return OperatingSystemMacOS, true
	default:
		return "", false
	}
}

// Phase is the installer view the session is currently in.
type Phase string

const (
	PhaseSetup        Phase = "SETUP"
	PhaseSelect       Phase = "SELECT"
	PhaseInstallation Phase = "INSTALLATION"
	PhaseFinished     Phase = "FINISHED"
)

func ParsePhase(value string) (Phase, bool) {
	switch Phase(strings.ToUpper(strings.TrimSpace(value))) {
	case PhaseSetup:
		return PhaseSetup, true
	case PhaseSelect, "SETUPSELECT":
		return PhaseSelect, true
	case PhaseInstallation:
		return PhaseInstallation, true
	case PhaseFinished:
		return PhaseFinished, true
	default:
		return "", false
	}
}

type Stage string

const (
	StageDownloading Stage = "Downloading"
	StageExtracting  Stage = "Extracting"
)

type EventName string

const (
	EventDownloadState        EventName = "download_state"
	EventInstallationFinished EventName = "installation_finished"
	EventFatalError           EventName = "fatal_error"
	EventSync                 EventName = "sync"
	EventSyncSelected         EventName = "sync_selected"
)
