package app

import "bootstrapper/internal/types"

// SessionRequest carries the startup settings of a session.
type SessionRequest struct {
	ConfigPath string
	ProductDir string
	Host       types.OperatingSystem
}

// ChannelRequest selects a manifest without going through the session
// path checks.
type ChannelRequest struct {
	ConfigPath string
	Target     string
	Channel    string
}

type InstallRequest struct {
	Session  SessionRequest
	Path     string
	Target   string
	Channel  string
	Select   []string
	Unselect []string
}

type InstallResult struct {
	SessionID string
	Path      string
	Target    types.OperatingSystem
	Channel   string
	Selected  []string
}

type InspectRequest struct {
	Channel ChannelRequest
	Select  []string
	Output  string
}

type InspectResult struct {
	Target     types.OperatingSystem
	Channel    string
	Channels   []string
	URL        string
	Components types.ComponentList
	Output     string
}

type DependenciesRequest struct {
	Channel ChannelRequest
	ID      string
	Reverse bool
}

type DependenciesResult struct {
	ID  string
	IDs []string
}
