package types

// SessionSnapshot is a point-in-time copy of the session handed to front
// ends on init and after every state change.
type SessionSnapshot struct {
	SessionID           string          `json:"session_id"`
	FatalError          string          `json:"fatal_error,omitempty"`
	Phase               Phase           `json:"view"`
	OperatingSystem     OperatingSystem `json:"operating_system"`
	InstallationTarget  OperatingSystem `json:"installation_target"`
	InstallationPath    string          `json:"installation_path"`
	InstallationChannel string          `json:"installation_channel"`
	Components          ComponentList   `json:"components"`
	Config              AppConfig       `json:"config"`
}
