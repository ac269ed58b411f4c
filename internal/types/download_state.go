package types

// DownloadState is the progress record pushed to the event sink while an
// install batch runs.
type DownloadState struct {
	TotalSize       uint64     `json:"total_size"`
	TotalDownloaded uint64     `json:"total_downloaded"`
	TotalComponents int        `json:"total_components"`
	ComponentNumber int        `json:"component_number"`
	Current         *Component `json:"current"`
	Stage           Stage      `json:"stage"`
}

func (s DownloadState) Clone() DownloadState {
	clone := s
	if s.Current != nil {
		current := *s.Current
		clone.Current = &current
	}
	return clone
}
