package ipc

import "skipper/internal/launchlog"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse is the daemon runtime snapshot.
type StatusResponse struct {
	Running     bool   `json:"running"`
	PID         int    `json:"pid"`
	Step        string `json:"step"`
	Initialized bool   `json:"initialized"`
	ServerURL   string `json:"server_url,omitempty"`
	Err         string `json:"error,omitempty"`
	LockPath    string `json:"lock_path"`
	JournalPath string `json:"journal_path,omitempty"`
	LogPath     string `json:"log_path"`
}

// AwaitInitRequest blocks until initialization reaches its terminal result.
// TimeoutMillis bounds the wait; zero means wait indefinitely.
type AwaitInitRequest struct {
	TimeoutMillis int64 `json:"timeout_millis"`
}

// AwaitInitResponse carries the shared terminal result.
type AwaitInitResponse struct {
	Ready    bool   `json:"ready"`
	URL      string `json:"url,omitempty"`
	Password string `json:"password,omitempty"`
	Err      string `json:"error,omitempty"`
}

// InitStepRequest fetches the current initialization step.
type InitStepRequest struct{}

// InitStepResponse names the current step and whether the shell should show
// an intermediate loading state.
type InitStepResponse struct {
	Step        string `json:"step"`
	ShowLoading bool   `json:"show_loading"`
}

// NotifyUIReadyRequest delivers the one-shot "shell rendered" signal.
type NotifyUIReadyRequest struct{}

// NotifyUIReadyResponse acknowledges delivery.
type NotifyUIReadyResponse struct {
	Acknowledged bool `json:"acknowledged"`
}

// KillSidecarRequest asks the daemon to terminate the spawned sidecar.
type KillSidecarRequest struct{}

// KillSidecarResponse reports whether a sidecar was there to kill.
type KillSidecarResponse struct {
	Killed bool `json:"killed"`
}

// LogTailRequest reads daemon log lines. A negative offset means "the last
// Limit lines"; otherwise reading resumes at Offset.
type LogTailRequest struct {
	Offset     int64 `json:"offset"`
	Limit      int   `json:"limit"`
	Follow     bool  `json:"follow"`
	WaitMillis int64 `json:"wait_millis"`
}

// LogTailResponse returns log lines plus the offset to resume from.
type LogTailResponse struct {
	Lines  []string `json:"lines"`
	Offset int64    `json:"offset"`
}

// ServerURLRequest reads the persisted custom server URL.
type ServerURLRequest struct{}

// ServerURLResponse carries the persisted custom server URL.
type ServerURLResponse struct {
	URL string `json:"url,omitempty"`
	Set bool   `json:"set"`
}

// SetServerURLRequest persists a custom server URL; empty clears it.
type SetServerURLRequest struct {
	URL string `json:"url"`
}

// SetServerURLResponse acknowledges the write.
type SetServerURLResponse struct {
	Saved bool `json:"saved"`
}

// WSLRequest reads the WSL launch toggle.
type WSLRequest struct{}

// WSLResponse carries the WSL launch toggle.
type WSLResponse struct {
	Enabled bool `json:"enabled"`
}

// SetWSLRequest persists the WSL launch toggle.
type SetWSLRequest struct {
	Enabled bool `json:"enabled"`
}

// SetWSLResponse acknowledges the write.
type SetWSLResponse struct {
	Saved bool `json:"saved"`
}

// DisplayRequest reads the windowing backend decision.
type DisplayRequest struct{}

// DisplayResponse describes the backend decision for the current session.
type DisplayResponse struct {
	Backend       string `json:"backend,omitempty"`
	Note          string `json:"note,omitempty"`
	Decorations   bool   `json:"decorations"`
	PreferWayland bool   `json:"prefer_wayland"`
}

// SetDisplayRequest persists the native Wayland preference.
type SetDisplayRequest struct {
	PreferWayland bool `json:"prefer_wayland"`
}

// SetDisplayResponse acknowledges the write.
type SetDisplayResponse struct {
	Saved bool `json:"saved"`
}

// HistoryRequest lists recent launch attempts.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryEntry mirrors a launch journal row.
type HistoryEntry = launchlog.Entry

// HistoryResponse returns launch attempts, newest first.
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse acknowledges shutdown.
type StopResponse struct {
	Stopping bool `json:"stopping"`
}
