package models

// Phase is the consumer-visible lifecycle phase.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseReady   Phase = "ready"
	PhaseError   Phase = "error"
)

// Terminal reports whether no further transition is allowed for the current
// resource.
func (p Phase) Terminal() bool {
	return p == PhaseReady || p == PhaseError
}

// ViewError is the single error shape exposed to consumers.
type ViewError struct {
	Message             string `json:"message"`
	FallbackDownloadURL string `json:"fallbackDownloadUrl,omitempty"`
}

// ViewState is the single source of truth for the consumer.
type ViewState struct {
	Phase      Phase    `json:"phase"`
	ResourceID string   `json:"resourceId,omitempty"`
	Strategy   Strategy `json:"strategy,omitempty"`
	// ReadyByTimeout is set when an editor session was declared ready by the
	// timeout heuristic rather than structural evidence.
	ReadyByTimeout bool `json:"readyByTimeout,omitempty"`
	// DownloadURL is the download action offered alongside ready content.
	DownloadURL string     `json:"downloadUrl,omitempty"`
	Error       *ViewError `json:"error,omitempty"`
}

// Idle is the zero view.
func Idle() ViewState { return ViewState{Phase: PhaseIdle} }

// ErrorMessage returns the error text or "".
func (v ViewState) ErrorMessage() string {
	if v.Error == nil {
		return ""
	}
	return v.Error.Message
}

// FallbackDownloadURL returns the error's download fallback or "".
func (v ViewState) FallbackDownloadURL() string {
	if v.Error == nil {
		return ""
	}
	return v.Error.FallbackDownloadURL
}
