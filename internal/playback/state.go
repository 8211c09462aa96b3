package playback

// Phase is the synchronizer state
type Phase string

const (
	// PhaseIdle means no round is in flight
	PhaseIdle Phase = "idle"
	// PhaseDraining means a round is waiting for acknowledgements
	PhaseDraining Phase = "draining"
)

// State is a snapshot of the synchronizer clock
type State struct {
	CurrentTime       float64  `json:"currentTime"`
	Duration          float64  `json:"duration"`
	PlaybackRate      float64  `json:"playbackRate"`
	Playing           bool     `json:"playing"`
	Busy              bool     `json:"busy"`
	PendingTimeChange bool     `json:"pendingTimeChange"`
	Phase             Phase    `json:"phase"`
	Round             uint64   `json:"round"`
	Awaiting          []string `json:"awaiting,omitempty"`
	ActiveResources   int      `json:"activeResources"`
	PendingResources  int      `json:"pendingResources"`
}

// ResourceInfo describes one registered resource
type ResourceInfo struct {
	ID           string  `json:"id"`
	Ready        bool    `json:"ready"`
	Awaiting     bool    `json:"awaiting"`
	CurrentTime  float64 `json:"currentTime"`
	PlaybackRate float64 `json:"playbackRate"`
	Duration     float64 `json:"duration"`
}
