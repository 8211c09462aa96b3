package media

// Resource is one independently playable, independently seekable unit.
// Concrete resources are provided by the host; the synchronizer only drives
// them through this interface.
//
// SetCurrentTime starts the resource's own asynchronous seek. Completion is
// reported through OnSeeked, once per seek. OnReady fires at most once, when
// the resource becomes seek/play-capable. OnError reports acquisition faults;
// a faulted resource never becomes ready.
type Resource interface {
	ID() string

	CurrentTime() float64
	SetCurrentTime(t float64)

	PlaybackRate() float64
	SetPlaybackRate(rate float64)
	SetLoop(loop bool)

	// Duration is meaningful once the resource is ready
	Duration() float64
	IsReady() bool

	OnReady(fn func()) Subscription
	OnSeeked(fn func()) Subscription
	OnError(fn func(error)) Subscription
}
