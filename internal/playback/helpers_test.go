package playback

import (
	"sync"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"

	"github.com/stacklok/playback-sync/internal/media"
)

// queue is a manual executor: posted closures run only when drain is called
type queue struct {
	mu  sync.Mutex
	fns []func()
}

func (q *queue) post(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.fns = append(q.fns, fn)
}

func (q *queue) drain() {
	for {
		q.mu.Lock()
		if len(q.fns) == 0 {
			q.mu.Unlock()
			return
		}
		fn := q.fns[0]
		q.fns = q.fns[1:]
		q.mu.Unlock()
		fn()
	}
}

// fakeResource records seeks and acknowledges only when told to
type fakeResource struct {
	id       string
	duration float64

	mu          sync.Mutex
	currentTime float64
	rate        float64
	loop        bool
	seeks       []float64

	ready  media.Once[struct{}]
	failed media.Once[error]
	seeked media.Signal[struct{}]
}

func newFakeResource(id string, duration float64) *fakeResource {
	return &fakeResource{id: id, duration: duration, rate: 1}
}

func (f *fakeResource) ID() string { return f.id }

func (f *fakeResource) CurrentTime() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.currentTime
}

func (f *fakeResource) SetCurrentTime(t float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentTime = t
	f.seeks = append(f.seeks, t)
}

func (f *fakeResource) PlaybackRate() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rate
}

func (f *fakeResource) SetPlaybackRate(rate float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rate = rate
}

func (f *fakeResource) SetLoop(loop bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loop = loop
}

func (f *fakeResource) Duration() float64 { return f.duration }

func (f *fakeResource) IsReady() bool { return f.ready.Fired() }

func (f *fakeResource) OnReady(fn func()) media.Subscription {
	return f.ready.Subscribe(func(struct{}) { fn() })
}

func (f *fakeResource) OnSeeked(fn func()) media.Subscription {
	return f.seeked.Subscribe(func(struct{}) { fn() })
}

func (f *fakeResource) OnError(fn func(error)) media.Subscription {
	return f.failed.Subscribe(fn)
}

func (f *fakeResource) markReady() { f.ready.Fire(struct{}{}) }

func (f *fakeResource) ack() { f.seeked.Emit(struct{}{}) }

func (f *fakeResource) seekCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seeks)
}

// recorder collects notifications; it is safe to read from the test goroutine
type recorder struct {
	mu      sync.Mutex
	renders []float64
	changes []float64
}

func (r *recorder) OnRender(t float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.renders = append(r.renders, t)
}

func (r *recorder) OnTimeChanged(t float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, t)
}

func (r *recorder) snapshot() (renders, changes []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.renders...), append([]float64(nil), r.changes...)
}

type harness struct {
	sync  *Synchronizer
	queue *queue
	clock *testingclock.FakeClock
	rec   *recorder
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		queue: &queue{},
		clock: testingclock.NewFakeClock(time.Now()),
		rec:   &recorder{},
	}
	opts = append([]Option{WithClock(h.clock), WithListener(h.rec)}, opts...)
	h.sync = NewSynchronizer(h.queue.post, opts...)
	return h
}

// addReady registers resources and admits them
func (h *harness) addReady(t *testing.T, resources ...*fakeResource) {
	t.Helper()

	for _, r := range resources {
		if err := h.sync.AddResource(r, nil); err != nil {
			t.Fatalf("add %s: %v", r.id, err)
		}
		r.markReady()
	}
	h.queue.drain()
}
