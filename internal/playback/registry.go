package playback

import (
	"errors"

	"github.com/stacklok/playback-sync/internal/media"
	"github.com/stacklok/playback-sync/internal/timing"
)

var (
	// ErrDuplicateResource is returned when a resource id is already registered
	ErrDuplicateResource = errors.New("resource already registered")
	// ErrUnknownResource is returned when a resource is not registered
	ErrUnknownResource = errors.New("resource not registered")
)

// ResourceOption overrides per-resource playback settings on add
type ResourceOption func(*resourceOptions)

type resourceOptions struct {
	playbackRate float64
	loop         bool
}

// WithResourcePlaybackRate pins the resource to rate instead of the player rate
func WithResourcePlaybackRate(rate float64) ResourceOption {
	return func(o *resourceOptions) {
		if rate > 0 {
			o.playbackRate = rate
		}
	}
}

// WithResourceLoop overrides looped playback, which is on by default
func WithResourceLoop(loop bool) ResourceOption {
	return func(o *resourceOptions) {
		o.loop = loop
	}
}

// entry is the registry identity of a resource. Events are matched against
// the entry, never against the resource value, so a removed and re-added
// resource does not inherit acknowledgements addressed to its old entry.
// Seeked events reach an entry through its resource's seekTracker.
type entry struct {
	res     media.Resource
	onReady func(media.Resource)
	rate    float64 // pinned rate, zero follows the player

	ready   bool
	removed bool
	subs    []media.Subscription
}

func (e *entry) unsubscribe() {
	for _, sub := range e.subs {
		sub.Unsubscribe()
	}
	e.subs = nil
}

// seekTracker owns the single seeked subscription of a resource. Every seek
// produces exactly one seeked event, in order, so the oldest outstanding
// issuer owns the next event, even when it was removed since. The tracker
// outlives its entry until those events have arrived.
type seekTracker struct {
	res     media.Resource
	sub     media.Subscription
	current *entry
	issued  []*entry
}

// registryHooks receives entry events on the owner's goroutine
type registryHooks struct {
	ready  func(*entry)
	seeked func(*entry)
	failed func(*entry, error)
}

// registry tracks registered resources and admits them to the active set
// once they report readiness
type registry struct {
	exec  timing.Executor
	hooks registryHooks

	byID     map[string]*entry
	order    []*entry
	trackers map[string]*seekTracker
}

func newRegistry(exec timing.Executor, hooks registryHooks) *registry {
	return &registry{
		exec:  exec,
		hooks: hooks,
		byID:     make(map[string]*entry),
		trackers: make(map[string]*seekTracker),
	}
}

func (r *registry) add(res media.Resource, onReady func(media.Resource), rate float64, opts ...ResourceOption) (*entry, error) {
	id := res.ID()
	if _, ok := r.byID[id]; ok {
		return nil, ErrDuplicateResource
	}

	o := resourceOptions{loop: true}
	for _, opt := range opts {
		opt(&o)
	}

	e := &entry{res: res, onReady: onReady, rate: o.playbackRate}
	res.SetLoop(o.loop)
	res.SetPlaybackRate(e.effectiveRate(rate))

	r.byID[id] = e
	r.order = append(r.order, e)
	r.tracker(res).current = e

	e.subs = append(e.subs,
		res.OnReady(func() {
			r.exec(func() { r.markReady(e) })
		}),
		res.OnError(func(err error) {
			r.exec(func() {
				if !e.removed && !e.ready {
					r.hooks.failed(e, err)
				}
			})
		}),
	)

	// a resource that is ready already is admitted before add returns
	if res.IsReady() {
		r.markReady(e)
	}
	return e, nil
}

// tracker returns the seek tracker of res, subscribing on first use.
// A tracker left behind by a different resource with the same id is dropped.
func (r *registry) tracker(res media.Resource) *seekTracker {
	id := res.ID()
	if t, ok := r.trackers[id]; ok {
		if t.res == res {
			return t
		}
		t.sub.Unsubscribe()
	}
	t := &seekTracker{res: res}
	t.sub = res.OnSeeked(func() {
		r.exec(func() { r.seeked(t) })
	})
	r.trackers[id] = t
	return t
}

// seek records e as the issuer of the next seeked event and seeks its resource
func (r *registry) seek(e *entry, at float64) {
	if t, ok := r.trackers[e.res.ID()]; ok && t.current == e {
		t.issued = append(t.issued, e)
	}
	e.res.SetCurrentTime(at)
}

func (r *registry) seeked(t *seekTracker) {
	owner := t.current
	if len(t.issued) > 0 {
		owner = t.issued[0]
		t.issued = t.issued[1:]
	}
	if owner != nil && !owner.removed {
		r.hooks.seeked(owner)
	}
	r.release(t)
}

// release unsubscribes t once it has no entry and no outstanding seeks
func (r *registry) release(t *seekTracker) {
	if t.current != nil || len(t.issued) > 0 {
		return
	}
	t.sub.Unsubscribe()
	if id := t.res.ID(); r.trackers[id] == t {
		delete(r.trackers, id)
	}
}

// markReady admits e exactly once
func (r *registry) markReady(e *entry) {
	if e.removed || e.ready {
		return
	}
	e.ready = true
	r.hooks.ready(e)
}

func (r *registry) remove(id string) (*entry, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, ErrUnknownResource
	}
	e.removed = true
	e.unsubscribe()
	if t, ok := r.trackers[id]; ok && t.current == e {
		t.current = nil
		r.release(t)
	}

	delete(r.byID, id)
	for i, v := range r.order {
		if v == e {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return e, nil
}

// close drops every tracker, including those still awaiting stale events
func (r *registry) close() {
	for id, t := range r.trackers {
		t.sub.Unsubscribe()
		delete(r.trackers, id)
	}
}

func (r *registry) get(id string) (*entry, bool) {
	e, ok := r.byID[id]
	return e, ok
}

// active returns a snapshot of ready entries in registration order
func (r *registry) active() []*entry {
	out := make([]*entry, 0, len(r.order))
	for _, e := range r.order {
		if e.ready {
			out = append(out, e)
		}
	}
	return out
}

func (r *registry) all() []*entry {
	return append([]*entry(nil), r.order...)
}

func (r *registry) counts() (active, pending int) {
	for _, e := range r.order {
		if e.ready {
			active++
		} else {
			pending++
		}
	}
	return active, pending
}

func (e *entry) effectiveRate(playerRate float64) float64 {
	if e.rate > 0 {
		return e.rate
	}
	return playerRate
}
