package player

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"
)

// EventKind names a media element event.
type EventKind int

const (
	LoadStart EventKind = iota
	CanPlay
	Play
	Pause
	MediaEnded
	TimeUpdate
	MediaError
)

func (k EventKind) String() string {
	switch k {
	case LoadStart:
		return "loadstart"
	case CanPlay:
		return "canplay"
	case Play:
		return "play"
	case Pause:
		return "pause"
	case MediaEnded:
		return "ended"
	case TimeUpdate:
		return "timeupdate"
	case MediaError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted by a [Media] for the resource it was loaded with.
type Event struct {
	Kind     EventKind
	Resource Resource
	Position time.Duration
	Duration time.Duration
	Err      error
}

// Resource is one slide's audio, held from acquisition until Release.
//
// Implementations must be comparable; pointer types are.
type Resource interface {
	Open() (io.ReadCloser, error)
	Release()
}

// Loader acquires the audio resource for a slide.
type Loader interface {
	Acquire(ctx context.Context, slide Slide) (Resource, error)
}

// Media is the playback element.
//
// Methods are called with the player's lock held and must not block on event delivery.
// Events are delivered to the sink from another goroutine, tagged with the resource given
// to Load; after Stop or a new Load, events for the old resource are ignored by the player.
type Media interface {
	OnEvent(sink func(Event))
	Load(r Resource)
	Play() error
	Pause()
	Stop()
	SetVolume(v float64)
	SetMuted(muted bool)
}

var ErrReleased = errors.New("resource released")

// MemoryResource is audio held in memory.
type MemoryResource struct {
	mu       sync.Mutex
	data     []byte
	released bool
}

// NewMemoryResource wraps data.
func NewMemoryResource(data []byte) *MemoryResource {
	return &MemoryResource{data: data}
}

// Open returns a reader over the audio.
func (m *MemoryResource) Open() (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil, ErrReleased
	}
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

// Release drops the audio.
func (m *MemoryResource) Release() {
	m.mu.Lock()
	m.released = true
	m.data = nil
	m.mu.Unlock()
}

// Released reports whether Release was called.
func (m *MemoryResource) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// maxPendingTimeUpdates is the backlog past which new time updates are dropped.
const maxPendingTimeUpdates = 64

// emitter forwards events to a sink on its own goroutine, in order.
type emitter struct {
	mu    sync.Mutex
	sink  func(Event)
	queue []Event
	wake  chan struct{}
	once  sync.Once
}

func newEmitter() *emitter {
	return &emitter{wake: make(chan struct{}, 1)}
}

func (e *emitter) setSink(sink func(Event)) {
	e.mu.Lock()
	e.sink = sink
	e.mu.Unlock()
	e.once.Do(func() { go e.run() })
}

func (e *emitter) run() {
	for range e.wake {
		for {
			e.mu.Lock()
			if len(e.queue) == 0 {
				e.mu.Unlock()
				break
			}
			ev := e.queue[0]
			e.queue = e.queue[1:]
			sink := e.sink
			e.mu.Unlock()

			if sink != nil {
				sink(ev)
			}
		}
	}
}

// emit never blocks and never reorders. Time updates are dropped while the backlog is long.
func (e *emitter) emit(ev Event) {
	e.mu.Lock()
	if ev.Kind == TimeUpdate && len(e.queue) >= maxPendingTimeUpdates {
		e.mu.Unlock()
		return
	}
	e.queue = append(e.queue, ev)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}
