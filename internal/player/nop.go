package player

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultReadingTime is how long [NopMedia] lingers on each slide.
const DefaultReadingTime = 5 * time.Second

const tickInterval = 250 * time.Millisecond

// NopMedia plays silence for a fixed reading time per slide.
type NopMedia struct {
	mu      sync.Mutex
	em      *emitter
	reading time.Duration
	res     Resource
	elapsed time.Duration
	started time.Time
	timer   *time.Timer
	stop    chan struct{}
}

// NewNopMedia creates a silent media that ends each slide after reading.
func NewNopMedia(reading time.Duration) *NopMedia {
	if reading <= 0 {
		reading = DefaultReadingTime
	}
	return &NopMedia{em: newEmitter(), reading: reading}
}

func (m *NopMedia) OnEvent(sink func(Event)) { m.em.setSink(sink) }

func (m *NopMedia) Load(r Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
	m.res = r
	m.em.emit(Event{Kind: LoadStart, Resource: r})
	m.em.emit(Event{Kind: CanPlay, Resource: r, Duration: m.reading})
}

func (m *NopMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.res == nil {
		return errors.New("nothing loaded")
	}
	if m.timer != nil {
		return nil
	}

	r := m.res
	m.started = time.Now()
	m.timer = time.AfterFunc(m.reading-m.elapsed, func() { m.finish(r) })
	m.stop = make(chan struct{})
	go m.tick(r, m.stop)

	m.em.emit(Event{Kind: Play, Resource: r})
	return nil
}

func (m *NopMedia) tick(r Resource, stop <-chan struct{}) {
	t := time.NewTicker(tickInterval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			m.mu.Lock()
			if m.res != r || m.timer == nil {
				m.mu.Unlock()
				return
			}
			pos := m.elapsed + time.Since(m.started)
			m.mu.Unlock()
			m.em.emit(Event{Kind: TimeUpdate, Resource: r, Position: min(pos, m.reading), Duration: m.reading})
		}
	}
}

func (m *NopMedia) finish(r Resource) {
	m.mu.Lock()
	if m.res != r || m.timer == nil {
		m.mu.Unlock()
		return
	}
	m.haltLocked()
	m.elapsed = m.reading
	m.mu.Unlock()

	m.em.emit(Event{Kind: TimeUpdate, Resource: r, Position: m.reading, Duration: m.reading})
	m.em.emit(Event{Kind: MediaEnded, Resource: r})
}

func (m *NopMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.timer == nil {
		return
	}
	m.elapsed += time.Since(m.started)
	m.haltLocked()
	m.em.emit(Event{Kind: Pause, Resource: m.res})
}

func (m *NopMedia) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *NopMedia) haltLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

func (m *NopMedia) resetLocked() {
	m.haltLocked()
	m.res = nil
	m.elapsed = 0
}

func (m *NopMedia) SetVolume(float64) {}
func (m *NopMedia) SetMuted(bool)     {}

// SilentLoader gives every slide an empty resource without touching the network.
type SilentLoader struct{}

// Acquire implements [Loader].
func (SilentLoader) Acquire(ctx context.Context, _ Slide) (Resource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return NewMemoryResource(nil), nil
}
