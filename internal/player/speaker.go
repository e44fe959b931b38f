package player

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
)

const speakerRate = beep.SampleRate(44100)

var speakerInit struct {
	once sync.Once
	err  error
}

func initSpeaker() error {
	speakerInit.once.Do(func() {
		speakerInit.err = speaker.Init(speakerRate, speakerRate.N(100*time.Millisecond))
	})
	return speakerInit.err
}

// SpeakerMedia decodes MP3 narration and plays it on the default audio device.
type SpeakerMedia struct {
	em  *emitter
	seq atomic.Uint64

	mu     sync.Mutex
	res    Resource
	stream beep.StreamSeekCloser
	format beep.Format
	ctrl   *beep.Ctrl
	vol    *effects.Volume
	level  float64
	muted  bool
	stop   chan struct{}
}

// NewSpeakerMedia opens the audio device.
func NewSpeakerMedia() (*SpeakerMedia, error) {
	if err := initSpeaker(); err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	return &SpeakerMedia{em: newEmitter(), level: 1}, nil
}

func (m *SpeakerMedia) OnEvent(sink func(Event)) { m.em.setSink(sink) }

func (m *SpeakerMedia) Load(r Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetLocked()
	m.res = r
	seq := m.seq.Load()

	m.em.emit(Event{Kind: LoadStart, Resource: r})
	go m.decode(seq, r)
}

func (m *SpeakerMedia) decode(seq uint64, r Resource) {
	rc, err := r.Open()
	if err != nil {
		m.em.emit(Event{Kind: MediaError, Resource: r, Err: err})
		return
	}

	stream, format, err := mp3.Decode(rc)
	if err != nil {
		rc.Close()
		m.em.emit(Event{Kind: MediaError, Resource: r, Err: fmt.Errorf("failed to decode audio: %w", err)})
		return
	}

	m.mu.Lock()
	if m.seq.Load() != seq {
		m.mu.Unlock()
		stream.Close()
		return
	}
	m.stream = stream
	m.format = format
	m.mu.Unlock()

	m.em.emit(Event{Kind: CanPlay, Resource: r, Duration: format.SampleRate.D(stream.Len())})
}

func (m *SpeakerMedia) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return errors.New("no audio decoded")
	}

	r := m.res
	seq := m.seq.Load()

	if m.ctrl == nil {
		var s beep.Streamer = m.stream
		if m.format.SampleRate != speakerRate {
			s = beep.Resample(4, m.format.SampleRate, speakerRate, s)
		}
		m.ctrl = &beep.Ctrl{Streamer: beep.Seq(s, beep.Callback(func() { m.ended(seq, r) }))}
		m.vol = &effects.Volume{Streamer: m.ctrl, Base: 2, Volume: gain(m.level), Silent: m.muted || m.level == 0}
		speaker.Play(m.vol)
	} else {
		speaker.Lock()
		m.ctrl.Paused = false
		speaker.Unlock()
	}

	if m.stop == nil {
		m.stop = make(chan struct{})
		go m.tick(seq, r, m.stop)
	}
	m.em.emit(Event{Kind: Play, Resource: r})
	return nil
}

// ended runs on the speaker goroutine with the speaker locked.
func (m *SpeakerMedia) ended(seq uint64, r Resource) {
	if m.seq.Load() != seq {
		return
	}
	go func() {
		m.mu.Lock()
		if m.seq.Load() != seq {
			m.mu.Unlock()
			return
		}
		m.stopTickLocked()
		d := m.format.SampleRate.D(m.stream.Len())
		m.mu.Unlock()

		m.em.emit(Event{Kind: TimeUpdate, Resource: r, Position: d, Duration: d})
		m.em.emit(Event{Kind: MediaEnded, Resource: r})
	}()
}

func (m *SpeakerMedia) tick(seq uint64, r Resource, stop <-chan struct{}) {
	t := time.NewTicker(tickInterval)
	defer t.Stop()

	for {
		select {
		case <-stop:
			return
		case <-t.C:
			m.mu.Lock()
			if m.seq.Load() != seq || m.stream == nil {
				m.mu.Unlock()
				return
			}
			speaker.Lock()
			pos, n := m.stream.Position(), m.stream.Len()
			speaker.Unlock()
			rate := m.format.SampleRate
			m.mu.Unlock()

			m.em.emit(Event{Kind: TimeUpdate, Resource: r, Position: rate.D(pos), Duration: rate.D(n)})
		}
	}
}

func (m *SpeakerMedia) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ctrl == nil {
		return
	}
	speaker.Lock()
	m.ctrl.Paused = true
	speaker.Unlock()
	m.stopTickLocked()
	m.em.emit(Event{Kind: Pause, Resource: m.res})
}

func (m *SpeakerMedia) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *SpeakerMedia) stopTickLocked() {
	if m.stop != nil {
		close(m.stop)
		m.stop = nil
	}
}

func (m *SpeakerMedia) resetLocked() {
	m.seq.Add(1)
	m.stopTickLocked()
	if m.ctrl != nil {
		speaker.Clear()
		m.ctrl = nil
		m.vol = nil
	}
	if m.stream != nil {
		m.stream.Close()
		m.stream = nil
	}
	m.res = nil
}

func (m *SpeakerMedia) SetVolume(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = v
	m.applyVolumeLocked()
}

func (m *SpeakerMedia) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	m.applyVolumeLocked()
}

func (m *SpeakerMedia) applyVolumeLocked() {
	if m.vol == nil {
		return
	}
	speaker.Lock()
	m.vol.Volume = gain(m.level)
	m.vol.Silent = m.muted || m.level == 0
	speaker.Unlock()
}

// gain converts a linear level to the base-2 exponent [effects.Volume] expects.
func gain(level float64) float64 {
	if level <= 0 {
		return 0
	}
	return math.Log2(level)
}
