package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/learnx/internal/shared"
)

// DefaultAdvanceDelay is the pause between a slide's audio ending and the next slide.
const DefaultAdvanceDelay = time.Second

var (
	ErrNoSlides         = errors.New("no slides loaded")
	ErrOutOfRange       = errors.New("slide index out of range")
	ErrAudioUnavailable = errors.New("audio unavailable")
	ErrAudioLoading     = fmt.Errorf("%w: still loading", ErrAudioUnavailable)
	ErrClosed           = errors.New("player closed")
)

// Slide is one unit of content: markup and its narration.
type Slide struct {
	ID       string
	Title    string
	Markup   string
	AudioRef string
}

// State is the playback state of the current slide.
type State int

const (
	Idle State = iota
	Loading
	Ready
	Playing
	Paused
	Ended
	Complete
	Error
)

func (s State) String() string {
	return [...]string{"idle", "loading", "ready", "playing", "paused", "ended", "complete", "error"}[s]
}

// Snapshot is a copy of the player's observable state.
type Snapshot struct {
	State        State
	Index        int
	Total        int
	Slide        Slide
	Progress     float64 // percent, 0 to 100
	Position     time.Duration
	Duration     time.Duration
	Playing      bool
	Speaking     bool
	Volume       float64
	Muted        bool
	AudioLoading bool
	AudioError   bool
	Completed    bool
	Notice       string // last rejected action, cleared on slide change
}

// AudioStatus is the one-line audio indicator shown next to the controls.
func (s Snapshot) AudioStatus() string {
	switch {
	case s.AudioLoading:
		return "Loading audio..."
	case s.AudioError:
		return "Audio unavailable"
	default:
		return "Audio ready"
	}
}

// Timer is a pending delayed call.
type Timer interface {
	Stop() bool
}

// Options configures a [Player].
type Options struct {
	AdvanceDelay time.Duration
	Volume       float64 // initial volume, defaults to 1
	Logger       *log.Logger

	// AfterFunc schedules the auto-advance. Defaults to [time.AfterFunc].
	AfterFunc func(d time.Duration, f func()) Timer
}

// Player drives one [Media] through a slide list.
type Player struct {
	media     Media
	loader    Loader
	logger    *log.Logger
	delay     time.Duration
	afterFunc func(d time.Duration, f func()) Timer

	mu       sync.Mutex
	slides   []Slide
	index    int
	state    State
	progress float64
	position time.Duration
	duration time.Duration
	playing  bool
	speaking bool
	volume   float64
	muted    bool
	loading  bool
	audioErr bool
	notice   string

	res           Resource
	gen           uint64
	cancelAcquire context.CancelFunc
	advance       Timer
	autoplay      bool
	completed     bool
	done          chan struct{}
	updates       chan Snapshot
	closed        bool
}

// New creates a Player around media and loader.
func New(media Media, loader Loader, opts Options) *Player {
	p := &Player{
		media:     media,
		loader:    loader,
		logger:    opts.Logger,
		delay:     opts.AdvanceDelay,
		afterFunc: opts.AfterFunc,
		volume:    1,
		done:      make(chan struct{}),
		updates:   make(chan Snapshot, 1),
	}

	if p.logger == nil {
		p.logger = shared.NewLogger(nil)
	}
	if p.delay <= 0 {
		p.delay = DefaultAdvanceDelay
	}
	if p.afterFunc == nil {
		p.afterFunc = func(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
	}
	if opts.Volume > 0 && opts.Volume <= 1 {
		p.volume = opts.Volume
	}

	media.SetVolume(p.volume)
	media.SetMuted(false)
	media.OnEvent(p.HandleEvent)
	return p
}

// Load replaces the slide list and starts loading the first slide.
//
// Each Load gets a fresh [Player.Done] channel.
func (p *Player) Load(slides []Slide) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}

	p.slides = append([]Slide(nil), slides...)
	p.index = 0
	p.completed = false
	p.autoplay = false
	p.done = make(chan struct{})

	if len(p.slides) == 0 {
		p.detachLocked()
		p.state = Idle
		p.publishLocked()
		return
	}
	p.loadSlideLocked()
}

// detachLocked stops playback, cancels pending work and releases the attached resource.
func (p *Player) detachLocked() {
	p.gen++
	if p.advance != nil {
		p.advance.Stop()
		p.advance = nil
	}
	if p.cancelAcquire != nil {
		p.cancelAcquire()
		p.cancelAcquire = nil
	}
	p.media.Stop()
	if p.res != nil {
		p.res.Release()
		p.res = nil
	}
	p.autoplay = false
	p.playing = false
	p.speaking = false
	p.progress = 0
	p.position = 0
	p.duration = 0
	p.notice = ""
}

func (p *Player) loadSlideLocked() {
	p.detachLocked()
	p.state = Loading
	p.loading = true
	p.audioErr = false

	gen := p.gen
	slide := p.slides[p.index]
	ctx, cancel := context.WithCancel(context.Background())
	p.cancelAcquire = cancel
	p.publishLocked()

	go p.acquire(ctx, gen, slide)
}

func (p *Player) acquire(ctx context.Context, gen uint64, slide Slide) {
	res, err := p.loader.Acquire(ctx, slide)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || gen != p.gen {
		if res != nil {
			res.Release()
		}
		return
	}
	p.cancelAcquire = nil

	if err != nil {
		p.logger.Warn("slide audio unavailable", "slide", slide.ID, "error", err)
		p.failLocked()
		return
	}

	p.res = res
	p.media.Load(res)
	p.publishLocked()
}

func (p *Player) failLocked() {
	p.loading = false
	p.audioErr = true
	p.playing = false
	p.speaking = false
	p.autoplay = false
	p.state = Error
	p.publishLocked()
}

// HandleEvent applies a media event. Events for anything but the attached resource are ignored.
func (p *Player) HandleEvent(ev Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.res == nil || ev.Resource != p.res {
		return
	}

	switch ev.Kind {
	case LoadStart:
		p.loading = true
		p.audioErr = false
		p.state = Loading
	case CanPlay:
		p.loading = false
		p.audioErr = false
		if ev.Duration > 0 {
			p.duration = ev.Duration
		}
		if !p.playing {
			p.state = Ready
		}
		if p.autoplay {
			p.autoplay = false
			if err := p.playLocked(); err != nil {
				p.logger.Warn("auto-play failed", "error", err)
			}
		}
	case Play:
		p.playing = true
		p.speaking = true
		p.state = Playing
	case Pause:
		p.playing = false
		p.speaking = false
		if p.state == Playing {
			p.state = Paused
		}
	case MediaEnded:
		p.playing = false
		p.speaking = false
		p.progress = 100
		p.state = Ended
		p.scheduleAdvanceLocked()
	case TimeUpdate:
		p.position = ev.Position
		if ev.Duration > 0 {
			p.duration = ev.Duration
		}
		if p.duration > 0 && p.position > 0 {
			p.progress = min(100, float64(p.position)/float64(p.duration)*100)
		}
	case MediaError:
		p.logger.Warn("audio playback error", "slide", p.slides[p.index].ID, "error", ev.Err)
		p.failLocked()
		return
	}
	p.publishLocked()
}

func (p *Player) scheduleAdvanceLocked() {
	if p.advance != nil {
		p.advance.Stop()
	}
	gen := p.gen
	p.advance = p.afterFunc(p.delay, func() { p.autoAdvance(gen) })
}

func (p *Player) autoAdvance(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || gen != p.gen {
		return
	}
	p.advance = nil

	if p.index < len(p.slides)-1 {
		p.index++
		p.loadSlideLocked()
		p.autoplay = true
		return
	}
	p.completeLocked()
}

func (p *Player) completeLocked() {
	if p.completed {
		return
	}
	p.completed = true
	p.state = Complete
	close(p.done)
	p.publishLocked()
}

// GoTo jumps to slide i. Jumping to the current slide does nothing.
func (p *Player) GoTo(i int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.usableLocked(); err != nil {
		return err
	}
	if i < 0 || i >= len(p.slides) {
		return fmt.Errorf("%w: %d of %d", ErrOutOfRange, i+1, len(p.slides))
	}
	if i == p.index {
		return nil
	}
	p.index = i
	p.loadSlideLocked()
	return nil
}

// Next moves forward one slide. At the last slide it signals completion instead.
func (p *Player) Next() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.usableLocked(); err != nil {
		return err
	}
	if p.index < len(p.slides)-1 {
		p.index++
		p.loadSlideLocked()
		return nil
	}
	p.completeLocked()
	return nil
}

// Previous moves back one slide. At the first slide it does nothing.
func (p *Player) Previous() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.usableLocked(); err != nil {
		return err
	}
	if p.index > 0 {
		p.index--
		p.loadSlideLocked()
	}
	return nil
}

func (p *Player) usableLocked() error {
	if p.closed {
		return ErrClosed
	}
	if len(p.slides) == 0 {
		return ErrNoSlides
	}
	return nil
}

// Play starts the current slide's audio.
//
// It is rejected with [ErrAudioUnavailable] while the audio is loading or after it failed;
// the rejection is recorded in [Snapshot.Notice].
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.usableLocked(); err != nil {
		return err
	}
	err := p.playLocked()
	p.publishLocked()
	return err
}

func (p *Player) playLocked() error {
	switch {
	case p.audioErr:
		p.notice = "Audio unavailable for this slide"
		return ErrAudioUnavailable
	case p.loading || p.res == nil:
		p.notice = "Audio is still loading"
		return ErrAudioLoading
	}

	if err := p.media.Play(); err != nil {
		p.logger.Warn("audio playback failed", "error", err)
		p.notice = "Audio playback failed"
		p.audioErr = true
		p.playing = false
		p.speaking = false
		p.state = Error
		return fmt.Errorf("%w: %v", ErrAudioUnavailable, err)
	}
	p.notice = ""
	return nil
}

// Pause pauses the current slide's audio.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.autoplay = false
	p.media.Pause()
}

// TogglePlay pauses when playing and plays otherwise.
func (p *Player) TogglePlay() error {
	p.mu.Lock()
	playing := p.playing
	p.mu.Unlock()

	if playing {
		p.Pause()
		return nil
	}
	return p.Play()
}

// SetVolume sets the volume, clamped to [0, 1]. A non-zero volume unmutes.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	v = max(0, min(1, v))
	p.volume = v
	p.media.SetVolume(v)
	if v > 0 && p.muted {
		p.muted = false
		p.media.SetMuted(false)
	}
	p.publishLocked()
}

// ToggleMute flips the mute flag.
func (p *Player) ToggleMute() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.muted = !p.muted
	p.media.SetMuted(p.muted)
	p.publishLocked()
}

// Snapshot returns the current state.
func (p *Player) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked()
}

func (p *Player) snapshotLocked() Snapshot {
	s := Snapshot{
		State:        p.state,
		Index:        p.index,
		Total:        len(p.slides),
		Progress:     p.progress,
		Position:     p.position,
		Duration:     p.duration,
		Playing:      p.playing,
		Speaking:     p.speaking,
		Volume:       p.volume,
		Muted:        p.muted,
		AudioLoading: p.loading,
		AudioError:   p.audioErr,
		Completed:    p.completed,
		Notice:       p.notice,
	}
	if p.index < len(p.slides) {
		s.Slide = p.slides[p.index]
	}
	return s
}

// publishLocked offers the latest snapshot, replacing one nobody has read yet.
func (p *Player) publishLocked() {
	if p.closed {
		return
	}
	snap := p.snapshotLocked()
	select {
	case p.updates <- snap:
	default:
		select {
		case <-p.updates:
		default:
		}
		select {
		case p.updates <- snap:
		default:
		}
	}
}

// Updates delivers snapshots as state changes. Slow readers only see the latest one.
// The channel is closed by [Player.Close].
func (p *Player) Updates() <-chan Snapshot {
	return p.updates
}

// Done is closed when the current slide list completes.
func (p *Player) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Close stops playback and releases the attached resource. It is safe to call repeatedly.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.detachLocked()
	p.closed = true
	close(p.updates)
}
