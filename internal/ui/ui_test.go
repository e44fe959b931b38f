package ui

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/learnx/internal/models"
	"github.com/desertthunder/learnx/internal/player"
	"github.com/desertthunder/learnx/internal/tasks"
)

type fakeEngine struct {
	result *tasks.OpenResult
	err    error
}

func (e *fakeEngine) Open(_ context.Context, id string, progress chan<- tasks.ProgressUpdate) (*tasks.OpenResult, error) {
	progress <- tasks.ProgressUpdate{Phase: tasks.FetchManifest, Message: "Fetching " + id}
	return e.result, e.err
}

func (e *fakeEngine) Export(context.Context, string, tasks.ExportOpts, chan<- tasks.ProgressUpdate) (*tasks.ExportResult, error) {
	return nil, errors.New("not used")
}

type fakeControls struct {
	mu       sync.Mutex
	loaded   []player.Slide
	calls    []string
	goTo     []int
	volumes  []float64
	snapshot player.Snapshot
	updates  chan player.Snapshot
	done     chan struct{}
}

func newFakeControls() *fakeControls {
	return &fakeControls{updates: make(chan player.Snapshot, 8), done: make(chan struct{})}
}

func (c *fakeControls) record(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *fakeControls) Load(slides []player.Slide) { c.loaded = slides; c.record("load") }
func (c *fakeControls) GoTo(i int) error           { c.goTo = append(c.goTo, i); return nil }
func (c *fakeControls) Next() error                { c.record("next"); return nil }
func (c *fakeControls) Previous() error            { c.record("previous"); return nil }
func (c *fakeControls) Play() error                { c.record("play"); return nil }
func (c *fakeControls) TogglePlay() error          { c.record("toggle"); return nil }
func (c *fakeControls) SetVolume(v float64)        { c.volumes = append(c.volumes, v) }
func (c *fakeControls) ToggleMute()                { c.record("mute") }
func (c *fakeControls) Snapshot() player.Snapshot  { return c.snapshot }
func (c *fakeControls) Updates() <-chan player.Snapshot {
	return c.updates
}
func (c *fakeControls) Done() <-chan struct{} { return c.done }

func (c *fakeControls) count(call string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, got := range c.calls {
		if got == call {
			n++
		}
	}
	return n
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func openResult() *tasks.OpenResult {
	return &tasks.OpenResult{
		Presentation: &models.Presentation{ID: "p1", Title: "Intro to Go"},
		Slides: []player.Slide{
			{ID: "1", Title: "Welcome", Markup: "<h1>Welcome</h1><p>Hello there</p>", AudioRef: "a1"},
			{ID: "2", Title: "Types", Markup: "<p>Structs</p>", AudioRef: "a2"},
		},
	}
}

// openModel runs the fetch commands until the slide view is shown.
func openModel(t *testing.T, autoplay bool) (*Model, *fakeControls) {
	t.Helper()
	controls := newFakeControls()
	m := NewModel(context.Background(), "p1", &fakeEngine{result: openResult()}, controls, autoplay)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})

	msg := m.Init()()
	for range 5 {
		out, ok := msg.(Msg)
		if !ok {
			t.Fatalf("unexpected message %T", msg)
		}
		_, cmd := m.Update(out)
		if out.kind == MsgOpened {
			if m.view != SlideView {
				t.Fatalf("view = %v, want SlideView", m.view)
			}
			if cmd == nil {
				t.Fatal("expected listener commands after opening")
			}
			return m, controls
		}
		msg = cmd()
	}
	t.Fatal("presentation never opened")
	return nil, nil
}

func TestModel(t *testing.T) {
	t.Run("shows fetch progress while loading", func(t *testing.T) {
		m := NewModel(context.Background(), "p1", &fakeEngine{result: openResult()}, newFakeControls(), false)
		msg := m.Init()().(Msg)
		if msg.kind != MsgProgressUpdate {
			t.Fatalf("first message kind = %v, want progress", msg.kind)
		}
		m.Update(msg)
		if !strings.Contains(m.View(), "Fetching p1") {
			t.Errorf("loading view missing progress message:\n%s", m.View())
		}
	})

	t.Run("open failure switches to error view", func(t *testing.T) {
		m := NewModel(context.Background(), "p1", &fakeEngine{err: errors.New("boom")}, newFakeControls(), false)
		m.Update(m.Init()())
		m.Update(m.waitForProgress()())

		if m.view != ErrorView || m.Err() == nil {
			t.Fatalf("view = %v, err = %v", m.view, m.Err())
		}
		if !strings.Contains(m.View(), "boom") {
			t.Errorf("error view = %q", m.View())
		}
		if _, cmd := m.Update(runes("q")); cmd == nil {
			t.Error("q should quit from the error view")
		}
	})

	t.Run("loads slides into the player", func(t *testing.T) {
		m, controls := openModel(t, false)
		if len(controls.loaded) != 2 {
			t.Fatalf("loaded %d slides, want 2", len(controls.loaded))
		}
		if !strings.Contains(m.View(), "Intro to Go") {
			t.Errorf("view missing title:\n%s", m.View())
		}
	})

	t.Run("renders snapshot state", func(t *testing.T) {
		m, _ := openModel(t, false)
		m.Update(snapshotMsg(player.Snapshot{
			State: player.Loading, Index: 0, Total: 2, Slide: m.slides[0],
			AudioLoading: true, Volume: 0.8,
		}))

		view := m.View()
		for _, want := range []string{"Slide 1 of 2", "Welcome", "Hello there", "Loading audio...", "vol 80%"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q:\n%s", want, view)
			}
		}

		m.Update(snapshotMsg(player.Snapshot{
			State: player.Playing, Index: 1, Total: 2, Slide: m.slides[1],
			Playing: true, Speaking: true, Muted: true, Progress: 50,
		}))
		view = m.View()
		for _, want := range []string{"Slide 2 of 2", "Structs", "speaking", "muted"} {
			if !strings.Contains(view, want) {
				t.Errorf("view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("shows notices and audio errors", func(t *testing.T) {
		m, _ := openModel(t, false)
		m.Update(snapshotMsg(player.Snapshot{
			State: player.Error, Total: 2, Slide: m.slides[0],
			AudioError: true, Notice: "Audio is still loading",
		}))
		view := m.View()
		if !strings.Contains(view, "Audio unavailable") || !strings.Contains(view, "Audio is still loading") {
			t.Errorf("view = %s", view)
		}
	})

	t.Run("autoplay starts once on first ready slide", func(t *testing.T) {
		m, controls := openModel(t, true)
		m.Update(snapshotMsg(player.Snapshot{State: player.Loading, Total: 2}))
		if controls.count("play") != 0 {
			t.Fatal("played before the slide was ready")
		}
		m.Update(snapshotMsg(player.Snapshot{State: player.Ready, Total: 2}))
		m.Update(snapshotMsg(player.Snapshot{State: player.Ready, Index: 1, Total: 2}))
		if got := controls.count("play"); got != 1 {
			t.Errorf("play called %d times, want 1", got)
		}
	})

	t.Run("manual mode never plays on its own", func(t *testing.T) {
		m, controls := openModel(t, false)
		m.Update(snapshotMsg(player.Snapshot{State: player.Ready, Total: 2}))
		if controls.count("play") != 0 {
			t.Error("played without autoplay")
		}
	})

	t.Run("key bindings drive the player", func(t *testing.T) {
		m, controls := openModel(t, false)
		m.Update(snapshotMsg(player.Snapshot{State: player.Ready, Total: 2, Volume: 0.5}))

		m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")})
		m.Update(runes("n"))
		m.Update(tea.KeyMsg{Type: tea.KeyRight})
		m.Update(runes("p"))
		m.Update(tea.KeyMsg{Type: tea.KeyLeft})
		m.Update(runes("m"))
		m.Update(runes("+"))
		m.Update(runes("-"))

		for call, want := range map[string]int{"toggle": 1, "next": 2, "previous": 2, "mute": 1} {
			if got := controls.count(call); got != want {
				t.Errorf("%s called %d times, want %d", call, got, want)
			}
		}
		if len(controls.volumes) != 2 || math.Abs(controls.volumes[0]-0.6) > 1e-9 || math.Abs(controls.volumes[1]-0.4) > 1e-9 {
			t.Errorf("volumes = %v, want [0.6 0.4]", controls.volumes)
		}
	})

	t.Run("navigator jumps to the selected slide", func(t *testing.T) {
		m, controls := openModel(t, false)
		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		if m.view != NavigatorView {
			t.Fatalf("view = %v, want NavigatorView", m.view)
		}
		if !strings.Contains(m.View(), "Types") {
			t.Errorf("navigator missing slide titles:\n%s", m.View())
		}

		m.Update(tea.KeyMsg{Type: tea.KeyDown})
		m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		if m.view != SlideView {
			t.Fatalf("view = %v, want SlideView", m.view)
		}
		if len(controls.goTo) != 1 || controls.goTo[0] != 1 {
			t.Errorf("goTo = %v, want [1]", controls.goTo)
		}

		m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		if m.view != SlideView || len(controls.goTo) != 1 {
			t.Errorf("esc should return without navigating, goTo = %v", controls.goTo)
		}
	})

	t.Run("completion is announced", func(t *testing.T) {
		m, controls := openModel(t, false)
		close(controls.done)
		msg := m.waitForDone()()
		m.Update(msg)
		if !strings.Contains(m.View(), "Presentation complete") {
			t.Errorf("view = %s", m.View())
		}
	})

	t.Run("snapshot listener stops when updates close", func(t *testing.T) {
		m, controls := openModel(t, false)
		close(controls.updates)
		if msg := m.waitForSnapshot()(); msg != nil {
			t.Errorf("msg = %v, want nil", msg)
		}
	})

	t.Run("quit key", func(t *testing.T) {
		m, _ := openModel(t, false)
		if _, cmd := m.Update(runes("q")); cmd == nil {
			t.Error("q should quit")
		}
	})
}

func TestSlideItem(t *testing.T) {
	items := slideItems(openResult().Slides)
	if len(items) != 2 {
		t.Fatalf("len = %d", len(items))
	}
	item := items[0].(slideItem)
	if item.Title() != "1. Welcome" {
		t.Errorf("Title() = %q", item.Title())
	}
	if item.Description() != "Welcome" {
		t.Errorf("Description() = %q", item.Description())
	}
	if item.FilterValue() != "Welcome" {
		t.Errorf("FilterValue() = %q", item.FilterValue())
	}
}
