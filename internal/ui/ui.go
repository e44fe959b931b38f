package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/learnx/internal/formatter"
	"github.com/desertthunder/learnx/internal/player"
	"github.com/desertthunder/learnx/internal/shared"
	"github.com/desertthunder/learnx/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	SlideView
	NavigatorView
	ErrorView
)

const volumeStep = 0.1

// Controls is the part of [player.Player] the presentation view drives.
type Controls interface {
	Load(slides []player.Slide)
	GoTo(i int) error
	Next() error
	Previous() error
	Play() error
	TogglePlay() error
	SetVolume(v float64)
	ToggleMute()
	Snapshot() player.Snapshot
	Updates() <-chan player.Snapshot
	Done() <-chan struct{}
}

var _ Controls = (*player.Player)(nil)

// Model represents the presentation player TUI state.
type Model struct {
	ctx       context.Context
	id        string
	engine    tasks.Engine
	player    Controls
	autoplay  bool
	started   bool
	view      ViewState
	width     int
	height    int
	title     string
	slides    []player.Slide
	shownIdx  int
	snapshot  player.Snapshot
	bar       progress.Model
	body      viewport.Model
	navigator list.Model
	help      help.Model
	keys      keyMap
	err       error
	completed bool

	progressChan chan tasks.ProgressUpdate
	openedChan   chan Msg
	progress     tasks.ProgressUpdate
}

// NewModel creates a presentation TUI that opens id through engine and plays it on p.
//
// With autoplay set, narration starts as soon as the first slide is ready.
func NewModel(ctx context.Context, id string, engine tasks.Engine, p Controls, autoplay bool) *Model {
	return &Model{
		ctx:      ctx,
		id:       id,
		engine:   engine,
		player:   p,
		autoplay: autoplay,
		view:     LoadingView,
		shownIdx: -1,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		body:     viewport.New(80, 16),
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init starts fetching the presentation.
func (m *Model) Init() tea.Cmd {
	return m.startOpen()
}

// Err reports the error that stopped the presentation, if any.
func (m *Model) Err() error { return m.err }

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case SlideView:
			return m.handleSlideKeys(msg)
		case NavigatorView:
			return m.handleNavigatorKeys(msg)
		default:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m, nil
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgOpened:
		data := msg.data.(struct {
			result *tasks.OpenResult
			err    error
		})
		if data.err != nil {
			m.err = data.err
			m.view = ErrorView
			return m, nil
		}
		m.title = data.result.Presentation.Title
		m.slides = data.result.Slides
		m.navigator = list.New(slideItems(m.slides), list.NewDefaultDelegate(), 0, 0)
		m.navigator.Title = m.title
		m.resize(m.width, m.height)
		m.view = SlideView
		m.player.Load(m.slides)
		return m, tea.Batch(m.waitForSnapshot(), m.waitForDone())

	case MsgSnapshot:
		m.applySnapshot(msg.data.(player.Snapshot))
		if m.autoplay && !m.started && m.snapshot.State == player.Ready {
			m.started = true
			_ = m.player.Play()
		}
		return m, m.waitForSnapshot()

	case MsgComplete:
		m.completed = true
		return m, nil
	}

	return m, nil
}

func (m *Model) handleSlideKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.play):
		_ = m.player.TogglePlay()
	case key.Matches(msg, m.keys.next):
		_ = m.player.Next()
	case key.Matches(msg, m.keys.previous):
		_ = m.player.Previous()
	case key.Matches(msg, m.keys.louder):
		m.player.SetVolume(m.snapshot.Volume + volumeStep)
	case key.Matches(msg, m.keys.quieter):
		m.player.SetVolume(m.snapshot.Volume - volumeStep)
	case key.Matches(msg, m.keys.mute):
		m.player.ToggleMute()
	case key.Matches(msg, m.keys.slides), key.Matches(msg, m.keys.goTo):
		m.navigator.Select(max(m.snapshot.Index, 0))
		m.view = NavigatorView
	default:
		var cmd tea.Cmd
		m.body, cmd = m.body.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleNavigatorKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.navigator.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.navigator, cmd = m.navigator.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = SlideView
		return m, nil
	case key.Matches(msg, m.keys.goTo):
		if item, ok := m.navigator.SelectedItem().(slideItem); ok {
			m.completed = false
			_ = m.player.GoTo(item.number - 1)
		}
		m.view = SlideView
		return m, nil
	}

	var cmd tea.Cmd
	m.navigator, cmd = m.navigator.Update(msg)
	return m, cmd
}

func (m *Model) resize(w, h int) {
	m.width, m.height = w, h
	if w <= 0 || h <= 0 {
		return
	}
	m.bar.Width = max(w-4, 10)
	m.body.Width = max(w-4, 10)
	m.body.Height = max(h-12, 3)
	m.navigator.SetSize(w-4, h-4)
}

func (m *Model) applySnapshot(s player.Snapshot) {
	m.snapshot = s
	if s.Index != m.shownIdx && s.Index >= 0 && s.Index < len(m.slides) {
		m.shownIdx = s.Index
		m.body.SetContent(formatter.HTMLToText(m.slides[s.Index].Markup))
		m.body.GotoTop()
	}
	if s.Completed {
		m.completed = true
	}
}

func (m *Model) startOpen() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.openedChan = make(chan Msg, 1)
	progressChan, openedChan := m.progressChan, m.openedChan

	go func() {
		result, err := m.engine.Open(m.ctx, m.id, progressChan)
		openedChan <- openedMsg(result, err)
		close(progressChan)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan, openedChan := m.progressChan, m.openedChan
	return func() tea.Msg {
		update, ok := <-progressChan
		if !ok {
			return <-openedChan
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) waitForSnapshot() tea.Cmd {
	updates := m.player.Updates()
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func (m *Model) waitForDone() tea.Cmd {
	done := m.player.Done()
	ctx := m.ctx
	return func() tea.Msg {
		select {
		case <-done:
			return completeMsg()
		case <-ctx.Done():
			return nil
		}
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case LoadingView:
		return m.renderLoading()
	case SlideView:
		return m.renderSlide()
	case NavigatorView:
		return fmt.Sprintf("%s\n\n%s", m.navigator.View(),
			m.help.ShortHelpView([]key.Binding{m.keys.goTo, m.keys.back, m.keys.quit}))
	case ErrorView:
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	default:
		return ""
	}
}

func (m *Model) renderLoading() string {
	title := styles.title.Render("Opening presentation " + m.id)
	msg := m.progress.Message
	if msg == "" {
		msg = "Fetching manifest..."
	}

	line := m.progress.Phase.String()
	if m.progress.Total > 0 {
		line = fmt.Sprintf("%s (%d/%d)", line, m.progress.Step, m.progress.Total)
	}
	return fmt.Sprintf("%s\n%s\n%s", title, styles.help.Render(line), msg)
}

func (m *Model) renderSlide() string {
	s := m.snapshot
	var b strings.Builder

	b.WriteString(styles.title.Render(m.title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "Slide %d of %d", s.Index+1, max(s.Total, len(m.slides)))
	if s.Slide.Title != "" {
		fmt.Fprintf(&b, " • %s", s.Slide.Title)
	}
	b.WriteString("\n")
	b.WriteString(styles.body.Render(m.body.View()))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(s.Progress / 100))
	b.WriteString("\n")
	b.WriteString(statusLine(s))
	b.WriteString("\n")

	switch {
	case m.completed:
		b.WriteString(styles.ok.Render("✓ Presentation complete"))
		b.WriteString("\n")
	case s.Notice != "":
		b.WriteString(styles.warn.Render(s.Notice))
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func statusLine(s player.Snapshot) string {
	icon := "⏸"
	if s.Playing {
		icon = "▶"
	}

	audio := s.AudioStatus()
	switch {
	case s.AudioError:
		audio = styles.err.Render(audio)
	case s.AudioLoading:
		audio = styles.warn.Render(audio)
	}

	avatar := styles.help.Render("(•_•)")
	if s.Speaking {
		avatar = styles.speaker.Render("(•o•) speaking")
	}

	volume := fmt.Sprintf("vol %d%%", int(s.Volume*100+0.5))
	if s.Muted {
		volume = "muted"
	}

	return fmt.Sprintf("%s %s  %s  %s  %s", icon, formatDuration(s), audio, avatar, styles.help.Render(volume))
}

func formatDuration(s player.Snapshot) string {
	return shared.FormatSeconds(int(s.Position.Seconds())) + " / " + shared.FormatSeconds(int(s.Duration.Seconds()))
}
