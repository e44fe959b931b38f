package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/learnx/internal/qa"
)

// ChatClient is the part of [qa.Client] the chat view uses.
type ChatClient interface {
	Connect(courseID string, onMessage func(qa.Inbound))
	WaitReady(ctx context.Context) error
	SendMessage(ctx context.Context, msg qa.Outbound) error
	Close()
}

var _ ChatClient = (*qa.Client)(nil)

// ChatModel is an interactive Q&A session bound to a [ChatClient].
type ChatModel struct {
	ctx        context.Context
	client     ChatClient
	courseID   string
	input      textinput.Model
	transcript viewport.Model
	help       help.Model
	keys       chatKeyMap
	inbox      chan qa.Inbound
	lines      []string
	connected  bool
	waiting    bool
	width      int
}

// NewChatModel creates a chat view for courseID.
func NewChatModel(ctx context.Context, client ChatClient, courseID string) *ChatModel {
	in := textinput.New()
	in.Placeholder = "Ask a question..."
	in.Prompt = "› "
	in.CharLimit = 2000
	in.Focus()

	return &ChatModel{
		ctx:        ctx,
		client:     client,
		courseID:   courseID,
		input:      in,
		transcript: viewport.New(80, 16),
		help:       help.New(),
		keys:       newChatKeyMap(),
		inbox:      make(chan qa.Inbound, 64),
	}
}

// Init connects and starts listening for backend messages.
func (m *ChatModel) Init() tea.Cmd {
	m.addLine(styles.help.Render("Connecting..."))
	return tea.Batch(textinput.Blink, m.connect(), m.waitForInbound())
}

// Update handles incoming messages and updates the model state.
func (m *ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		m.transcript.Width = msg.Width
		m.transcript.Height = max(msg.Height-4, 3)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.send):
			return m, m.send()
		case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
			var cmd tea.Cmd
			m.transcript, cmd = m.transcript.Update(msg)
			return m, cmd
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *ChatModel) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgConnected:
		if err, _ := msg.data.(error); err != nil {
			m.connected = false
			m.addLine(styles.err.Render("Error: " + errorText(err)))
			return m, nil
		}
		m.connected = true
		m.addLine(styles.ok.Render("Connected. Type a question and press enter."))

	case MsgInbound:
		m.receive(msg.data.(qa.Inbound))
		return m, m.waitForInbound()

	case MsgSent:
		if err, _ := msg.data.(error); err != nil {
			m.waiting = false
			m.addLine(styles.err.Render("Error: " + errorText(err)))
		}
	}
	return m, nil
}

func (m *ChatModel) receive(in qa.Inbound) {
	switch in := in.(type) {
	case qa.AuthSuccess:
		m.connected = true
	case qa.Transcribing:
		m.addLine(styles.help.Render("Transcribing..."))
	case qa.TranscriptionReady:
		if in.Failed() {
			m.waiting = false
			m.addLine(styles.err.Render("Error: Failed to transcribe audio"))
			return
		}
		m.addLine(styles.you.Render("You (voice): ") + in.TranscribedText)
	case qa.TextResponse:
		m.waiting = false
		m.addLine(styles.speaker.Render("Assistant: ") + in.Text)
	case qa.AudioReady:
		m.addLine(styles.help.Render(fmt.Sprintf("Audio answer received (%s)", in.AudioFormat)))
	case qa.Error:
		m.waiting = false
		if in.Message == qa.ConnectionClosedMessage {
			m.connected = false
		}
		m.addLine(styles.err.Render("Error: " + in.Message))
	}
}

func (m *ChatModel) send() tea.Cmd {
	question := strings.TrimSpace(m.input.Value())
	if question == "" {
		return nil
	}
	m.input.Reset()
	m.waiting = true
	m.addLine(styles.you.Render("You: ") + question)

	ctx, client, courseID := m.ctx, m.client, m.courseID
	msg := qa.TextQuestion{Question: question, CourseID: courseID}
	return func() tea.Msg {
		client.Connect(courseID, nil)
		if err := client.WaitReady(ctx); err != nil {
			return sentMsg(err)
		}
		return sentMsg(client.SendMessage(ctx, msg))
	}
}

func (m *ChatModel) connect() tea.Cmd {
	ctx, client, inbox, courseID := m.ctx, m.client, m.inbox, m.courseID
	return func() tea.Msg {
		client.Connect(courseID, func(in qa.Inbound) {
			select {
			case inbox <- in:
			case <-ctx.Done():
			}
		})
		return connectedMsg(client.WaitReady(ctx))
	}
}

func (m *ChatModel) waitForInbound() tea.Cmd {
	ctx, inbox := m.ctx, m.inbox
	return func() tea.Msg {
		select {
		case in := <-inbox:
			return inboundMsg(in)
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *ChatModel) addLine(line string) {
	m.lines = append(m.lines, line)
	m.refresh()
}

func (m *ChatModel) refresh() {
	text := strings.Join(m.lines, "\n")
	if m.width > 0 {
		text = lipgloss.NewStyle().Width(m.width).Render(text)
	}
	m.transcript.SetContent(text)
	m.transcript.GotoBottom()
}

// Transcript returns the chat lines as rendered.
func (m *ChatModel) Transcript() []string {
	return append([]string(nil), m.lines...)
}

// View renders the transcript above the input line.
func (m *ChatModel) View() string {
	status := styles.help.Render("offline")
	switch {
	case m.waiting:
		status = styles.warn.Render("waiting for answer...")
	case m.connected:
		status = styles.ok.Render("connected")
	}
	return fmt.Sprintf("%s\n%s\n%s  %s", m.transcript.View(), m.input.View(), status, m.help.View(m.keys))
}

func errorText(err error) string {
	var backend qa.Error
	if errors.As(err, &backend) {
		return backend.Message
	}
	return err.Error()
}
