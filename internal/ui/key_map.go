package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the presentation view.
type keyMap struct {
	play     key.Binding
	next     key.Binding
	previous key.Binding
	slides   key.Binding
	goTo     key.Binding
	back     key.Binding
	louder   key.Binding
	quieter  key.Binding
	mute     key.Binding
	quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		play:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
		next:     key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next")),
		previous: key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "previous")),
		slides:   key.NewBinding(key.WithKeys("tab", "s"), key.WithHelp("tab", "slides")),
		goTo:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "go to")),
		back:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		louder:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "volume up")),
		quieter:  key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "volume down")),
		mute:     key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute")),
		quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.play, k.next, k.previous, k.slides, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.play, k.next, k.previous},
		{k.slides, k.goTo, k.back},
		{k.louder, k.quieter, k.mute, k.quit},
	}
}

// chatKeyMap defines the [key.Binding] mapping for the chat view.
type chatKeyMap struct {
	send key.Binding
	up   key.Binding
	down key.Binding
	quit key.Binding
}

func newChatKeyMap() chatKeyMap {
	return chatKeyMap{
		send: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "ask")),
		up:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "scroll up")),
		down: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "scroll down")),
		quit: key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

func (k chatKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.send, k.up, k.down, k.quit}
}

func (k chatKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.send, k.up, k.down, k.quit}}
}
