package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	PlayPause key.Binding
	Shuffle   key.Binding
	Repeat    key.Binding
	SeekBack  key.Binding
	SeekFwd   key.Binding
	Next      key.Binding
	Prev      key.Binding
	NextDev   key.Binding
	PrevDev   key.Binding
	Help      key.Binding
	Quit      key.Binding
}

var keys = keyMap{
	PlayPause: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "play/pause")),
	Shuffle:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "shuffle")),
	Repeat:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "repeat")),
	SeekBack:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "back 10s")),
	SeekFwd:   key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "ahead 10s")),
	Next:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next")),
	Prev:      key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "prev")),
	NextDev:   key.NewBinding(key.WithKeys("tab", "down", "j"), key.WithHelp("tab", "next device")),
	PrevDev:   key.NewBinding(key.WithKeys("shift+tab", "up", "k"), key.WithHelp("shift+tab", "prev device")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PlayPause, k.Next, k.Prev, k.NextDev, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PlayPause, k.Next, k.Prev},
		{k.Shuffle, k.Repeat, k.SeekBack, k.SeekFwd},
		{k.NextDev, k.PrevDev, k.Help, k.Quit},
	}
}
