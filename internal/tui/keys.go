package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the week view bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Pick     key.Binding
	Drop     key.Binding
	Cancel   key.Binding
	Assign   key.Binding
	Note     key.Binding
	Remove   key.Binding
	Save     key.Binding
	Reload   key.Binding
	Repeat   key.Binding
	Clear    key.Binding
	PrevWeek key.Binding
	NextWeek key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Pick: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "pick up"),
		),
		Drop: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "drop"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Assign: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "assign"),
		),
		Note: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "note"),
		),
		Remove: key.NewBinding(
			key.WithKeys("d", "x"),
			key.WithHelp("d", "remove"),
		),
		Save: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "save"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Repeat: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "repeat last week"),
		),
		Clear: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear week"),
		),
		PrevWeek: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev week"),
		),
		NextWeek: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next week"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

func (k KeyMap) short() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Pick, k.Drop, k.Assign, k.Save, k.Reload, k.Help, k.Quit}
}

func (k KeyMap) full() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Pick, k.Drop, k.Cancel,
		k.Assign, k.Note, k.Remove,
		k.Save, k.Reload, k.Repeat, k.Clear,
		k.PrevWeek, k.NextWeek, k.Help, k.Quit,
	}
}
