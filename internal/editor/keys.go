package editor

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the editor key bindings. Hex digits typed on the grid open
// an edit session directly and are not listed here.
type KeyMap struct {
	Up, Down, Left, Right key.Binding
	PageUp, PageDown      key.Binding
	RowStart, RowEnd      key.Binding
	Top, Bottom           key.Binding

	Edit, Commit, Cancel, Erase key.Binding

	Goto, Export, Genie, Open key.Binding
	Help, Quit                key.Binding

	ToggleFormat key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:    key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "row up")),
		Down:  key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "row down")),
		Left:  key.NewBinding(key.WithKeys("left", "shift+tab"), key.WithHelp("←", "previous byte")),
		Right: key.NewBinding(key.WithKeys("right"), key.WithHelp("→", "next byte")),

		PageUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", "page up")),
		PageDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", "page down")),
		RowStart: key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "row start")),
		RowEnd:   key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "row end")),
		Top:      key.NewBinding(key.WithKeys("ctrl+home"), key.WithHelp("ctrl+home", "first byte")),
		Bottom:   key.NewBinding(key.WithKeys("ctrl+end"), key.WithHelp("ctrl+end", "last byte")),

		Edit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter/0-F", "edit byte")),
		Commit: key.NewBinding(key.WithKeys("enter", "tab"), key.WithHelp("enter/tab", "commit byte")),
		Cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Erase:  key.NewBinding(key.WithKeys("backspace"), key.WithHelp("backspace", "erase digit")),

		Goto:   key.NewBinding(key.WithKeys("g", "G"), key.WithHelp("g", "go to address")),
		Export: key.NewBinding(key.WithKeys("x", "X", "ctrl+s"), key.WithHelp("x", "export ROM")),
		Genie:  key.NewBinding(key.WithKeys("p", "P"), key.WithHelp("p", "Game Genie patch")),
		Open:   key.NewBinding(key.WithKeys("o", "O"), key.WithHelp("o", "open ROM")),
		Help:   key.NewBinding(key.WithKeys("h", "H", "?"), key.WithHelp("h", "help")),
		Quit:   key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit")),

		ToggleFormat: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "toggle bin/ihex")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Edit, k.Goto, k.Export, k.Genie, k.Open, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.PageUp, k.PageDown, k.RowStart, k.RowEnd, k.Top, k.Bottom},
		{k.Edit, k.Commit, k.Cancel, k.Erase},
		{k.Goto, k.Export, k.ToggleFormat, k.Genie, k.Open, k.Help, k.Quit},
	}
}
