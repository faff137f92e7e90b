package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	MoveLeft  key.Binding
	MoveRight key.Binding
	GroupUp   key.Binding
	GroupDown key.Binding
	Add       key.Binding
	Edit      key.Binding
	Delete    key.Binding
	Rename    key.Binding
	Backup    key.Binding
	Open      key.Binding
	Reload    key.Binding
	Help      key.Binding
	Quit      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev tile")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next tile")),
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "prev group")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "next group")),
		MoveLeft:  key.NewBinding(key.WithKeys("H"), key.WithHelp("H", "move tile left")),
		MoveRight: key.NewBinding(key.WithKeys("L"), key.WithHelp("L", "move tile right")),
		GroupUp:   key.NewBinding(key.WithKeys("K"), key.WithHelp("K", "move group up")),
		GroupDown: key.NewBinding(key.WithKeys("J"), key.WithHelp("J", "move group down")),
		Add:       key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:      key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Delete:    key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Rename:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "rename group")),
		Backup:    key.NewBinding(key.WithKeys("b"), key.WithHelp("b", "backup")),
		Open:      key.NewBinding(key.WithKeys("o", "enter"), key.WithHelp("o", "open")),
		Reload:    key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Edit, k.Delete, k.Rename, k.Open, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Left, k.Right, k.Up, k.Down},
		{k.MoveLeft, k.MoveRight, k.GroupUp, k.GroupDown},
		{k.Add, k.Edit, k.Delete, k.Rename},
		{k.Backup, k.Open, k.Reload, k.Help, k.Quit},
	}
}
