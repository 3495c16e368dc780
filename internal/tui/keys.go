package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Search  key.Binding
	Next    key.Binding
	Prev    key.Binding
	First   key.Binding
	Last    key.Binding
	Up      key.Binding
	Down    key.Binding
	Sort    key.Binding
	Size    key.Binding
	Select  key.Binding
	All     key.Binding
	Delete  key.Binding
	Bulk    key.Binding
	Refresh key.Binding
	Open    key.Binding
	Back    key.Binding
	Forward key.Binding
	Confirm key.Binding
	Cancel  key.Binding
	Quit    key.Binding
	Help    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Next:    key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n", "next page")),
		Prev:    key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p", "prev page")),
		First:   key.NewBinding(key.WithKeys("g", "home"), key.WithHelp("g", "first page")),
		Last:    key.NewBinding(key.WithKeys("G", "end"), key.WithHelp("G", "last page")),
		Up:      key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "up")),
		Down:    key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "down")),
		Sort:    key.NewBinding(key.WithKeys("1", "2", "3", "4"), key.WithHelp("1-4", "sort column")),
		Size:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "page size")),
		Select:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		All:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select page")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Bulk:    key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete selected")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		Back:    key.NewBinding(key.WithKeys("[", "esc"), key.WithHelp("[", "back")),
		Forward: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "forward")),
		Confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
		Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Next, k.Prev, k.Sort, k.Select, k.Delete, k.Refresh, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.Sort, k.Size, k.Refresh},
		{k.Next, k.Prev, k.First, k.Last},
		{k.Up, k.Down, k.Open, k.Back, k.Forward},
		{k.Select, k.All, k.Delete, k.Bulk},
		{k.Help, k.Quit},
	}
}
