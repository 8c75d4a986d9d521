package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds the TUI bindings. It implements help.KeyMap.
type keyMap struct {
	Update  key.Binding
	History key.Binding
	Home    key.Binding
	Prev    key.Binding
	Next    key.Binding
	Page    key.Binding
	Retry   key.Binding
	Back    key.Binding
	Forward key.Binding
	Address key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Update: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "update draws"),
		),
		History: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "history"),
		),
		Home: key.NewBinding(
			key.WithKeys("esc", "home"),
			key.WithHelp("esc", "home"),
		),
		Prev: key.NewBinding(
			key.WithKeys("p", "left"),
			key.WithHelp("←/p", "prev page"),
		),
		Next: key.NewBinding(
			key.WithKeys("n", "right"),
			key.WithHelp("→/n", "next page"),
		),
		Page: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "go to page"),
		),
		Retry: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "retry"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "alt+left"),
			key.WithHelp("b", "back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("f", "alt+right"),
			key.WithHelp("f", "forward"),
		),
		Address: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "go to location"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Update, k.History, k.Home, k.Retry, k.Help, k.Quit}
}

// FullHelp returns all bindings grouped by column
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Update, k.Retry},
		{k.History, k.Home, k.Back, k.Forward, k.Address},
		{k.Prev, k.Next, k.Page},
		{k.Help, k.Quit},
	}
}
