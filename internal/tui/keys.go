package tui

import "github.com/charmbracelet/bubbles/key"

// keyMap holds every binding. The action bindings (Analyze, Download,
// About) double as the controller's buttons: disabling a binding disables
// the button.
type keyMap struct {
	Activate key.Binding
	Analyze  key.Binding
	Download key.Binding
	About    key.Binding
	Close    key.Binding
	Next     key.Binding
	Prev     key.Binding
	Up       key.Binding
	Down     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Activate: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "press")),
		Analyze:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "analyze")),
		Download: key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("ctrl+d", "download csv")),
		About:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "about")),
		Close:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "close/cancel")),
		Next:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
		Prev:     key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev")),
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Activate, k.Analyze, k.Download, k.About, k.Next, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Activate, k.Analyze, k.Download, k.About},
		{k.Next, k.Prev, k.Up, k.Down},
		{k.Close, k.Help, k.Quit},
	}
}

// setActionsEnabled enables or disables every button.
func (k *keyMap) setActionsEnabled(on bool) {
	k.Analyze.SetEnabled(on)
	k.Download.SetEnabled(on)
	k.About.SetEnabled(on)
}

func (k keyMap) actionsEnabled() bool {
	return k.Analyze.Enabled() && k.Download.Enabled() && k.About.Enabled()
}
