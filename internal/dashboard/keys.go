package dashboard

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Overview   key.Binding
	Activities key.Binding
	Weekly     key.Binding
	Logs       key.Binding
	Next       key.Binding
	Prev       key.Binding
	Reload     key.Binding
	Sync       key.Binding
	Filter     key.Binding
	Apply      key.Binding
	Cancel     key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Overview:   key.NewBinding(key.WithKeys("1")),
	Activities: key.NewBinding(key.WithKeys("2")),
	Weekly:     key.NewBinding(key.WithKeys("3")),
	Logs:       key.NewBinding(key.WithKeys("4")),
	Next:       key.NewBinding(key.WithKeys("tab")),
	Prev:       key.NewBinding(key.WithKeys("shift+tab")),
	Reload:     key.NewBinding(key.WithKeys("r")),
	Sync:       key.NewBinding(key.WithKeys("s")),
	Filter:     key.NewBinding(key.WithKeys("/")),
	Apply:      key.NewBinding(key.WithKeys("enter")),
	Cancel:     key.NewBinding(key.WithKeys("esc")),
	Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c")),
}
