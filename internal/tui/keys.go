package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the issue browser.
type KeyMap struct {
	// Browsing.
	ExternalEdit key.Binding // Open the description in $EDITOR.
	InlineEdit   key.Binding
	OpenURL      key.Binding
	CopyLink     key.Binding
	Reload       key.Binding
	Quit         key.Binding

	// Inline edit mode.
	Save    key.Binding
	Discard key.Binding
}

// DefaultKeyMap is the built-in key binding set.
var DefaultKeyMap = KeyMap{
	ExternalEdit: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "edit in $EDITOR"),
	),
	InlineEdit: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "edit inline"),
	),
	OpenURL: key.NewBinding(
		key.WithKeys("o"),
		key.WithHelp("o", "open in browser"),
	),
	CopyLink: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy link"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Save: key.NewBinding(
		key.WithKeys("ctrl+s"),
		key.WithHelp("C-s", "save"),
	),
	Discard: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "discard"),
	),
}
