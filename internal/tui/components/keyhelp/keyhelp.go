// Package keyhelp renders key binding hints and holds the global bindings.
package keyhelp

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/alkime/repurpose/internal/tui/style"
)

// GlobalKeyMap holds the bindings every screen honours.
type GlobalKeyMap struct {
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultGlobalKeyMap returns the default quit bindings.
func DefaultGlobalKeyMap() GlobalKeyMap {
	return GlobalKeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q/esc", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "force quit"),
		),
	}
}

// Render formats a single binding as "[key] description".
func Render(keyBinding key.Binding, suffix ...string) string {
	s := style.Help.Render("[") + style.Key.Render(keyBinding.Help().Key) +
		style.Help.Render("] ") +
		style.Help.Render(keyBinding.Help().Desc)

	s += strings.Join(suffix, "")

	return s
}

// Line renders several bindings on one line.
func Line(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		parts = append(parts, Render(b))
	}

	return strings.Join(parts, " ")
}

// Global renders the quit bindings.
func Global() string {
	km := DefaultGlobalKeyMap()

	return Line(km.Quit, km.ForceQuit) + "\n"
}
