package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Styles for the configure menu. The report view binds its own to the
// output it writes to.
var (
	StyleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1)

	StyleLabel = lipgloss.NewStyle().
			Foreground(ColorText).
			Bold(true)
)

var logoLines = []string{
	"                 _ _",
	" _ __   ___   __| (_)_   _ _ __ ___",
	"| '_ \\ / _ \\ / _` | | | | | '_ ` _ \\",
	"| |_) | (_) | (_| | | |_| | | | | | |",
	"| .__/ \\___/ \\__,_|_|\\__,_|_| |_| |_|",
	"|_|",
}

// Logo returns the podium ASCII art
func Logo() string {
	return StyleHeader.Render(strings.Join(logoLines, "\n"))
}
