// Package ui provides terminal rendering helpers for the daybook CLI.
//
// Styling degrades automatically: a dumb terminal or a redirected stdout
// gets plain text.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	passStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// styled reports whether stdout should receive colored output.
func styled() bool {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}
	return termenv.ColorProfile() != termenv.Ascii
}

func render(s lipgloss.Style, text string) string {
	if !styled() {
		return text
	}
	return s.Render(text)
}

// RenderAccent styles informational highlights.
func RenderAccent(text string) string { return render(accentStyle, text) }

// RenderPass styles success markers.
func RenderPass(text string) string { return render(passStyle, text) }

// RenderWarn styles warnings.
func RenderWarn(text string) string { return render(warnStyle, text) }

// RenderFail styles failure markers.
func RenderFail(text string) string { return render(failStyle, text) }

// RenderMuted styles secondary detail.
func RenderMuted(text string) string { return render(mutedStyle, text) }

// RenderHeader styles section headers.
func RenderHeader(text string) string { return render(headerStyle, text) }

// Width returns the terminal width, or fallback when stdout is not a
// terminal.
func Width(fallback int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}
