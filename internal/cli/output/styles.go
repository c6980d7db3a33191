// Package output holds terminal styling shared by CLI commands.
package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles groups the lipgloss styles commands render with.
type Styles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// NewStyles builds the style set. On terminals without color support every
// style degrades to plain text.
func NewStyles() *Styles {
	if termenv.DefaultOutput().Profile == termenv.Ascii {
		plain := lipgloss.NewStyle()
		return &Styles{Title: plain, Success: plain, Warning: plain, Error: plain, Muted: plain}
	}
	return &Styles{
		Title:   lipgloss.NewStyle().Bold(true),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}
