package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262", "#FF5FAF")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	liked lipgloss.Style
}

// NewPalette builds a [Palette] from title, success, error, warning, muted and liked colors.
func NewPalette(t, s, e, w, h, l string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		liked: NewStyle(l),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// compatibilityStyle colors a harmonic mixing label.
func compatibilityStyle(label string) lipgloss.Style {
	switch label {
	case "Perfect Match":
		return styles.ok
	case "Energy Change":
		return styles.warn
	default:
		return styles.help
	}
}
