package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#2563eb")
	colorMuted   = lipgloss.Color("#6b7280")
	colorSuccess = lipgloss.Color("#16a34a")
	colorDanger  = lipgloss.Color("#dc2626")
	colorPurple  = lipgloss.Color("#7c3aed")
	colorInfo    = lipgloss.Color("#0891b2")
)

type styles struct {
	Title    lipgloss.Style
	Header   lipgloss.Style
	Cell     lipgloss.Style
	Cursor   lipgloss.Style
	Muted    lipgloss.Style
	Error    lipgloss.Style
	Notice   lipgloss.Style
	Skeleton lipgloss.Style
	Panel    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Header:   lipgloss.NewStyle().Bold(true).Underline(true),
		Cell:     lipgloss.NewStyle(),
		Cursor:   lipgloss.NewStyle().Reverse(true),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Error:    lipgloss.NewStyle().Foreground(colorDanger),
		Notice:   lipgloss.NewStyle().Foreground(colorSuccess),
		Skeleton: lipgloss.NewStyle().Foreground(colorMuted).Faint(true),
		Panel:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorMuted).Padding(0, 1),
	}
}

// tone maps a badge tone from the column builder to a color.
func tone(name string) lipgloss.Style {
	switch name {
	case "success":
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case "danger":
		return lipgloss.NewStyle().Foreground(colorDanger)
	case "info":
		return lipgloss.NewStyle().Foreground(colorInfo)
	case "purple":
		return lipgloss.NewStyle().Foreground(colorPurple)
	case "gray":
		return lipgloss.NewStyle().Foreground(colorMuted)
	}
	return lipgloss.NewStyle()
}
