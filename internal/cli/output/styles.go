package output

import "github.com/charmbracelet/lipgloss"

// Status icons.
const (
	IconSuccess = "✓"
	IconWarning = "!"
	IconError   = "✗"
	IconBullet  = "•"
)

// Color palette.
const (
	primaryColor = "#7C3AED"
	successColor = "#10B981"
	warningColor = "#F59E0B"
	errorColor   = "#EF4444"
	mutedColor   = "#6B7280"
	infoColor    = "#3B82F6"
)

// Styles are the lipgloss styles used for text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style
	// Badge marks a result type or an active dataset
	Badge lipgloss.Style
	// Code renders generated analysis code
	Code lipgloss.Style
}

// NewStyles builds styles bound to r's color profile.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(lipgloss.Color(primaryColor)),
		Header2: r.NewStyle().Bold(true).Foreground(lipgloss.Color(infoColor)),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color(mutedColor)),
		Success: r.NewStyle().Foreground(lipgloss.Color(successColor)),
		Warning: r.NewStyle().Foreground(lipgloss.Color(warningColor)),
		Error:   r.NewStyle().Foreground(lipgloss.Color(errorColor)),
		Info:    r.NewStyle().Foreground(lipgloss.Color(infoColor)),
		Badge:   r.NewStyle().Bold(true).Foreground(lipgloss.Color(primaryColor)),
		Code:    r.NewStyle().Foreground(lipgloss.Color(infoColor)),
	}
}
