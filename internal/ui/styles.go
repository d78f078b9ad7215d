package ui

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette shared by the CLI and the watch view.
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - present devices, creates
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, deletes
	WarningColor = lipgloss.Color("#FFA500") // Orange - lost devices, updates
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60  // Minimum supported terminal width
	MaxContentWidth  = 100 // Maximum content width before capping
	DefaultPadding   = 2   // Default padding inside boxes
)

// Shared styles
var (
	// TitleStyle is for view and command titles.
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true).
			PaddingLeft(2)

	// SubtitleStyle is for the command path under a title.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2)

	// LabelStyle is for field labels (e.g. "Device:").
	LabelStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2)

	// ValueStyle is for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// TableHeaderStyle is for column headings in device and source tables.
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				Bold(true)

	// PresentStyle marks devices discovery currently sees.
	PresentStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// LostStyle marks devices that dropped out of discovery.
	LostStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorMessageStyle is for error message text.
	ErrorMessageStyle = lipgloss.NewStyle().
				Foreground(ErrorColor)

	// SpinnerStyle is for in-progress spinners.
	SpinnerStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	// StatusBarStyle is for the watch view footer.
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			PaddingLeft(2)

	// CreateStyle, UpdateStyle and DeleteStyle color registry intents in
	// the event log.
	CreateStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	UpdateStyle = lipgloss.NewStyle().Foreground(WarningColor)
	DeleteStyle = lipgloss.NewStyle().Foreground(ErrorColor)
)

// Status markers
const (
	PresentMarker = "●"
	LostMarker    = "○"
	SuccessMarker = "✓"
	FailureMarker = "✗"
)

// GetTerminalWidth returns the current terminal width, with fallback
func GetTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// GetTerminalSize returns the current terminal width and height
func GetTerminalSize() (int, int) {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return MinTerminalWidth, 24 // Default fallback
	}
	if width < MinTerminalWidth {
		width = MinTerminalWidth
	}
	if width > MaxContentWidth {
		width = MaxContentWidth
	}
	return width, height
}

// BoxStyle returns a rounded border box sized to the terminal width.
func BoxStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2) // Account for border characters
}

// RenderDivider creates a horizontal line of the specified width.
func RenderDivider(width int) string {
	return lipgloss.NewStyle().
		Foreground(PrimaryColor).
		Render(strings.Repeat("─", width))
}
