// Package ui provides shared terminal styling for the CLI and the watch
// view: the color palette, lipgloss styles for tables and status lines,
// terminal size detection, and the boxed command header.
//
// Rendering adapts to the terminal width, clamped between
// MinTerminalWidth and MaxContentWidth.
package ui
