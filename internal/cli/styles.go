package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	primaryColor = lipgloss.Color("#5B3FD9") // Binmix violet
	accentColor  = lipgloss.Color("#FFA500") // Orange
	mutedColor   = lipgloss.Color("#888888") // Gray
	textColor    = lipgloss.Color("#FFFFFF") // White
	successColor = lipgloss.Color("#00AA00") // Green
	errorColor   = lipgloss.Color("#D70000") // Red
)

// Styles
var (
	// Title style - bold violet
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	// Error message style
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	// Warning and notice style
	WarningStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	SuccessStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)

	// Key-value pair styles
	KeyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	ValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)
)

// PrintVersion prints version information
func PrintVersion(version string) {
	fmt.Println(TitleStyle.Render("Binmix 🎧"))
	fmt.Printf("%s %s\n", KeyStyle.Render("Version:"), ValueStyle.Render(version))
	fmt.Println()
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", ErrorStyle.Render("Error:"), message)
}

// PrintWarning prints a warning that does not stop the run
func PrintWarning(message string) {
	fmt.Fprintf(os.Stderr, "%s %s\n", WarningStyle.Render("Warning:"), message)
}

// PrintNotice prints an informational message, such as there being nothing to do
func PrintNotice(message string) {
	fmt.Println(WarningStyle.Render(message))
}

// PrintKeyValue prints one aligned "key: value" line
func PrintKeyValue(w io.Writer, key, value string) {
	fmt.Fprintf(w, "%s %s\n", KeyStyle.Render(fmt.Sprintf("%-12s", key+":")), ValueStyle.Render(value))
}

// PrintSuccess prints the final output location
func PrintSuccess(outputPath string) {
	fmt.Printf("%s %s\n", SuccessStyle.Render("✓ Mixed:"), ValueStyle.Render(outputPath))
}
