package ui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/linuxmatters/binmix/internal/processor"
)

var (
	accentColor  = lipgloss.Color("#5B3FD9")
	mutedColor   = lipgloss.Color("#888888")
	successColor = lipgloss.Color("#00AA00")
	warningColor = lipgloss.Color("#FFA500")
	errorColor   = lipgloss.Color("#D0312D")
)

// renderProcessingView renders the main processing view
func renderProcessingView(m Model) string {
	var b strings.Builder

	b.WriteString(renderHeader(m))
	b.WriteString("\n\n")

	b.WriteString(renderStageList(m))
	b.WriteString("\n")

	b.WriteString(renderFooter(m))

	return b.String()
}

// renderHeader renders the application header
func renderHeader(m Model) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Render("Binmix 🎧 - Binaural Mixer")

	input := ""
	if m.Plan != nil {
		input = filepath.Base(m.Plan.AudioPath)
	}
	subtitle := lipgloss.NewStyle().
		Foreground(mutedColor).
		Italic(true).
		Render(fmt.Sprintf("%s → %s", input, filepath.Base(m.OutputPath)))

	return title + "\n" + subtitle
}

// renderStageList renders one line per stage with its status
func renderStageList(m Model) string {
	var b strings.Builder
	for _, s := range m.Stages {
		b.WriteString(renderStageEntry(s, spinnerFrames[m.spinnerIndex]))
		b.WriteString("\n")
	}
	return b.String()
}

// renderStageEntry renders a single stage
func renderStageEntry(s StageProgress, spinner string) string {
	name := fmt.Sprintf("%-9s", s.Stage.String())

	switch s.Status {
	case StatusDone:
		icon := lipgloss.NewStyle().Foreground(successColor).Render("✓")
		return fmt.Sprintf(" %s %s %s", icon, name, dim(fmt.Sprintf("%s [%s]", s.Detail, formatElapsed(s.Elapsed))))

	case StatusRunning:
		icon := lipgloss.NewStyle().Foreground(warningColor).Render(spinner)
		line := fmt.Sprintf(" %s %s %s", icon, name, s.Detail)
		if s.Total > 1 {
			line += "\n   " + renderProgressBar(s.Progress(), 40)
		}
		return line

	case StatusFailed:
		icon := lipgloss.NewStyle().Foreground(errorColor).Render("✗")
		return fmt.Sprintf(" %s %s %s", icon, name, s.Detail)

	default:
		icon := lipgloss.NewStyle().Foreground(mutedColor).Render("○")
		return fmt.Sprintf(" %s %s", icon, dim("waiting"))
	}
}

// renderProgressBar renders a progress bar
func renderProgressBar(progress float64, width int) string {
	filled := int(progress * float64(width))
	empty := width - filled

	filledStyle := lipgloss.NewStyle().Foreground(accentColor)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#444444"))

	bar := filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("━", empty))
	return fmt.Sprintf("%s %3d%%", bar, int(progress*100))
}

// renderFooter renders the overall progress box
func renderFooter(m Model) string {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Padding(0, 1).
		Width(60)

	done := 0
	for _, s := range m.Stages {
		if s.Status == StatusDone {
			done++
		}
	}
	content := fmt.Sprintf("Stage %d of %d | Elapsed: %s",
		min(done+1, len(m.Stages)), len(m.Stages), formatElapsed(time.Since(m.StartTime)))
	return box.Render(content)
}

// renderCompletionSummary renders the final summary
func renderCompletionSummary(m Model) string {
	var b strings.Builder

	if m.Err != nil {
		header := lipgloss.NewStyle().Bold(true).Foreground(errorColor).Render("✗ Mix failed")
		b.WriteString(header)
		b.WriteString("\n\n")
		b.WriteString(renderStageList(m))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Error: %v\n", m.Err))
		return b.String()
	}

	header := lipgloss.NewStyle().Bold(true).Foreground(successColor).Render("✨ Mix Complete!")
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(renderStageList(m))

	if res := m.Result; res != nil {
		b.WriteString("\n")
		b.WriteString(strings.Repeat("─", 60))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("Output: %s\n", res.OutputPath))
		b.WriteString(fmt.Sprintf("Length: %s @ %d Hz\n", formatElapsed(secondsDuration(res.Duration)), res.SampleRate))
		if res.Plan != nil {
			b.WriteString(fmt.Sprintf("Effects: %d | Binaural: %s\n", len(res.Plan.Effects), binauralSummary(res.Plan)))
		}
		for _, w := range res.Warnings {
			b.WriteString(lipgloss.NewStyle().Foreground(warningColor).Render("! " + w))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func binauralSummary(plan *processor.Plan) string {
	if plan.Binaural == nil {
		return "none"
	}
	return plan.Binaural.String()
}

func dim(s string) string {
	return lipgloss.NewStyle().Foreground(mutedColor).Render(s)
}

func secondsDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// formatElapsed formats a duration as m:ss.t or s.t
func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := d.Seconds() - float64(minutes*60)
	return fmt.Sprintf("%d:%04.1f", minutes, seconds)
}
