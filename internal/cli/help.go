package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(accentColor)

	helpLabelStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	helpNoteStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)
)

// defaultGroup holds flags without a group tag.
const defaultGroup = "Flags"

// helpRow is one line of a help section: a styled label, its description
// and an optional dimmed note.
type helpRow struct {
	label string
	text  string
	note  string
}

// helpSection is a titled block of rows.
type helpSection struct {
	title string
	rows  []helpRow
}

var specRows = []helpRow{
	{label: "LEFT[-END]:RIGHT[-END]", text: "binaural carriers in Hz; a range sweeps over the track"},
	{label: "FILE:GAIN:OFFSET[:repeat=R]", text: "effect; GAIN in dB may be empty, OFFSET in seconds"},
	{label: "R = <n>x | <s>s | inf", text: "play n times, loop for s seconds, or loop to the end"},
}

var examples = []string{
	"%s -a song.mp3 -b 100:104",
	"%s -a song.mp3 -b 46-70:48-74 --binaural-gain=-3",
	"%s -a song.mp3 --effect gong.wav:2:5 --effect rain.wav::0:repeat=inf",
}

// StyledHelpPrinter creates a kong help printer with Lipgloss styling.
// Flags are listed under their kong group title, in declaration order.
func StyledHelpPrinter(_ kong.HelpOptions) kong.HelpPrinter {
	return func(_ kong.HelpOptions, ctx *kong.Context) error {
		name := ctx.Model.Name

		var sb strings.Builder
		sb.WriteString(TitleStyle.Render("Binmix 🎧"))
		sb.WriteString("\n")
		sb.WriteString(helpNoteStyle.Render(ctx.Model.Help))
		sb.WriteString("\n\n")
		sb.WriteString(helpSectionStyle.Render("Usage:"))
		fmt.Fprintf(&sb, "\n  %s --audio <file> [--binaural <spec>] [--effect <spec>]... [flags]\n", name)

		sections := flagSections(ctx.Model.Node.Flags)
		sections = append(sections, helpSection{title: "Specs", rows: specRows})
		for _, section := range sections {
			sb.WriteString("\n")
			writeHelpSection(&sb, section)
		}

		sb.WriteString("\n")
		sb.WriteString(helpSectionStyle.Render("Examples:"))
		sb.WriteString("\n")
		for _, example := range examples {
			sb.WriteString("  ")
			sb.WriteString(helpNoteStyle.Render(fmt.Sprintf(example, name)))
			sb.WriteString("\n")
		}

		_, err := fmt.Fprintln(ctx.Stdout, sb.String())
		return err
	}
}

// flagSections groups visible flags by group title, keeping the order in
// which each group first appears. --help always leads the default group.
func flagSections(flags []*kong.Flag) []helpSection {
	sections := []helpSection{{
		title: defaultGroup,
		rows:  []helpRow{{label: "-h, --help", text: "Show context-sensitive help."}},
	}}
	index := map[string]int{defaultGroup: 0}

	for _, f := range flags {
		if f.Name == "help" || f.Hidden {
			continue
		}
		title := defaultGroup
		if f.Group != nil && f.Group.Title != "" {
			title = f.Group.Title
		}
		i, ok := index[title]
		if !ok {
			i = len(sections)
			index[title] = i
			sections = append(sections, helpSection{title: title})
		}
		sections[i].rows = append(sections[i].rows, flagRow(f))
	}
	return sections
}

func flagRow(f *kong.Flag) helpRow {
	label := "--" + f.Name
	if f.Short != 0 {
		label = fmt.Sprintf("-%c, %s", f.Short, label)
	}
	if !f.IsBool() && f.PlaceHolder != "" {
		label += "=" + strings.ToUpper(f.PlaceHolder)
	}

	row := helpRow{label: label, text: f.Help}
	if f.Default != "" && !f.IsBool() {
		row.note = "(default: " + f.Default + ")"
	}
	return row
}

// writeHelpSection writes a section with labels padded to a common width.
func writeHelpSection(sb *strings.Builder, section helpSection) {
	width := 0
	for _, row := range section.rows {
		width = max(width, len(row.label))
	}

	sb.WriteString(helpSectionStyle.Render(section.title + ":"))
	sb.WriteString("\n")
	for _, row := range section.rows {
		sb.WriteString("  ")
		sb.WriteString(helpLabelStyle.Render(row.label))
		sb.WriteString(strings.Repeat(" ", width-len(row.label)+2))
		sb.WriteString(row.text)
		if row.note != "" {
			sb.WriteString(" ")
			sb.WriteString(helpNoteStyle.Render(row.note))
		}
		sb.WriteString("\n")
	}
}
