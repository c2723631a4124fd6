package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/binmix/internal/processor"
)

// writeSection writes a section header with title and dashed underline.
// The underline length matches the title length.
func writeSection(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

// ReportData contains everything needed to write a run report.
type ReportData struct {
	RunID        string
	Engine       string
	StartTime    time.Time
	EndTime      time.Time
	Result       *processor.Result
	Config       *processor.Config
	SweepSteps   int
	MainsCountry string // empty if unknown
}

// ReportPath returns the report filename for an output file:
// build/song-mixed.mp3 → build/song-mixed.log
func ReportPath(outputPath string) string {
	return strings.TrimSuffix(outputPath, filepath.Ext(outputPath)) + ".log"
}

// GenerateReport writes a report of the run next to the output file and
// returns its path.
//
// Report structure:
// 1. Header - input, output, run ID and timestamp
// 2. Processing Summary - stage timings
// 3. Binaural Tone - parameters and sweep visualization
// 4. Effects - effects table and resampled copies
// 5. Warnings - mains hum conflicts
// 6. Mix Tips - advice on the chosen parameters
// 7. Temporary Files - intermediates removed at the end of the run
func GenerateReport(data ReportData) (string, error) {
	if data.Result == nil {
		return "", fmt.Errorf("no result to report")
	}

	logPath := ReportPath(data.Result.OutputPath)
	f, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create log file: %w", err)
	}
	defer f.Close()

	if err := WriteReport(f, data); err != nil {
		return "", err
	}
	return logPath, f.Close()
}

// WriteReport writes the report body to w.
func WriteReport(w io.Writer, data ReportData) error {
	res := data.Result
	if res == nil || res.Plan == nil {
		return fmt.Errorf("no result to report")
	}

	writeReportHeader(w, data)
	writeProcessingSummary(w, data)

	if err := writeBinaural(w, data); err != nil {
		return err
	}
	writeEffects(w, data)

	if len(res.Warnings) > 0 {
		writeSection(w, "Warnings")
		for _, warning := range res.Warnings {
			fmt.Fprintf(w, "! %s\n", warning)
		}
		fmt.Fprintln(w)
	}

	if tips := GenerateMixTips(res, data.Config); len(tips) > 0 {
		writeSection(w, "Mix Tips")
		fmt.Fprint(w, FormatMixTips(tips))
		fmt.Fprintln(w)
	}

	writeSection(w, "Temporary Files")
	if len(res.Removed) == 0 {
		fmt.Fprintln(w, "none")
	}
	for _, path := range res.Removed {
		fmt.Fprintf(w, "removed %s\n", path)
	}
	return nil
}

// writeReportHeader outputs the report header with file info and timestamp.
func writeReportHeader(w io.Writer, data ReportData) {
	res := data.Result
	fmt.Fprintln(w, "Binmix Mix Report")
	fmt.Fprintln(w, "=================")
	fmt.Fprintf(w, "Input: %s\n", res.Plan.AudioPath)
	fmt.Fprintf(w, "Output: %s\n", res.OutputPath)
	if data.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", data.RunID)
	}
	if data.Engine != "" {
		fmt.Fprintf(w, "Engine: %s\n", data.Engine)
	}
	fmt.Fprintf(w, "Mixed: %s\n", data.EndTime.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Duration: %s (%.3fs)\n", formatDuration(secondsToDuration(res.Duration)), res.Duration)
	fmt.Fprintf(w, "Sample rate: %d Hz\n", res.SampleRate)
	if data.Config != nil && data.Config.MainsFrequency > 0 {
		mains := fmt.Sprintf("%d Hz", data.Config.MainsFrequency)
		if data.MainsCountry != "" {
			mains += " (" + data.MainsCountry + ")"
		}
		fmt.Fprintf(w, "Mains: %s\n", mains)
	}
	fmt.Fprintln(w)
}

// writeProcessingSummary outputs the time spent in each stage.
func writeProcessingSummary(w io.Writer, data ReportData) {
	writeSection(w, "Processing Summary")

	total := data.EndTime.Sub(data.StartTime)
	table := NewMetricTable("Elapsed", "Share")
	for _, timing := range data.Result.Timings {
		share := MissingValue
		if total > 0 {
			share = fmt.Sprintf("%.0f%%", 100*float64(timing.Elapsed)/float64(total))
		}
		table.AddRow(timing.Stage.String(), []string{formatDuration(timing.Elapsed), share}, "", "")
	}
	fmt.Fprint(w, table.String())

	fmt.Fprintf(w, "Total: %s", formatDuration(total))
	if total > 0 && data.Result.Duration > 0 {
		rtf := float64(secondsToDuration(data.Result.Duration)) / float64(total)
		fmt.Fprintf(w, " (%.0fx real-time)", rtf)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)
}

// writeBinaural outputs the tone parameters and the sweep visualization.
func writeBinaural(w io.Writer, data ReportData) error {
	bp := data.Result.Plan.Binaural
	writeSection(w, "Binaural Tone")
	if bp == nil {
		fmt.Fprintln(w, "none")
		fmt.Fprintln(w)
		return nil
	}

	leftStart, leftEnd := bp.LeftRange()
	rightStart, rightEnd := bp.RightRange()
	table := NewMetricTable("Start", "End", "Beat")
	table.AddMetricRow("Left", []float64{leftStart, leftEnd}, 1, "Hz", "")
	table.AddMetricRow("Right", []float64{rightStart, rightEnd}, 1, "Hz", "")
	table.AddRow("Difference", []string{
		formatMetric(rightStart-leftStart, 1),
		formatMetric(rightEnd-leftEnd, 1),
		beatLabel(rightStart-leftStart, rightEnd-leftEnd),
	}, "Hz", "")
	fmt.Fprintf(w, "Spec: %s\n", bp.String())
	if data.Config != nil {
		fmt.Fprintf(w, "Gain: %s dB\n", formatMetricSigned(data.Config.BinauralGain, 1))
	}
	fmt.Fprint(w, table.String())
	fmt.Fprintln(w)

	steps := data.SweepSteps
	if steps == 0 {
		steps = DefaultSweepSteps
	}
	sweepTable, err := RenderSweep(*bp, data.Result.Duration, steps)
	if err != nil {
		return fmt.Errorf("sweep visualization: %w", err)
	}
	fmt.Fprint(w, sweepTable)
	fmt.Fprintln(w)
	return nil
}

// beatLabel names the brainwave band of the beat frequency, or its range
// when the beat itself sweeps.
func beatLabel(start, end float64) string {
	startBand, endBand := beatBand(start), beatBand(end)
	if startBand == endBand {
		return startBand
	}
	return startBand + "→" + endBand
}

func beatBand(hz float64) string {
	if hz < 0 {
		hz = -hz
	}
	switch {
	case hz < 4:
		return "delta"
	case hz < 8:
		return "theta"
	case hz < 13:
		return "alpha"
	case hz < 30:
		return "beta"
	default:
		return "gamma"
	}
}

// writeEffects outputs the effects table and where each effect was
// resampled to.
func writeEffects(w io.Writer, data ReportData) {
	res := data.Result
	writeSection(w, "Effects")
	if len(res.Plan.Effects) == 0 {
		fmt.Fprintln(w, "none")
		fmt.Fprintln(w)
		return
	}

	fmt.Fprint(w, RenderEffects(res.Plan.Effects))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Resampled to %d Hz:\n", res.SampleRate)
	seen := make(map[string]bool, len(res.Plan.Effects))
	for _, fx := range res.Plan.Effects {
		if seen[fx.File] {
			continue
		}
		seen[fx.File] = true
		artifact := res.Resampled[fx.File]
		if artifact == "" {
			artifact = MissingValue
		}
		fmt.Fprintf(w, "  %s → %s\n", fx.File, artifact)
	}
	fmt.Fprintln(w)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60

	if minutes < 60 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}

	hours := minutes / 60
	minutes = minutes % 60
	return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
