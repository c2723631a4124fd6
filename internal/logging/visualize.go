package logging

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/linuxmatters/binmix/internal/params"
	"github.com/linuxmatters/binmix/internal/sweep"
)

// DefaultSweepSteps is the number of rows RenderSweep prints by default.
const DefaultSweepSteps = 8

// sweepBarWidth is the width of the per-channel ASCII bar.
const sweepBarWidth = 32

// RenderSweep tabulates the left and right carrier frequencies at steps
// evenly spaced times across duration, followed by one ASCII bar per
// channel showing where each frequency sits within that channel's range.
func RenderSweep(bp params.BinauralParams, duration float64, steps int) (string, error) {
	left := rangeOf(bp.LeftRange())
	right := rangeOf(bp.RightRange())

	points, err := sweep.Interpolate(left, right, duration, steps)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("Binaural Sweep Visualization:\n")
	sb.WriteString("Time (s) | Left Freq (Hz) | Right Freq (Hz)\n")
	sb.WriteString(strings.Repeat("-", 43) + "\n")
	for _, p := range points {
		fmt.Fprintf(&sb, "%8d | %14.1f | %15.1f\n", p.Time, p.Left, p.Right)
	}

	sb.WriteString("\nLeft channel sweep:\n")
	writeSweepBars(&sb, left, points, func(p sweep.Point) float64 { return p.Left })
	sb.WriteString("\nRight channel sweep:\n")
	writeSweepBars(&sb, right, points, func(p sweep.Point) float64 { return p.Right })

	return sb.String(), nil
}

func rangeOf(start, end float64) sweep.Range {
	return sweep.Range{Start: start, End: end}
}

func writeSweepBars(sb *strings.Builder, r sweep.Range, points []sweep.Point, freq func(sweep.Point) float64) {
	lo, hi := min(r.Start, r.End), max(r.Start, r.End)
	for _, p := range points {
		pos := 0
		if hi > lo {
			pos = int((freq(p) - lo) / (hi - lo) * (sweepBarWidth - 1))
			pos = min(max(pos, 0), sweepBarWidth-1)
		}
		bar := []byte(strings.Repeat("-", sweepBarWidth))
		bar[pos] = '*'
		fmt.Fprintf(sb, "%5ds %5.1fHz |%s| %5.1fHz\n", p.Time, lo, bar, hi)
	}
}

// RenderEffects tabulates effects in order of their offset. The caller's
// slice is left untouched.
func RenderEffects(effects []params.EffectParams) string {
	sorted := slices.Clone(effects)
	slices.SortStableFunc(sorted, func(a, b params.EffectParams) int {
		return cmp.Compare(a.Offset, b.Offset)
	})

	var sb strings.Builder
	sb.WriteString("Effect   | Gain (dB) | Offset (s) | Repeat\n")
	sb.WriteString(strings.Repeat("-", 42) + "\n")
	for _, fx := range sorted {
		fmt.Fprintf(&sb, "%-8s | %9s | %10s | %s\n",
			fx.File, formatNumber(fx.Gain), formatNumber(fx.Offset), repeatLabel(fx.Repeat))
	}
	return sb.String()
}

// repeatLabel describes how often an effect plays.
func repeatLabel(r *params.Repeat) string {
	if r == nil {
		return "1x"
	}
	switch r.Mode {
	case params.RepeatTimes:
		return strconv.Itoa(r.Count()) + "x"
	case params.RepeatDuration:
		return formatNumber(r.Value) + "s"
	case params.RepeatEndless:
		return "infinite"
	}
	return MissingValue
}

// formatNumber renders the shortest decimal that reads back unchanged.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
