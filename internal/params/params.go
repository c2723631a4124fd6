// Package params holds the binaural and effect parameter model and the grammar
// that parses it from compact command-line strings.
package params

import (
	"fmt"
	"strconv"
	"strings"
)

// BinauralParams describes a stereo tone. A channel with a nil end value is a
// constant tone; otherwise it sweeps linearly from start to end over the
// duration of the base track.
type BinauralParams struct {
	LeftFreq  float64
	LeftEnd   *float64
	RightFreq float64
	RightEnd  *float64
}

// IsSweep reports whether either channel sweeps.
func (b BinauralParams) IsSweep() bool {
	return b.LeftEnd != nil || b.RightEnd != nil
}

// LeftRange returns the left channel start and end frequencies. A constant
// channel ends where it starts.
func (b BinauralParams) LeftRange() (start, end float64) {
	return b.LeftFreq, endOr(b.LeftEnd, b.LeftFreq)
}

// RightRange returns the right channel start and end frequencies.
func (b BinauralParams) RightRange() (start, end float64) {
	return b.RightFreq, endOr(b.RightEnd, b.RightFreq)
}

// String renders the parameters in the binaural grammar, e.g. "46-70:48-74".
func (b BinauralParams) String() string {
	return channelString(b.LeftFreq, b.LeftEnd) + ":" + channelString(b.RightFreq, b.RightEnd)
}

func channelString(freq float64, end *float64) string {
	if end == nil {
		return formatFloat(freq)
	}
	return formatFloat(freq) + "-" + formatFloat(*end)
}

func endOr(end *float64, fallback float64) float64 {
	if end == nil {
		return fallback
	}
	return *end
}

// RepeatMode selects how a one-shot effect clip is extended before overlay.
type RepeatMode int

const (
	// RepeatTimes plays the clip a fixed number of times.
	RepeatTimes RepeatMode = iota + 1
	// RepeatDuration loops the clip to fill a fixed number of seconds.
	RepeatDuration
	// RepeatEndless loops the clip until the end of the base track.
	RepeatEndless
)

func (m RepeatMode) String() string {
	switch m {
	case RepeatTimes:
		return "times"
	case RepeatDuration:
		return "duration"
	case RepeatEndless:
		return "endless"
	default:
		return fmt.Sprintf("RepeatMode(%d)", int(m))
	}
}

// Repeat is a repeat mode and its payload. Value is the play count for
// RepeatTimes, seconds for RepeatDuration and unused for RepeatEndless.
// Use the constructors; they enforce the invariants.
type Repeat struct {
	Mode  RepeatMode
	Value float64
}

// Times returns a repeat that plays the clip n times in total.
func Times(n int) (Repeat, error) {
	if n <= 0 {
		return Repeat{}, fmt.Errorf("repeat times must be positive, got %d", n)
	}
	return Repeat{Mode: RepeatTimes, Value: float64(n)}, nil
}

// Duration returns a repeat that loops the clip for the given seconds.
func Duration(seconds float64) (Repeat, error) {
	if !(seconds > 0) || isInf(seconds) {
		return Repeat{}, fmt.Errorf("repeat duration must be positive, got %s", formatFloat(seconds))
	}
	return Repeat{Mode: RepeatDuration, Value: seconds}, nil
}

// Endless returns a repeat that loops the clip until the end of the base track.
func Endless() Repeat {
	return Repeat{Mode: RepeatEndless}
}

// Count returns the play count of a RepeatTimes value.
func (r Repeat) Count() int {
	return int(r.Value)
}

// String renders the repeat in the effect grammar's repeat clause: "3x",
// "2.5s" or "inf".
func (r Repeat) String() string {
	switch r.Mode {
	case RepeatTimes:
		return strconv.Itoa(r.Count()) + repeatTimesSuffix
	case RepeatDuration:
		return formatFloat(r.Value) + repeatDurationSuffix
	case RepeatEndless:
		return repeatEndless
	default:
		return r.Mode.String()
	}
}

// EffectParams is one overlay instruction: play File, adjusted by Gain dB,
// starting Offset seconds into the base track, optionally extended by Repeat.
type EffectParams struct {
	File   string
	Gain   float64
	Offset float64
	Repeat *Repeat
}

// String renders the effect in the effect grammar.
func (e EffectParams) String() string {
	var sb strings.Builder
	sb.WriteString(e.File)
	sb.WriteString(":")
	sb.WriteString(formatFloat(e.Gain))
	sb.WriteString(":")
	sb.WriteString(formatFloat(e.Offset))
	if e.Repeat != nil {
		sb.WriteString(":")
		sb.WriteString(optionRepeat)
		sb.WriteString(e.Repeat.String())
	}
	return sb.String()
}

// formatFloat uses the shortest plain decimal that parses back to the same
// float64. Exponent notation is avoided because '-' separates sweep ends.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
