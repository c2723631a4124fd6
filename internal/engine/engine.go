// Package engine defines the audio engine the mixing pipeline drives, and
// provides a SoX subprocess implementation and an in-process WAV one.
package engine

import (
	"fmt"
	"strings"
)

// Engine performs probing, synthesis and mixing on audio files. Every
// operation is synchronous, writes its result to a file and is never retried.
type Engine interface {
	// Duration returns the length of path in seconds.
	Duration(path string) (float64, error)
	// SampleRate returns the sample rate of path in Hz.
	SampleRate(path string) (int, error)
	// Synthesize writes a 16-bit stereo tone to out.
	Synthesize(out string, tone Tone) error
	// Resample converts in to rate Hz.
	Resample(in, out string, rate int) error
	// PadAndGain prepends offset seconds of silence and applies gainDB.
	PadAndGain(in, out string, offset, gainDB float64) error
	// Repeat plays in times times back to back.
	Repeat(in, out string, times int) error
	// Trim keeps the first seconds of in.
	Trim(in, out string, seconds float64) error
	// Mix sums the inputs into out.
	Mix(out string, inputs ...string) error
	// Passthrough copies in to out, converting to the format implied by out.
	Passthrough(in, out string) error
}

// Tone describes a stereo binaural tone. A nil end keeps that channel at a
// constant frequency; otherwise it sweeps linearly over Duration.
type Tone struct {
	Duration   float64
	SampleRate int
	LeftFreq   float64
	LeftEnd    *float64
	RightFreq  float64
	RightEnd   *float64
	Gain       float64 // dB
}

// ProbeError reports that a duration or sample rate could not be determined.
type ProbeError struct {
	Path     string
	Property string // "duration" or "sample rate"
	Output   string
	Err      error
}

func (e *ProbeError) Error() string {
	msg := fmt.Sprintf("could not determine %s of %s", e.Property, e.Path)
	if e.Output != "" {
		msg += fmt.Sprintf(" (got %q)", e.Output)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProbeError) Unwrap() error {
	return e.Err
}

// EngineError reports an engine operation that failed, such as a tool
// exiting with a nonzero status.
type EngineError struct {
	Op     string   // engine operation, e.g. "mix"
	Tool   string   // executable or "native"
	Args   []string // arguments passed to Tool, if any
	Stderr string
	Err    error
}

func (e *EngineError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s failed", e.Op)
	if e.Tool != "" {
		fmt.Fprintf(&sb, " (%s", e.Tool)
		if len(e.Args) > 0 {
			sb.WriteString(" " + strings.Join(e.Args, " "))
		}
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		sb.WriteString(": " + stderr)
	}
	return sb.String()
}

func (e *EngineError) Unwrap() error {
	return e.Err
}
