package engine

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Default executable names, resolved through PATH.
const (
	DefaultSoxPath  = "sox"
	DefaultSoxiPath = "soxi"
)

// runFunc runs name with args and returns its stdout and stderr.
type runFunc func(name string, args ...string) (stdout, stderr []byte, err error)

// SoX drives the sox and soxi command-line tools.
type SoX struct {
	SoxPath  string
	SoxiPath string
	Logger   *slog.Logger

	run runFunc
}

// NewSoX returns a SoX engine using the given executables. Empty paths fall
// back to the defaults.
func NewSoX(soxPath, soxiPath string, logger *slog.Logger) *SoX {
	if soxPath == "" {
		soxPath = DefaultSoxPath
	}
	if soxiPath == "" {
		soxiPath = DefaultSoxiPath
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SoX{
		SoxPath:  soxPath,
		SoxiPath: soxiPath,
		Logger:   logger,
		run:      execRun,
	}
}

func execRun(name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command(name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// CheckInstalled verifies that sox and soxi can be found.
func (s *SoX) CheckInstalled() error {
	for _, tool := range []string{s.SoxPath, s.SoxiPath} {
		if _, err := exec.LookPath(tool); err != nil {
			return fmt.Errorf("%s not found (install SoX, e.g. apt-get install sox): %w", tool, err)
		}
	}
	return nil
}

// Duration runs soxi -D.
func (s *SoX) Duration(path string) (float64, error) {
	out, err := s.probe(path, "-D")
	if err != nil {
		return 0, &ProbeError{Path: path, Property: "duration", Err: err}
	}
	d, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, &ProbeError{Path: path, Property: "duration", Output: out, Err: err}
	}
	return d, nil
}

// SampleRate runs soxi -r.
func (s *SoX) SampleRate(path string) (int, error) {
	out, err := s.probe(path, "-r")
	if err != nil {
		return 0, &ProbeError{Path: path, Property: "sample rate", Err: err}
	}
	rate, err := strconv.Atoi(out)
	if err != nil {
		return 0, &ProbeError{Path: path, Property: "sample rate", Output: out, Err: err}
	}
	return rate, nil
}

func (s *SoX) probe(path, flag string) (string, error) {
	args := []string{flag, path}
	s.Logger.Debug("soxi", "args", args)

	stdout, stderr, err := s.run(s.SoxiPath, args...)
	if err != nil {
		if msg := strings.TrimSpace(string(stderr)); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return strings.TrimSpace(string(stdout)), nil
}

// Synthesize runs sox -n ... synth with one sine per channel:
//
//	sox -b 16 -n -r 48000 -c 2 binaural.wav synth 180 sine 100 sine 104 gain +0.5
func (s *SoX) Synthesize(out string, tone Tone) error {
	args := []string{
		"-b", "16",
		"-n",
		"-r", strconv.Itoa(tone.SampleRate),
		"-c", "2",
		out,
		"synth", formatNumber(tone.Duration),
		"sine", sineSpec(tone.LeftFreq, tone.LeftEnd),
		"sine", sineSpec(tone.RightFreq, tone.RightEnd),
	}
	if tone.Gain != 0 {
		args = append(args, "gain", formatGain(tone.Gain))
	}
	return s.sox("synthesize", args...)
}

// Resample runs sox IN -r RATE OUT.
func (s *SoX) Resample(in, out string, rate int) error {
	return s.sox("resample", in, "-r", strconv.Itoa(rate), out)
}

// PadAndGain runs sox IN OUT pad OFFSET gain GAIN.
func (s *SoX) PadAndGain(in, out string, offset, gainDB float64) error {
	return s.sox("pad and gain", in, out, "pad", formatNumber(offset), "gain", formatGain(gainDB))
}

// Repeat runs sox IN OUT repeat TIMES-1; sox counts extra plays.
func (s *SoX) Repeat(in, out string, times int) error {
	if times < 1 {
		return &EngineError{Op: "repeat", Tool: s.SoxPath, Err: fmt.Errorf("times must be positive, got %d", times)}
	}
	return s.sox("repeat", in, out, "repeat", strconv.Itoa(times-1))
}

// Trim runs sox IN OUT trim 0 SECONDS.
func (s *SoX) Trim(in, out string, seconds float64) error {
	return s.sox("trim", in, out, "trim", "0", formatNumber(seconds))
}

// Mix runs sox -m IN... OUT. A single input is passed through.
func (s *SoX) Mix(out string, inputs ...string) error {
	switch len(inputs) {
	case 0:
		return &EngineError{Op: "mix", Tool: s.SoxPath, Err: errors.New("no inputs")}
	case 1:
		return s.Passthrough(inputs[0], out)
	}
	args := append([]string{"-m"}, inputs...)
	return s.sox("mix", append(args, out)...)
}

// Passthrough runs sox IN OUT.
func (s *SoX) Passthrough(in, out string) error {
	return s.sox("passthrough", in, out)
}

func (s *SoX) sox(op string, args ...string) error {
	s.Logger.Debug("sox", "op", op, "args", args)

	_, stderr, err := s.run(s.SoxPath, args...)
	if err != nil {
		return &EngineError{
			Op:     op,
			Tool:   s.SoxPath,
			Args:   args,
			Stderr: string(stderr),
			Err:    err,
		}
	}
	return nil
}

func sineSpec(freq float64, end *float64) string {
	if end == nil {
		return formatNumber(freq)
	}
	return formatNumber(freq) + "-" + formatNumber(*end)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatGain renders a dB value with an explicit sign, as sox expects.
func formatGain(db float64) string {
	if db >= 0 {
		return "+" + formatNumber(db)
	}
	return formatNumber(db)
}
