package processor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/binmix/internal/engine"
)

// engineCall is one recorded engine invocation.
type engineCall struct {
	Op   string
	Args []string
}

// fakeEngine records every call and writes a placeholder file for every
// output so the pipeline's file handling can be checked without audio.
type fakeEngine struct {
	calls []engineCall

	duration  float64            // of the base track
	rate      int                // of the base track
	durations map[string]float64 // by file base name, default duration
	tones     []engine.Tone

	failOp   string // operation to fail
	failSkip int    // successful calls of failOp before it fails
}

var errInduced = errors.New("induced failure")

func newFakeEngine() *fakeEngine {
	return &fakeEngine{duration: 60, rate: 48000, durations: map[string]float64{}}
}

func (f *fakeEngine) record(op string, args ...string) error {
	f.calls = append(f.calls, engineCall{Op: op, Args: args})
	if op == f.failOp {
		if f.failSkip == 0 {
			return &engine.EngineError{Op: op, Tool: "fake", Args: args, Err: errInduced}
		}
		f.failSkip--
	}
	return nil
}

func (f *fakeEngine) write(out, op string) error {
	return os.WriteFile(out, []byte(op), 0o644)
}

func (f *fakeEngine) Duration(path string) (float64, error) {
	if err := f.record("duration", path); err != nil {
		return 0, &engine.ProbeError{Path: path, Property: "duration", Err: err}
	}
	if d, ok := f.durations[filepath.Base(path)]; ok {
		return d, nil
	}
	return f.duration, nil
}

func (f *fakeEngine) SampleRate(path string) (int, error) {
	if err := f.record("rate", path); err != nil {
		return 0, &engine.ProbeError{Path: path, Property: "sample rate", Err: err}
	}
	return f.rate, nil
}

func (f *fakeEngine) Synthesize(out string, tone engine.Tone) error {
	f.tones = append(f.tones, tone)
	if err := f.record("synthesize", out); err != nil {
		return err
	}
	return f.write(out, "synthesize")
}

func (f *fakeEngine) Resample(in, out string, rate int) error {
	if err := f.record("resample", in, out, fmt.Sprint(rate)); err != nil {
		return err
	}
	return f.write(out, "resample")
}

func (f *fakeEngine) PadAndGain(in, out string, offset, gainDB float64) error {
	if err := f.record("pad", in, out, fmt.Sprint(offset), fmt.Sprint(gainDB)); err != nil {
		return err
	}
	return f.write(out, "pad")
}

func (f *fakeEngine) Repeat(in, out string, times int) error {
	if err := f.record("repeat", in, out, fmt.Sprint(times)); err != nil {
		return err
	}
	return f.write(out, "repeat")
}

func (f *fakeEngine) Trim(in, out string, seconds float64) error {
	if err := f.record("trim", in, out, fmt.Sprint(seconds)); err != nil {
		return err
	}
	return f.write(out, "trim")
}

func (f *fakeEngine) Mix(out string, inputs ...string) error {
	if err := f.record("mix", append([]string{out}, inputs...)...); err != nil {
		return err
	}
	return f.write(out, "mix")
}

func (f *fakeEngine) Passthrough(in, out string) error {
	if err := f.record("passthrough", in, out); err != nil {
		return err
	}
	return f.write(out, "passthrough")
}

// ops returns the recorded calls of one operation.
func (f *fakeEngine) ops(op string) []engineCall {
	var out []engineCall
	for _, c := range f.calls {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// newTestProcessor returns a processor writing into a fresh build directory.
func newTestProcessor(t *testing.T, eng engine.Engine) (*Processor, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "build")
	cfg := DefaultConfig()
	cfg.BuildDir = dir
	return New(eng, cfg, nil), dir
}

// listDir returns the sorted file names in dir.
func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
