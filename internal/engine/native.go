package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	resampling "github.com/tphakala/go-audio-resampling"

	"github.com/linuxmatters/binmix/internal/audio"
)

const nativeTool = "native"

// ErrNotWAV is returned when the native engine is asked to write anything
// other than a .wav file.
var ErrNotWAV = errors.New("native engine reads and writes 16-bit PCM WAV only")

// Native implements Engine in-process on 16-bit PCM WAV files. Mixing
// follows sox -m: inputs are scaled by 1/n and summed, mono inputs are
// spread to stereo when any input is stereo, and the result is as long as
// the longest input.
type Native struct {
	Logger *slog.Logger
}

// NewNative returns an in-process engine.
func NewNative(logger *slog.Logger) *Native {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Native{Logger: logger}
}

// Duration reads the WAV header of path.
func (n *Native) Duration(path string) (float64, error) {
	meta, err := audio.ReadMetadata(path)
	if err != nil {
		return 0, &ProbeError{Path: path, Property: "duration", Err: err}
	}
	return meta.Duration, nil
}

// SampleRate reads the WAV header of path.
func (n *Native) SampleRate(path string) (int, error) {
	meta, err := audio.ReadMetadata(path)
	if err != nil {
		return 0, &ProbeError{Path: path, Property: "sample rate", Err: err}
	}
	return meta.SampleRate, nil
}

// Synthesize renders one sine per channel. A swept channel's instantaneous
// frequency moves linearly from start to end; phase is accumulated so the
// sweep is continuous.
func (n *Native) Synthesize(out string, tone Tone) error {
	const op = "synthesize"
	if tone.SampleRate <= 0 || tone.Duration < 0 {
		return n.fail(op, fmt.Errorf("invalid tone: %g s at %d Hz", tone.Duration, tone.SampleRate))
	}

	frames := int(math.Round(tone.Duration * float64(tone.SampleRate)))
	buf := &audio.Buffer{
		SampleRate: tone.SampleRate,
		Channels:   2,
		Samples:    make([]float64, frames*2),
	}

	amp := dbToLinear(tone.Gain)
	leftEnd := endOr(tone.LeftEnd, tone.LeftFreq)
	rightEnd := endOr(tone.RightEnd, tone.RightFreq)
	var leftPhase, rightPhase float64
	for i := 0; i < frames; i++ {
		pos := 0.0
		if frames > 1 {
			pos = float64(i) / float64(frames-1)
		}
		buf.Samples[i*2] = amp * math.Sin(leftPhase)
		buf.Samples[i*2+1] = amp * math.Sin(rightPhase)
		leftPhase += 2 * math.Pi * lerp(tone.LeftFreq, leftEnd, pos) / float64(tone.SampleRate)
		rightPhase += 2 * math.Pi * lerp(tone.RightFreq, rightEnd, pos) / float64(tone.SampleRate)
	}

	return n.write(op, out, buf)
}

// Resample converts in to rate using a pure Go polyphase resampler.
func (n *Native) Resample(in, out string, rate int) error {
	const op = "resample"
	buf, err := n.read(op, in)
	if err != nil {
		return err
	}
	if rate <= 0 {
		return n.fail(op, fmt.Errorf("invalid target rate %d", rate))
	}
	if buf.SampleRate == rate {
		return n.write(op, out, buf)
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(buf.SampleRate),
		OutputRate: float64(rate),
		Channels:   buf.Channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return n.fail(op, fmt.Errorf("failed to create resampler: %w", err))
	}

	samples, err := r.Process(buf.Samples)
	if err != nil {
		return n.fail(op, fmt.Errorf("resample error: %w", err))
	}
	// Drop any partial frame the resampler left behind
	samples = samples[:len(samples)/buf.Channels*buf.Channels]

	return n.write(op, out, &audio.Buffer{
		SampleRate: rate,
		Channels:   buf.Channels,
		Samples:    samples,
	})
}

// PadAndGain prepends offset seconds of silence and scales by gainDB.
func (n *Native) PadAndGain(in, out string, offset, gainDB float64) error {
	const op = "pad and gain"
	buf, err := n.read(op, in)
	if err != nil {
		return err
	}
	if offset < 0 {
		return n.fail(op, fmt.Errorf("negative pad %g", offset))
	}

	pad := int(math.Round(offset*float64(buf.SampleRate))) * buf.Channels
	amp := dbToLinear(gainDB)
	samples := make([]float64, pad+len(buf.Samples))
	for i, s := range buf.Samples {
		samples[pad+i] = s * amp
	}

	return n.write(op, out, &audio.Buffer{SampleRate: buf.SampleRate, Channels: buf.Channels, Samples: samples})
}

// Repeat concatenates times copies of in.
func (n *Native) Repeat(in, out string, times int) error {
	const op = "repeat"
	if times < 1 {
		return n.fail(op, fmt.Errorf("times must be positive, got %d", times))
	}
	buf, err := n.read(op, in)
	if err != nil {
		return err
	}

	samples := make([]float64, 0, len(buf.Samples)*times)
	for range times {
		samples = append(samples, buf.Samples...)
	}

	return n.write(op, out, &audio.Buffer{SampleRate: buf.SampleRate, Channels: buf.Channels, Samples: samples})
}

// Trim keeps the first seconds of in.
func (n *Native) Trim(in, out string, seconds float64) error {
	const op = "trim"
	buf, err := n.read(op, in)
	if err != nil {
		return err
	}
	if seconds < 0 {
		return n.fail(op, fmt.Errorf("negative length %g", seconds))
	}

	frames := min(int(math.Round(seconds*float64(buf.SampleRate))), buf.Frames())
	return n.write(op, out, &audio.Buffer{
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels,
		Samples:    buf.Samples[:frames*buf.Channels],
	})
}

// Mix sums inputs sox -m style.
func (n *Native) Mix(out string, inputs ...string) error {
	const op = "mix"
	if len(inputs) == 0 {
		return n.fail(op, errors.New("no inputs"))
	}

	bufs := make([]*audio.Buffer, len(inputs))
	channels, frames := 0, 0
	for i, in := range inputs {
		b, err := n.read(op, in)
		if err != nil {
			return err
		}
		if i > 0 && b.SampleRate != bufs[0].SampleRate {
			return n.fail(op, fmt.Errorf("%s is %d Hz, expected %d Hz", in, b.SampleRate, bufs[0].SampleRate))
		}
		if b.Channels > 2 {
			return n.fail(op, fmt.Errorf("%s has %d channels, at most 2 supported", in, b.Channels))
		}
		bufs[i] = b
		channels = max(channels, b.Channels)
		frames = max(frames, b.Frames())
	}

	scale := 1.0 / float64(len(bufs))
	mixed := make([]float64, frames*channels)
	for _, b := range bufs {
		for f := 0; f < b.Frames(); f++ {
			for c := 0; c < channels; c++ {
				src := c
				if b.Channels == 1 {
					src = 0
				}
				mixed[f*channels+c] += b.Samples[f*b.Channels+src] * scale
			}
		}
	}

	return n.write(op, out, &audio.Buffer{SampleRate: bufs[0].SampleRate, Channels: channels, Samples: mixed})
}

// Passthrough decodes and re-encodes in.
func (n *Native) Passthrough(in, out string) error {
	const op = "passthrough"
	buf, err := n.read(op, in)
	if err != nil {
		return err
	}
	return n.write(op, out, buf)
}

func (n *Native) read(op, path string) (*audio.Buffer, error) {
	n.Logger.Debug("native read", "op", op, "path", path)
	buf, err := audio.ReadWAV(path)
	if err != nil {
		return nil, n.fail(op, err)
	}
	return buf, nil
}

func (n *Native) write(op, path string, buf *audio.Buffer) error {
	if !strings.EqualFold(filepath.Ext(path), ".wav") {
		return n.fail(op, fmt.Errorf("%s: %w", path, ErrNotWAV))
	}
	n.Logger.Debug("native write", "op", op, "path", path, "frames", buf.Frames(), "rate", buf.SampleRate)
	if err := audio.WriteWAV(path, buf); err != nil {
		return n.fail(op, err)
	}
	return nil
}

func (n *Native) fail(op string, err error) error {
	return &EngineError{Op: op, Tool: nativeTool, Err: err}
}

func dbToLinear(db float64) float64 {
	return math.Pow(10, db/20.0)
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func endOr(end *float64, fallback float64) float64 {
	if end == nil {
		return fallback
	}
	return *end
}
