package engine

import (
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linuxmatters/binmix/internal/audio"
)

func writeBuffer(t *testing.T, path string, rate, channels int, samples ...float64) string {
	t.Helper()
	require.NoError(t, audio.WriteWAV(path, &audio.Buffer{SampleRate: rate, Channels: channels, Samples: samples}))
	return path
}

func readBuffer(t *testing.T, path string) *audio.Buffer {
	t.Helper()
	b, err := audio.ReadWAV(path)
	require.NoError(t, err)
	return b
}

func TestNativeProbe(t *testing.T) {
	dir := t.TempDir()
	path := writeBuffer(t, filepath.Join(dir, "a.wav"), 8000, 1, make([]float64, 12000)...)

	n := NewNative(nil)
	d, err := n.Duration(path)
	require.NoError(t, err)
	assert.Equal(t, 1.5, d)

	rate, err := n.SampleRate(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, rate)

	_, err = n.Duration(filepath.Join(dir, "missing.wav"))
	var pe *ProbeError
	assert.True(t, errors.As(err, &pe))
}

func TestNativeSynthesize(t *testing.T) {
	out := filepath.Join(t.TempDir(), "binaural.wav")
	end := 20.0

	n := NewNative(nil)
	require.NoError(t, n.Synthesize(out, Tone{Duration: 2, SampleRate: 8000, LeftFreq: 10, LeftEnd: &end, RightFreq: 14, Gain: -6}))

	b := readBuffer(t, out)
	assert.Equal(t, 2, b.Channels)
	assert.Equal(t, 8000, b.SampleRate)
	assert.Equal(t, 16000, b.Frames())

	peak := 0.0
	for _, s := range b.Samples {
		peak = math.Max(peak, math.Abs(s))
	}
	assert.InDelta(t, math.Pow(10, -6.0/20), peak, 0.01, "peak should follow the requested gain")

	// Both channels start at zero phase
	assert.Zero(t, b.Samples[0])
	assert.Zero(t, b.Samples[1])
}

func TestNativePadAndGain(t *testing.T) {
	dir := t.TempDir()
	in := writeBuffer(t, filepath.Join(dir, "fx.wav"), 10, 1, 0.25, -0.25)
	out := filepath.Join(dir, "padded.wav")

	require.NoError(t, NewNative(nil).PadAndGain(in, out, 0.3, 20*math.Log10(2)))

	b := readBuffer(t, out)
	assert.Equal(t, []float64{0, 0, 0, 0.5, -0.5}, b.Samples)
}

func TestNativeRepeatAndTrim(t *testing.T) {
	dir := t.TempDir()
	in := writeBuffer(t, filepath.Join(dir, "fx.wav"), 4, 1, 0.25, 0.5)
	repeated := filepath.Join(dir, "repeated.wav")
	trimmed := filepath.Join(dir, "trimmed.wav")

	n := NewNative(nil)
	require.NoError(t, n.Repeat(in, repeated, 3))
	assert.Equal(t, []float64{0.25, 0.5, 0.25, 0.5, 0.25, 0.5}, readBuffer(t, repeated).Samples)

	require.NoError(t, n.Trim(repeated, trimmed, 1.25))
	assert.Equal(t, []float64{0.25, 0.5, 0.25, 0.5, 0.25}, readBuffer(t, trimmed).Samples)

	// Trimming past the end keeps everything
	require.NoError(t, n.Trim(in, trimmed, 60))
	assert.Equal(t, []float64{0.25, 0.5}, readBuffer(t, trimmed).Samples)
}

func TestNativeMix(t *testing.T) {
	dir := t.TempDir()
	stereo := writeBuffer(t, filepath.Join(dir, "base.wav"), 8, 2, 0.5, -0.5, 0.25, -0.25)
	mono := writeBuffer(t, filepath.Join(dir, "fx.wav"), 8, 1, 0.5, 0.5, 0.5)
	out := filepath.Join(dir, "mixed.wav")

	require.NoError(t, NewNative(nil).Mix(out, stereo, mono))

	b := readBuffer(t, out)
	assert.Equal(t, 2, b.Channels)
	assert.Equal(t, 3, b.Frames(), "mix is as long as the longest input")
	assert.Equal(t, []float64{0.5, 0, 0.375, 0.125, 0.25, 0.25}, b.Samples)
}

func TestNativeMixRejectsRateMismatch(t *testing.T) {
	dir := t.TempDir()
	a := writeBuffer(t, filepath.Join(dir, "a.wav"), 8000, 1, 0)
	b := writeBuffer(t, filepath.Join(dir, "b.wav"), 16000, 1, 0)

	err := NewNative(nil).Mix(filepath.Join(dir, "out.wav"), a, b)
	var ee *EngineError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "mix", ee.Op)
	assert.Equal(t, nativeTool, ee.Tool)
}

func TestNativeResample(t *testing.T) {
	dir := t.TempDir()
	samples := make([]float64, 8000)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/8000)
	}
	in := writeBuffer(t, filepath.Join(dir, "fx.wav"), 8000, 1, samples...)
	out := filepath.Join(dir, "fx-16000.wav")

	n := NewNative(nil)
	require.NoError(t, n.Resample(in, out, 16000))

	rate, err := n.SampleRate(out)
	require.NoError(t, err)
	assert.Equal(t, 16000, rate)

	same := filepath.Join(dir, "fx-8000.wav")
	require.NoError(t, n.Resample(in, same, 8000))
	assert.Equal(t, readBuffer(t, in).Samples, readBuffer(t, same).Samples)
}

func TestNativeWritesWAVOnly(t *testing.T) {
	dir := t.TempDir()
	in := writeBuffer(t, filepath.Join(dir, "a.wav"), 8000, 1, 0)

	err := NewNative(nil).Passthrough(in, filepath.Join(dir, "a-mixed.mp3"))
	assert.ErrorIs(t, err, ErrNotWAV)

	var ee *EngineError
	assert.True(t, errors.As(err, &ee))
}
