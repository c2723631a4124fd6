package audio

import (
	"errors"
	"fmt"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes b as a 16-bit PCM WAV file. Samples outside [-1, 1) are
// clipped.
func WriteWAV(filename string, b *Buffer) error {
	if b.Channels <= 0 || b.SampleRate <= 0 {
		return errors.New("buffer has no channels or sample rate")
	}
	if len(b.Samples)%b.Channels != 0 {
		return fmt.Errorf("sample count %d is not a multiple of %d channels", len(b.Samples), b.Channels)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := encode(f, b); err != nil {
		f.Close()
		os.Remove(filename)
		return fmt.Errorf("%s: %w", filename, err)
	}
	return f.Close()
}

func encode(f *os.File, b *Buffer) error {
	pcm := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: b.Channels, SampleRate: b.SampleRate},
		Data:           make([]int, len(b.Samples)),
		SourceBitDepth: bitsPerSample,
	}
	for i, s := range b.Samples {
		pcm.Data[i] = int(toInt16(s))
	}

	enc := wav.NewEncoder(f, b.SampleRate, bitsPerSample, b.Channels, formatPCM)
	if err := enc.Write(pcm); err != nil {
		return err
	}
	// Close patches the RIFF and data sizes; it leaves f open
	return enc.Close()
}

func toInt16(s float64) int16 {
	v := math.Round(s * 32768.0)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}
