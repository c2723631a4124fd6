// Package audio provides 16-bit PCM WAV file I/O for the in-process engine
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	formatPCM        = 1
	formatExtensible = 0xFFFE
	bitsPerSample    = 16
	bytesPerSample   = bitsPerSample / 8
)

// ErrUnsupportedFormat is returned for WAV files that are not 16-bit PCM.
var ErrUnsupportedFormat = errors.New("unsupported WAV format (16-bit PCM only)")

// Metadata contains audio file metadata
type Metadata struct {
	Duration   float64 // seconds
	SampleRate int
	Channels   int
	BitDepth   int
	Frames     int
}

// Buffer holds decoded audio as interleaved samples normalised to [-1, 1).
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float64
}

// Frames returns the number of sample frames (one sample per channel).
func (b *Buffer) Frames() int {
	if b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Metadata describes the buffer as it would be written to disk.
func (b *Buffer) Metadata() Metadata {
	return Metadata{
		Duration:   b.Duration(),
		SampleRate: b.SampleRate,
		Channels:   b.Channels,
		BitDepth:   bitsPerSample,
		Frames:     b.Frames(),
	}
}

// pcmStream is a decoder positioned at the first sample of the data chunk.
type pcmStream struct {
	dec       *wav.Decoder
	dataBytes int64
}

func (s *pcmStream) metadata() *Metadata {
	channels := int(s.dec.NumChans)
	rate := int(s.dec.SampleRate)
	frames := int(s.dataBytes) / (channels * bytesPerSample)
	return &Metadata{
		Duration:   float64(frames) / float64(rate),
		SampleRate: rate,
		Channels:   channels,
		BitDepth:   int(s.dec.BitDepth),
		Frames:     frames,
	}
}

// openPCM walks the RIFF chunks up to the data chunk. Streamed WAVs carry a
// placeholder data size, so the usable length is capped at what remains of
// the input.
func openPCM(r io.ReadSeeker, size int64) (*pcmStream, error) {
	dec := wav.NewDecoder(r)
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to find data chunk: %w", err)
	}
	if dec.PCMChunk == nil {
		if err := dec.Err(); err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
		return nil, wav.ErrPCMChunkNotFound
	}

	if dec.WavAudioFormat != formatPCM && dec.WavAudioFormat != formatExtensible {
		return nil, fmt.Errorf("%w: format tag %#x", ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	if dec.BitDepth != bitsPerSample {
		return nil, fmt.Errorf("%w: %d-bit", ErrUnsupportedFormat, dec.BitDepth)
	}
	if dec.NumChans == 0 || dec.SampleRate == 0 {
		return nil, errors.New("invalid fmt chunk: zero channels or sample rate")
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, fmt.Errorf("failed to locate data chunk: %w", err)
	}
	declared, err := dataChunkSize(r, pos)
	if err != nil {
		return nil, err
	}
	dataBytes := min(declared, max(size-pos, 0))
	dec.PCMChunk.R = io.LimitReader(r, dataBytes)
	return &pcmStream{dec: dec, dataBytes: dataBytes}, nil
}

// dataChunkSize rereads the size field in front of the samples at pos. The
// decoder rounds odd sizes up in 32 bits, which wraps the 0xFFFFFFFF
// placeholder to zero.
func dataChunkSize(r io.ReadSeeker, pos int64) (int64, error) {
	if _, err := r.Seek(pos-4, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to read data chunk size: %w", err)
	}
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return 0, fmt.Errorf("failed to read data chunk size: %w", err)
	}
	return int64(size), nil
}

// ReadMetadata reads only the header of a WAV file.
func ReadMetadata(filename string) (*Metadata, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat input file: %w", err)
	}

	s, err := openPCM(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return s.metadata(), nil
}

// ReadWAV decodes a complete 16-bit PCM WAV file.
func ReadWAV(filename string) (*Buffer, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	s, err := openPCM(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	meta := s.metadata()
	pcm := &goaudio.IntBuffer{
		Format: s.dec.Format(),
		Data:   make([]int, meta.Frames*meta.Channels),
	}
	n := 0
	if len(pcm.Data) > 0 {
		if n, err = s.dec.PCMBuffer(pcm); err != nil {
			return nil, fmt.Errorf("%s: failed to read samples: %w", filename, err)
		}
	}
	if n != len(pcm.Data) {
		return nil, fmt.Errorf("%s: short data chunk: %d of %d samples", filename, n, len(pcm.Data))
	}

	samples := make([]float64, n)
	for i, v := range pcm.Data {
		samples[i] = float64(v) / 32768.0
	}

	return &Buffer{
		SampleRate: meta.SampleRate,
		Channels:   meta.Channels,
		Samples:    samples,
	}, nil
}
