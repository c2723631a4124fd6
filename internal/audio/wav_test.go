package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")

	// Every value is an exact multiple of 1/32768 so it survives 16-bit encoding
	in := &Buffer{
		SampleRate: 22050,
		Channels:   2,
		Samples:    []float64{0, 0.5, -0.5, 0.25, -1, 32767.0 / 32768.0, 1.0 / 32768.0, -0.75},
	}

	if err := WriteWAV(path, in); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	out, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}

	if out.SampleRate != in.SampleRate || out.Channels != in.Channels {
		t.Fatalf("format = %d Hz/%d ch, want %d Hz/%d ch", out.SampleRate, out.Channels, in.SampleRate, in.Channels)
	}
	if len(out.Samples) != len(in.Samples) {
		t.Fatalf("got %d samples, want %d", len(out.Samples), len(in.Samples))
	}
	for i := range in.Samples {
		if out.Samples[i] != in.Samples[i] {
			t.Errorf("sample %d = %v, want %v", i, out.Samples[i], in.Samples[i])
		}
	}
}

func TestWriteClipsOutOfRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loud.wav")

	if err := WriteWAV(path, &Buffer{SampleRate: 8000, Channels: 1, Samples: []float64{2, -2}}); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	out, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}

	if got, want := out.Samples[0], float64(math.MaxInt16)/32768.0; got != want {
		t.Errorf("positive clip = %v, want %v", got, want)
	}
	if got := out.Samples[1]; got != -1 {
		t.Errorf("negative clip = %v, want -1", got)
	}
}

func TestReadMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meta.wav")

	b := &Buffer{SampleRate: 48000, Channels: 2, Samples: make([]float64, 48000*2*3/2)}
	if err := WriteWAV(path, b); err != nil {
		t.Fatalf("WriteWAV failed: %v", err)
	}

	meta, err := ReadMetadata(path)
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}

	if meta.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", meta.SampleRate)
	}
	if meta.Channels != 2 {
		t.Errorf("Channels = %d, want 2", meta.Channels)
	}
	if meta.BitDepth != 16 {
		t.Errorf("BitDepth = %d, want 16", meta.BitDepth)
	}
	if meta.Frames != 72000 {
		t.Errorf("Frames = %d, want 72000", meta.Frames)
	}
	if meta.Duration != 1.5 {
		t.Errorf("Duration = %v, want 1.5", meta.Duration)
	}
	if b.Metadata() != *meta {
		t.Errorf("Buffer.Metadata() = %+v, want %+v", b.Metadata(), *meta)
	}
}

// pcmFmt is a 16-byte "fmt " chunk body.
type pcmFmt struct {
	AudioFormat   uint16
	NumChannels   uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
}

// writeChunks writes a RIFF/WAVE file made of the given chunks. Odd-sized
// bodies get their pad byte; sizes of -1 are taken from the body.
func writeChunks(t *testing.T, path string, riffSize uint32, chunks ...rawChunk) {
	t.Helper()

	var body bytes.Buffer
	body.WriteString("WAVE")
	le := binary.LittleEndian
	for _, c := range chunks {
		size := c.size
		if size < 0 {
			size = int64(len(c.body))
		}
		body.WriteString(c.id)
		binary.Write(&body, le, uint32(size))
		body.Write(c.body)
		if len(c.body)%2 == 1 {
			body.WriteByte(0)
		}
	}

	var out bytes.Buffer
	out.WriteString("RIFF")
	if riffSize == 0 {
		riffSize = uint32(body.Len())
	}
	binary.Write(&out, binary.LittleEndian, riffSize)
	out.Write(body.Bytes())
	if err := os.WriteFile(path, out.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

type rawChunk struct {
	id   string
	size int64
	body []byte
}

func chunkOf(id string, v any) rawChunk {
	var b bytes.Buffer
	binary.Write(&b, binary.LittleEndian, v)
	return rawChunk{id: id, size: -1, body: b.Bytes()}
}

var mono8k = pcmFmt{AudioFormat: formatPCM, NumChannels: 1, SampleRate: 8000, ByteRate: 16000, BlockAlign: 2, BitsPerSample: 16}

func TestReadSkipsUnknownChunks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.wav")

	writeChunks(t, path, 0,
		rawChunk{id: "junk", size: -1, body: []byte("abc")},
		chunkOf("fmt ", mono8k),
		chunkOf("data", []int16{16384, -16384}),
	)

	b, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if len(b.Samples) != 2 || b.Samples[0] != 0.5 || b.Samples[1] != -0.5 {
		t.Errorf("Samples = %v, want [0.5 -0.5]", b.Samples)
	}
}

func TestReadExtensibleFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ext.wav")

	ext := struct {
		Fmt         pcmFmt
		ExtraSize   uint16
		ValidBits   uint16
		ChannelMask uint32
		SubFormat   [16]byte
	}{
		Fmt:         pcmFmt{AudioFormat: formatExtensible, NumChannels: 2, SampleRate: 44100, ByteRate: 176400, BlockAlign: 4, BitsPerSample: 16},
		ExtraSize:   22,
		ValidBits:   16,
		ChannelMask: 3,
		SubFormat:   [16]byte{1, 0, 0, 0, 0, 0, 0x10, 0, 0x80, 0, 0, 0xAA, 0, 0x38, 0x9B, 0x71},
	}
	writeChunks(t, path, 0,
		chunkOf("fmt ", ext),
		chunkOf("data", []int16{8192, -8192, 0, 16384}),
	)

	b, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if b.SampleRate != 44100 || b.Channels != 2 {
		t.Errorf("format = %d Hz/%d ch, want 44100 Hz/2 ch", b.SampleRate, b.Channels)
	}
	want := []float64{0.25, -0.25, 0, 0.5}
	if len(b.Samples) != len(want) {
		t.Fatalf("Samples = %v, want %v", b.Samples, want)
	}
	for i := range want {
		if b.Samples[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, b.Samples[i], want[i])
		}
	}
}

func TestReadStreamedDataSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "piped.wav")

	// Piped encoders cannot seek back, so both sizes stay at the placeholder
	data := chunkOf("data", []int16{100, 200, 300, 400})
	data.size = 0xFFFFFFFF
	writeChunks(t, path, 0xFFFFFFFF, chunkOf("fmt ", mono8k), data)

	meta, err := ReadMetadata(path)
	if err != nil {
		t.Fatalf("ReadMetadata failed: %v", err)
	}
	if meta.Frames != 4 {
		t.Errorf("Frames = %d, want 4", meta.Frames)
	}
	if meta.Duration != 4.0/8000 {
		t.Errorf("Duration = %v, want %v", meta.Duration, 4.0/8000)
	}

	b, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if len(b.Samples) != 4 || b.Samples[3] != 400.0/32768 {
		t.Errorf("Samples = %v, want 4 samples ending in %v", b.Samples, 400.0/32768)
	}
}

func TestReadRejectsNonPCM16(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.wav")

	writeChunks(t, path, 0,
		chunkOf("fmt ", pcmFmt{AudioFormat: 3, NumChannels: 1, SampleRate: 8000, ByteRate: 32000, BlockAlign: 4, BitsPerSample: 32}),
		rawChunk{id: "data", size: 0},
	)

	_, err := ReadWAV(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ReadWAV error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestReadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.wav")
	if err := os.WriteFile(path, []byte("ID3 this is an mp3, honest"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ReadMetadata(path); err == nil {
		t.Error("ReadMetadata accepted a non-WAV file")
	}
	if _, err := ReadMetadata(filepath.Join(t.TempDir(), "missing.wav")); err == nil {
		t.Error("ReadMetadata accepted a missing file")
	}
}
