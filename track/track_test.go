package track

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, sampleRate int, frames [][2]float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := gowav.NewEncoder(f, sampleRate, 16, 2, 1)
	data := make([]int, 0, 2*len(frames))
	for _, fr := range frames {
		data = append(data, int(fr[0]*32767), int(fr[1]*32767))
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestNewDuration(t *testing.T) {
	b := New("ten", 1000, make([][2]float64, 10000))
	if b.Duration() != 10*time.Second {
		t.Errorf("Duration = %v, want 10s", b.Duration())
	}
	if b.Len() != 10000 {
		t.Errorf("Len = %d, want 10000", b.Len())
	}
	if b.Name() != "ten" {
		t.Errorf("Name = %q", b.Name())
	}
}

func TestFramesRoundTrip(t *testing.T) {
	in := [][2]float64{{0.5, -0.5}, {0.25, 0}, {-1, 1}}
	b := New("x", 8000, in)
	out := b.Frames()
	if len(out) != len(in) {
		t.Fatalf("len(Frames) = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if math.Abs(out[i][0]-in[i][0]) > 1e-6 || math.Abs(out[i][1]-in[i][1]) > 1e-6 {
			t.Errorf("frame %d = %v, want %v", i, out[i], in[i])
		}
	}
}

func TestStreamerClampsRange(t *testing.T) {
	b := New("x", 8000, make([][2]float64, 100))
	s := b.Streamer(90, 500)
	if s.Len() != 10 {
		t.Errorf("Len = %d, want 10", s.Len())
	}
	s = b.Streamer(-5, 3)
	if s.Len() != 3 {
		t.Errorf("Len = %d, want 3", s.Len())
	}
}

func TestDecodeWAV(t *testing.T) {
	frames := make([][2]float64, 4000)
	for i := range frames {
		v := 0.5 * math.Sin(2*math.Pi*440*float64(i)/8000)
		frames[i] = [2]float64{v, -v}
	}
	b, err := ReadFile(writeTestWAV(t, 8000, frames))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if b.SampleRate() != 8000 {
		t.Errorf("SampleRate = %d, want 8000", b.SampleRate())
	}
	if b.Len() != len(frames) {
		t.Errorf("Len = %d, want %d", b.Len(), len(frames))
	}
	if b.Duration() != 500*time.Millisecond {
		t.Errorf("Duration = %v, want 500ms", b.Duration())
	}
}

func TestDecodeSniffsContainer(t *testing.T) {
	path := writeTestWAV(t, 8000, make([][2]float64, 800))
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Decode("upload.bin", raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b.Len() != 800 {
		t.Errorf("Len = %d, want 800", b.Len())
	}
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
		want error
	}{
		{"notes.txt", []byte("hello"), ErrUnsupportedFormat},
		{"empty", nil, ErrUnsupportedFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.name, tt.raw)
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error = %v, want *DecodeError", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := Decode("broken.wav", []byte("RIFF0000WAVEjunk")); err == nil {
		t.Error("truncated wav decoded without error")
	}
}
