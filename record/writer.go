// Package record writes mixer output to 16-bit PCM WAV files.
package record

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gopxl/beep/v2"
)

// Writer encodes stereo frames into a WAV container. The header is
// finalised by Close.
type Writer struct {
	enc        *wav.Encoder
	file       io.Closer
	buf        *audio.IntBuffer
	sampleRate beep.SampleRate
	frames     int
	closed     bool
}

// Create opens path for writing a WAV at sampleRate.
func Create(path string, sampleRate beep.SampleRate) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}
	w := NewWriter(f, sampleRate)
	w.file = f
	return w, nil
}

// NewWriter encodes into ws. The caller keeps ownership of ws.
func NewWriter(ws io.WriteSeeker, sampleRate beep.SampleRate) *Writer {
	return &Writer{
		enc: wav.NewEncoder(ws, int(sampleRate), 16, 2, 1),
		buf: &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: 2, SampleRate: int(sampleRate)},
			SourceBitDepth: 16,
		},
		sampleRate: sampleRate,
	}
}

// Write appends frames, clipping each sample to [-1, 1].
func (w *Writer) Write(frames [][2]float64) error {
	if w.closed {
		return os.ErrClosed
	}
	if len(frames) == 0 {
		return nil
	}
	data := w.buf.Data[:0]
	for _, f := range frames {
		data = append(data, toInt16(f[0]), toInt16(f[1]))
	}
	w.buf.Data = data
	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("failed to encode frames: %w", err)
	}
	w.frames += len(frames)
	return nil
}

// WriteInterleaved appends an interleaved stereo block as delivered by a
// mixer tap.
func (w *Writer) WriteInterleaved(block []float32) error {
	frames := make([][2]float64, len(block)/2)
	for i := range frames {
		frames[i] = [2]float64{float64(block[2*i]), float64(block[2*i+1])}
	}
	return w.Write(frames)
}

// WriteFrom pulls up to n frames from s in chunks and writes them. It
// returns the number of frames written.
func (w *Writer) WriteFrom(s beep.Streamer, n int) (int, error) {
	chunk := make([][2]float64, min(n, 4096))
	written := 0
	for written < n {
		want := min(len(chunk), n-written)
		k, ok := s.Stream(chunk[:want])
		if err := w.Write(chunk[:k]); err != nil {
			return written, err
		}
		written += k
		if !ok || k < want {
			break
		}
	}
	return written, s.Err()
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int { return w.frames }

// Duration returns the length of the recording so far.
func (w *Writer) Duration() time.Duration { return w.sampleRate.D(w.frames) }

// Close finalises the header and closes the file opened by Create.
func (w *Writer) Close() error {
	if w.closed {
		return os.ErrClosed
	}
	w.closed = true
	err := w.enc.Close()
	if w.file != nil {
		if cerr := w.file.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func toInt16(v float64) int {
	return int(math.Round(math.Max(-1, math.Min(1, v)) * 32767))
}
