// Package track holds decoded audio material. A Buffer is immutable once
// created and may be shared by any number of playback instances.
package track

import (
	"time"

	"github.com/gopxl/beep/v2"
)

// Buffer is decoded PCM at a fixed sample rate.
type Buffer struct {
	name   string
	format beep.Format
	data   *beep.Buffer
}

// New builds a stereo Buffer from frames, stored at 24-bit precision.
func New(name string, sampleRate beep.SampleRate, frames [][2]float64) *Buffer {
	format := beep.Format{SampleRate: sampleRate, NumChannels: 2, Precision: 3}
	return FromStreamer(name, format, &frameStreamer{frames: frames})
}

// FromStreamer drains s into a new Buffer with the given format.
func FromStreamer(name string, format beep.Format, s beep.Streamer) *Buffer {
	if format.NumChannels <= 0 {
		format.NumChannels = 2
	}
	if format.Precision <= 0 {
		format.Precision = 2
	}
	data := beep.NewBuffer(format)
	data.Append(s)
	return &Buffer{name: name, format: format, data: data}
}

// Name returns the name the buffer was decoded from.
func (b *Buffer) Name() string { return b.name }

// Format returns the stored sample format.
func (b *Buffer) Format() beep.Format { return b.format }

// SampleRate returns the rate the frames were decoded at.
func (b *Buffer) SampleRate() beep.SampleRate { return b.format.SampleRate }

// Len returns the number of frames.
func (b *Buffer) Len() int { return b.data.Len() }

// Duration returns the playing time at normal speed.
func (b *Buffer) Duration() time.Duration {
	return b.format.SampleRate.D(b.data.Len())
}

// Streamer returns a new independent reader over frames [from, to).
func (b *Buffer) Streamer(from, to int) beep.StreamSeeker {
	from = max(0, min(from, b.Len()))
	to = max(from, min(to, b.Len()))
	return b.data.Streamer(from, to)
}

// Frames copies every frame out of the buffer.
func (b *Buffer) Frames() [][2]float64 {
	out := make([][2]float64, b.Len())
	s := b.data.Streamer(0, b.Len())
	for n := 0; n < len(out); {
		k, ok := s.Stream(out[n:])
		n += k
		if !ok || k == 0 {
			break
		}
	}
	return out
}

type frameStreamer struct {
	frames [][2]float64
	pos    int
}

func (s *frameStreamer) Stream(samples [][2]float64) (int, bool) {
	if s.pos >= len(s.frames) {
		return 0, false
	}
	n := copy(samples, s.frames[s.pos:])
	s.pos += n
	return n, true
}

func (s *frameStreamer) Err() error { return nil }
