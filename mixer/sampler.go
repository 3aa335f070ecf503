package mixer

import (
	"errors"
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/Unlike-U/420soundclashweb/track"
)

// Pads is the number of sampler pad slots.
const Pads = 8

// MaxSampleLength is the longest buffer the sampler accepts.
const MaxSampleLength = 10 * time.Second

var (
	ErrSampleTooLong = errors.New("sample longer than 10s")
	ErrUnknownPad    = errors.New("unknown pad")
	ErrEmptyPad      = errors.New("pad is empty")
)

// sampler plays one-shot buffers straight into the master bus. Voices are
// mixed by a beep.Mixer, which drops them once their buffer runs out.
type sampler struct {
	voices  beep.Mixer
	pads    [Pads]*track.Buffer
	scratch [][2]float64
}

func checkSample(buf *track.Buffer) error {
	if buf == nil || buf.Len() == 0 {
		return fmt.Errorf("sample: %w", track.ErrEmpty)
	}
	if d := buf.Duration(); d > MaxSampleLength {
		return fmt.Errorf("%w: %s is %s", ErrSampleTooLong, buf.Name(), d.Round(time.Millisecond))
	}
	return nil
}

func (s *sampler) add(buf *track.Buffer, engineRate beep.SampleRate) {
	var v beep.Streamer = buf.Streamer(0, buf.Len())
	if buf.SampleRate() != engineRate {
		v = beep.Resample(4, buf.SampleRate(), engineRate, v)
	}
	s.voices.Add(v)
}

func (s *sampler) pad(n int) (*track.Buffer, error) {
	if n < 0 || n >= Pads {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPad, n)
	}
	return s.pads[n], nil
}

func (s *sampler) render(dst [][2]float64) {
	if s.voices.Len() == 0 {
		return
	}
	if len(s.scratch) < len(dst) {
		s.scratch = make([][2]float64, len(dst))
	}
	scratch := s.scratch[:len(dst)]

	n, _ := s.voices.Stream(scratch)
	for i := 0; i < n; i++ {
		dst[i][0] += scratch[i][0]
		dst[i][1] += scratch[i][1]
	}
}

func (s *sampler) reset() {
	s.voices.Clear()
}
