package playback

import (
	"github.com/gopxl/beep/v2"
)

// BlockStreamer turns interleaved stereo float32 blocks, as delivered by a
// mixer tap, back into a beep.Streamer. It ends when the block channel is
// closed or Close is called.
type BlockStreamer struct {
	block    []float32
	blockIdx int

	blocks   <-chan []float32
	closedCh chan struct{}
	closed   bool
}

var _ beep.Streamer = (*BlockStreamer)(nil)

func NewBlockStreamer(blocks <-chan []float32) *BlockStreamer {
	return &BlockStreamer{
		blocks:   blocks,
		closedCh: make(chan struct{}),
	}
}

func (s *BlockStreamer) Err() error {
	return nil
}

// Close ends the stream. A Stream call blocked waiting for a block returns.
func (s *BlockStreamer) Close() error {
	if s.closed {
		return ErrAlreadyClosed
	}
	s.closed = true
	close(s.closedCh)
	return nil
}

// Stream blocks until enough frames arrived to fill samples or the source
// ended. A partial fill is returned with ok set when the source ends.
func (s *BlockStreamer) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) {
		if s.blockIdx+1 >= len(s.block) {
			select {
			case block, open := <-s.blocks:
				if !open {
					return n, n > 0
				}
				s.block = block
				s.blockIdx = 0
				continue
			case <-s.closedCh:
				return n, n > 0
			}
		}

		for ; n < len(samples) && s.blockIdx+1 < len(s.block); n++ {
			samples[n][0] = float64(s.block[s.blockIdx])
			samples[n][1] = float64(s.block[s.blockIdx+1])
			s.blockIdx += 2
		}
	}

	return n, true
}
