package mixer

import (
	"log/slog"
	"sync"
	"sync/atomic"
)

// Tap delivers a fixed point of the graph as interleaved float32 blocks
// while armed. The renderer never waits on a slow reader: when the queue is
// full the block is dropped and counted.
type Tap struct {
	name   string
	logger *slog.Logger

	mu      sync.Mutex
	ch      chan []float32
	frames  int
	pending []float32

	dropped atomic.Uint64
}

func newTap(name string, logger *slog.Logger) *Tap {
	return &Tap{name: name, logger: logger.With(slog.String("tap", name))}
}

// Name returns the tap point name.
func (t *Tap) Name() string { return t.name }

// Arm starts delivery of blocks of blockFrames frames into a queue of queue
// blocks. Arming an armed tap closes the previous channel first.
func (t *Tap) Arm(blockFrames, queue int) <-chan []float32 {
	blockFrames = max(1, blockFrames)
	queue = max(1, queue)

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ch != nil {
		close(t.ch)
	}
	t.ch = make(chan []float32, queue)
	t.frames = blockFrames
	t.pending = make([]float32, 0, 2*blockFrames)
	t.dropped.Store(0)
	return t.ch
}

// Disarm stops delivery and closes the channel returned by Arm. A partial
// block is flushed first if the queue has room.
func (t *Tap) Disarm() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ch == nil {
		return
	}
	if len(t.pending) > 0 {
		select {
		case t.ch <- t.pending:
		default:
			t.dropped.Add(1)
		}
	}
	close(t.ch)
	t.ch = nil
	t.pending = nil
}

// Armed reports whether blocks are being delivered.
func (t *Tap) Armed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ch != nil
}

// Dropped returns the number of blocks dropped since the tap was armed.
func (t *Tap) Dropped() uint64 { return t.dropped.Load() }

func (t *Tap) write(frames [][2]float64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ch == nil {
		return
	}
	for _, f := range frames {
		t.pending = append(t.pending, float32(f[0]), float32(f[1]))
		if len(t.pending) < 2*t.frames {
			continue
		}
		select {
		case t.ch <- t.pending:
		default:
			if t.dropped.Add(1) == 1 {
				t.logger.Warn("Tap reader is falling behind, dropping blocks")
			}
		}
		t.pending = make([]float32, 0, 2*t.frames)
	}
}
