package playback

import (
	"errors"
	"sync"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
)

var ErrAlreadyClosed = errors.New("already closed")

// Output plays a single stream on the audio device
type Output struct {
	ctrl       *beep.Ctrl
	volume     *effects.Volume
	mu         sync.RWMutex
	closed     bool
	sampleRate beep.SampleRate
}
