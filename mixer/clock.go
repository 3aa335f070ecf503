package mixer

import (
	"time"

	"github.com/gopxl/beep/v2"
)

// Clock is the engine time reference used for elapsed-position queries.
// Now is only called with the engine lock held.
type Clock interface {
	Now() time.Duration
}

// renderClock counts the frames the engine has rendered.
type renderClock struct {
	sampleRate beep.SampleRate
	frames     *int
}

func (c renderClock) Now() time.Duration {
	return c.sampleRate.D(*c.frames)
}
