package playback

import (
	"fmt"
	"math"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// NewOutput initializes the speaker and starts playing src
func NewOutput(sampleRate beep.SampleRate, latency time.Duration, src beep.Streamer) (*Output, error) {
	// Initialize the speaker with the given sample rate
	err := speaker.Init(sampleRate, sampleRate.N(latency))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}

	volume := &effects.Volume{Streamer: src, Base: 2}
	ctrl := &beep.Ctrl{Streamer: volume}

	output := &Output{
		ctrl:       ctrl,
		volume:     volume,
		sampleRate: sampleRate,
	}

	// Start playing the stream
	speaker.Play(ctrl)

	return output, nil
}

// SampleRate returns the device sample rate
func (o *Output) SampleRate() beep.SampleRate {
	return o.sampleRate
}

// SetVolume sets the device trim (0.0 to 1.0)
func (o *Output) SetVolume(volume float64) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	speaker.Lock()
	o.volume.Silent = volume <= 0
	if volume > 0 {
		o.volume.Volume = math.Log2(math.Min(volume, 1))
	}
	speaker.Unlock()
}

// Pause pauses the playback
func (o *Output) Pause() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		speaker.Lock()
		o.ctrl.Paused = true
		speaker.Unlock()
	}
}

// Resume resumes the playback
func (o *Output) Resume() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.closed {
		speaker.Lock()
		o.ctrl.Paused = false
		speaker.Unlock()
	}
}

// Close stops the stream and releases the device
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return ErrAlreadyClosed
	}

	o.closed = true

	speaker.Clear()

	// Close the speaker
	speaker.Close()

	return nil
}

// IsPlaying returns true if the output is currently playing
func (o *Output) IsPlaying() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if o.closed {
		return false
	}

	speaker.Lock()
	playing := !o.ctrl.Paused
	speaker.Unlock()

	return playing
}
