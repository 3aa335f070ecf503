// Package analysis computes the frequency data shown by spectrum displays.
package analysis

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/mjibson/go-dsp/fft"
)

const (
	DefaultSize      = 2048
	DefaultSmoothing = 0.8
	DefaultMinDB     = -100
	DefaultMaxDB     = -30
)

// Analyser keeps the most recent Size mono samples written to it and turns
// them into a smoothed magnitude spectrum on request.
type Analyser struct {
	mu sync.Mutex

	size      int
	smoothing float64
	minDB     float64
	maxDB     float64

	ring   []float64
	pos    int
	window []float64
	smooth []float64
}

// New creates an analyser with an FFT of size samples. size is rounded up to
// a power of two.
func New(size int) *Analyser {
	if size <= 0 {
		size = DefaultSize
	}
	n := 32
	for n < size {
		n <<= 1
	}

	// Blackman window, alpha 0.16
	window := make([]float64, n)
	for i := range window {
		x := 2 * math.Pi * float64(i) / float64(n)
		window[i] = 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	}

	return &Analyser{
		size:      n,
		smoothing: DefaultSmoothing,
		minDB:     DefaultMinDB,
		maxDB:     DefaultMaxDB,
		ring:      make([]float64, n),
		window:    window,
		smooth:    make([]float64, n/2),
	}
}

// Size returns the FFT size.
func (a *Analyser) Size() int { return a.size }

// FrequencyBinCount returns the number of bins filled by the data getters.
func (a *Analyser) FrequencyBinCount() int { return a.size / 2 }

// SetSmoothing sets the averaging constant between successive spectra,
// clamped to [0, 1].
func (a *Analyser) SetSmoothing(s float64) {
	a.mu.Lock()
	a.smoothing = math.Max(0, math.Min(1, s))
	a.mu.Unlock()
}

// SetRange sets the dB range mapped onto 0-255 by ByteFrequencyData.
func (a *Analyser) SetRange(minDB, maxDB float64) {
	if maxDB <= minDB {
		return
	}
	a.mu.Lock()
	a.minDB, a.maxDB = minDB, maxDB
	a.mu.Unlock()
}

// Write appends the mono mix of frames to the analysis window.
func (a *Analyser) Write(frames [][2]float64) {
	a.mu.Lock()
	for _, f := range frames {
		a.ring[a.pos] = (f[0] + f[1]) / 2
		a.pos = (a.pos + 1) % a.size
	}
	a.mu.Unlock()
}

// FloatFrequencyData fills dst with the spectrum in dB and returns the number
// of bins written.
func (a *Analyser) FloatFrequencyData(dst []float64) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.update()
	n := min(len(dst), len(a.smooth))
	for i := 0; i < n; i++ {
		dst[i] = toDB(a.smooth[i])
	}
	return n
}

// ByteFrequencyData fills dst with the spectrum scaled into 0-255 over the
// configured dB range and returns the number of bins written.
func (a *Analyser) ByteFrequencyData(dst []byte) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.update()
	n := min(len(dst), len(a.smooth))
	scale := 255 / (a.maxDB - a.minDB)
	for i := 0; i < n; i++ {
		v := math.Floor(scale * (toDB(a.smooth[i]) - a.minDB))
		dst[i] = byte(math.Max(0, math.Min(255, v)))
	}
	return n
}

// update windows the current ring contents, transforms them and folds the
// magnitudes into the smoothed spectrum.
func (a *Analyser) update() {
	frame := make([]float64, a.size)
	for i := range frame {
		frame[i] = a.ring[(a.pos+i)%a.size] * a.window[i]
	}

	bins := fft.FFTReal(frame)
	for i := range a.smooth {
		mag := cmplx.Abs(bins[i]) / float64(a.size)
		v := a.smoothing*a.smooth[i] + (1-a.smoothing)*mag
		if math.IsNaN(v) || math.IsInf(v, 0) {
			v = 0
		}
		a.smooth[i] = v
	}
}

func toDB(v float64) float64 {
	if v <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(v)
}
