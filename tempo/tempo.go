// Package tempo estimates the beat rate of decoded tracks.
package tempo

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/Unlike-U/420soundclashweb/track"
)

// ErrNoTempo means no beat could be found. It never makes a load fail.
var ErrNoTempo = errors.New("tempo unavailable")

const (
	framesPerSecond = 100  // novelty frames per second
	minStrength     = 0.1  // peak autocorrelation relative to lag zero
	energyScale     = 1000 // compression factor for log energy
)

// Estimator searches for a tempo between MinBPM and MaxBPM.
type Estimator struct {
	MinBPM float64
	MaxBPM float64
}

// Default searches 90-180 BPM, so half- and double-time readings fold into
// the range a DJ usually works in.
var Default = Estimator{MinBPM: 90, MaxBPM: 180}

// Estimate runs the Default estimator.
func Estimate(b *track.Buffer) (int, error) {
	return Default.Estimate(b)
}

// Display scales a base tempo by a playback rate given in percent
// (100 = normal speed).
func Display(base int, rate float64) int {
	return int(math.Round(float64(base) * rate / 100))
}

// Estimate autocorrelates an onset envelope of b and returns the strongest
// beat period in range, rounded to whole BPM.
func (e Estimator) Estimate(b *track.Buffer) (int, error) {
	if b == nil || b.Len() == 0 || e.MinBPM <= 0 || e.MaxBPM <= e.MinBPM {
		return 0, ErrNoTempo
	}

	hop := int(b.SampleRate()) / framesPerSecond
	if hop < 1 {
		return 0, ErrNoTempo
	}
	fps := float64(b.SampleRate()) / float64(hop)
	novelty := onsets(b.Frames(), hop)

	minLag := int(math.Floor(60 * fps / e.MaxBPM))
	maxLag := int(math.Ceil(60 * fps / e.MinBPM))
	if minLag < 1 || len(novelty) < 2*maxLag {
		return 0, ErrNoTempo
	}

	r := autocorrelate(novelty)
	if r[0] <= 0 {
		return 0, ErrNoTempo
	}

	best := minLag
	for lag := minLag; lag <= maxLag; lag++ {
		if r[lag] > r[best] {
			best = lag
		}
	}
	if r[best]/r[0] < minStrength {
		return 0, ErrNoTempo
	}

	period := float64(best)
	if best > 0 && best+1 < len(r) {
		a, c, d := r[best-1], r[best], r[best+1]
		if den := a - 2*c + d; den != 0 {
			period += 0.5 * (a - d) / den
		}
	}
	return int(math.Round(60 * fps / period)), nil
}

// onsets returns the half-wave rectified change in log energy per hop,
// with its mean removed.
func onsets(frames [][2]float64, hop int) []float64 {
	count := len(frames) / hop
	if count < 2 {
		return nil
	}
	energy := make([]float64, count)
	for i := range energy {
		var sum float64
		for _, f := range frames[i*hop : (i+1)*hop] {
			m := (f[0] + f[1]) / 2
			sum += m * m
		}
		energy[i] = math.Log1p(energyScale * sum / float64(hop))
	}

	novelty := make([]float64, count)
	var mean float64
	for i := 1; i < count; i++ {
		novelty[i] = math.Max(0, energy[i]-energy[i-1])
		mean += novelty[i]
	}
	mean /= float64(count)
	for i := range novelty {
		novelty[i] -= mean
	}
	return novelty
}

// autocorrelate computes the linear autocorrelation of x through the FFT.
func autocorrelate(x []float64) []float64 {
	size := 1
	for size < 2*len(x) {
		size <<= 1
	}
	padded := make([]float64, size)
	copy(padded, x)

	bins := fft.FFTReal(padded)
	for i, v := range bins {
		bins[i] = v * cmplx.Conj(v)
	}
	r := fft.IFFT(bins)

	out := make([]float64, len(x))
	for i := range out {
		out[i] = real(r[i])
	}
	return out
}
