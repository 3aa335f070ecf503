package graph

import (
	"math"

	"github.com/mjibson/go-dsp/fft"
)

// Normalisation constants of the usual convolver node: -58 dB calibration
// referenced to 44.1 kHz, with a power floor for near-silent responses.
const (
	gainCalibrationDB         = -58
	gainCalibrationSampleRate = 44100
	minPower                  = 0.000125
)

// Convolver convolves each stereo side with the matching side of an impulse
// response using uniformly partitioned FFT convolution. The partition size
// is the graph block size.
type Convolver struct {
	base

	sampleRate float64
	part       int
	scale      float64

	filters [2][][]complex128 // per side, per partition, FFT size 2*part
	window  [2][]float64      // previous block followed by the current block
	fdl     [][2][]complex128 // frequency-domain delay line
	head    int
	quiet   int
	acc     []complex128
}

// NewConvolver registers a convolver for ir. With normalize set the response
// is scaled by its RMS power.
func (g *Graph) NewConvolver(name string, ir [][2]float64, normalize bool) *Convolver {
	n := &Convolver{
		base:       base{id: g.nextID(), name: name, kind: KindConvolution},
		sampleRate: float64(g.sampleRate),
		part:       g.blockSize,
	}
	n.SetImpulse(ir, normalize)
	g.register(n)
	return n
}

// Partitions returns how many FFT partitions the current response occupies.
func (n *Convolver) Partitions() int { return len(n.fdl) }

// Scale returns the normalisation factor applied to the response.
func (n *Convolver) Scale() float64 { return n.scale }

// SetImpulse replaces the impulse response and clears the convolution state.
func (n *Convolver) SetImpulse(ir [][2]float64, normalize bool) {
	n.scale = 1
	if normalize {
		n.scale = normalizationScale(ir, n.sampleRate)
	}

	size := 2 * n.part
	parts := (len(ir) + n.part - 1) / n.part
	for c := 0; c < 2; c++ {
		n.filters[c] = make([][]complex128, parts)
		for p := 0; p < parts; p++ {
			seg := make([]float64, size)
			for i := 0; i < n.part; i++ {
				j := p*n.part + i
				if j >= len(ir) {
					break
				}
				seg[i] = ir[j][c] * n.scale
			}
			n.filters[c][p] = fft.FFTReal(seg)
		}
		n.window[c] = make([]float64, size)
	}
	n.fdl = make([][2][]complex128, parts)
	n.acc = make([]complex128, size)
	n.head = 0
	n.quiet = 0
}

func normalizationScale(ir [][2]float64, sampleRate float64) float64 {
	if len(ir) == 0 {
		return 1
	}
	var power float64
	for _, f := range ir {
		power += f[0]*f[0] + f[1]*f[1]
	}
	power = math.Sqrt(power / float64(2*len(ir)))
	if math.IsNaN(power) || math.IsInf(power, 0) || power < minPower {
		power = minPower
	}
	scale := 1 / power
	scale *= math.Pow(10, gainCalibrationDB*0.05)
	if sampleRate > 0 {
		scale *= gainCalibrationSampleRate / sampleRate
	}
	return scale
}

func (n *Convolver) process(in, out [][2]float64) {
	for off := 0; off < len(in); off += n.part {
		end := min(off+n.part, len(in))
		n.block(in[off:end], out[off:end])
	}
}

func (n *Convolver) block(in, out [][2]float64) {
	parts := len(n.fdl)
	if parts == 0 {
		clear(out)
		return
	}

	silent := true
	for i := range in {
		if in[i][0] != 0 || in[i][1] != 0 {
			silent = false
			break
		}
	}
	if silent {
		n.quiet++
	} else {
		n.quiet = 0
	}

	// Once the tail has left every partition, silence in is silence out.
	if silent && n.quiet > parts {
		n.fdl[n.head] = [2][]complex128{}
		n.head = (n.head + 1) % parts
		clear(out)
		return
	}

	p := n.part
	for c := 0; c < 2; c++ {
		w := n.window[c]
		copy(w[:p], w[p:])
		for i := 0; i < p; i++ {
			if i < len(in) {
				w[p+i] = in[i][c]
			} else {
				w[p+i] = 0
			}
		}
		n.fdl[n.head][c] = fft.FFTReal(w)

		clear(n.acc)
		for k := 0; k < parts; k++ {
			x := n.fdl[(n.head-k+parts)%parts][c]
			if x == nil {
				continue
			}
			h := n.filters[c][k]
			for i := range n.acc {
				n.acc[i] += x[i] * h[i]
			}
		}
		y := fft.IFFT(n.acc)
		for i := range out {
			out[i][c] = real(y[p+i])
		}
	}
	n.head = (n.head + 1) % parts
}
