package graph

import "math"

// FilterType selects the biquad response of a Band.
type FilterType int

const (
	LowShelf FilterType = iota
	Peaking
	HighShelf
)

// Band describes one stage of a FilterChain.
type Band struct {
	Type      FilterType
	Frequency float64 // corner or center frequency in Hz
	Q         float64 // used by Peaking only
	GainDB    float64
}

type biquad struct {
	b0, b1, b2, a1, a2 float64

	// direct form I history, per stereo side
	x1, x2, y1, y2 [2]float64
}

// design computes RBJ cookbook coefficients. Shelves use a slope of 1.
func (q *biquad) design(band Band, sampleRate float64) {
	nyquist := sampleRate / 2
	f := band.Frequency
	if f >= nyquist {
		f = nyquist * 0.999
	}
	a := math.Pow(10, band.GainDB/40)
	w0 := 2 * math.Pi * f / sampleRate
	cosw, sinw := math.Cos(w0), math.Sin(w0)

	var b0, b1, b2, a0, a1, a2 float64
	switch band.Type {
	case LowShelf:
		alpha := sinw / 2 * math.Sqrt2
		k := 2 * math.Sqrt(a) * alpha
		b0 = a * ((a + 1) - (a-1)*cosw + k)
		b1 = 2 * a * ((a - 1) - (a+1)*cosw)
		b2 = a * ((a + 1) - (a-1)*cosw - k)
		a0 = (a + 1) + (a-1)*cosw + k
		a1 = -2 * ((a - 1) + (a+1)*cosw)
		a2 = (a + 1) + (a-1)*cosw - k
	case HighShelf:
		alpha := sinw / 2 * math.Sqrt2
		k := 2 * math.Sqrt(a) * alpha
		b0 = a * ((a + 1) + (a-1)*cosw + k)
		b1 = -2 * a * ((a - 1) + (a+1)*cosw)
		b2 = a * ((a + 1) + (a-1)*cosw - k)
		a0 = (a + 1) - (a-1)*cosw + k
		a1 = 2 * ((a - 1) - (a+1)*cosw)
		a2 = (a + 1) - (a-1)*cosw - k
	default:
		qv := band.Q
		if qv <= 0 {
			qv = 1
		}
		alpha := sinw / (2 * qv)
		b0 = 1 + alpha*a
		b1 = -2 * cosw
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosw
		a2 = 1 - alpha/a
	}

	q.b0, q.b1, q.b2 = b0/a0, b1/a0, b2/a0
	q.a1, q.a2 = a1/a0, a2/a0
}

func (q *biquad) tick(c int, x float64) float64 {
	y := q.b0*x + q.b1*q.x1[c] + q.b2*q.x2[c] - q.a1*q.y1[c] - q.a2*q.y2[c]
	q.x2[c], q.x1[c] = q.x1[c], x
	q.y2[c], q.y1[c] = q.y1[c], y
	return y
}

// FilterChain runs its bands in series, first to last.
type FilterChain struct {
	base

	sampleRate float64
	bands      []Band
	stages     []biquad
}

// NewFilterChain registers a filter chain with the given bands.
func (g *Graph) NewFilterChain(name string, bands ...Band) *FilterChain {
	n := &FilterChain{
		base:       base{id: g.nextID(), name: name, kind: KindFilterChain},
		sampleRate: float64(g.sampleRate),
		bands:      append([]Band(nil), bands...),
		stages:     make([]biquad, len(bands)),
	}
	for i := range n.stages {
		n.stages[i].design(n.bands[i], n.sampleRate)
	}
	g.register(n)
	return n
}

// Bands returns a copy of the band settings.
func (n *FilterChain) Bands() []Band {
	return append([]Band(nil), n.bands...)
}

// SetGain changes the gain of band i in dB. Filter history is kept so the
// change does not reset the signal.
func (n *FilterChain) SetGain(i int, db float64) {
	if i < 0 || i >= len(n.bands) || n.bands[i].GainDB == db {
		return
	}
	n.bands[i].GainDB = db
	n.stages[i].design(n.bands[i], n.sampleRate)
}

// SetGains sets the gain of the leading bands in order.
func (n *FilterChain) SetGains(db ...float64) {
	for i, v := range db {
		n.SetGain(i, v)
	}
}

func (n *FilterChain) process(in, out [][2]float64) {
	for i := range in {
		l, r := in[i][0], in[i][1]
		for s := range n.stages {
			l = n.stages[s].tick(0, l)
			r = n.stages[s].tick(1, r)
		}
		out[i][0], out[i][1] = l, r
	}
}
