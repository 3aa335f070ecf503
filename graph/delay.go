package graph

import (
	"math"
	"time"
)

// Delay is a delay line with a fixed capacity. An optional sine LFO
// modulates the delay time; with zero depth it is a plain tap.
type Delay struct {
	base

	sampleRate float64
	buf        [][2]float64
	pos        int

	delay float64 // seconds
	depth float64 // seconds of modulation either side of delay
	rate  float64 // Hz
	phase float64
}

// NewDelay registers a delay node able to hold maxDelay of signal.
func (g *Graph) NewDelay(name string, maxDelay, delay time.Duration) *Delay {
	sr := float64(g.sampleRate)
	capacity := int(math.Ceil(maxDelay.Seconds()*sr)) + 2
	n := &Delay{
		base:       base{id: g.nextID(), name: name, kind: KindDelay},
		sampleRate: sr,
		buf:        make([][2]float64, capacity),
	}
	n.SetDelay(delay)
	g.register(n)
	return n
}

// MaxDelay returns the longest delay the line can hold.
func (n *Delay) MaxDelay() time.Duration {
	return time.Duration(float64(len(n.buf)-2) / n.sampleRate * float64(time.Second))
}

// SetDelay sets the base delay time, clamped to [0, MaxDelay].
func (n *Delay) SetDelay(d time.Duration) {
	s := d.Seconds()
	if s < 0 {
		s = 0
	}
	if limit := n.MaxDelay().Seconds(); s > limit {
		s = limit
	}
	n.delay = s
}

// DelayTime returns the base delay time.
func (n *Delay) DelayTime() time.Duration {
	return time.Duration(n.delay * float64(time.Second))
}

// SetModulation configures the LFO. A zero depth or rate disables it.
func (n *Delay) SetModulation(depth time.Duration, rateHz float64) {
	n.depth = math.Max(0, depth.Seconds())
	n.rate = math.Max(0, rateHz)
}

// Modulation returns the LFO depth and rate.
func (n *Delay) Modulation() (time.Duration, float64) {
	return time.Duration(n.depth * float64(time.Second)), n.rate
}

func (n *Delay) process(in, out [][2]float64) {
	size := len(n.buf)
	maxSamples := float64(size - 2)
	step := 2 * math.Pi * n.rate / n.sampleRate
	modulated := n.depth > 0 && n.rate > 0

	for i := range in {
		n.buf[n.pos] = in[i]

		d := n.delay
		if modulated {
			d += n.depth * math.Sin(n.phase)
			n.phase += step
			if n.phase >= 2*math.Pi {
				n.phase -= 2 * math.Pi
			}
		}
		ds := math.Min(math.Max(d*n.sampleRate, 0), maxSamples)

		whole := int(ds)
		frac := ds - float64(whole)
		a := (n.pos - whole + size) % size
		b := (a - 1 + size) % size
		out[i][0] = n.buf[a][0]*(1-frac) + n.buf[b][0]*frac
		out[i][1] = n.buf[a][1]*(1-frac) + n.buf[b][1]*frac

		n.pos = (n.pos + 1) % size
	}
}
