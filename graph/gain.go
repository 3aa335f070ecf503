package graph

// Gain scales its input by a scalar. A change can be applied immediately
// with Set or spread over a number of frames with RampTo.
type Gain struct {
	base

	value  float64
	target float64
	step   float64
	remain int
}

// NewGain registers a gain node with the given initial value.
func (g *Graph) NewGain(name string, value float64) *Gain {
	n := &Gain{
		base:   base{id: g.nextID(), name: name, kind: KindGain},
		value:  value,
		target: value,
	}
	g.register(n)
	return n
}

// Set applies v from the next frame on.
func (n *Gain) Set(v float64) {
	n.value = v
	n.target = v
	n.step = 0
	n.remain = 0
}

// RampTo moves linearly from the current value to v over frames frames.
func (n *Gain) RampTo(v float64, frames int) {
	if frames <= 0 || v == n.value {
		n.Set(v)
		return
	}
	n.target = v
	n.step = (v - n.value) / float64(frames)
	n.remain = frames
}

// Value returns the value the gain is set, or ramping, to.
func (n *Gain) Value() float64 { return n.target }

func (n *Gain) process(in, out [][2]float64) {
	if n.remain == 0 {
		v := n.value
		for i := range in {
			out[i][0] = in[i][0] * v
			out[i][1] = in[i][1] * v
		}
		return
	}
	for i := range in {
		if n.remain > 0 {
			n.value += n.step
			n.remain--
			if n.remain == 0 {
				n.value = n.target
			}
		}
		out[i][0] = in[i][0] * n.value
		out[i][1] = in[i][1] * n.value
	}
}
