package mixer

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/Unlike-U/420soundclashweb/config"
	"github.com/Unlike-U/420soundclashweb/graph"
)

// send is one parallel effect: the processing node and its wet return.
type send struct {
	node  graph.Node
	wet   *graph.Gain
	level float64
}

// effectsBus holds the three sends fed from the post-crossfade mix.
type effectsBus struct {
	delay  *graph.Delay
	chorus *graph.Delay
	reverb *graph.Convolver
	sends  [3]send
}

func newEffectsBus(g *graph.Graph, cfg config.EffectsConfig) *effectsBus {
	sr := g.SampleRate()

	fx := &effectsBus{
		delay:  g.NewDelay("delay", cfg.DelayMax, cfg.DelayTime),
		chorus: g.NewDelay("chorus", cfg.ChorusDelay+max(cfg.ChorusDepth, cfg.ChorusDelay), cfg.ChorusDelay),
		reverb: g.NewConvolver("reverb", reverbImpulse(sr, cfg.ReverbLength, cfg.ReverbDecay, cfg.ReverbSeed), true),
	}
	fx.chorus.SetModulation(cfg.ChorusDepth, cfg.ChorusRate)

	nodes := [3]graph.Node{fx.delay, fx.chorus, fx.reverb}
	for _, e := range Effects {
		fx.sends[e] = send{
			node: nodes[e],
			wet:  g.NewGain(e.String()+"-wet", 0),
		}
	}
	return fx
}

// connect wires every send in parallel from src and returns into dst.
func (fx *effectsBus) connect(g *graph.Graph, src, dst graph.Node) error {
	for _, s := range fx.sends {
		if err := g.Connect(src, s.node); err != nil {
			return err
		}
		if err := g.Connect(s.node, s.wet); err != nil {
			return err
		}
		if err := g.Connect(s.wet, dst); err != nil {
			return err
		}
	}
	return nil
}

// reverbImpulse builds a stereo noise burst with a polynomial decay
// envelope: amplitude(i) = noise * (1 - i/n)^decay.
func reverbImpulse(sr beep.SampleRate, length time.Duration, decay float64, seed uint64) [][2]float64 {
	n := sr.N(length)
	if n <= 0 {
		return nil
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	ir := make([][2]float64, n)
	for i := range ir {
		env := math.Pow(1-float64(i)/float64(n), decay)
		ir[i][0] = (rng.Float64()*2 - 1) * env
		ir[i][1] = (rng.Float64()*2 - 1) * env
	}
	return ir
}
