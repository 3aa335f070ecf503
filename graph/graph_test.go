package graph

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
	"time"
)

const testBlock = 16

func newTestGraph() *Graph {
	return New(1000, testBlock)
}

func TestConnectIsIdempotent(t *testing.T) {
	g := newTestGraph()
	a := g.NewGain("a", 1)
	b := g.NewGain("b", 1)

	for i := 0; i < 3; i++ {
		if err := g.Connect(a, b); err != nil {
			t.Fatalf("Connect #%d: %v", i, err)
		}
	}
	if got := len(g.Edges()); got != 1 {
		t.Errorf("len(Edges) = %d, want 1", got)
	}
}

func TestConnectRejectsCycle(t *testing.T) {
	g := newTestGraph()
	a := g.NewGain("a", 1)
	b := g.NewGain("b", 1)
	c := g.NewGain("c", 1)

	if err := g.Connect(a, b); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(b, c); err != nil {
		t.Fatal(err)
	}
	if err := g.Connect(c, a); !errors.Is(err, ErrCycle) {
		t.Errorf("Connect(c, a) error = %v, want ErrCycle", err)
	}
	if err := g.Connect(a, a); !errors.Is(err, ErrCycle) {
		t.Errorf("Connect(a, a) error = %v, want ErrCycle", err)
	}
	if g.Connected(c, a) {
		t.Error("rejected edge c -> a left in registry")
	}
}

func TestConnectForeignNode(t *testing.T) {
	g1 := newTestGraph()
	g2 := newTestGraph()
	a := g1.NewGain("a", 1)
	b := g2.NewGain("b", 1)

	if err := g1.Connect(a, b); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("Connect across graphs error = %v, want ErrUnknownNode", err)
	}
}

func TestDisconnectMissingEdgeIsNoOp(t *testing.T) {
	g := newTestGraph()
	a := g.NewGain("a", 1)
	b := g.NewGain("b", 1)

	if g.Disconnect(a, b) {
		t.Error("Disconnect of absent edge reported removal")
	}
	_ = g.Connect(a, b)
	if !g.Disconnect(a, b) {
		t.Error("Disconnect of present edge reported no-op")
	}
	if g.Disconnect(a, b) {
		t.Error("second Disconnect reported removal")
	}
}

func TestRouteKeepsExactlyOneDestination(t *testing.T) {
	g := newTestGraph()
	src := g.NewGain("splitter", 1)
	mix := g.NewGain("mix", 1)
	mon := g.NewGain("monitor", 1)

	steps := []struct {
		to   *Gain
		want *Gain
	}{
		{mix, mix},
		{mon, mon},
		{mon, mon},
		{mix, mix},
		{mix, mix},
	}
	for i, s := range steps {
		if err := g.Route(src, s.to, mix, mon); err != nil {
			t.Fatalf("step %d: Route: %v", i, err)
		}
		out := g.Outgoing(src)
		if len(out) != 1 || out[0] != s.want.ID() {
			t.Errorf("step %d: Outgoing = %v, want [%d]", i, out, s.want.ID())
		}
	}
}

func TestProcessSumsFanIn(t *testing.T) {
	g := newTestGraph()
	a := g.NewGain("a", 0.5)
	b := g.NewGain("b", 0.25)
	sum := g.NewGain("sum", 1)
	_ = g.Connect(a, sum)
	_ = g.Connect(b, sum)

	g.Begin()
	for i := range g.Input(a) {
		g.Input(a)[i] = [2]float64{1, 1}
		g.Input(b)[i] = [2]float64{1, -1}
	}
	g.Process()

	for i, f := range g.Output(sum) {
		if f[0] != 0.75 || f[1] != 0.25 {
			t.Fatalf("frame %d = %v, want [0.75 0.25]", i, f)
		}
	}

	// Inputs are cleared between blocks.
	g.Begin()
	g.Process()
	for i, f := range g.Output(sum) {
		if f != [2]float64{} {
			t.Fatalf("silent block frame %d = %v", i, f)
		}
	}
}

func TestGainRamp(t *testing.T) {
	g := newTestGraph()
	n := g.NewGain("ramp", 0)
	n.RampTo(1, 8)
	if n.Value() != 1 {
		t.Errorf("Value during ramp = %v, want target 1", n.Value())
	}

	g.Begin()
	for i := range g.Input(n) {
		g.Input(n)[i] = [2]float64{1, 1}
	}
	g.Process()

	out := g.Output(n)
	for i := 1; i < 8; i++ {
		if out[i][0] <= out[i-1][0] {
			t.Errorf("ramp not increasing at %d: %v <= %v", i, out[i][0], out[i-1][0])
		}
	}
	for i := 7; i < len(out); i++ {
		if math.Abs(out[i][0]-1) > 1e-12 {
			t.Errorf("frame %d = %v after ramp, want 1", i, out[i][0])
		}
	}
}

func TestFilterChainFlatIsTransparent(t *testing.T) {
	g := New(44100, testBlock)
	eq := g.NewFilterChain("eq",
		Band{Type: LowShelf, Frequency: 320},
		Band{Type: Peaking, Frequency: 1000, Q: 1},
		Band{Type: HighShelf, Frequency: 3200},
	)

	rng := rand.New(rand.NewPCG(1, 2))
	g.Begin()
	in := g.Input(eq)
	want := make([][2]float64, len(in))
	for i := range in {
		in[i] = [2]float64{rng.Float64()*2 - 1, rng.Float64()*2 - 1}
		want[i] = in[i]
	}
	g.Process()

	for i, f := range g.Output(eq) {
		if math.Abs(f[0]-want[i][0]) > 1e-9 || math.Abs(f[1]-want[i][1]) > 1e-9 {
			t.Fatalf("frame %d = %v, want %v", i, f, want[i])
		}
	}
}

func TestLowShelfBoostsLowFrequencies(t *testing.T) {
	g := New(44100, 256)
	eq := g.NewFilterChain("eq", Band{Type: LowShelf, Frequency: 320})
	eq.SetGain(0, 12)

	var last [2]float64
	for block := 0; block < 40; block++ {
		g.Begin()
		for i := range g.Input(eq) {
			g.Input(eq)[i] = [2]float64{1, 1}
		}
		g.Process()
		out := g.Output(eq)
		last = out[len(out)-1]
	}

	want := math.Pow(10, 12.0/20)
	if math.Abs(last[0]-want) > 1e-3 {
		t.Errorf("DC gain = %v, want %v", last[0], want)
	}
}

func TestDelayTap(t *testing.T) {
	g := newTestGraph()
	d := g.NewDelay("delay", time.Second, 10*time.Millisecond)

	g.Begin()
	g.Input(d)[0] = [2]float64{1, -1}
	g.Process()

	for i, f := range g.Output(d) {
		want := [2]float64{}
		if i == 10 {
			want = [2]float64{1, -1}
		}
		if f != want {
			t.Errorf("frame %d = %v, want %v", i, f, want)
		}
	}
}

func TestDelayClampsToCapacity(t *testing.T) {
	g := newTestGraph()
	d := g.NewDelay("delay", 100*time.Millisecond, 0)
	d.SetDelay(time.Hour)
	if d.DelayTime() > d.MaxDelay() {
		t.Errorf("DelayTime %v exceeds MaxDelay %v", d.DelayTime(), d.MaxDelay())
	}
	d.SetDelay(-time.Second)
	if d.DelayTime() != 0 {
		t.Errorf("negative delay not clamped: %v", d.DelayTime())
	}
}

func TestConvolverMatchesDirectConvolution(t *testing.T) {
	g := newTestGraph()
	rng := rand.New(rand.NewPCG(3, 4))

	ir := make([][2]float64, 37)
	for i := range ir {
		ir[i] = [2]float64{rng.Float64()*2 - 1, rng.Float64()*2 - 1}
	}
	conv := g.NewConvolver("reverb", ir, false)
	if conv.Partitions() != 3 {
		t.Fatalf("Partitions = %d, want 3", conv.Partitions())
	}

	const blocks = 6
	signal := make([][2]float64, blocks*testBlock)
	for i := 0; i < 2*testBlock; i++ {
		signal[i] = [2]float64{rng.Float64()*2 - 1, rng.Float64()*2 - 1}
	}

	var got [][2]float64
	for b := 0; b < blocks; b++ {
		g.Begin()
		copy(g.Input(conv), signal[b*testBlock:(b+1)*testBlock])
		g.Process()
		got = append(got, g.Output(conv)...)
	}

	for n := range signal {
		var want [2]float64
		for k := range ir {
			if n-k < 0 {
				break
			}
			want[0] += ir[k][0] * signal[n-k][0]
			want[1] += ir[k][1] * signal[n-k][1]
		}
		if math.Abs(got[n][0]-want[0]) > 1e-9 || math.Abs(got[n][1]-want[1]) > 1e-9 {
			t.Fatalf("frame %d = %v, want %v", n, got[n], want)
		}
	}
}

func TestConvolverNormalization(t *testing.T) {
	g := New(44100, testBlock)
	ir := make([][2]float64, 100)
	for i := range ir {
		ir[i] = [2]float64{0.5, 0.5}
	}
	conv := g.NewConvolver("reverb", ir, true)

	want := 1 / 0.5 * math.Pow(10, -58*0.05)
	if math.Abs(conv.Scale()-want) > 1e-12 {
		t.Errorf("Scale = %v, want %v", conv.Scale(), want)
	}
}

func TestConvolverSilenceAfterTail(t *testing.T) {
	g := newTestGraph()
	ir := make([][2]float64, 3*testBlock)
	for i := range ir {
		ir[i] = [2]float64{1, 1}
	}
	conv := g.NewConvolver("reverb", ir, false)

	g.Begin()
	g.Input(conv)[0] = [2]float64{1, 1}
	g.Process()

	for b := 0; b < 10; b++ {
		g.Begin()
		g.Process()
		nonzero := false
		for _, f := range g.Output(conv) {
			if math.Abs(f[0]) > 1e-9 {
				nonzero = true
			}
		}
		tail := b < conv.Partitions()-1
		if nonzero != tail {
			t.Errorf("block %d: nonzero output = %v, want %v", b+1, nonzero, tail)
		}
	}
}
