package mixer

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Unlike-U/420soundclashweb/config"
	"github.com/Unlike-U/420soundclashweb/tempo"
	"github.com/Unlike-U/420soundclashweb/track"
)

type manualClock struct{ now time.Duration }

func (c *manualClock) Now() time.Duration { return c.now }

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Engine.SampleRate = 1000
	cfg.Engine.BlockSize = 100
	cfg.Engine.Declick = 0
	cfg.Effects.ReverbLength = 200 * time.Millisecond
	cfg.Effects.ReverbSeed = 1
	cfg.Mixer.MasterVolume = 100
	cfg.Mixer.HeadphoneVolume = 100
	cfg.Mixer.Crossfader = 50
	return cfg
}

func newTestEngine(t *testing.T, mutate func(*config.Config), opts ...Option) *Engine {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}
	e, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

// constant returns a buffer at 1 kHz holding v on both sides.
func constant(d time.Duration, v float64) *track.Buffer {
	frames := make([][2]float64, int(d/time.Millisecond))
	for i := range frames {
		frames[i] = [2]float64{v, v}
	}
	return track.New("const", 1000, frames)
}

func stream(t *testing.T, e *Engine, n int) [][2]float64 {
	t.Helper()
	out := make([][2]float64, n)
	got, ok := e.Stream(out)
	if !ok || got != n {
		t.Fatalf("Stream = (%d, %v), want (%d, true)", got, ok, n)
	}
	return out
}

func near(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestEqualPower(t *testing.T) {
	for p := 0.0; p <= 100; p += 0.5 {
		a, b := EqualPower(p)
		if !near(a*a+b*b, 1, 1e-12) {
			t.Fatalf("EqualPower(%v): a²+b² = %v", p, a*a+b*b)
		}
	}

	tests := []struct {
		pos  float64
		a, b float64
	}{
		{0, 1, 0},
		{100, 0, 1},
		{50, 0.7071, 0.7071},
		{-10, 1, 0},
		{250, 0, 1},
	}
	for _, tt := range tests {
		a, b := EqualPower(tt.pos)
		if !near(a, tt.a, 1e-4) || !near(b, tt.b, 1e-4) {
			t.Errorf("EqualPower(%v) = (%v, %v), want (%v, %v)", tt.pos, a, b, tt.a, tt.b)
		}
	}
}

func TestEQScale(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{50, 0},
		{0, -40},
		{100, 40},
		{75, 20},
	}
	for _, tt := range tests {
		if got := EQScale(tt.in); got != tt.want {
			t.Errorf("EQScale(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseChannel(t *testing.T) {
	if c, err := ParseChannel("b"); err != nil || c != B {
		t.Errorf("ParseChannel(b) = %v, %v", c, err)
	}
	if _, err := ParseChannel("c"); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("ParseChannel(c) error = %v, want ErrUnknownChannel", err)
	}
	if _, err := ParseEffect("Reverb"); err != nil {
		t.Errorf("ParseEffect(Reverb): %v", err)
	}
}

func TestUnknownChannel(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.SetVolume(ChannelID(5), 10); !errors.Is(err, ErrUnknownChannel) {
		t.Errorf("SetVolume error = %v, want ErrUnknownChannel", err)
	}
	if e.Play(ChannelID(-1), 0) {
		t.Error("Play on unknown channel succeeded")
	}
	if err := e.SetWet(Effect(9), 10); !errors.Is(err, ErrUnknownEffect) {
		t.Errorf("SetWet error = %v, want ErrUnknownEffect", err)
	}
}

func TestPlayWithoutBuffer(t *testing.T) {
	e := newTestEngine(t, nil)
	if e.Play(A, 0) {
		t.Error("Play without a buffer reported success")
	}
	if st, _ := e.State(A); st.Playing {
		t.Error("channel playing without a buffer")
	}
}

func TestPlaybackTime(t *testing.T) {
	clock := &manualClock{now: 42 * time.Second}
	e := newTestEngine(t, nil, WithClock(clock))
	e.Load(A, constant(10*time.Second, 0))

	if !e.Play(A, 3*time.Second) {
		t.Fatal("Play failed")
	}
	pt, err := e.PlaybackTime(A)
	if err != nil {
		t.Fatal(err)
	}
	if pt.Current != 3*time.Second || pt.Remaining != 7*time.Second {
		t.Errorf("time = %v/%v, want 3s/7s", pt.Current, pt.Remaining)
	}

	clock.now += 2 * time.Second
	pt, _ = e.PlaybackTime(A)
	if pt.Current != 5*time.Second {
		t.Errorf("Current = %v after 2s, want 5s", pt.Current)
	}

	clock.now += time.Minute
	pt, _ = e.PlaybackTime(A)
	if pt.Current != 10*time.Second || pt.Remaining != 0 {
		t.Errorf("time = %v/%v past the end, want 10s/0s", pt.Current, pt.Remaining)
	}
}

func TestPlaybackTimeFollowsRenderedFrames(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Load(B, constant(10*time.Second, 0))
	e.Play(B, 3*time.Second)

	stream(t, e, 2000)
	pt, _ := e.PlaybackTime(B)
	if pt.Current != 5*time.Second {
		t.Errorf("Current = %v after 2000 frames, want 5s", pt.Current)
	}
}

func TestStop(t *testing.T) {
	e := newTestEngine(t, nil)
	if e.Stop(A) {
		t.Error("Stop on idle channel reported work")
	}

	e.Load(A, constant(10*time.Second, 0))
	e.Play(A, 4*time.Second)
	if !e.Stop(A) {
		t.Error("Stop on playing channel reported no-op")
	}
	pt, _ := e.PlaybackTime(A)
	if pt.Current != 0 {
		t.Errorf("Current = %v after stop, want 0", pt.Current)
	}
	if st, _ := e.State(A); st.Playing || st.Instances != 0 {
		t.Errorf("state after stop = %+v", st)
	}
	if e.Stop(A) {
		t.Error("second Stop reported work")
	}
}

func TestPlayReplacesInstances(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Load(A, constant(10*time.Second, 0))
	for i := 0; i < 5; i++ {
		e.Play(A, time.Duration(i)*time.Second)
	}
	e.Seek(A, 20)
	if st, _ := e.State(A); st.Instances != 1 {
		t.Errorf("Instances = %d, want 1", st.Instances)
	}
}

func TestSeekKeepsDuration(t *testing.T) {
	clock := &manualClock{}
	e := newTestEngine(t, nil, WithClock(clock))
	e.Load(A, constant(10*time.Second, 0))
	e.Play(A, 0)

	before, _ := e.PlaybackTime(A)
	if !e.Seek(A, 50) {
		t.Fatal("Seek failed")
	}
	after, _ := e.PlaybackTime(A)
	if after.Duration != before.Duration || after.Duration != 10*time.Second {
		t.Errorf("Duration = %v, want %v", after.Duration, before.Duration)
	}
	if after.Current != 5*time.Second {
		t.Errorf("Current = %v after seek to 50%%, want 5s", after.Current)
	}
}

func TestSetCueIsIdempotent(t *testing.T) {
	e := newTestEngine(t, nil)
	c := e.channels[A]

	for i := 0; i < 2; i++ {
		if err := e.SetCue(A, true); err != nil {
			t.Fatalf("SetCue: %v", err)
		}
	}
	out := e.g.Outgoing(c.splitter)
	if len(out) != 1 || out[0] != e.phones.ID() {
		t.Errorf("splitter edges = %v, want only headphones %v", out, e.phones.ID())
	}

	for i := 0; i < 2; i++ {
		e.SetCue(A, false)
	}
	out = e.g.Outgoing(c.splitter)
	if len(out) != 1 || out[0] != c.fader.ID() {
		t.Errorf("splitter edges = %v, want only fader %v", out, c.fader.ID())
	}
	if !e.g.Connected(e.channels[B].splitter, e.channels[B].fader) {
		t.Error("cueing A changed B's routing")
	}
}

func TestNaturalEndEmitsEvent(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Load(A, constant(250*time.Millisecond, 0.1))
	if !e.PlayTrack(A, 7, 0) {
		t.Fatal("PlayTrack failed")
	}

	stream(t, e, 1000)
	select {
	case ev := <-e.Events():
		if ev != (Event{Channel: A, TrackIndex: 7}) {
			t.Errorf("event = %+v, want A/7", ev)
		}
	default:
		t.Fatal("no channel-ended event")
	}
	if st, _ := e.State(A); st.Playing || st.Instances != 0 {
		t.Errorf("state after end = %+v", st)
	}
	if e.Stop(A) {
		t.Error("Stop after natural end reported work")
	}

	// stop is not a natural end
	e.Play(A, 0)
	e.Stop(A)
	stream(t, e, 500)
	select {
	case ev := <-e.Events():
		t.Errorf("unexpected event %+v after stop", ev)
	default:
	}
}

func TestTempoDisplay(t *testing.T) {
	e := newTestEngine(t, nil)
	e.Load(A, constant(10*time.Second, 0))
	e.Play(A, 0)

	const baseBPM = 120
	if err := e.SetTempo(A, 50); err != nil {
		t.Fatal(err)
	}
	st, _ := e.State(A)
	if got := tempo.Display(baseBPM, st.Tempo); got != 60 {
		t.Errorf("displayed tempo = %d, want 60", got)
	}
	for _, in := range e.channels[A].instances {
		if !near(in.resampler.Ratio(), 0.5, 1e-9) {
			t.Errorf("instance ratio = %v, want 0.5", in.resampler.Ratio())
		}
	}

	// later instances keep the chosen rate
	e.Seek(A, 10)
	for _, in := range e.channels[A].instances {
		if !near(in.resampler.Ratio(), 0.5, 1e-9) {
			t.Errorf("ratio after seek = %v, want 0.5", in.resampler.Ratio())
		}
	}
}

func TestCrossfaderGatesChannels(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) { c.Mixer.Crossfader = 0 })
	e.Load(B, constant(5*time.Second, 0.5))
	e.Play(B, 0)

	out := stream(t, e, 300)
	if v := out[299][0]; !near(v, 0, 1e-6) {
		t.Errorf("B at crossfader 0 = %v, want silence", v)
	}

	e.SetCrossfader(100)
	out = stream(t, e, 300)
	if v := out[299][0]; !near(v, 0.5, 1e-3) {
		t.Errorf("B at crossfader 100 = %v, want 0.5", v)
	}
}

func TestCueSplitsMasterAndHeadphones(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) {
		c.Engine.OutputMode = "split"
		c.Mixer.Crossfader = 0
	})
	e.Load(A, constant(5*time.Second, 0.5))
	e.Play(A, 0)

	out := stream(t, e, 200)
	if l, r := out[199][0], out[199][1]; !near(l, 0.5, 1e-3) || !near(r, 0.5, 1e-3) {
		t.Errorf("uncued = (%v, %v), want master on both sides", l, r)
	}

	e.SetCue(A, true)
	e.SetMasterCuePassthrough(false)
	out = stream(t, e, 200)
	if l, r := out[199][0], out[199][1]; !near(l, 0, 1e-6) || !near(r, 0.5, 1e-3) {
		t.Errorf("cued = (%v, %v), want (0, 0.5)", l, r)
	}
}

func TestWetReturnsAreAdditive(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) { c.Mixer.Crossfader = 0 })
	e.Load(A, constant(5*time.Second, 0.5))
	e.SetWet(Delay, 100)
	e.Play(A, 0)

	out := stream(t, e, 1000)
	if v := out[300][0]; !near(v, 0.5, 1e-3) {
		t.Errorf("before the echo = %v, want dry 0.5", v)
	}
	if v := out[900][0]; !near(v, 1.0, 1e-3) {
		t.Errorf("with the echo = %v, want dry+wet 1.0", v)
	}
}

func TestSetEQ(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.SetEQ(A, 100, 50, 0); err != nil {
		t.Fatal(err)
	}
	bands := e.channels[A].eq.Bands()
	want := []float64{40, 0, -40}
	for i, b := range bands {
		if b.GainDB != want[i] {
			t.Errorf("band %d = %v dB, want %v", i, b.GainDB, want[i])
		}
	}
	if st, _ := e.State(A); st.EQ != [3]float64{100, 50, 0} {
		t.Errorf("EQ state = %v", st.EQ)
	}
}

func TestRecordingTap(t *testing.T) {
	e := newTestEngine(t, nil)
	blocks := e.RecordingTap().Arm(50, 8)

	stream(t, e, 200)
	for i := 0; i < 4; i++ {
		select {
		case b := <-blocks:
			if len(b) != 100 {
				t.Fatalf("block %d has %d samples, want 100", i, len(b))
			}
		default:
			t.Fatalf("block %d missing", i)
		}
	}
	if d := e.RecordingTap().Dropped(); d != 0 {
		t.Errorf("Dropped = %d, want 0", d)
	}
}

func TestTapDropsWhenFull(t *testing.T) {
	e := newTestEngine(t, nil)
	tap := e.MonitorTap()
	tap.Arm(10, 1)

	stream(t, e, 100)
	if d := tap.Dropped(); d != 9 {
		t.Errorf("Dropped = %d, want 9", d)
	}
	tap.Disarm()
	if tap.Armed() {
		t.Error("tap still armed")
	}
}

func TestPlaySample(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.PlaySample(constant(50*time.Millisecond, 0.25)); err != nil {
		t.Fatal(err)
	}
	out := stream(t, e, 100)
	if !near(out[10][0], 0.25, 1e-3) {
		t.Errorf("sample frame = %v, want 0.25", out[10][0])
	}
	if !near(out[80][0], 0, 1e-9) {
		t.Errorf("after sample = %v, want silence", out[80][0])
	}
	if n := e.Samples(); n != 0 {
		t.Errorf("%d voices left", n)
	}
}

func TestClose(t *testing.T) {
	e, err := New(testConfig())
	if err != nil {
		t.Fatal(err)
	}
	e.Load(A, constant(time.Second, 0))
	e.Play(A, 0)

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := e.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close = %v, want ErrClosed", err)
	}
	if n, ok := e.Stream(make([][2]float64, 10)); n != 0 || ok {
		t.Errorf("Stream after Close = (%d, %v)", n, ok)
	}
	if _, ok := <-e.Events(); ok {
		t.Error("event channel still open")
	}
	if e.Play(A, 0) {
		t.Error("Play after Close succeeded")
	}
}

// ramp returns a buffer at 1 kHz whose frame i holds i*step on both sides.
func ramp(d time.Duration, step float64) *track.Buffer {
	frames := make([][2]float64, int(d/time.Millisecond))
	for i := range frames {
		frames[i] = [2]float64{float64(i) * step, float64(i) * step}
	}
	return track.New("ramp", 1000, frames)
}

func TestLoadKeepsPlayingInstance(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) { c.Mixer.Crossfader = 0 })
	e.Load(A, constant(5*time.Second, 0.5))
	e.Play(A, 0)
	stream(t, e, 200)

	if err := e.Load(A, constant(5*time.Second, 0.25)); err != nil {
		t.Fatal(err)
	}
	out := stream(t, e, 200)
	if v := out[199][0]; !near(v, 0.5, 1e-3) {
		t.Errorf("after load = %v, want the old buffer at 0.5", v)
	}
	if st, _ := e.State(A); !st.Playing || st.Instances != 1 {
		t.Errorf("state after load = %+v", st)
	}

	e.Play(A, 0)
	out = stream(t, e, 200)
	if v := out[199][0]; !near(v, 0.25, 1e-3) {
		t.Errorf("after play = %v, want the new buffer at 0.25", v)
	}
}

func TestSendsSumInParallel(t *testing.T) {
	render := func(wet ...Effect) [][2]float64 {
		e := newTestEngine(t, func(c *config.Config) { c.Mixer.Crossfader = 0 })
		e.Load(A, constant(5*time.Second, 0.5))
		for _, fx := range wet {
			e.SetWet(fx, 100)
		}
		e.Play(A, 0)
		return stream(t, e, 1000)
	}

	dry := render()
	all := render(Effects...)
	var single [3][][2]float64
	for _, fx := range Effects {
		single[fx] = render(fx)
	}

	for _, fx := range Effects {
		var peak float64
		for i := range dry {
			peak = math.Max(peak, math.Abs(single[fx][i][0]-dry[i][0]))
		}
		if peak < 1e-3 {
			t.Errorf("%s send never reached the master bus", fx)
		}
	}
	for i := range all {
		want := dry[i][0]
		for _, fx := range Effects {
			want += single[fx][i][0] - dry[i][0]
		}
		if !near(all[i][0], want, 1e-6) {
			t.Fatalf("frame %d = %v, want dry plus every wet return %v", i, all[i][0], want)
		}
	}
	if !near(dry[500][0], 0.5, 1e-3) {
		t.Errorf("dry = %v, want 0.5 at full level", dry[500][0])
	}
}

func TestTempoZeroHoldsPosition(t *testing.T) {
	const step = 1e-4
	e := newTestEngine(t, func(c *config.Config) { c.Mixer.Crossfader = 0 })
	e.Load(A, ramp(5*time.Second, step))
	e.Play(A, 0)

	before := stream(t, e, 200)[199][0]

	e.SetTempo(A, 0)
	held := stream(t, e, 300)
	for i, f := range held {
		if !near(f[0], 0, 1e-9) {
			t.Fatalf("frame %d at tempo 0 = %v, want silence", i, f[0])
		}
	}
	if st, _ := e.State(A); !st.Playing || st.Instances != 1 {
		t.Errorf("state at tempo 0 = %+v, want a held instance", st)
	}

	e.SetTempo(A, 100)
	after := stream(t, e, 100)[0][0]
	if !near(after, before+step, 5*step) {
		t.Errorf("resumed at %v, want about %v; the position moved while held", after, before+step)
	}
}

func TestSetVolumeScalesOutput(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) {
		c.Mixer.Crossfader = 0
		c.Engine.Declick = 20 * time.Millisecond
	})
	e.Load(A, constant(5*time.Second, 0.5))
	e.Play(A, 0)
	stream(t, e, 100)

	if err := e.SetVolume(A, 40); err != nil {
		t.Fatal(err)
	}
	out := stream(t, e, 100)
	if v := out[0][0]; v <= 0.2 || v >= 0.5 {
		t.Errorf("first frame after change = %v, want a ramp between 0.5 and 0.2", v)
	}
	if v := out[99][0]; !near(v, 0.2, 1e-3) {
		t.Errorf("settled output = %v, want 0.2", v)
	}

	e.SetVolume(A, 0)
	out = stream(t, e, 100)
	if v := out[99][0]; !near(v, 0, 1e-9) {
		t.Errorf("volume 0 = %v, want silence", v)
	}
}

func TestEffectParameters(t *testing.T) {
	e := newTestEngine(t, nil)

	e.SetDelayTime(250 * time.Millisecond)
	if got := e.DelayTime(); got != 250*time.Millisecond {
		t.Errorf("DelayTime = %v, want 250ms", got)
	}
	e.SetDelayTime(time.Minute)
	if got := e.fx.delay.DelayTime(); got > 5*time.Second+time.Millisecond {
		t.Errorf("DelayTime = %v, want clamped to 5s", got)
	}

	e.SetChorus(10*time.Millisecond, 1.5)
	if depth, rate := e.Chorus(); !near(depth.Seconds(), 0.01, 1e-9) || rate != 1.5 {
		t.Errorf("Chorus = (%v, %v), want (10ms, 1.5)", depth, rate)
	}
	e.SetChorus(time.Second, 2)
	if depth, _ := e.Chorus(); depth < 29*time.Millisecond || depth > 32*time.Millisecond {
		t.Errorf("chorus depth = %v, want clamped to the 30ms headroom", depth)
	}
}

func TestDelayTimeMovesEcho(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) { c.Mixer.Crossfader = 0 })
	e.Load(A, constant(5*time.Second, 0.5))
	e.SetWet(Delay, 100)
	e.SetDelayTime(200 * time.Millisecond)
	e.Play(A, 0)

	out := stream(t, e, 400)
	if v := out[150][0]; !near(v, 0.5, 1e-3) {
		t.Errorf("before the echo = %v, want 0.5", v)
	}
	if v := out[300][0]; !near(v, 1.0, 1e-3) {
		t.Errorf("after 200ms = %v, want dry+wet 1.0", v)
	}
}

func TestAnalyserFollowsMaster(t *testing.T) {
	e := newTestEngine(t, func(c *config.Config) { c.Mixer.Crossfader = 0 })
	frames := make([][2]float64, 5000)
	for i := range frames {
		v := 0.5 * math.Sin(2*math.Pi*250*float64(i)/1000)
		frames[i] = [2]float64{v, v}
	}
	e.Load(A, track.New("tone", 1000, frames))
	e.Play(A, 0)
	stream(t, e, 3000)

	a := e.Analyser()
	data := make([]float64, a.FrequencyBinCount())
	a.FloatFrequencyData(data)
	peak := 0
	for i, v := range data {
		if v > data[peak] {
			peak = i
		}
	}
	// 250 Hz at 1 kHz lands on bin 250/1000*2048
	if peak < 511 || peak > 513 {
		t.Errorf("spectrum peak at bin %d, want 512", peak)
	}
}

func TestPlaySampleRejectsLongBuffers(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.PlaySample(constant(11*time.Second, 0.1)); !errors.Is(err, ErrSampleTooLong) {
		t.Errorf("PlaySample(11s) = %v, want ErrSampleTooLong", err)
	}
	if n := e.Samples(); n != 0 {
		t.Errorf("%d voices after rejection, want 0", n)
	}
	if err := e.PlaySample(constant(10*time.Second, 0.1)); err != nil {
		t.Errorf("PlaySample(10s) = %v, want accepted", err)
	}
	if err := e.PlaySample(nil); !errors.Is(err, track.ErrEmpty) {
		t.Errorf("PlaySample(nil) = %v, want ErrEmpty", err)
	}
}

func TestPads(t *testing.T) {
	e := newTestEngine(t, nil)

	tests := []struct {
		name string
		pad  int
		buf  *track.Buffer
		want error
	}{
		{"load", 2, constant(50*time.Millisecond, 0.25), nil},
		{"too long", 3, constant(11*time.Second, 0.25), ErrSampleTooLong},
		{"below range", -1, constant(50*time.Millisecond, 0.25), ErrUnknownPad},
		{"above range", Pads, constant(50*time.Millisecond, 0.25), ErrUnknownPad},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := e.LoadPad(tt.pad, tt.buf); !errors.Is(err, tt.want) {
				t.Errorf("LoadPad(%d) = %v, want %v", tt.pad, err, tt.want)
			}
		})
	}

	if names := e.PadNames(); names[2] != "const" || names[3] != "" {
		t.Errorf("PadNames = %q", names)
	}
	if err := e.FirePad(3); !errors.Is(err, ErrEmptyPad) {
		t.Errorf("FirePad(empty) = %v, want ErrEmptyPad", err)
	}
	if err := e.FirePad(2); err != nil {
		t.Fatalf("FirePad: %v", err)
	}
	out := stream(t, e, 100)
	if !near(out[10][0], 0.25, 1e-3) {
		t.Errorf("pad frame = %v, want 0.25", out[10][0])
	}

	if !e.ClearPad(2) {
		t.Error("ClearPad on a loaded pad reported nothing cleared")
	}
	if e.ClearPad(2) {
		t.Error("second ClearPad reported work")
	}
	if err := e.FirePad(2); !errors.Is(err, ErrEmptyPad) {
		t.Errorf("FirePad after clear = %v, want ErrEmptyPad", err)
	}
}
