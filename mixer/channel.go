package mixer

import (
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/Unlike-U/420soundclashweb/graph"
	"github.com/Unlike-U/420soundclashweb/track"
)

// instance is one playback source: a reader over a buffer, a resampler that
// carries the playback rate and a pause switch for rate zero.
type instance struct {
	id        int
	buf       *track.Buffer
	resampler *beep.Resampler
	ctrl      *beep.Ctrl
}

func newInstance(id int, buf *track.Buffer, from int, engineRate beep.SampleRate, rate float64) *instance {
	src := buf.Streamer(from, buf.Len())
	base := float64(buf.SampleRate()) / float64(engineRate)
	res := beep.ResampleRatio(4, base, src)
	in := &instance{
		id:        id,
		buf:       buf,
		resampler: res,
		ctrl:      &beep.Ctrl{Streamer: res},
	}
	in.setRate(rate, engineRate)
	return in
}

// setRate applies a playback rate in percent. Rate zero holds the position.
func (in *instance) setRate(rate float64, engineRate beep.SampleRate) {
	if rate <= 0 {
		in.ctrl.Paused = true
		return
	}
	in.ctrl.Paused = false
	base := float64(in.buf.SampleRate()) / float64(engineRate)
	in.resampler.SetRatio(base * rate / 100)
}

// channel is one channel strip: volume, EQ, the cue splitter and the
// transport state of its playback instances.
type channel struct {
	id ChannelID

	volume   *graph.Gain
	eq       *graph.FilterChain
	splitter *graph.Gain
	fader    *graph.Gain // crossfader gain feeding the mix bus

	volumeLevel float64
	eqLevels    [3]float64

	buf     *track.Buffer
	index   int
	playing bool
	cued    bool
	rate    float64

	startTime   time.Duration
	startOffset time.Duration

	instances map[int]*instance
	voices    beep.Mixer
	finished  []int // ids posted by instances that reached the end
	nextID    int
	scratch   [][2]float64
}

func newChannel(id ChannelID, g *graph.Graph) *channel {
	name := "channel-" + id.String()
	c := &channel{
		id:       id,
		volume:   g.NewGain(name+"-volume", 1),
		eq:       g.NewFilterChain(name+"-eq", eqBands()...),
		splitter: g.NewGain(name+"-splitter", 1),
		fader:    g.NewGain(name+"-fader", 1),

		volumeLevel: 100,
		eqLevels:    [3]float64{50, 50, 50},
		index:       -1,
		rate:        100,
		instances:   make(map[int]*instance),
		scratch:     make([][2]float64, g.BlockSize()),
	}
	return c
}

// eqBands is the fixed three-band layout shared by both strips.
func eqBands() []graph.Band {
	return []graph.Band{
		{Type: graph.LowShelf, Frequency: 320},
		{Type: graph.Peaking, Frequency: 1000, Q: 1},
		{Type: graph.HighShelf, Frequency: 3200},
	}
}

func (c *channel) start(buf *track.Buffer, offset time.Duration, now time.Duration, engineRate beep.SampleRate) {
	from := buf.SampleRate().N(offset)
	c.nextID++
	id := c.nextID
	in := newInstance(id, buf, from, engineRate, c.rate)
	c.instances[id] = in
	c.voices.Add(beep.Seq(in.ctrl, beep.Callback(func() {
		c.finished = append(c.finished, id)
	})))

	c.playing = true
	c.startOffset = offset
	c.startTime = now
}

// stopAll discards every live instance and resets the transport bookkeeping.
func (c *channel) stopAll() {
	c.voices.Clear()
	clear(c.instances)
	c.finished = c.finished[:0]
	c.playing = false
	c.startOffset = 0
	c.startTime = 0
}

// render mixes every live instance into dst and returns the ids of the
// instances that finished during this block.
func (c *channel) render(dst [][2]float64) []int {
	if c.voices.Len() > 0 {
		scratch := c.scratch[:len(dst)]
		n, _ := c.voices.Stream(scratch)
		for i := 0; i < n; i++ {
			dst[i][0] += scratch[i][0]
			dst[i][1] += scratch[i][1]
		}
	}
	done := append([]int(nil), c.finished...)
	c.finished = c.finished[:0]
	return done
}

// retire removes a finished instance. It reports whether the channel became
// idle as a result.
func (c *channel) retire(id int) bool {
	if _, ok := c.instances[id]; !ok {
		return false
	}
	delete(c.instances, id)
	if len(c.instances) == 0 && c.playing {
		c.playing = false
		return true
	}
	return false
}

func (c *channel) duration() time.Duration {
	if c.buf == nil {
		return 0
	}
	return c.buf.Duration()
}

func (c *channel) position(now time.Duration) time.Duration {
	if !c.playing {
		return c.startOffset
	}
	return min(c.startOffset+(now-c.startTime), c.duration())
}
