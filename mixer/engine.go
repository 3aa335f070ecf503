// Package mixer is the two-channel mixing engine: two channel strips with
// volume, EQ and a cue switch, an equal-power crossfader, a parallel
// effects bus, a master bus with a recording tap and an independent
// headphone mix.
//
// The engine implements beep.Streamer. All control methods are safe to call
// while another goroutine streams; a single lock is held for each rendered
// block and for each control operation, so a change is observed from the
// next block on.
package mixer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/Unlike-U/420soundclashweb/analysis"
	"github.com/Unlike-U/420soundclashweb/config"
	"github.com/Unlike-U/420soundclashweb/graph"
	"github.com/Unlike-U/420soundclashweb/logger"
	"github.com/Unlike-U/420soundclashweb/track"
)

// Event reports that a channel finished playing on its own.
type Event struct {
	Channel    ChannelID
	TrackIndex int
}

// PlaybackTime is the transport position of a channel.
type PlaybackTime struct {
	Current   time.Duration
	Duration  time.Duration
	Remaining time.Duration
}

// ChannelState is a snapshot of one channel strip.
type ChannelState struct {
	Channel    ChannelID
	Track      string
	TrackIndex int
	Loaded     bool
	Playing    bool
	Cued       bool
	Volume     float64
	EQ         [3]float64
	Tempo      float64
	Instances  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the render clock used for elapsed-time queries.
func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger used by the engine.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// Engine owns the processing graph and every piece of mixer state.
type Engine struct {
	mu sync.Mutex

	g          *graph.Graph
	sampleRate beep.SampleRate
	declick    int
	mode       OutputMode

	channels  [2]*channel
	fx        *effectsBus
	mixBus    *graph.Gain
	master    *graph.Gain
	masterCue *graph.Gain
	phones    *graph.Gain
	sampler   sampler

	crossfader  float64
	masterLevel float64
	phonesLevel float64
	passthrough bool

	recordTap  *Tap
	monitorTap *Tap
	analyser   *analysis.Analyser

	clock  Clock
	frames int
	fifo   [][2]float64
	head   int

	events chan Event
	closed bool
	logger *slog.Logger
}

var _ beep.Streamer = (*Engine)(nil)

// New builds the graph once from cfg.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	mode, err := ParseOutputMode(cfg.Engine.OutputMode)
	if err != nil {
		return nil, err
	}
	sr := beep.SampleRate(cfg.Engine.SampleRate)
	g := graph.New(sr, cfg.Engine.BlockSize)

	e := &Engine{
		g:          g,
		sampleRate: sr,
		declick:    sr.N(cfg.Engine.Declick),
		mode:       mode,
		events:     make(chan Event, max(1, cfg.Engine.EventBuffer)),
		logger:     logger.WithComponent("mixer"),
		analyser:   analysis.New(analysis.DefaultSize),
		fifo:       make([][2]float64, 0, g.BlockSize()),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.clock == nil {
		e.clock = renderClock{sampleRate: sr, frames: &e.frames}
	}
	e.recordTap = newTap("recording", e.logger)
	e.monitorTap = newTap("monitor", e.logger)

	if err := e.build(cfg); err != nil {
		return nil, fmt.Errorf("failed to build mixer graph: %w", err)
	}

	e.setCrossfader(cfg.Mixer.Crossfader)
	e.setMasterVolume(cfg.Mixer.MasterVolume)
	e.setHeadphoneVolume(cfg.Mixer.HeadphoneVolume)
	e.setPassthrough(true)

	e.logger.Debug("Mixer engine ready",
		slog.Int("sample_rate", int(sr)),
		slog.Int("block_size", g.BlockSize()),
		slog.String("output_mode", mode.String()),
		slog.Int("reverb_partitions", e.fx.reverb.Partitions()))
	return e, nil
}

// build creates every node and the fixed edges between them.
func (e *Engine) build(cfg *config.Config) error {
	g := e.g
	for _, id := range []ChannelID{A, B} {
		e.channels[id] = newChannel(id, g)
	}
	e.mixBus = g.NewGain("mix-bus", 1)
	e.fx = newEffectsBus(g, cfg.Effects)
	e.master = g.NewGain("master", 1)
	e.masterCue = g.NewGain("master-cue", 1)
	e.phones = g.NewGain("headphones", 1)

	for _, c := range e.channels {
		steps := [][2]graph.Node{
			{c.volume, c.eq},
			{c.eq, c.splitter},
			{c.splitter, c.fader},
			{c.fader, e.mixBus},
		}
		for _, s := range steps {
			if err := g.Connect(s[0], s[1]); err != nil {
				return err
			}
		}
	}
	if err := g.Connect(e.mixBus, e.master); err != nil {
		return err
	}
	if err := e.fx.connect(g, e.mixBus, e.master); err != nil {
		return err
	}
	if err := g.Connect(e.master, e.masterCue); err != nil {
		return err
	}
	return g.Connect(e.masterCue, e.phones)
}

func (e *Engine) channel(id ChannelID) (*channel, error) {
	if !id.valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChannel, int(id))
	}
	return e.channels[id], nil
}

// SampleRate returns the rate the engine renders at.
func (e *Engine) SampleRate() beep.SampleRate { return e.sampleRate }

// Graph exposes the processing graph for inspection. Callers must not
// mutate it.
func (e *Engine) Graph() *graph.Graph { return e.g }

// Load stores buf on the channel without starting playback. Instances that
// are already playing keep their own buffer.
func (e *Engine) Load(id ChannelID, buf *track.Buffer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.channel(id)
	if err != nil {
		return err
	}
	c.buf = buf
	return nil
}

// Play starts the loaded buffer at offset, replacing anything the channel
// was playing. It returns false if no buffer is loaded.
func (e *Engine) Play(id ChannelID, offset time.Duration) bool {
	return e.PlayTrack(id, -1, offset)
}

// PlayTrack is Play that also records index as the channel's current track.
// A negative index leaves the recorded index unchanged.
func (e *Engine) PlayTrack(id ChannelID, index int, offset time.Duration) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.play(id, index, offset)
}

func (e *Engine) play(id ChannelID, index int, offset time.Duration) bool {
	if e.closed || !id.valid() {
		return false
	}
	c := e.channels[id]
	if c.buf == nil {
		return false
	}
	c.stopAll()
	if index >= 0 {
		c.index = index
	}
	offset = max(0, min(offset, c.buf.Duration()))
	c.start(c.buf, offset, e.clock.Now(), e.sampleRate)
	return true
}

// Stop discards every playing instance and resets the position to zero.
// It returns false if the channel was already idle.
func (e *Engine) Stop(id ChannelID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !id.valid() {
		return false
	}
	c := e.channels[id]
	if !c.playing && len(c.instances) == 0 {
		return false
	}
	c.stopAll()
	return true
}

// Seek restarts the channel at percent of the loaded duration.
func (e *Engine) Seek(id ChannelID, percent float64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !id.valid() || e.channels[id].buf == nil {
		return false
	}
	d := e.channels[id].buf.Duration()
	offset := time.Duration(float64(d) * clamp(percent, 0, 100) / 100)
	return e.play(id, -1, offset)
}

// SetTempo sets the playback rate in percent (0-200, 100 is normal speed)
// for the live instances and any started later.
func (e *Engine) SetTempo(id ChannelID, rate float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.channel(id)
	if err != nil {
		return err
	}
	c.rate = clamp(rate, 0, 200)
	for _, in := range c.instances {
		in.setRate(c.rate, e.sampleRate)
	}
	return nil
}

// SetVolume sets the channel gain from a 0-100 control. The change is
// ramped over the declick time.
func (e *Engine) SetVolume(id ChannelID, v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.channel(id)
	if err != nil {
		return err
	}
	c.volumeLevel = clamp(v, 0, 100)
	c.volume.RampTo(linear(v), e.declick)
	return nil
}

// SetEQ sets the low, mid and high bands from 0-100 controls.
func (e *Engine) SetEQ(id ChannelID, low, mid, high float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.channel(id)
	if err != nil {
		return err
	}
	c.eqLevels = [3]float64{clamp(low, 0, 100), clamp(mid, 0, 100), clamp(high, 0, 100)}
	c.eq.SetGains(EQScale(low), EQScale(mid), EQScale(high))
	return nil
}

// SetCue routes the channel splitter to the headphone bus when cued and to
// the mix bus otherwise. The splitter always feeds exactly one of the two.
func (e *Engine) SetCue(id ChannelID, cued bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.channel(id)
	if err != nil {
		return err
	}
	to := graph.Node(c.fader)
	if cued {
		to = e.phones
	}
	if err := e.g.Route(c.splitter, to, c.fader, e.phones); err != nil {
		return fmt.Errorf("failed to route %s cue: %w", id, err)
	}
	c.cued = cued
	return nil
}

// Cued reports whether the channel is routed to the headphone bus.
func (e *Engine) Cued(id ChannelID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return id.valid() && e.channels[id].cued
}

// SetCrossfader applies the equal-power law for a 0-100 position.
func (e *Engine) SetCrossfader(position float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setCrossfader(position)
}

func (e *Engine) setCrossfader(position float64) {
	e.crossfader = clamp(position, 0, 100)
	a, b := EqualPower(e.crossfader)
	e.channels[A].fader.Set(a)
	e.channels[B].fader.Set(b)
}

// SetWet sets the return level of one effect from a 0-100 control.
func (e *Engine) SetWet(effect Effect, v float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if effect < Delay || effect > Reverb {
		return fmt.Errorf("%w: %d", ErrUnknownEffect, int(effect))
	}
	s := &e.fx.sends[effect]
	s.level = clamp(v, 0, 100)
	s.wet.Set(linear(v))
	return nil
}

// SetDelayTime changes the delay effect time, clamped to its capacity.
func (e *Engine) SetDelayTime(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fx.delay.SetDelay(d)
}

// DelayTime returns the delay effect time.
func (e *Engine) DelayTime() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fx.delay.DelayTime()
}

// SetChorus changes the chorus LFO. A zero depth or rate leaves a fixed tap.
// The depth is limited to what the chorus line can hold past its base delay.
func (e *Engine) SetChorus(depth time.Duration, rateHz float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	c := e.fx.chorus
	depth = max(0, min(depth, c.MaxDelay()-c.DelayTime()))
	c.SetModulation(depth, rateHz)
}

// Chorus returns the chorus LFO depth and rate.
func (e *Engine) Chorus() (depth time.Duration, rateHz float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fx.chorus.Modulation()
}

// SetMasterVolume sets the master gain from a 0-100 control.
func (e *Engine) SetMasterVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setMasterVolume(v)
}

func (e *Engine) setMasterVolume(v float64) {
	e.masterLevel = clamp(v, 0, 100)
	e.master.Set(linear(v))
}

// SetHeadphoneVolume sets the headphone gain from a 0-100 control.
func (e *Engine) SetHeadphoneVolume(v float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setHeadphoneVolume(v)
}

func (e *Engine) setHeadphoneVolume(v float64) {
	e.phonesLevel = clamp(v, 0, 100)
	e.phones.Set(linear(v))
}

// SetMasterCuePassthrough opens or closes the copy of the master bus in the
// headphone mix. Callers normally open it exactly when no channel is cued.
func (e *Engine) SetMasterCuePassthrough(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setPassthrough(enabled)
}

// MasterCuePassthrough reports whether the headphones carry the master bus.
func (e *Engine) MasterCuePassthrough() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.passthrough
}

func (e *Engine) setPassthrough(enabled bool) {
	e.passthrough = enabled
	if enabled {
		e.masterCue.Set(1)
	} else {
		e.masterCue.Set(0)
	}
}

// PlaybackTime returns the channel position computed from the clock and
// the stored start time and offset.
func (e *Engine) PlaybackTime(id ChannelID) (PlaybackTime, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.channel(id)
	if err != nil {
		return PlaybackTime{}, err
	}
	d := c.duration()
	cur := c.position(e.clock.Now())
	return PlaybackTime{Current: cur, Duration: d, Remaining: d - cur}, nil
}

// State returns a snapshot of the channel strip.
func (e *Engine) State(id ChannelID) (ChannelState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.channel(id)
	if err != nil {
		return ChannelState{}, err
	}
	st := ChannelState{
		Channel:    id,
		TrackIndex: c.index,
		Loaded:     c.buf != nil,
		Playing:    c.playing,
		Cued:       c.cued,
		Volume:     c.volumeLevel,
		EQ:         c.eqLevels,
		Tempo:      c.rate,
		Instances:  len(c.instances),
	}
	if c.buf != nil {
		st.Track = c.buf.Name()
	}
	return st, nil
}

// Levels returns the crossfader, master and headphone positions and the
// wet level of every effect.
func (e *Engine) Levels() (crossfader, master, headphones float64, wet [3]float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, fx := range Effects {
		wet[fx] = e.fx.sends[fx].level
	}
	return e.crossfader, e.masterLevel, e.phonesLevel, wet
}

// PlaySample plays buf once straight into the master bus. Buffers longer
// than MaxSampleLength are rejected.
func (e *Engine) PlaySample(buf *track.Buffer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if err := checkSample(buf); err != nil {
		return err
	}
	e.sampler.add(buf, e.sampleRate)
	return nil
}

// Samples returns the number of one-shot voices still sounding.
func (e *Engine) Samples() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sampler.voices.Len()
}

// LoadPad stores buf in pad slot n, replacing what was there.
func (e *Engine) LoadPad(n int, buf *track.Buffer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.sampler.pad(n); err != nil {
		return err
	}
	if err := checkSample(buf); err != nil {
		return err
	}
	e.sampler.pads[n] = buf
	return nil
}

// FirePad plays the buffer held in pad slot n.
func (e *Engine) FirePad(n int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	buf, err := e.sampler.pad(n)
	if err != nil {
		return err
	}
	if buf == nil {
		return fmt.Errorf("%w: %d", ErrEmptyPad, n)
	}
	e.sampler.add(buf, e.sampleRate)
	return nil
}

// ClearPad empties pad slot n. It reports whether the slot held a buffer.
func (e *Engine) ClearPad(n int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.sampler.pad(n); err != nil || e.sampler.pads[n] == nil {
		return false
	}
	e.sampler.pads[n] = nil
	return true
}

// PadNames returns the buffer name held by every pad, empty when unloaded.
func (e *Engine) PadNames() [Pads]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	var names [Pads]string
	for i, buf := range e.sampler.pads {
		if buf != nil {
			names[i] = buf.Name()
		}
	}
	return names
}

// Events delivers channel-ended notifications. The channel is closed by
// Close. Notifications are dropped if nobody reads them.
func (e *Engine) Events() <-chan Event { return e.events }

// RecordingTap is the master bus before the headphone gain.
func (e *Engine) RecordingTap() *Tap { return e.recordTap }

// MonitorTap is the headphone mix.
func (e *Engine) MonitorTap() *Tap { return e.monitorTap }

// Analyser is fed with the master bus every block.
func (e *Engine) Analyser() *analysis.Analyser { return e.analyser }

// Close stops both channels, disarms the taps and closes the event channel.
// Stream reports end of stream afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	e.closed = true
	for _, c := range e.channels {
		c.stopAll()
	}
	e.sampler.reset()
	e.recordTap.Disarm()
	e.monitorTap.Disarm()
	close(e.events)
	e.logger.Debug("Mixer engine closed")
	return nil
}

// Stream fills samples with the selected output. It never returns fewer
// frames than requested until the engine is closed.
func (e *Engine) Stream(samples [][2]float64) (int, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return 0, false
	}
	n := 0
	for n < len(samples) {
		if e.head >= len(e.fifo) {
			e.renderBlock()
		}
		k := copy(samples[n:], e.fifo[e.head:])
		e.head += k
		n += k
	}
	return n, true
}

// Err always returns nil.
func (e *Engine) Err() error { return nil }

// renderBlock runs one graph block and refills the output FIFO.
func (e *Engine) renderBlock() {
	g := e.g
	g.Begin()

	var ended [2][]int
	for _, c := range e.channels {
		ended[c.id] = c.render(g.Input(c.volume))
	}
	e.sampler.render(g.Input(e.master))

	g.Process()

	master := g.Output(e.master)
	phones := g.Output(e.phones)
	e.recordTap.write(master)
	e.monitorTap.write(phones)
	e.analyser.Write(master)

	e.fifo = e.fifo[:len(master)]
	e.head = 0
	for i := range master {
		switch e.mode {
		case OutputMonitor:
			e.fifo[i] = phones[i]
		case OutputSplit:
			e.fifo[i] = [2]float64{
				(master[i][0] + master[i][1]) / 2,
				(phones[i][0] + phones[i][1]) / 2,
			}
		default:
			e.fifo[i] = master[i]
		}
	}
	e.frames += len(master)

	for _, c := range e.channels {
		for _, id := range ended[c.id] {
			if c.retire(id) {
				e.notify(Event{Channel: c.id, TrackIndex: c.index})
			}
		}
	}
}

func (e *Engine) notify(ev Event) {
	select {
	case e.events <- ev:
		e.logger.Debug("Channel ended",
			slog.String("channel", ev.Channel.String()),
			slog.Int("track_index", ev.TrackIndex))
	default:
		e.logger.Warn("Event queue full, dropping channel-ended event",
			slog.String("channel", ev.Channel.String()))
	}
}
