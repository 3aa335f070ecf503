// Package console is a line-oriented control surface for the mixer. Every
// knob, fader and transport button of the engine has a command.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Unlike-U/420soundclashweb/library"
	"github.com/Unlike-U/420soundclashweb/logger"
	"github.com/Unlike-U/420soundclashweb/mixer"
	"github.com/Unlike-U/420soundclashweb/record"
	"github.com/Unlike-U/420soundclashweb/tempo"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Device is the audio output the session plays through
type Device interface {
	SetVolume(volume float64)
	Pause()
	Resume()
	IsPlaying() bool
}

type command struct {
	usage string
	help  string
	run   func(args []string) error
}

// Console dispatches text commands to the engine
type Console struct {
	engine   *mixer.Engine
	library  *library.Library
	recorder *record.Recorder
	device   Device
	logger   *slog.Logger

	outMu sync.Mutex // Notify writes from the event goroutine
	out   io.Writer

	decks    [2]*library.Entry
	paused   [2]time.Duration
	hasPause [2]bool
	commands map[string]command
}

// New creates a console. recorder may be nil when recording is unavailable.
func New(engine *mixer.Engine, lib *library.Library, recorder *record.Recorder, out io.Writer) *Console {
	c := &Console{
		engine:   engine,
		library:  lib,
		recorder: recorder,
		out:      out,
		logger:   logger.WithComponent("console"),
	}
	c.commands = map[string]command{
		"load":     {"load <A|B> <index|path>", "load a track on a deck", c.load},
		"play":     {"play <A|B> [seconds]", "play the loaded track from an offset", c.play},
		"stop":     {"stop <A|B>", "stop a deck and rewind", c.stop},
		"pause":    {"pause <A|B>", "stop a deck and remember the position", c.pause},
		"resume":   {"resume <A|B>", "play from the remembered position", c.resume},
		"seek":     {"seek <A|B> <percent>", "jump to a percentage of the track", c.seek},
		"tempo":    {"tempo <A|B> <0-200>", "set the playback rate, 100 is normal", c.tempo},
		"volume":   {"volume <A|B> <0-100>", "set the channel volume", c.volume},
		"eq":       {"eq <A|B> <low> <mid> <high>", "set the EQ bands, 50 is flat", c.eq},
		"cue":      {"cue <A|B> <on|off>", "send a deck to the headphones", c.cue},
		"xfade":    {"xfade <0-100>", "move the crossfader, 0 is full A", c.xfade},
		"master":   {"master <0-100>", "set the master volume", c.master},
		"phones":   {"phones <0-100>", "set the headphone volume", c.phones},
		"fx":       {"fx <delay|chorus|reverb> <0-100>", "set an effect wet level", c.fx},
		"delay":    {"delay <ms>", "set the delay time", c.delay},
		"chorus":   {"chorus <depth-ms> <rate-hz>", "set the chorus modulation, 0 for a fixed tap", c.chorus},
		"sample":   {"sample <index|path>", "fire a one-shot into the master", c.sample},
		"pad":      {"pad [n | load <n> <index|path> | clear <n>]", "list, fire, load or clear sampler pads", c.pad},
		"spectrum": {"spectrum", "show the master spectrum", c.spectrum},
		"trim":     {"trim <0-100>", "set the output device level", c.trim},
		"device":   {"device <pause|resume>", "pause or resume the output device", c.deviceCmd},
		"time":     {"time [A|B]", "show deck positions", c.time},
		"status":   {"status", "show the mixer state", c.status},
		"tracks":   {"tracks", "list the library", c.tracks},
		"record":   {"record <start [title]|stop>", "record the master bus", c.record},
		"help":     {"help", "list commands", c.help},
	}
	return c
}

// SetDevice attaches the audio output controlled by trim and device.
func (c *Console) SetDevice(d Device) {
	c.device = d
}

// Exec runs one command line. It reports whether the line asked to quit.
func (c *Console) Exec(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	name := strings.ToLower(fields[0])
	if name == "quit" || name == "exit" {
		return true, nil
	}
	cmd, ok := c.commands[name]
	if !ok {
		return false, fmt.Errorf("%w %q, try help", ErrUnknownCommand, name)
	}
	if err := cmd.run(fields[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			return false, fmt.Errorf("%w: %s", ErrUsage, cmd.usage)
		}
		return false, err
	}
	return false, nil
}

// Run reads commands from in until EOF, quit or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errs := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errs <- scanner.Err()
	}()

	c.prompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errs:
					return err
				default:
					return nil
				}
			}
			quit, err := c.Exec(line)
			if err != nil {
				c.logger.Debug("Command failed", slog.String("line", line), slog.Any("error", err))
				c.printf("error: %v\n", err)
			}
			if quit {
				return nil
			}
			c.prompt()
		}
	}
}

// Notify prints a channel-ended event.
func (c *Console) Notify(ev mixer.Event) {
	title := "track"
	if e, ok := c.library.Get(ev.TrackIndex); ok {
		title = e.Title
	}
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, "\n%s finished %s\n> ", ev.Channel, title)
}

func (c *Console) prompt() { c.printf("> ") }

func (c *Console) printf(format string, args ...any) {
	c.outMu.Lock()
	defer c.outMu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) load(args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	ch, err := mixer.ParseChannel(args[0])
	if err != nil {
		return err
	}
	entry, err := c.entry(strings.Join(args[1:], " "))
	if err != nil {
		return err
	}
	if err := c.engine.Load(ch, entry.Buffer); err != nil {
		return err
	}
	c.decks[ch] = entry
	c.hasPause[ch] = false

	bpm := "unknown BPM"
	if entry.HasBPM {
		bpm = fmt.Sprintf("%d BPM", entry.BPM)
	}
	c.printf("%s: [%d] %s (%s, %s)\n", ch, entry.Index, entry.Title, clock(entry.Duration()), bpm)
	return nil
}

// entry resolves a library index or loads a file path.
func (c *Console) entry(ref string) (*library.Entry, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		e, ok := c.library.Get(i)
		if !ok {
			return nil, fmt.Errorf("no track %d in the library", i)
		}
		return e, nil
	}
	return c.library.Load(ref)
}

func (c *Console) play(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return ErrUsage
	}
	ch, err := mixer.ParseChannel(args[0])
	if err != nil {
		return err
	}
	var offset time.Duration
	if len(args) == 2 {
		secs, err := number(args[1])
		if err != nil {
			return err
		}
		offset = time.Duration(secs * float64(time.Second))
	}
	return c.start(ch, offset)
}

func (c *Console) start(ch mixer.ChannelID, offset time.Duration) error {
	index := -1
	if c.decks[ch] != nil {
		index = c.decks[ch].Index
	}
	if !c.engine.PlayTrack(ch, index, offset) {
		c.printf("%s: nothing loaded\n", ch)
		return nil
	}
	c.hasPause[ch] = false
	c.printf("%s playing from %s\n", ch, clock(offset))
	return nil
}

func (c *Console) stop(args []string) error {
	ch, err := channelArg(args)
	if err != nil {
		return err
	}
	c.hasPause[ch] = false
	if !c.engine.Stop(ch) {
		c.printf("%s: nothing to stop\n", ch)
		return nil
	}
	c.printf("%s stopped\n", ch)
	return nil
}

func (c *Console) pause(args []string) error {
	ch, err := channelArg(args)
	if err != nil {
		return err
	}
	pt, err := c.engine.PlaybackTime(ch)
	if err != nil {
		return err
	}
	if !c.engine.Stop(ch) {
		c.printf("%s: nothing to pause\n", ch)
		return nil
	}
	c.paused[ch], c.hasPause[ch] = pt.Current, true
	c.printf("%s paused at %s\n", ch, clock(pt.Current))
	return nil
}

func (c *Console) resume(args []string) error {
	ch, err := channelArg(args)
	if err != nil {
		return err
	}
	if !c.hasPause[ch] {
		c.printf("%s: not paused\n", ch)
		return nil
	}
	return c.start(ch, c.paused[ch])
}

func (c *Console) seek(args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	ch, err := mixer.ParseChannel(args[0])
	if err != nil {
		return err
	}
	pct, err := number(args[1])
	if err != nil {
		return err
	}
	if !c.engine.Seek(ch, pct) {
		c.printf("%s: nothing loaded\n", ch)
		return nil
	}
	c.hasPause[ch] = false
	return nil
}

func (c *Console) tempo(args []string) error {
	ch, v, err := channelValue(args)
	if err != nil {
		return err
	}
	if err := c.engine.SetTempo(ch, v); err != nil {
		return err
	}
	if e := c.decks[ch]; e != nil && e.HasBPM {
		st, _ := c.engine.State(ch)
		c.printf("%s tempo %.0f%% (%d BPM)\n", ch, st.Tempo, tempo.Display(e.BPM, st.Tempo))
	}
	return nil
}

func (c *Console) volume(args []string) error {
	ch, v, err := channelValue(args)
	if err != nil {
		return err
	}
	return c.engine.SetVolume(ch, v)
}

func (c *Console) eq(args []string) error {
	if len(args) != 4 {
		return ErrUsage
	}
	ch, err := mixer.ParseChannel(args[0])
	if err != nil {
		return err
	}
	var bands [3]float64
	for i := range bands {
		if bands[i], err = number(args[i+1]); err != nil {
			return err
		}
	}
	return c.engine.SetEQ(ch, bands[0], bands[1], bands[2])
}

func (c *Console) cue(args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	ch, err := mixer.ParseChannel(args[0])
	if err != nil {
		return err
	}
	on, err := toggle(args[1])
	if err != nil {
		return err
	}
	if err := c.engine.SetCue(ch, on); err != nil {
		return err
	}
	c.engine.SetMasterCuePassthrough(!c.engine.Cued(mixer.A) && !c.engine.Cued(mixer.B))
	return nil
}

func (c *Console) xfade(args []string) error {
	v, err := single(args)
	if err != nil {
		return err
	}
	c.engine.SetCrossfader(v)
	return nil
}

func (c *Console) master(args []string) error {
	v, err := single(args)
	if err != nil {
		return err
	}
	c.engine.SetMasterVolume(v)
	return nil
}

func (c *Console) phones(args []string) error {
	v, err := single(args)
	if err != nil {
		return err
	}
	c.engine.SetHeadphoneVolume(v)
	return nil
}

func (c *Console) fx(args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	effect, err := mixer.ParseEffect(args[0])
	if err != nil {
		return err
	}
	v, err := number(args[1])
	if err != nil {
		return err
	}
	return c.engine.SetWet(effect, v)
}

func (c *Console) delay(args []string) error {
	ms, err := single(args)
	if err != nil {
		return err
	}
	if ms < 0 {
		return errors.New("delay time must not be negative")
	}
	c.engine.SetDelayTime(time.Duration(ms * float64(time.Millisecond)))
	c.printf("delay %s\n", c.engine.DelayTime().Round(time.Millisecond))
	return nil
}

func (c *Console) chorus(args []string) error {
	if len(args) != 2 {
		return ErrUsage
	}
	ms, err := number(args[0])
	if err != nil {
		return err
	}
	hz, err := number(args[1])
	if err != nil {
		return err
	}
	c.engine.SetChorus(time.Duration(ms*float64(time.Millisecond)), hz)
	depth, rate := c.engine.Chorus()
	c.printf("chorus depth %s at %.2f Hz\n", depth.Round(100*time.Microsecond), rate)
	return nil
}

func (c *Console) pad(args []string) error {
	if len(args) == 0 {
		for i, name := range c.engine.PadNames() {
			if name == "" {
				name = "-"
			}
			c.printf("pad %d %s\n", i, name)
		}
		return nil
	}
	switch strings.ToLower(args[0]) {
	case "load":
		if len(args) < 3 {
			return ErrUsage
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return ErrUsage
		}
		entry, err := c.entry(strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		if err := c.engine.LoadPad(n, entry.Buffer); err != nil {
			return err
		}
		c.printf("pad %d: %s (%s)\n", n, entry.Title, clock(entry.Duration()))
	case "clear":
		if len(args) != 2 {
			return ErrUsage
		}
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return ErrUsage
		}
		if !c.engine.ClearPad(n) {
			c.printf("pad %d: nothing to clear\n", n)
		}
	default:
		if len(args) != 1 {
			return ErrUsage
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return ErrUsage
		}
		return c.engine.FirePad(n)
	}
	return nil
}

// spectrumBands is the number of rows printed by spectrum.
const spectrumBands = 16

func (c *Console) spectrum(args []string) error {
	a := c.engine.Analyser()
	data := make([]byte, a.FrequencyBinCount())
	n := a.ByteFrequencyData(data)
	width := n / spectrumBands
	if width == 0 {
		return nil
	}
	binHz := float64(c.engine.SampleRate()) / float64(a.Size())
	for b := 0; b < spectrumBands; b++ {
		var sum int
		for _, v := range data[b*width : (b+1)*width] {
			sum += int(v)
		}
		level := sum / width
		c.printf("%6.0f Hz %3d %s\n", float64(b*width)*binHz, level, strings.Repeat("#", level/8))
	}
	return nil
}

func (c *Console) trim(args []string) error {
	if c.device == nil {
		return errors.New("no audio device")
	}
	v, err := single(args)
	if err != nil {
		return err
	}
	c.device.SetVolume(math.Max(0, math.Min(100, v)) / 100)
	return nil
}

func (c *Console) deviceCmd(args []string) error {
	if c.device == nil {
		return errors.New("no audio device")
	}
	if len(args) != 1 {
		return ErrUsage
	}
	switch strings.ToLower(args[0]) {
	case "pause":
		c.device.Pause()
	case "resume":
		c.device.Resume()
	default:
		return ErrUsage
	}
	return nil
}

func (c *Console) sample(args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	entry, err := c.entry(strings.Join(args, " "))
	if err != nil {
		return err
	}
	return c.engine.PlaySample(entry.Buffer)
}

func (c *Console) time(args []string) error {
	channels := []mixer.ChannelID{mixer.A, mixer.B}
	if len(args) > 0 {
		ch, err := channelArg(args)
		if err != nil {
			return err
		}
		channels = []mixer.ChannelID{ch}
	}
	for _, ch := range channels {
		pt, err := c.engine.PlaybackTime(ch)
		if err != nil {
			return err
		}
		c.printf("%s %s / %s (-%s)\n", ch, clock(pt.Current), clock(pt.Duration), clock(pt.Remaining))
	}
	return nil
}

func (c *Console) status(args []string) error {
	for _, ch := range []mixer.ChannelID{mixer.A, mixer.B} {
		st, err := c.engine.State(ch)
		if err != nil {
			return err
		}
		state := "idle"
		if st.Playing {
			state = "playing"
		}
		track := "-"
		if st.Loaded {
			track = st.Track
		}
		c.printf("%s %-7s %s vol %.0f eq %.0f/%.0f/%.0f tempo %.0f%% cue %v\n",
			ch, state, track, st.Volume, st.EQ[0], st.EQ[1], st.EQ[2], st.Tempo, st.Cued)
	}
	xf, master, phones, wet := c.engine.Levels()
	c.printf("xfade %.0f master %.0f phones %.0f passthrough %v\n",
		xf, master, phones, c.engine.MasterCuePassthrough())
	c.printf("fx delay %.0f chorus %.0f reverb %.0f\n", wet[mixer.Delay], wet[mixer.Chorus], wet[mixer.Reverb])
	if c.device != nil {
		state := "paused"
		if c.device.IsPlaying() {
			state = "playing"
		}
		c.printf("device %s\n", state)
	}
	if c.recorder != nil && c.recorder.Recording() {
		c.printf("recording\n")
	}
	return nil
}

func (c *Console) tracks(args []string) error {
	entries := c.library.Entries()
	if len(entries) == 0 {
		c.printf("library is empty\n")
		return nil
	}
	for _, e := range entries {
		bpm := "   ?"
		if e.HasBPM {
			bpm = fmt.Sprintf("%4d", e.BPM)
		}
		c.printf("%3d %s %s  %s\n", e.Index, clock(e.Duration()), bpm, e.Title)
	}
	return nil
}

func (c *Console) record(args []string) error {
	if c.recorder == nil {
		return errors.New("recording is not available")
	}
	if len(args) == 0 {
		return ErrUsage
	}
	switch strings.ToLower(args[0]) {
	case "start":
		title := strings.Join(args[1:], " ")
		path, err := c.recorder.Start(title)
		if err != nil {
			return err
		}
		c.printf("recording to %s\n", path)
	case "stop":
		res, err := c.recorder.Stop()
		if err != nil {
			return err
		}
		c.printf("saved %s (%s, %d blocks dropped)\n", res.Path, clock(res.Duration), res.Dropped)
	default:
		return ErrUsage
	}
	return nil
}

func (c *Console) help(args []string) error {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := c.commands[name]
		c.printf("  %-44s %s\n", cmd.usage, cmd.help)
	}
	c.printf("  %-44s %s\n", "quit", "leave the session")
	return nil
}

func channelArg(args []string) (mixer.ChannelID, error) {
	if len(args) != 1 {
		return 0, ErrUsage
	}
	return mixer.ParseChannel(args[0])
}

func channelValue(args []string) (mixer.ChannelID, float64, error) {
	if len(args) != 2 {
		return 0, 0, ErrUsage
	}
	ch, err := mixer.ParseChannel(args[0])
	if err != nil {
		return 0, 0, err
	}
	v, err := number(args[1])
	return ch, v, err
}

func single(args []string) (float64, error) {
	if len(args) != 1 {
		return 0, ErrUsage
	}
	return number(args[0])
}

func number(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	return v, nil
}

func toggle(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "1", "yes":
		return true, nil
	case "off", "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("%q is not on or off", s)
}

// clock formats d as m:ss.
func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
