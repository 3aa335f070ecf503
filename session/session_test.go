package session

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Unlike-U/420soundclashweb/config"
	"github.com/Unlike-U/420soundclashweb/mixer"
	"github.com/Unlike-U/420soundclashweb/track"
)

func testConfig(t *testing.T) *config.Config {
	cfg := config.Default()
	cfg.Engine.SampleRate = 8000
	cfg.Engine.BlockSize = 256
	cfg.Effects.ReverbLength = 100 * time.Millisecond
	cfg.Output.Enabled = false
	cfg.Library.AnalyzeTempo = false
	cfg.Recording.Dir = t.TempDir()
	return cfg
}

func writeTone(t *testing.T, path string, frames int) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	data := make([]int, 2*frames)
	for i := range data {
		data[i] = 1000 * (i % 7)
	}
	enc := wav.NewEncoder(f, 8000, 16, 2, 1)
	if err := enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 8000},
		Data:           data,
		SourceBitDepth: 16,
	}); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSessionLifecycle(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()
	deck := filepath.Join(dir, "intro.wav")
	writeTone(t, deck, 8000*20)

	var out lockedBuffer
	s := New(cfg, Options{
		DeckA:       deck,
		RecordTitle: "test take",
		In:          strings.NewReader("play a\nstatus\nquit\n"),
		Out:         &out,
	})
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-s.Done():
	case err := <-s.Error():
		t.Fatalf("session error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("console did not quit")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	got := out.String()
	for _, want := range []string{"A: [0] intro", "A playing from 0:00", "recording"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	files, _ := filepath.Glob(filepath.Join(cfg.Recording.Dir, "test_take_*.wav"))
	if len(files) != 1 {
		t.Errorf("recordings = %v, want one file", files)
	}
}

type chanNotifier chan mixer.Event

func (c chanNotifier) Notify(ev mixer.Event) { c <- ev }

func TestEventMonitorForwardsEvents(t *testing.T) {
	engine, err := mixer.New(testConfig(t))
	if err != nil {
		t.Fatal(err)
	}
	frames := make([][2]float64, 400)
	engine.Load(mixer.B, track.New("blip", 8000, frames))
	engine.PlayTrack(mixer.B, 3, 0)

	var wg sync.WaitGroup
	notes := make(chanNotifier, 1)
	m := NewEventMonitor(engine, notes, &wg)
	m.Start()

	engine.Stream(make([][2]float64, 2048))
	select {
	case ev := <-notes:
		if ev.Channel != mixer.B || ev.TrackIndex != 3 {
			t.Errorf("event = %+v, want B/3", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no event forwarded")
	}

	engine.Close()
	wg.Wait()
	m.Stop()
}
