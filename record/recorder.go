package record

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/Unlike-U/420soundclashweb/config"
	"github.com/Unlike-U/420soundclashweb/logger"
	"github.com/Unlike-U/420soundclashweb/playback"
)

var (
	ErrRecording    = errors.New("already recording")
	ErrNotRecording = errors.New("not recording")
)

// Source is a tap point that delivers interleaved stereo blocks while armed.
type Source interface {
	Arm(blockFrames, queue int) <-chan []float32
	Disarm()
	Dropped() uint64
}

// Result describes a finished recording.
type Result struct {
	Path     string
	Duration time.Duration
	Dropped  uint64
}

type take struct {
	path   string
	writer *Writer
	done   chan error
}

// Recorder captures a tap into WAV files, one file per Start/Stop pair.
type Recorder struct {
	src         Source
	sampleRate  beep.SampleRate
	dir         string
	blockFrames int
	queue       int
	now         func() time.Time
	logger      *slog.Logger

	mu     sync.Mutex
	active *take
}

// NewRecorder creates a recorder for src, which delivers frames at sampleRate.
func NewRecorder(src Source, sampleRate beep.SampleRate, cfg config.RecordingConfig) *Recorder {
	return &Recorder{
		src:         src,
		sampleRate:  sampleRate,
		dir:         cfg.Dir,
		blockFrames: cfg.BlockFrames,
		queue:       cfg.Queue,
		now:         time.Now,
		logger:      logger.WithComponent("recorder"),
	}
}

// Start arms the tap and writes everything it delivers to a new file named
// after title. It returns the file path.
func (r *Recorder) Start(title string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return "", ErrRecording
	}

	path := filepath.Join(r.dir, FileName(title, r.now()))
	w, err := Create(path, r.sampleRate)
	if err != nil {
		return "", err
	}

	t := &take{path: path, writer: w, done: make(chan error, 1)}
	stream := playback.NewBlockStreamer(r.src.Arm(r.blockFrames, r.queue))
	go func() {
		t.done <- drain(w, stream, r.blockFrames)
	}()
	r.active = t

	r.logger.Info("Recording started", slog.String("file", path))
	return path, nil
}

// drain writes from stream until it ends.
func drain(w *Writer, stream beep.Streamer, chunk int) error {
	for {
		n, err := w.WriteFrom(stream, chunk)
		if err != nil {
			return err
		}
		if n < chunk {
			return nil
		}
	}
}

// Stop disarms the tap, waits for the queued blocks to be written and
// finalises the file.
func (r *Recorder) Stop() (Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.active
	if t == nil {
		return Result{}, ErrNotRecording
	}
	r.active = nil

	r.src.Disarm()
	err := <-t.done
	if cerr := t.writer.Close(); err == nil {
		err = cerr
	}

	res := Result{Path: t.path, Duration: t.writer.Duration(), Dropped: r.src.Dropped()}
	if err != nil {
		return res, fmt.Errorf("failed to finish recording %s: %w", t.path, err)
	}
	r.logger.Info("Recording stopped",
		slog.String("file", t.path),
		slog.Duration("duration", res.Duration),
		slog.Uint64("dropped_blocks", res.Dropped))
	return res, nil
}

// Recording reports whether a take is in progress.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}
