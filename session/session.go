package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/Unlike-U/420soundclashweb/config"
	"github.com/Unlike-U/420soundclashweb/console"
	"github.com/Unlike-U/420soundclashweb/library"
	"github.com/Unlike-U/420soundclashweb/logger"
	"github.com/Unlike-U/420soundclashweb/mixer"
	"github.com/Unlike-U/420soundclashweb/playback"
	"github.com/Unlike-U/420soundclashweb/record"
)

var _ console.Device = (*playback.Output)(nil)

// Options selects what a session starts with
type Options struct {
	DeckA       string    // track to load on deck A
	DeckB       string    // track to load on deck B
	RecordTitle string    // start recording immediately under this title
	In          io.Reader // console input, defaults to stdin
	Out         io.Writer // console output, defaults to stdout
}

// Session represents the running mixer and everything attached to it
type Session struct {
	config    *config.Config
	options   Options
	library   *library.Library
	engine    *mixer.Engine
	output    *playback.Output
	sink      *NullSink
	recorder  *record.Recorder
	console   *console.Console
	monitor   *EventMonitor
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	done      chan struct{}
	errorChan chan error
}

// New creates a new Session instance
func New(cfg *config.Config, opts Options) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	return &Session{
		config:    cfg,
		options:   opts,
		library:   library.New(cfg.Library.AnalyzeTempo),
		logger:    logger.WithComponent("session"),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
		errorChan: make(chan error, 10),
	}
}

// Initialize decodes the library and builds the engine
func (s *Session) Initialize() error {
	s.logger.Info("Initializing session...")

	// Preload the library directory
	if dir := s.config.Library.Dir; dir != "" {
		if _, err := s.library.LoadDir(dir); err != nil {
			return fmt.Errorf("failed to load library: %w", err)
		}
	}

	// Build the engine
	engine, err := mixer.New(s.config)
	if err != nil {
		return fmt.Errorf("failed to create mixer engine: %w", err)
	}
	s.engine = engine

	s.recorder = record.NewRecorder(engine.RecordingTap(), engine.SampleRate(), s.config.Recording)
	s.console = console.New(engine, s.library, s.recorder, s.options.Out)
	s.monitor = NewEventMonitor(engine, s.console, &s.wg)

	// Load the decks given on the command line
	for _, deck := range []struct {
		id   string
		path string
	}{{"a", s.options.DeckA}, {"b", s.options.DeckB}} {
		if deck.path == "" {
			continue
		}
		if _, err := s.console.Exec("load " + deck.id + " " + deck.path); err != nil {
			return fmt.Errorf("failed to load deck %s: %w", deck.id, err)
		}
	}

	s.logger.Info("Session initialized successfully")
	return nil
}

// Start opens the audio device and begins accepting commands
func (s *Session) Start() error {
	s.logger.Info("Starting session...")

	// Start pulling audio from the engine
	if s.config.Output.Enabled {
		output, err := playback.NewOutput(s.engine.SampleRate(), s.config.Output.Latency, s.engine)
		if err != nil {
			return fmt.Errorf("failed to open audio output: %w", err)
		}
		s.output = output
		s.console.SetDevice(output)
		s.logger.Info("Audio output opened",
			slog.Int("sample_rate", int(output.SampleRate())),
			slog.Duration("latency", s.config.Output.Latency))
	} else {
		s.logger.Info("Audio output disabled, rendering in real time without a device")
		s.sink = NewNullSink(s.engine, s.engine.SampleRate(), s.config.Engine.BlockSize, &s.wg)
		s.sink.Start(s.ctx)
	}

	// Start event monitoring
	s.monitor.SetContext(s.ctx)
	s.monitor.Start()

	if s.options.RecordTitle != "" {
		if _, err := s.recorder.Start(s.options.RecordTitle); err != nil {
			return fmt.Errorf("failed to start recording: %w", err)
		}
	}

	// Start the console
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.done)
		if err := s.console.Run(s.ctx, s.options.In); err != nil && s.ctx.Err() == nil {
			s.logger.Error("Console stopped", slog.Any("error", err))
			select {
			case s.errorChan <- err:
			default:
			}
		}
	}()

	s.logger.Info("Session started successfully")
	return nil
}

// Stop gracefully shuts down the session
func (s *Session) Stop() error {
	s.logger.Info("Stopping session...")

	// Cancel context to stop all operations
	s.cancel()

	// Finish a recording in progress
	if s.recorder != nil && s.recorder.Recording() {
		if _, err := s.recorder.Stop(); err != nil {
			s.logger.Error("Failed to finish recording", slog.Any("error", err))
		}
	}

	// Release the audio device
	if s.output != nil {
		if err := s.output.Close(); err != nil {
			s.logger.Error("Failed to close audio output", slog.Any("error", err))
		}
	}

	// Stop event monitoring
	if s.monitor != nil {
		s.monitor.Stop()
	}

	// Close the engine, which also ends the event stream
	if s.engine != nil {
		if err := s.engine.Close(); err != nil {
			s.logger.Warn("Engine already closed", slog.Any("error", err))
		}
	}

	// Wait for all goroutines to finish
	s.wg.Wait()

	s.logger.Info("Session stopped")
	return nil
}

// Done is closed when the console quits
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Error returns the error channel for monitoring errors
func (s *Session) Error() <-chan error {
	return s.errorChan
}

// Engine returns the mixer engine
func (s *Session) Engine() *mixer.Engine {
	return s.engine
}
