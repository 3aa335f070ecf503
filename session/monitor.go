package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/Unlike-U/420soundclashweb/logger"
	"github.com/Unlike-U/420soundclashweb/mixer"
)

// Notifier receives channel-ended events
type Notifier interface {
	Notify(ev mixer.Event)
}

// EventMonitor forwards engine events to the console
type EventMonitor struct {
	engine      *mixer.Engine
	notifier    Notifier
	logger      *slog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	wg          *sync.WaitGroup
	stopChannel chan struct{}
	stopOnce    sync.Once
}

// NewEventMonitor creates a new EventMonitor instance
func NewEventMonitor(engine *mixer.Engine, notifier Notifier, wg *sync.WaitGroup) *EventMonitor {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventMonitor{
		engine:      engine,
		notifier:    notifier,
		logger:      logger.WithComponent("event-monitor"),
		ctx:         ctx,
		cancel:      cancel,
		wg:          wg,
		stopChannel: make(chan struct{}),
	}
}

// Start begins event monitoring
func (m *EventMonitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		m.logger.Debug("Starting event monitoring")

		events := m.engine.Events()
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					m.logger.Debug("Engine closed, stopping event monitoring")
					return
				}
				m.logger.Info("Channel ended",
					slog.String("channel", ev.Channel.String()),
					slog.Int("track_index", ev.TrackIndex))
				if m.notifier != nil {
					m.notifier.Notify(ev)
				}
			case <-m.ctx.Done():
				m.logger.Debug("Event monitoring stopped")
				return
			case <-m.stopChannel:
				m.logger.Debug("Event monitoring stopped via stop channel")
				return
			}
		}
	}()
}

// Stop stops event monitoring
func (m *EventMonitor) Stop() {
	m.stopOnce.Do(func() {
		m.cancel()
		close(m.stopChannel)
	})
}

// SetContext updates the context for cancellation
func (m *EventMonitor) SetContext(ctx context.Context) {
	m.cancel() // Cancel the old context
	m.ctx = ctx
}

// NullSink pulls the engine in real time when no audio device is used, so
// the render clock, taps and events keep running.
type NullSink struct {
	src      beep.Streamer
	block    int
	interval time.Duration
	logger   *slog.Logger
	wg       *sync.WaitGroup
}

// NewNullSink creates a sink pulling blocks of block frames from src
func NewNullSink(src beep.Streamer, sampleRate beep.SampleRate, block int, wg *sync.WaitGroup) *NullSink {
	block = max(1, block)
	return &NullSink{
		src:      src,
		block:    block,
		interval: sampleRate.D(block),
		logger:   logger.WithComponent("null-sink"),
		wg:       wg,
	}
}

// Start pulls one block per block duration until ctx is done or the
// source ends
func (n *NullSink) Start(ctx context.Context) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		ticker := time.NewTicker(n.interval)
		defer ticker.Stop()

		buf := make([][2]float64, n.block)
		for {
			select {
			case <-ticker.C:
				if _, ok := n.src.Stream(buf); !ok {
					n.logger.Debug("Source ended")
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
