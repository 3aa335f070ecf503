// Package library keeps the decoded tracks available to the decks. Each
// file is decoded once; its index is stable for the life of the library.
package library

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Unlike-U/420soundclashweb/logger"
	"github.com/Unlike-U/420soundclashweb/tempo"
	"github.com/Unlike-U/420soundclashweb/track"
)

// Entry holds a decoded track and what was learned about it on load
type Entry struct {
	Index  int
	Path   string
	Title  string
	Buffer *track.Buffer
	BPM    int
	HasBPM bool
}

// Duration returns the track length at normal speed
func (e *Entry) Duration() time.Duration {
	return e.Buffer.Duration()
}

// Library holds all decoded tracks
type Library struct {
	mu      sync.RWMutex
	entries []*Entry
	byPath  map[string]*Entry

	analyzeTempo bool
	logger       *slog.Logger
}

// New creates an empty library. With analyzeTempo set every loaded track
// gets a tempo estimate.
func New(analyzeTempo bool) *Library {
	return &Library{
		byPath:       make(map[string]*Entry),
		analyzeTempo: analyzeTempo,
		logger:       logger.WithComponent("library"),
	}
}

// Load decodes the file at path and appends it to the library. Loading a
// path twice returns the cached entry.
func (l *Library) Load(path string) (*Entry, error) {
	key, err := filepath.Abs(path)
	if err != nil {
		key = filepath.Clean(path)
	}

	l.mu.RLock()
	cached, exists := l.byPath[key]
	l.mu.RUnlock()
	if exists {
		return cached, nil
	}

	buf, err := track.ReadFile(path)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		Path:   key,
		Title:  strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Buffer: buf,
	}
	if l.analyzeTempo {
		bpm, err := tempo.Estimate(buf)
		switch {
		case err == nil:
			entry.BPM, entry.HasBPM = bpm, true
		case errors.Is(err, tempo.ErrNoTempo):
			l.logger.Debug("No tempo found", slog.String("file", entry.Title))
		default:
			l.logger.Warn("Tempo estimate failed", slog.String("file", entry.Title), slog.Any("error", err))
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if cached, exists := l.byPath[key]; exists {
		return cached, nil
	}
	entry.Index = len(l.entries)
	l.entries = append(l.entries, entry)
	l.byPath[key] = entry

	l.logger.Info("Loaded track",
		slog.Int("index", entry.Index),
		slog.String("title", entry.Title),
		slog.Duration("duration", entry.Duration()),
		slog.Int("bpm", entry.BPM))
	return entry, nil
}

// LoadDir loads every mp3 and wav file in dir in name order. Files that
// fail to decode are logged and skipped.
func (l *Library) LoadDir(dir string) (int, error) {
	l.logger.Info("Preloading and decoding audio files...", slog.String("dir", dir))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read audio directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !Supported(entry.Name()) {
			continue
		}
		filePath := filepath.Join(dir, entry.Name())
		if _, err := l.Load(filePath); err != nil {
			l.logger.Warn("Failed to preload", slog.String("file", filePath), slog.Any("error", err))
			continue
		}
		loaded++
	}

	l.logger.Info("Preloading complete", slog.Int("loaded", loaded))
	return loaded, nil
}

// Supported reports whether name has an extension the decoder handles
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".wav":
		return true
	}
	return false
}

// Get retrieves a track by index
func (l *Library) Get(index int) (*Entry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.entries) {
		return nil, false
	}
	return l.entries[index], true
}

// Len returns the number of loaded tracks
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Entries returns the tracks in index order
func (l *Library) Entries() []*Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*Entry(nil), l.entries...)
}
