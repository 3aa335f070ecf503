package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Unlike-U/420soundclashweb/library"
	"github.com/Unlike-U/420soundclashweb/logger"
	"github.com/Unlike-U/420soundclashweb/mixer"
	"github.com/Unlike-U/420soundclashweb/record"
)

// renderCmd mixes the two decks offline into a WAV file
var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a mixdown of the decks to WAV",
	Long: `Render plays deck A and deck B from the start with the given mixer
settings and writes the master bus to a WAV file, faster than real time and
without an audio device. The length defaults to the longer of the two decks.`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("deck-a", "a", "", "track to play on deck A")
	renderCmd.Flags().StringP("deck-b", "b", "", "track to play on deck B")
	renderCmd.Flags().StringP("output", "o", "", "output file (default is a timestamped file in the recording directory)")
	renderCmd.Flags().Duration("length", 0, "length of the mixdown (default is the longest deck)")
	renderCmd.Flags().Float64("crossfader", 50, "crossfader position, 0 is all A and 100 is all B")
	renderCmd.Flags().Float64("tempo-a", 100, "deck A tempo in percent")
	renderCmd.Flags().Float64("tempo-b", 100, "deck B tempo in percent")
	renderCmd.Flags().Float64("delay", 0, "delay wet level")
	renderCmd.Flags().Float64("chorus", 0, "chorus wet level")
	renderCmd.Flags().Float64("reverb", 0, "reverb wet level")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Output.Enabled = false
	log := logger.WithComponent("render")

	engine, err := mixer.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create mixer engine: %w", err)
	}
	defer engine.Close()

	lib := library.New(false)
	var length time.Duration
	var title string
	for _, deck := range []struct {
		id   mixer.ChannelID
		flag string
		rate string
	}{{mixer.A, "deck-a", "tempo-a"}, {mixer.B, "deck-b", "tempo-b"}} {
		path, _ := cmd.Flags().GetString(deck.flag)
		if path == "" {
			continue
		}
		entry, err := lib.Load(path)
		if err != nil {
			return fmt.Errorf("failed to load deck %s: %w", deck.id, err)
		}
		rate, _ := cmd.Flags().GetFloat64(deck.rate)
		if rate <= 0 {
			return fmt.Errorf("deck %s tempo must be positive", deck.id)
		}
		if err := engine.Load(deck.id, entry.Buffer); err != nil {
			return err
		}
		if err := engine.SetTempo(deck.id, rate); err != nil {
			return err
		}
		engine.PlayTrack(deck.id, entry.Index, 0)

		length = max(length, time.Duration(float64(entry.Duration())*100/rate))
		if title == "" {
			title = entry.Title
		}
	}
	if lib.Len() == 0 {
		return errors.New("nothing to render, load at least one deck")
	}
	if l, _ := cmd.Flags().GetDuration("length"); l > 0 {
		length = l
	}

	xfade, _ := cmd.Flags().GetFloat64("crossfader")
	engine.SetCrossfader(xfade)
	for _, fx := range mixer.Effects {
		wet, _ := cmd.Flags().GetFloat64(fx.String())
		if err := engine.SetWet(fx, wet); err != nil {
			return err
		}
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = filepath.Join(cfg.Recording.Dir, record.FileName(title, time.Now()))
	}
	w, err := record.Create(out, engine.SampleRate())
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	log.Info("Rendering mixdown", slog.String("path", out), slog.Duration("length", length))
	if _, err := w.WriteFrom(engine, engine.SampleRate().N(length)); err != nil {
		w.Close()
		return fmt.Errorf("failed to render: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to finish output: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", out, w.Duration().Round(time.Millisecond))
	return nil
}
