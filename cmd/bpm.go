package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Unlike-U/420soundclashweb/tempo"
	"github.com/Unlike-U/420soundclashweb/track"
)

// bpmCmd estimates the tempo of audio files
var bpmCmd = &cobra.Command{
	Use:   "bpm <files...>",
	Short: "Estimate the tempo of audio files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		est := tempo.Default
		est.MinBPM, _ = cmd.Flags().GetFloat64("min")
		est.MaxBPM, _ = cmd.Flags().GetFloat64("max")
		if est.MinBPM <= 0 || est.MaxBPM <= est.MinBPM {
			return fmt.Errorf("invalid BPM range %g-%g", est.MinBPM, est.MaxBPM)
		}

		var failed int
		for _, path := range args {
			buf, err := track.ReadFile(path)
			if err != nil {
				slog.Error("Failed to decode", slog.String("path", path), slog.Any("error", err))
				failed++
				continue
			}
			bpm, err := est.Estimate(buf)
			switch {
			case errors.Is(err, tempo.ErrNoTempo):
				fmt.Fprintf(cmd.OutOrStdout(), "%s\tunknown\n", path)
			case err != nil:
				return err
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", path, bpm)
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d files could not be decoded", failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(bpmCmd)

	bpmCmd.Flags().Float64("min", tempo.Default.MinBPM, "lowest tempo considered")
	bpmCmd.Flags().Float64("max", tempo.Default.MaxBPM, "highest tempo considered")
}
