package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Unlike-U/420soundclashweb/config"
	"github.com/Unlike-U/420soundclashweb/logger"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
	Long:  "Commands for managing and validating soundclash configuration.",
}

// configValidateCmd validates the current configuration
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the current configuration file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup basic logging for validation
		if err := logger.Setup("info", "text"); err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}

		// Load configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Validate configuration
		if err := cfg.Validate(); err != nil {
			slog.Error("Configuration validation failed", slog.Any("error", err))
			return err
		}

		slog.Info("Configuration is valid")
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Configuration is valid")
		return nil
	},
}

// configShowCmd shows the current configuration
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the current configuration values from file and environment variables.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Setup basic logging
		if err := logger.Setup("info", "text"); err != nil {
			return fmt.Errorf("failed to setup logging: %w", err)
		}

		// Load configuration
		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		printConfig(cmd, cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

// printConfig writes every configuration value
func printConfig(cmd *cobra.Command, cfg *config.Config) {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Current Configuration:")
	fmt.Fprintf(w, "  Engine:\n")
	fmt.Fprintf(w, "    Sample rate: %d\n", cfg.Engine.SampleRate)
	fmt.Fprintf(w, "    Block size: %d\n", cfg.Engine.BlockSize)
	fmt.Fprintf(w, "    Declick: %s\n", cfg.Engine.Declick)
	fmt.Fprintf(w, "    Output mode: %s\n", cfg.Engine.OutputMode)
	fmt.Fprintf(w, "    Event buffer: %d\n", cfg.Engine.EventBuffer)
	fmt.Fprintf(w, "  Mixer:\n")
	fmt.Fprintf(w, "    Master volume: %.0f\n", cfg.Mixer.MasterVolume)
	fmt.Fprintf(w, "    Headphone volume: %.0f\n", cfg.Mixer.HeadphoneVolume)
	fmt.Fprintf(w, "    Crossfader: %.0f\n", cfg.Mixer.Crossfader)
	fmt.Fprintf(w, "  Effects:\n")
	fmt.Fprintf(w, "    Delay: %s (max %s)\n", cfg.Effects.DelayTime, cfg.Effects.DelayMax)
	fmt.Fprintf(w, "    Chorus: %s, depth %s at %.2f Hz\n", cfg.Effects.ChorusDelay, cfg.Effects.ChorusDepth, cfg.Effects.ChorusRate)
	fmt.Fprintf(w, "    Reverb: %s, decay %.1f, seed %s\n", cfg.Effects.ReverbLength, cfg.Effects.ReverbDecay, seed(cfg.Effects.ReverbSeed))
	fmt.Fprintf(w, "  Output:\n")
	fmt.Fprintf(w, "    Enabled: %v\n", cfg.Output.Enabled)
	fmt.Fprintf(w, "    Latency: %s\n", cfg.Output.Latency)
	fmt.Fprintf(w, "  Recording:\n")
	fmt.Fprintf(w, "    Directory: %s\n", cfg.Recording.Dir)
	fmt.Fprintf(w, "    Block frames: %d\n", cfg.Recording.BlockFrames)
	fmt.Fprintf(w, "    Queue: %d\n", cfg.Recording.Queue)
	fmt.Fprintf(w, "  Library:\n")
	fmt.Fprintf(w, "    Directory: %s\n", orNone(cfg.Library.Dir))
	fmt.Fprintf(w, "    Analyze tempo: %v\n", cfg.Library.AnalyzeTempo)
	fmt.Fprintf(w, "  Logging:\n")
	fmt.Fprintf(w, "    Level: %s\n", cfg.Logging.Level)
	fmt.Fprintf(w, "    Format: %s\n", cfg.Logging.Format)
}

// seed formats a reverb seed for display
func seed(s uint64) string {
	if s == 0 {
		return "random"
	}
	return fmt.Sprint(s)
}

// orNone formats an optional value for display
func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
