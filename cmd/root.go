package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Unlike-U/420soundclashweb/config"
	"github.com/Unlike-U/420soundclashweb/logger"
	"github.com/Unlike-U/420soundclashweb/session"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "soundclash",
	Short: "A two-deck DJ mixing engine",
	Long: `Soundclash is a two-channel live mixing engine. Each deck has its own
volume, three-band EQ, tempo control and cue switch; the decks are blended
with an equal-power crossfader and sent through a parallel delay, chorus and
reverb bus into the master output.

Without a subcommand soundclash opens the audio device and reads mixer
commands from standard input. Type "help" for the command list.`,
	RunE: runSession,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	rootCmd.PersistentFlags().Int("sample-rate", 44100, "engine sample rate")

	// Local flags for the session command
	rootCmd.Flags().StringP("deck-a", "a", "", "track to load on deck A")
	rootCmd.Flags().StringP("deck-b", "b", "", "track to load on deck B")
	rootCmd.Flags().StringP("library", "l", "", "directory of tracks to preload")
	rootCmd.Flags().String("output-mode", "master", "device output (master, monitor, split)")
	rootCmd.Flags().Bool("no-audio", false, "render without opening the audio device")
	rootCmd.Flags().String("record", "", "start recording the master bus under this title")

	// Bind flags to viper
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("engine.sample_rate", rootCmd.PersistentFlags().Lookup("sample-rate"))
	viper.BindPFlag("library.dir", rootCmd.Flags().Lookup("library"))
	viper.BindPFlag("engine.output_mode", rootCmd.Flags().Lookup("output-mode"))
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if verbose {
		viper.Set("logging.level", "debug")
	}
}

// loadConfig loads, validates and applies the logging configuration
func loadConfig() (*config.Config, error) {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// Setup logging
	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}
	return cfg, nil
}

// runSession starts an interactive mixing session
func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noAudio, _ := cmd.Flags().GetBool("no-audio"); noAudio {
		cfg.Output.Enabled = false
	}

	opts := session.Options{}
	opts.DeckA, _ = cmd.Flags().GetString("deck-a")
	opts.DeckB, _ = cmd.Flags().GetString("deck-b")
	opts.RecordTitle, _ = cmd.Flags().GetString("record")

	// Create and initialize the session
	s := session.New(cfg, opts)
	if err := s.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize session: %w", err)
	}

	// Start the session
	if err := s.Start(); err != nil {
		s.Stop()
		return fmt.Errorf("failed to start session: %w", err)
	}

	// Setup graceful shutdown
	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	// Wait for shutdown signal, quit or error
	select {
	case sig := <-signalChan:
		fmt.Printf("\nReceived %s, shutting down gracefully...\n", sig)
	case <-s.Done():
	case err := <-s.Error():
		fmt.Printf("Error occurred: %v\n", err)
	}

	// Graceful shutdown
	if err := s.Stop(); err != nil {
		return fmt.Errorf("failed to stop session gracefully: %w", err)
	}

	return nil
}
