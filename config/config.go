package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	// Engine configuration
	Engine EngineConfig `mapstructure:"engine"`

	// Initial mixer positions
	Mixer MixerConfig `mapstructure:"mixer"`

	// Effects bus configuration
	Effects EffectsConfig `mapstructure:"effects"`

	// Audio device configuration
	Output OutputConfig `mapstructure:"output"`

	// Recording configuration
	Recording RecordingConfig `mapstructure:"recording"`

	// Track library configuration
	Library LibraryConfig `mapstructure:"library"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// EngineConfig holds render graph settings
type EngineConfig struct {
	SampleRate  int           `mapstructure:"sample_rate"`
	BlockSize   int           `mapstructure:"block_size"`
	Declick     time.Duration `mapstructure:"declick"`
	OutputMode  string        `mapstructure:"output_mode"` // master, monitor or split
	EventBuffer int           `mapstructure:"event_buffer"`
}

// MixerConfig holds the control positions applied at startup (0-100)
type MixerConfig struct {
	MasterVolume    float64 `mapstructure:"master_volume"`
	HeadphoneVolume float64 `mapstructure:"headphone_volume"`
	Crossfader      float64 `mapstructure:"crossfader"`
}

// EffectsConfig holds the delay, chorus and reverb parameters
type EffectsConfig struct {
	DelayTime    time.Duration `mapstructure:"delay_time"`
	DelayMax     time.Duration `mapstructure:"delay_max"`
	ChorusDelay  time.Duration `mapstructure:"chorus_delay"`
	ChorusDepth  time.Duration `mapstructure:"chorus_depth"`
	ChorusRate   float64       `mapstructure:"chorus_rate"`
	ReverbLength time.Duration `mapstructure:"reverb_length"`
	ReverbDecay  float64       `mapstructure:"reverb_decay"`
	ReverbSeed   uint64        `mapstructure:"reverb_seed"` // 0 picks a random seed
}

// OutputConfig holds audio device settings
type OutputConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Latency time.Duration `mapstructure:"latency"`
}

// RecordingConfig holds recording sink settings
type RecordingConfig struct {
	Dir         string `mapstructure:"dir"`
	BlockFrames int    `mapstructure:"block_frames"`
	Queue       int    `mapstructure:"queue"`
}

// LibraryConfig holds track library settings
type LibraryConfig struct {
	Dir          string `mapstructure:"dir"`
	AnalyzeTempo bool   `mapstructure:"analyze_tempo"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.sample_rate", 44100)
	v.SetDefault("engine.block_size", 512)
	v.SetDefault("engine.declick", "10ms")
	v.SetDefault("engine.output_mode", "master")
	v.SetDefault("engine.event_buffer", 16)
	v.SetDefault("mixer.master_volume", 80)
	v.SetDefault("mixer.headphone_volume", 80)
	v.SetDefault("mixer.crossfader", 50)
	v.SetDefault("effects.delay_time", "500ms")
	v.SetDefault("effects.delay_max", "5s")
	v.SetDefault("effects.chorus_delay", "30ms")
	v.SetDefault("effects.chorus_depth", "0s")
	v.SetDefault("effects.chorus_rate", 0)
	v.SetDefault("effects.reverb_length", "2s")
	v.SetDefault("effects.reverb_decay", 5)
	v.SetDefault("effects.reverb_seed", 0)
	v.SetDefault("output.enabled", true)
	v.SetDefault("output.latency", "100ms")
	v.SetDefault("recording.dir", ".")
	v.SetDefault("recording.block_frames", 4096)
	v.SetDefault("recording.queue", 64)
	v.SetDefault("library.dir", "")
	v.SetDefault("library.analyze_tempo", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Default returns the built-in configuration without reading files or the
// environment.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return &config
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig() (*Config, error) {
	// Set defaults
	setDefaults(viper.GetViper())

	// Search the default locations unless a file was set explicitly,
	// SetConfigName would discard it
	if viper.ConfigFileUsed() == "" {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.soundclash")
		viper.AddConfigPath("/etc/soundclash")
	}

	// Allow environment variables
	viper.SetEnvPrefix("SOUNDCLASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read the config file
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		slog.Debug("No config file found, using defaults and environment variables")
	} else {
		slog.Info("Using config file", slog.String("file", viper.ConfigFileUsed()))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch {
	case c.Engine.SampleRate < 8000 || c.Engine.SampleRate > 192000:
		return &ConfigError{Field: "engine.sample_rate", Message: "must be between 8000 and 192000"}
	case c.Engine.BlockSize < 16 || c.Engine.BlockSize > 16384:
		return &ConfigError{Field: "engine.block_size", Message: "must be between 16 and 16384"}
	case c.Engine.Declick < 0 || c.Engine.Declick > time.Second:
		return &ConfigError{Field: "engine.declick", Message: "must be between 0 and 1s"}
	case !oneOf(c.Engine.OutputMode, "master", "monitor", "split"):
		return &ConfigError{Field: "engine.output_mode", Message: "must be master, monitor or split"}
	case c.Engine.EventBuffer < 1:
		return &ConfigError{Field: "engine.event_buffer", Message: "must be at least 1"}
	}

	for field, v := range map[string]float64{
		"mixer.master_volume":    c.Mixer.MasterVolume,
		"mixer.headphone_volume": c.Mixer.HeadphoneVolume,
		"mixer.crossfader":       c.Mixer.Crossfader,
	} {
		if v < 0 || v > 100 {
			return &ConfigError{Field: field, Message: "must be between 0 and 100"}
		}
	}

	switch {
	case c.Effects.DelayMax < 5*time.Second:
		return &ConfigError{Field: "effects.delay_max", Message: "must be at least 5s"}
	case c.Effects.DelayTime < 0 || c.Effects.DelayTime > c.Effects.DelayMax:
		return &ConfigError{Field: "effects.delay_time", Message: "must be between 0 and effects.delay_max"}
	case c.Effects.ChorusDelay < 0 || c.Effects.ChorusDelay > time.Second:
		return &ConfigError{Field: "effects.chorus_delay", Message: "must be between 0 and 1s"}
	case c.Effects.ChorusDepth < 0 || c.Effects.ChorusDepth > c.Effects.ChorusDelay:
		return &ConfigError{Field: "effects.chorus_depth", Message: "must be between 0 and effects.chorus_delay"}
	case c.Effects.ChorusRate < 0:
		return &ConfigError{Field: "effects.chorus_rate", Message: "must not be negative"}
	case c.Effects.ReverbLength <= 0 || c.Effects.ReverbLength > 10*time.Second:
		return &ConfigError{Field: "effects.reverb_length", Message: "must be between 0 and 10s"}
	case c.Effects.ReverbDecay < 0:
		return &ConfigError{Field: "effects.reverb_decay", Message: "must not be negative"}
	}

	if c.Output.Latency <= 0 {
		return &ConfigError{Field: "output.latency", Message: "must be positive"}
	}
	if c.Recording.BlockFrames < 1 {
		return &ConfigError{Field: "recording.block_frames", Message: "must be at least 1"}
	}
	if c.Recording.Queue < 1 {
		return &ConfigError{Field: "recording.queue", Message: "must be at least 1"}
	}
	return nil
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if strings.EqualFold(s, o) {
			return true
		}
	}
	return false
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
