package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"media-processor/domain/settings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when no --config flag is given
const DefaultPath = "config/config.yaml"

// Config represents the complete application configuration
type Config struct {
	Tools      ToolsConfig      `yaml:"tools" toml:"tools"`
	Processing ProcessingConfig `yaml:"processing" toml:"processing"`
	Global     GlobalConfig     `yaml:"global" toml:"global"`
	Audio      AudioConfig      `yaml:"audio" toml:"audio"`
	Video      VideoConfig      `yaml:"video" toml:"video"`
	Logging    LoggingConfig    `yaml:"logging" toml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics" toml:"metrics"`
	Google     GoogleConfig     `yaml:"google" toml:"google"`
}

// ToolsConfig contains the external executables
type ToolsConfig struct {
	FFmpeg     string `yaml:"ffmpeg" toml:"ffmpeg"`
	FFprobe    string `yaml:"ffprobe" toml:"ffprobe"`
	DeepFilter string `yaml:"deep_filter" toml:"deep_filter"`
}

// ProcessingConfig controls chunking and the worker pool.
// Zero chunks or workers means one per logical core.
type ProcessingConfig struct {
	Chunks            int     `yaml:"chunks" toml:"chunks"`
	Workers           int     `yaml:"workers" toml:"workers"`
	OverlapSeconds    float64 `yaml:"overlap_seconds" toml:"overlap_seconds"`
	CancelOnFailure   bool    `yaml:"cancel_on_failure" toml:"cancel_on_failure"`
	KeepIntermediates bool    `yaml:"keep_intermediates" toml:"keep_intermediates"`
}

// GlobalConfig contains transcoder-wide switches
type GlobalConfig struct {
	Overwrite  bool   `yaml:"overwrite" toml:"overwrite"`
	Strictness string `yaml:"strictness" toml:"strictness"`
}

// AudioConfig contains output audio settings used when muxing
type AudioConfig struct {
	Codec      string `yaml:"codec" toml:"codec"`
	SampleRate int    `yaml:"sample_rate" toml:"sample_rate"`
	Channels   int    `yaml:"channels" toml:"channels"`
}

// VideoConfig contains output video settings used when muxing
type VideoConfig struct {
	Codec string `yaml:"codec" toml:"codec"`
}

// LoggingConfig contains log settings
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig contains metrics export settings
type MetricsConfig struct {
	Textfile string `yaml:"textfile" toml:"textfile"`
}

// GoogleConfig contains Google API settings
type GoogleConfig struct {
	CredentialsFile string `yaml:"credentials_file" toml:"credentials_file"`
	TokenFile       string `yaml:"token_file" toml:"token_file"`
	OutputFolderID  string `yaml:"output_folder_id" toml:"output_folder_id"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Tools: ToolsConfig{
			FFmpeg:     "ffmpeg",
			FFprobe:    "ffprobe",
			DeepFilter: "deep-filter",
		},
		Processing: ProcessingConfig{
			OverlapSeconds: 1.0,
		},
		Global: GlobalConfig{
			Strictness: settings.Experimental.String(),
		},
		Audio: AudioConfig{
			Codec:      settings.AAC.String(),
			SampleRate: 48000,
			Channels:   2,
		},
		Video: VideoConfig{
			Codec: settings.Copy.String(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
		Google: GoogleConfig{
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
		},
	}
}

// Load reads the configuration from path. Files ending in .toml are parsed as
// TOML, anything else as YAML. Keys missing from the file keep their defaults
// and a missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(path) {
		err = toml.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path in the format its extension names
func Save(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(cfg)
	} else {
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that the settings builder does not own
func (c *Config) Validate() error {
	var errs []error
	if c.Processing.Chunks < 0 {
		errs = append(errs, fmt.Errorf("processing.chunks must not be negative, got %d", c.Processing.Chunks))
	}
	if c.Processing.Workers < 0 {
		errs = append(errs, fmt.Errorf("processing.workers must not be negative, got %d", c.Processing.Workers))
	}
	if c.Processing.OverlapSeconds <= 0 {
		errs = append(errs, fmt.Errorf("processing.overlap_seconds must be positive, got %g", c.Processing.OverlapSeconds))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "auto", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be auto, console or json, got %q", c.Logging.Format))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", settings.ErrInvalidConfiguration, err)
	}
	return nil
}

// Settings feeds the configured transcoder options and the given paths into
// a settings builder. The caller still has to validate the result.
func (c *Config) Settings(inputPath, outputPath string) (*settings.Settings, error) {
	strictness, err := settings.ParseStrictness(c.Global.Strictness)
	if err != nil {
		return nil, err
	}
	videoCodec, err := settings.ParseVideoCodec(c.Video.Codec)
	if err != nil {
		return nil, err
	}

	s := settings.New()
	steps := []func() error{
		func() error { return s.SetOverwrite(c.Global.Overwrite) },
		func() error { return s.SetStrictness(strictness) },
		func() error { return s.SetAudioCodec(settings.ParseAudioCodec(c.Audio.Codec)) },
		func() error { return s.SetSampleRate(c.Audio.SampleRate) },
		func() error { return s.SetChannels(c.Audio.Channels) },
		func() error { return s.SetVideoCodec(videoCodec) },
		func() error { return s.SetInputPath(inputPath) },
		func() error { return s.SetOutputPath(outputPath) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
