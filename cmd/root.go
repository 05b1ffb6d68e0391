package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"media-processor/infrastructure/config"
	"media-processor/infrastructure/logging"

	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	cfg       *config.Config
	cfgErr    error
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "media-processor",
	Short: "Isolate vocals from video recordings",
	Long: `media-processor pulls the audio track out of a video, splits it into
overlapping chunks, runs DeepFilterNet on every chunk in parallel and
crossfades the filtered chunks back into one clean vocal track.

  - Plan chunk boundaries and the crossfade graph
  - Isolate vocals into a WAV file, optionally muxed back into the video
  - Upload results to Google Drive with sharing

Example:
  media-processor isolate --input service.mp4 --output out/vocals.wav`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file, .yaml or .toml (default is ./"+config.DefaultPath+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: auto, console, json (overrides config)")
}

func initConfig() {
	if cfgFile == "" {
		cfgFile = config.DefaultPath
	}
	cfg, cfgErr = config.Load(cfgFile)
}

// GetConfig returns the loaded configuration. A missing file yields defaults;
// a file that cannot be parsed is an error.
func GetConfig() (*config.Config, error) {
	if cfgErr != nil {
		return nil, fmt.Errorf("config %s: %w", cfgFile, cfgErr)
	}
	if cfg == nil {
		return config.Default(), nil
	}
	return cfg, nil
}

// OutputWriter allows capturing output in tests
type OutputWriter interface {
	Write(p []byte) (n int, err error)
}

// newLogger builds the logger from config, with command line overrides
func newLogger(c *config.Config, out io.Writer) (*slog.Logger, error) {
	opts := logging.Options{
		Level:  c.Logging.Level,
		Format: c.Logging.Format,
		Output: out,
	}
	if logLevel != "" {
		opts.Level = logLevel
	}
	if logFormat != "" {
		opts.Format = logFormat
	}
	return logging.New(opts)
}
