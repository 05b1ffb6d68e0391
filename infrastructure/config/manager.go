package config

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Errors for config management
var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

// ConfigManager reads and updates single config entries by dotted key
// (for example "processing.chunks") and persists every change.
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Entry is one key/value pair of the config
type Entry struct {
	Key   string
	Value string
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringField(p func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

func intField(p func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*p(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, v)
			}
			*p(c) = n
			return nil
		},
	}
}

func floatField(p func(c *Config) *float64) field {
	return field{
		get: func(c *Config) string { return strconv.FormatFloat(*p(c), 'f', -1, 64) },
		set: func(c *Config, v string) error {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%w: %q is not a number", ErrInvalidValue, v)
			}
			*p(c) = f
			return nil
		},
	}
}

func boolField(p func(c *Config) *bool) field {
	return field{
		get: func(c *Config) string { return strconv.FormatBool(*p(c)) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%w: %q is not true or false", ErrInvalidValue, v)
			}
			*p(c) = b
			return nil
		},
	}
}

var fields = map[string]field{
	"tools.ffmpeg":                  stringField(func(c *Config) *string { return &c.Tools.FFmpeg }),
	"tools.ffprobe":                 stringField(func(c *Config) *string { return &c.Tools.FFprobe }),
	"tools.deep_filter":             stringField(func(c *Config) *string { return &c.Tools.DeepFilter }),
	"processing.chunks":             intField(func(c *Config) *int { return &c.Processing.Chunks }),
	"processing.workers":            intField(func(c *Config) *int { return &c.Processing.Workers }),
	"processing.overlap_seconds":    floatField(func(c *Config) *float64 { return &c.Processing.OverlapSeconds }),
	"processing.cancel_on_failure":  boolField(func(c *Config) *bool { return &c.Processing.CancelOnFailure }),
	"processing.keep_intermediates": boolField(func(c *Config) *bool { return &c.Processing.KeepIntermediates }),
	"global.overwrite":              boolField(func(c *Config) *bool { return &c.Global.Overwrite }),
	"global.strictness":             stringField(func(c *Config) *string { return &c.Global.Strictness }),
	"audio.codec":                   stringField(func(c *Config) *string { return &c.Audio.Codec }),
	"audio.sample_rate":             intField(func(c *Config) *int { return &c.Audio.SampleRate }),
	"audio.channels":                intField(func(c *Config) *int { return &c.Audio.Channels }),
	"video.codec":                   stringField(func(c *Config) *string { return &c.Video.Codec }),
	"logging.level":                 stringField(func(c *Config) *string { return &c.Logging.Level }),
	"logging.format":                stringField(func(c *Config) *string { return &c.Logging.Format }),
	"metrics.textfile":              stringField(func(c *Config) *string { return &c.Metrics.Textfile }),
	"google.credentials_file":       stringField(func(c *Config) *string { return &c.Google.CredentialsFile }),
	"google.token_file":             stringField(func(c *Config) *string { return &c.Google.TokenFile }),
	"google.output_folder_id":       stringField(func(c *Config) *string { return &c.Google.OutputFolderID }),
}

func lookup(key string) (string, field, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	f, ok := fields[key]
	if !ok {
		return key, field{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	return key, f, nil
}

// Keys returns every settable key in sorted order
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the current value of key
func (m *ConfigManager) Get(key string) (string, error) {
	_, f, err := lookup(key)
	if err != nil {
		return "", err
	}
	return f.get(m.config), nil
}

// List returns every entry sorted by key
func (m *ConfigManager) List() []Entry {
	keys := Keys()
	result := make([]Entry, 0, len(keys))
	for _, k := range keys {
		result = append(result, Entry{Key: k, Value: fields[k].get(m.config)})
	}
	return result
}

// Set updates key and saves the file. The change is rolled back if the
// resulting config does not validate.
func (m *ConfigManager) Set(key, value string) error {
	key, f, err := lookup(key)
	if err != nil {
		return err
	}
	previous := f.get(m.config)
	if err := f.set(m.config, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if err := m.config.Validate(); err != nil {
		_ = f.set(m.config, previous)
		return err
	}
	return Save(m.config, m.configPath)
}

// Reset restores key to its default value and saves the file
func (m *ConfigManager) Reset(key string) error {
	key, f, err := lookup(key)
	if err != nil {
		return err
	}
	if err := f.set(m.config, f.get(Default())); err != nil {
		return err
	}
	return Save(m.config, m.configPath)
}
