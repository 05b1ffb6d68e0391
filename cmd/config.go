package cmd

import (
	"fmt"
	"os"

	"media-processor/infrastructure/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// DefaultOutput is the default output writer for config commands
var DefaultOutput OutputWriter = os.Stdout

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and edit the configuration",
	Long: `Show, validate and edit the configuration file. Keys use dotted names
such as processing.chunks or audio.codec.

Examples:
  media-processor config show
  media-processor config validate
  media-processor config set processing.overlap_seconds 0.5
  media-processor config get audio.codec
  media-processor config reset audio.sample_rate`,
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configResetCmd)
}

// --- SHOW command ---

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigShowWithDependencies(cfg, DefaultOutput)
	},
}

// RunConfigShowWithDependencies runs the show command with injected dependencies
func RunConfigShowWithDependencies(cfg *config.Config, out OutputWriter) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

// --- VALIDATE command ---

var validateInputPath string

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration against the codec constraints",
	Long: `Validate the configuration the same way a run does: processing values,
strictness, codecs, sample rate and channel count.

--input additionally checks that a source video can be read.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigValidateWithDependencies(cfg, validateInputPath, DefaultOutput)
	},
}

func init() {
	configValidateCmd.Flags().StringVar(&validateInputPath, "input", "", "Source video to check for readability")
}

// RunConfigValidateWithDependencies runs the validate command with injected dependencies
func RunConfigValidateWithDependencies(cfg *config.Config, inputPath string, out OutputWriter) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Without --input the paths only need to satisfy the validator
	if inputPath == "" {
		inputPath = os.DevNull
	}
	validated, err := buildSettings(cfg, inputPath, "validate.wav")
	if err != nil {
		return err
	}

	for _, w := range validated.Warnings() {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
	audio := validated.Audio()
	fmt.Fprintf(out, "Configuration is valid: audio %s %d Hz %d ch, video %s, strictness %s\n",
		audio.Codec, audio.SampleRate, audio.Channels, validated.Video().Codec, validated.Global().Strictness)
	return nil
}

// --- LIST command ---

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every config key with its value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigListWithDependencies(cfg, cfgFile, DefaultOutput)
	},
}

// RunConfigListWithDependencies runs the list command with injected dependencies
func RunConfigListWithDependencies(cfg *config.Config, configPath string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	entries := mgr.List()
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.Key, e.Value})
	}
	fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows))
	return nil
}

// --- GET command ---

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one config value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		value, err := config.NewConfigManager(cfg, cfgFile).Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(DefaultOutput, value)
		return nil
	},
}

// --- SET command ---

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Update one config value and save the file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		return RunConfigSetWithDependencies(cfg, cfgFile, args[0], args[1], DefaultOutput)
	},
}

// RunConfigSetWithDependencies runs the set command with injected dependencies
func RunConfigSetWithDependencies(cfg *config.Config, configPath, key, value string, out OutputWriter) error {
	mgr := config.NewConfigManager(cfg, configPath)
	if err := mgr.Set(key, value); err != nil {
		return err
	}
	current, _ := mgr.Get(key)
	fmt.Fprintf(out, "Set %s = %s in %s\n", key, current, configPath)
	return nil
}

// --- RESET command ---

var configResetCmd = &cobra.Command{
	Use:   "reset <key>",
	Short: "Restore one config value to its default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		mgr := config.NewConfigManager(cfg, cfgFile)
		if err := mgr.Reset(args[0]); err != nil {
			return err
		}
		current, _ := mgr.Get(args[0])
		fmt.Fprintf(DefaultOutput, "Reset %s to %s\n", args[0], current)
		return nil
	},
}
