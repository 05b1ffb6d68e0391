package cmd

import (
	"fmt"
	"os"
	"strconv"

	"media-processor/domain/settings"
	"media-processor/infrastructure/config"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
)

// Prompter interface for interactive prompts (allows mocking in tests)
type Prompter interface {
	Input(message string, defaultValue string) (string, error)
	Confirm(message string, defaultValue bool) (bool, error)
	Select(message string, options []string, defaultValue string) (string, error)
}

// SurveyPrompter implements Prompter using the survey library
type SurveyPrompter struct{}

func (p *SurveyPrompter) Input(message string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Input{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

func (p *SurveyPrompter) Confirm(message string, defaultValue bool) (bool, error) {
	result := defaultValue
	prompt := &survey.Confirm{
		Message: message,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return false, err
	}
	return result, nil
}

func (p *SurveyPrompter) Select(message string, options []string, defaultValue string) (string, error) {
	result := ""
	prompt := &survey.Select{
		Message: message,
		Options: options,
		Default: defaultValue,
	}
	if err := survey.AskOne(prompt, &result); err != nil {
		return "", err
	}
	return result, nil
}

// DefaultPrompter is the prompter used in production
var DefaultPrompter Prompter = &SurveyPrompter{}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Create configuration file interactively",
	Long: `Prompts for configuration values and writes the config file.

This command guides you through tool paths, chunking, output codecs and
the optional Google Drive folder for uploads. A path ending in .toml is
written as TOML, anything else as YAML.`,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath
	}
	return RunSetupWithPrompter(DefaultPrompter, path, os.Stdout)
}

// RunSetupWithPrompter runs the setup with a given prompter (for testing)
func RunSetupWithPrompter(prompter Prompter, configPath string, out OutputWriter) error {
	if _, err := os.Stat(configPath); err == nil {
		overwrite, err := prompter.Confirm(configPath+" already exists. Overwrite?", false)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if !overwrite {
			fmt.Fprintln(out, "Setup cancelled.")
			return nil
		}
	}

	fmt.Fprintln(out, "Welcome to media-processor setup!")
	fmt.Fprintln(out)

	cfg := config.Default()

	steps := []func(Prompter, *config.Config) error{
		promptTools,
		promptProcessing,
		promptOutput,
		promptGoogle,
	}
	for _, step := range steps {
		if err := step(prompter, cfg); err != nil {
			return err
		}
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := config.Save(cfg, configPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Configuration saved to %s\n", configPath)
	return nil
}

func promptTools(prompter Prompter, cfg *config.Config) error {
	tools := []struct {
		message string
		target  *string
	}{
		{"Path to ffmpeg?", &cfg.Tools.FFmpeg},
		{"Path to ffprobe?", &cfg.Tools.FFprobe},
		{"Path to deep-filter?", &cfg.Tools.DeepFilter},
	}
	for _, t := range tools {
		value, err := prompter.Input(t.message, *t.target)
		if err != nil {
			return fmt.Errorf("prompt cancelled")
		}
		if value != "" {
			*t.target = value
		}
	}
	return nil
}

func promptProcessing(prompter Prompter, cfg *config.Config) error {
	chunks, err := promptInt(prompter, "Number of chunks (0 = one per CPU)?", cfg.Processing.Chunks)
	if err != nil {
		return err
	}
	cfg.Processing.Chunks = chunks

	workers, err := promptInt(prompter, "Concurrent filter workers (0 = one per CPU)?", cfg.Processing.Workers)
	if err != nil {
		return err
	}
	cfg.Processing.Workers = workers

	overlap, err := prompter.Input("Chunk overlap in seconds?", strconv.FormatFloat(cfg.Processing.OverlapSeconds, 'f', -1, 64))
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if overlap != "" {
		v, err := strconv.ParseFloat(overlap, 64)
		if err != nil || v <= 0 {
			return fmt.Errorf("overlap must be a positive number, got %q", overlap)
		}
		cfg.Processing.OverlapSeconds = v
	}
	return nil
}

func promptOutput(prompter Prompter, cfg *config.Config) error {
	codec, err := prompter.Select("Audio codec for muxed video?", settings.AudioCodecNames(), cfg.Audio.Codec)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Audio.Codec = codec

	rate, err := promptInt(prompter, "Audio sample rate?", cfg.Audio.SampleRate)
	if err != nil {
		return err
	}
	cfg.Audio.SampleRate = rate

	channels, err := promptInt(prompter, "Audio channels?", cfg.Audio.Channels)
	if err != nil {
		return err
	}
	cfg.Audio.Channels = channels

	video, err := prompter.Select("Video codec for muxed video?", settings.VideoCodecNames(), cfg.Video.Codec)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Video.Codec = video

	overwrite, err := prompter.Confirm("Overwrite existing outputs?", cfg.Global.Overwrite)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	cfg.Global.Overwrite = overwrite
	return nil
}

func promptGoogle(prompter Prompter, cfg *config.Config) error {
	enable, err := prompter.Confirm("Upload results to Google Drive?", false)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if !enable {
		return nil
	}

	credentials, err := prompter.Input("Path to Google credentials file?", cfg.Google.CredentialsFile)
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if credentials != "" {
		cfg.Google.CredentialsFile = credentials
	}

	folder, err := prompter.Input("Google Drive folder ID for results?", "")
	if err != nil {
		return fmt.Errorf("prompt cancelled")
	}
	if folder == "" {
		return fmt.Errorf("folder ID is required")
	}
	cfg.Google.OutputFolderID = folder

	return nil
}

func promptInt(prompter Prompter, message string, defaultValue int) (int, error) {
	answer, err := prompter.Input(message, strconv.Itoa(defaultValue))
	if err != nil {
		return 0, fmt.Errorf("prompt cancelled")
	}
	if answer == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(answer)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("expected a non-negative whole number, got %q", answer)
	}
	return v, nil
}
