package settings

import (
	"fmt"
	"os"
	"strings"
)

// Default audio settings, also used when the audio codec is unknown
const (
	DefaultAudioCodec = AAC
	DefaultSampleRate = 48000
	DefaultChannels   = 2
)

// Global holds settings that apply to every transcoder invocation
type Global struct {
	Overwrite  bool
	Strictness Strictness
	InputPath  string
	OutputPath string
}

// Audio holds the output audio encoding settings
type Audio struct {
	Codec      AudioCodec
	SampleRate int
	Channels   int
}

// Video holds the output video encoding settings
type Video struct {
	Codec VideoCodec
}

type state int

const (
	stateOpen state = iota
	stateValidated
	stateFailed
)

// Settings collects the settings of one pipeline run. It is mutable until
// Validate is called; Validate is a one-shot gate.
type Settings struct {
	global   Global
	audio    Audio
	video    Video
	warnings []string

	state   state
	failure error
}

// New returns settings with defaults: AAC at 48000 Hz with 2 channels,
// copied video, experimental strictness and no overwrite.
func New() *Settings {
	return &Settings{
		global: Global{Strictness: Experimental},
		audio: Audio{
			Codec:      DefaultAudioCodec,
			SampleRate: DefaultSampleRate,
			Channels:   DefaultChannels,
		},
		video: Video{Codec: Copy},
	}
}

func (s *Settings) mutable() error {
	if s.state != stateOpen {
		return ErrFrozen
	}
	return nil
}

// SetOverwrite controls whether existing output files are replaced
func (s *Settings) SetOverwrite(overwrite bool) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.global.Overwrite = overwrite
	return nil
}

// SetStrictness sets the transcoder compliance level
func (s *Settings) SetStrictness(level Strictness) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if _, ok := strictnessNames[level]; !ok {
		return fmt.Errorf("%w: unknown strictness %d", ErrInvalidConfiguration, int(level))
	}
	s.global.Strictness = level
	return nil
}

// SetInputPath records the source video after confirming it can be read
func (s *Settings) SetInputPath(path string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: cannot read input file %s: %v", ErrPermissionDenied, path, err)
	}
	info, err := f.Stat()
	f.Close()
	if err != nil {
		return fmt.Errorf("%w: cannot read input file %s: %v", ErrPermissionDenied, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: input %s is a directory", ErrInvalidConfiguration, path)
	}
	s.global.InputPath = path
	return nil
}

// SetOutputPath records where the isolated audio is written
func (s *Settings) SetOutputPath(path string) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.global.OutputPath = path
	return nil
}

// SetAudioCodec sets the output audio codec
func (s *Settings) SetAudioCodec(codec AudioCodec) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.audio.Codec = codec
	return nil
}

// SetSampleRate sets the output sample rate in Hz
func (s *Settings) SetSampleRate(rate int) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.audio.SampleRate = rate
	return nil
}

// SetChannels sets the output channel count
func (s *Settings) SetChannels(channels int) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.audio.Channels = channels
	return nil
}

// SetVideoCodec sets the output video codec. Re-encoding is slow and lossy,
// so anything but Copy records a warning.
func (s *Settings) SetVideoCodec(codec VideoCodec) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if _, ok := videoCodecNames[codec]; !ok {
		return fmt.Errorf("%w: unknown video codec %d", ErrInvalidConfiguration, int(codec))
	}
	s.video.Codec = codec
	if codec != Copy {
		s.warn("video codec %s re-encodes the video; consider copy if quality or conversion time are unacceptable", codec)
	}
	return nil
}

// Warnings returns the warnings recorded so far
func (s *Settings) Warnings() []string {
	return append([]string(nil), s.warnings...)
}

func (s *Settings) warn(format string, args ...any) {
	s.warnings = append(s.warnings, fmt.Sprintf(format, args...))
}

// Validate checks the settings against the codec constraint table.
// On success the settings are frozen and an immutable snapshot is returned.
// On failure the settings stay in the failed state and later calls return
// the same error.
func (s *Settings) Validate() (Validated, error) {
	switch s.state {
	case stateFailed:
		return Validated{}, s.failure
	case stateValidated:
		return s.snapshot(), nil
	}

	if err := s.validate(); err != nil {
		s.state = stateFailed
		s.failure = err
		return Validated{}, err
	}
	s.state = stateValidated
	return s.snapshot(), nil
}

func (s *Settings) validate() error {
	if strings.TrimSpace(s.global.InputPath) == "" {
		return fmt.Errorf("%w: input path is required", ErrInvalidConfiguration)
	}
	if strings.TrimSpace(s.global.OutputPath) == "" {
		return fmt.Errorf("%w: output path is required", ErrInvalidConfiguration)
	}

	c, ok := constraints[s.audio.Codec]
	if !ok {
		s.audio = Audio{
			Codec:      DefaultAudioCodec,
			SampleRate: DefaultSampleRate,
			Channels:   DefaultChannels,
		}
		s.warn("audio codec cannot be unknown, defaulting to %s @ %d Hz with %d channels", DefaultAudioCodec, DefaultSampleRate, DefaultChannels)
		return nil
	}
	if err := c.checkChannels(s.audio.Codec, s.audio.Channels); err != nil {
		return err
	}
	return c.checkSampleRate(s.audio.Codec, s.audio.SampleRate)
}

func (s *Settings) snapshot() Validated {
	return Validated{
		global:   s.global,
		audio:    s.audio,
		video:    s.video,
		warnings: s.Warnings(),
	}
}

// Validated is the immutable result of a successful validation
type Validated struct {
	global   Global
	audio    Audio
	video    Video
	warnings []string
}

// Global returns the global settings
func (v Validated) Global() Global { return v.global }

// Audio returns the audio settings
func (v Validated) Audio() Audio { return v.audio }

// Video returns the video settings
func (v Validated) Video() Video { return v.video }

// Warnings returns the warnings recorded up to validation
func (v Validated) Warnings() []string { return append([]string(nil), v.warnings...) }

// OverwriteFlag returns -y when existing outputs may be replaced and -n otherwise
func (v Validated) OverwriteFlag() string {
	if v.global.Overwrite {
		return "-y"
	}
	return "-n"
}
