package settings

import (
	"fmt"
	"slices"
	"strings"
)

// AudioCodec identifies the audio encoder passed to the transcoder
type AudioCodec int

const (
	AAC AudioCodec = iota
	MP3
	FLAC
	Opus
	UnknownAudioCodec
)

// VideoCodec identifies the video encoder passed to the transcoder
type VideoCodec int

const (
	H264 VideoCodec = iota
	H265
	VP8
	VP9
	Copy
)

// Strictness is the transcoder's standards compliance level
type Strictness int

const (
	Very Strictness = iota
	Strict
	Normal
	Unofficial
	Experimental
)

type codecName struct {
	name    string // canonical, used in config files
	encoder string // transcoder argument
}

var audioCodecNames = map[AudioCodec]codecName{
	AAC:               {"aac", "aac"},
	MP3:               {"mp3", "libmp3lame"},
	FLAC:              {"flac", "flac"},
	Opus:              {"opus", "libopus"},
	UnknownAudioCodec: {"unknown", "unknown"},
}

var videoCodecNames = map[VideoCodec]codecName{
	H264: {"h264", "libx264"},
	H265: {"h265", "libx265"},
	VP8:  {"vp8", "libvpx"},
	VP9:  {"vp9", "libvpx-vp9"},
	Copy: {"copy", "copy"},
}

var strictnessNames = map[Strictness]string{
	Very:         "very",
	Strict:       "strict",
	Normal:       "normal",
	Unofficial:   "unofficial",
	Experimental: "experimental",
}

func (c AudioCodec) String() string {
	if n, ok := audioCodecNames[c]; ok {
		return n.name
	}
	return audioCodecNames[UnknownAudioCodec].name
}

// Encoder returns the transcoder's encoder name for the codec
func (c AudioCodec) Encoder() string {
	if n, ok := audioCodecNames[c]; ok {
		return n.encoder
	}
	return audioCodecNames[UnknownAudioCodec].encoder
}

func (c VideoCodec) String() string {
	if n, ok := videoCodecNames[c]; ok {
		return n.name
	}
	return fmt.Sprintf("VideoCodec(%d)", int(c))
}

// Encoder returns the transcoder's encoder name for the codec
func (c VideoCodec) Encoder() string {
	return videoCodecNames[c].encoder
}

func (s Strictness) String() string {
	if n, ok := strictnessNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Strictness(%d)", int(s))
}

// ParseAudioCodec maps a codec name to an AudioCodec.
// Unrecognised names yield UnknownAudioCodec, which validation replaces with AAC.
func ParseAudioCodec(s string) AudioCodec {
	s = strings.ToLower(strings.TrimSpace(s))
	for codec, n := range audioCodecNames {
		if s == n.name || s == n.encoder {
			return codec
		}
	}
	return UnknownAudioCodec
}

// ParseVideoCodec maps a codec name to a VideoCodec
func ParseVideoCodec(s string) (VideoCodec, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for codec, n := range videoCodecNames {
		if s == n.name || s == n.encoder {
			return codec, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown video codec %q (accepted: %s)", ErrInvalidConfiguration, s, strings.Join(VideoCodecNames(), ", "))
}

// ParseStrictness maps a strictness name to a Strictness
func ParseStrictness(s string) (Strictness, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for level, n := range strictnessNames {
		if s == n {
			return level, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown strictness %q (accepted: %s)", ErrInvalidConfiguration, s, strings.Join(StrictnessNames(), ", "))
}

// AudioCodecNames lists the selectable audio codec names
func AudioCodecNames() []string {
	return []string{AAC.String(), MP3.String(), FLAC.String(), Opus.String()}
}

// VideoCodecNames lists the selectable video codec names
func VideoCodecNames() []string {
	return []string{H264.String(), H265.String(), VP8.String(), VP9.String(), Copy.String()}
}

// StrictnessNames lists the strictness levels from most to least strict
func StrictnessNames() []string {
	return []string{Very.String(), Strict.String(), Normal.String(), Unofficial.String(), Experimental.String()}
}

// constraint holds the transcoder limits for one audio codec.
// Either sampleRates or maxSampleRate is set.
type constraint struct {
	maxChannels   int
	sampleRates   []int
	maxSampleRate int
}

var constraints = map[AudioCodec]constraint{
	AAC: {
		maxChannels: 8,
		sampleRates: []int{7350, 8000, 11025, 12000, 16000, 22050, 24000, 32000, 44100, 48000, 64000, 88200, 96000},
	},
	MP3: {
		maxChannels: 2,
		sampleRates: []int{8000, 11025, 12000, 16000, 22050, 24000, 32000, 44100, 48000},
	},
	FLAC: {
		maxChannels:   8,
		maxSampleRate: 1048575,
	},
	Opus: {
		maxChannels: 8,
		sampleRates: []int{8000, 12000, 16000, 24000, 48000},
	},
}

func (c constraint) checkChannels(codec AudioCodec, channels int) error {
	if channels < 1 || channels > c.maxChannels {
		return fmt.Errorf("%w: %s supports 1 to %d channels, got %d", ErrInvalidConfiguration, codec, c.maxChannels, channels)
	}
	return nil
}

func (c constraint) checkSampleRate(codec AudioCodec, rate int) error {
	if c.sampleRates == nil {
		if rate < 1 || rate > c.maxSampleRate {
			return fmt.Errorf("%w: %s sample rate %d Hz out of range, maximum is %d Hz", ErrInvalidConfiguration, codec, rate, c.maxSampleRate)
		}
		return nil
	}
	if !slices.Contains(c.sampleRates, rate) {
		accepted := make([]string, len(c.sampleRates))
		for i, r := range c.sampleRates {
			accepted[i] = fmt.Sprint(r)
		}
		return fmt.Errorf("%w: %s sample rate %d Hz not supported, accepted: %s", ErrInvalidConfiguration, codec, rate, strings.Join(accepted, " "))
	}
	return nil
}
