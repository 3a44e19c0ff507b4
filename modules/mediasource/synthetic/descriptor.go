package synthetic

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/e7canasta/orion-media-player/modules/mediasource"
)

// DescriptorSuffix marks files that describe a synthetic source.
const DescriptorSuffix = ".testsrc.yaml"

var supportedSampleWidths = []int{1, 2}

// Descriptor describes a synthetic test-pattern source
type Descriptor struct {
	DurationS float64          `yaml:"duration_s"` // playable length in seconds
	FPS       float64          `yaml:"fps"`        // video frame rate
	Width     int              `yaml:"width"`      // frame width (default: 320)
	Height    int              `yaml:"height"`     // frame height (default: 240)
	Audio     *AudioDescriptor `yaml:"audio,omitempty"`
}

// AudioDescriptor describes the optional sine-tone audio track
type AudioDescriptor struct {
	SampleRate     int     `yaml:"sample_rate"`
	Channels       int     `yaml:"channels"`
	BytesPerSample int     `yaml:"bytes_per_sample"` // 1 or 2
	ToneHz         float64 `yaml:"tone_hz"`          // default: 440
}

// Format returns the PCM format of the track
func (a AudioDescriptor) Format() mediasource.AudioFormat {
	return mediasource.AudioFormat{
		SampleRate:     a.SampleRate,
		Channels:       a.Channels,
		BytesPerSample: a.BytesPerSample,
	}
}

// Duration returns the playable length
func (d Descriptor) Duration() time.Duration {
	return time.Duration(d.DurationS * float64(time.Second))
}

// ParseDescriptor decodes and validates a YAML descriptor.
func ParseDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, fmt.Errorf("failed to parse descriptor: %w", err)
	}
	if err := d.Validate(); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Validate checks the descriptor and fills defaults
func (d *Descriptor) Validate() error {
	if d.DurationS <= 0 {
		return fmt.Errorf("duration_s must be > 0")
	}
	if d.FPS <= 0 {
		return fmt.Errorf("fps must be > 0")
	}
	if d.Width <= 0 {
		d.Width = 320
	}
	if d.Height <= 0 {
		d.Height = 240
	}

	if d.Audio == nil {
		return nil
	}
	if d.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be > 0")
	}
	if d.Audio.Channels <= 0 {
		return fmt.Errorf("audio.channels must be > 0")
	}
	if d.Audio.BytesPerSample == 0 {
		d.Audio.BytesPerSample = 2
	}
	if !lo.Contains(supportedSampleWidths, d.Audio.BytesPerSample) {
		return fmt.Errorf("audio.bytes_per_sample must be one of %v, got %d",
			supportedSampleWidths, d.Audio.BytesPerSample)
	}
	if d.Audio.ToneHz <= 0 {
		d.Audio.ToneHz = 440
	}
	return nil
}
