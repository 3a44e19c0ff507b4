package gstreamer

import (
	"fmt"
	"log/slog"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"
)

// Kind selects which elementary stream a pipeline decodes
type Kind int

const (
	// KindVideo decodes to packed RGB24
	KindVideo Kind = iota
	// KindAudio decodes to interleaved S16LE
	KindAudio
)

// String returns a human-readable representation of the kind
func (k Kind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return "unknown"
	}
}

// Caps prefix matched against decodebin pads
func (k Kind) media() string {
	if k == KindAudio {
		return "audio/"
	}
	return "video/"
}

// PipelineConfig contains configuration for GStreamer pipeline creation
type PipelineConfig struct {
	Path string
	Kind Kind
	// MaxBuffers bounds how far decoding runs ahead of the puller (default: 4)
	MaxBuffers int
}

// PipelineElements holds references to GStreamer pipeline elements
type PipelineElements struct {
	Pipeline  *gst.Pipeline
	AppSink   *app.Sink
	DecodeBin *gst.Element
	// Converter is the first element after decodebin; its sink pad receives
	// the dynamic decodebin pad
	Converter *gst.Element
	Kind      Kind
}

// CreatePipeline creates a demand-paced decoding pipeline for one stream.
//
// Pipeline structure:
//
//	video: filesrc → decodebin → videoconvert → capsfilter(RGB) → appsink
//	audio: filesrc → decodebin → audioconvert → audioresample → capsfilter(S16LE) → appsink
//
// decodebin pads are linked in the pad-added callback. The pipeline is
// configured but NOT started (state remains NULL).
func CreatePipeline(cfg PipelineConfig) (*PipelineElements, error) {
	// Safe to call multiple times
	gst.Init(nil)

	if cfg.MaxBuffers <= 0 {
		cfg.MaxBuffers = 4
	}

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	filesrc, err := gst.NewElement("filesrc")
	if err != nil {
		return nil, fmt.Errorf("failed to create filesrc: %w", err)
	}
	filesrc.SetProperty("location", cfg.Path)

	decodebin, err := gst.NewElement("decodebin")
	if err != nil {
		return nil, fmt.Errorf("failed to create decodebin: %w", err)
	}

	var chain []*gst.Element
	switch cfg.Kind {
	case KindVideo:
		converter, err := gst.NewElement("videoconvert")
		if err != nil {
			return nil, fmt.Errorf("failed to create videoconvert: %w", err)
		}
		converter.SetProperty("n-threads", 0) // 0 = auto-detect cores
		chain = append(chain, converter)

	case KindAudio:
		converter, err := gst.NewElement("audioconvert")
		if err != nil {
			return nil, fmt.Errorf("failed to create audioconvert: %w", err)
		}
		resampler, err := gst.NewElement("audioresample")
		if err != nil {
			return nil, fmt.Errorf("failed to create audioresample: %w", err)
		}
		chain = append(chain, converter, resampler)

	default:
		return nil, fmt.Errorf("invalid stream kind: %d", cfg.Kind)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("failed to create capsfilter: %w", err)
	}
	capsfilter.SetProperty("caps", gst.NewCapsFromString(outputCaps(cfg.Kind)))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("failed to create appsink: %w", err)
	}
	appsink.SetProperty("sync", false) // Pulled on demand, not against the pipeline clock
	appsink.SetProperty("max-buffers", uint(cfg.MaxBuffers))
	appsink.SetProperty("drop", false) // Block upstream instead of losing data

	chain = append(chain, capsfilter, appsink.Element)

	if err := pipeline.AddMany(append([]*gst.Element{filesrc, decodebin}, chain...)...); err != nil {
		return nil, fmt.Errorf("failed to add %s pipeline elements: %w", cfg.Kind, err)
	}
	if err := filesrc.Link(decodebin); err != nil {
		return nil, fmt.Errorf("failed to link filesrc to decodebin: %w", err)
	}
	if err := gst.ElementLinkMany(chain...); err != nil {
		return nil, fmt.Errorf("failed to link %s pipeline elements: %w", cfg.Kind, err)
	}

	converter := chain[0]
	decodebin.Connect("pad-added", func(self *gst.Element, srcPad *gst.Pad) {
		OnPadAdded(srcPad, converter, cfg.Kind)
	})

	slog.Debug("gstreamer: pipeline created",
		"kind", cfg.Kind.String(),
		"path", cfg.Path,
		"caps", outputCaps(cfg.Kind),
		"max_buffers", cfg.MaxBuffers,
	)

	return &PipelineElements{
		Pipeline:  pipeline,
		AppSink:   appsink,
		DecodeBin: decodebin,
		Converter: converter,
		Kind:      cfg.Kind,
	}, nil
}

// DestroyPipeline cleans up GStreamer pipeline resources
//
// Safe to call even if pipeline is already destroyed.
func DestroyPipeline(elements *PipelineElements) error {
	if elements == nil || elements.Pipeline == nil {
		return nil
	}

	if err := elements.Pipeline.SetState(gst.StateNull); err != nil {
		return fmt.Errorf("failed to set pipeline to NULL: %w", err)
	}
	return nil
}

func outputCaps(kind Kind) string {
	if kind == KindAudio {
		return "audio/x-raw,format=S16LE,layout=interleaved"
	}
	return "video/x-raw,format=RGB"
}
