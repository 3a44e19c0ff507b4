package gstreamer

import (
	"log/slog"
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// OnPadAdded is called by GStreamer when decodebin exposes a decoded pad.
//
// decodebin pads are not known at pipeline creation time. Only the first pad
// matching kind is linked; pads of the other media type are left unlinked.
func OnPadAdded(srcPad *gst.Pad, sinkElement *gst.Element, kind Kind) {
	caps := srcPad.GetCurrentCaps()
	if caps == nil {
		slog.Debug("gstreamer: pad-added without caps, ignoring", "pad", srcPad.GetName())
		return
	}

	capsStr := caps.String()
	if !strings.HasPrefix(capsStr, kind.media()) {
		slog.Debug("gstreamer: ignoring pad of other media type",
			"pad", srcPad.GetName(),
			"kind", kind.String(),
			"caps", capsStr,
		)
		return
	}

	sinkPad := sinkElement.GetStaticPad("sink")
	if sinkPad == nil {
		slog.Error("gstreamer: failed to get sink pad", "element", sinkElement.GetName())
		return
	}
	if sinkPad.IsLinked() {
		// Second stream of the same type (e.g., alternate audio track)
		slog.Debug("gstreamer: sink pad already linked, ignoring", "pad", srcPad.GetName())
		return
	}

	if ret := srcPad.Link(sinkPad); ret != gst.PadLinkOK {
		slog.Error("gstreamer: failed to link pads",
			"src_pad", srcPad.GetName(),
			"sink_pad", sinkPad.GetName(),
			"ret", ret,
		)
		return
	}

	slog.Debug("gstreamer: pads linked successfully",
		"kind", kind.String(),
		"src_pad", srcPad.GetName(),
		"caps", capsStr,
	)
}
