package gstreamer

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// ErrorCategory represents the classification of GStreamer errors
type ErrorCategory int

const (
	// ErrCategoryNotFound indicates the file could not be located or read
	ErrCategoryNotFound ErrorCategory = iota
	// ErrCategoryCodec indicates decode failures (unknown container, missing plugin, corrupt data)
	ErrCategoryCodec
	// ErrCategoryUnknown indicates unclassified errors
	ErrCategoryUnknown
)

// String returns a human-readable string representation of the error category
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryNotFound:
		return "not_found"
	case ErrCategoryCodec:
		return "codec"
	default:
		return "unknown"
	}
}

var notFoundKeywords = []string{
	"not found",
	"no such file",
	"could not open resource",
	"resource not found",
	"permission denied",
}

var codecKeywords = []string{
	"codec",
	"decode",
	"demux",
	"format",
	"negotiation",
	"not negotiated",
	"caps",
	"no decoder",
	"missing plugin",
	"could not determine type",
	"stream doesn't contain enough data",
	"internal data stream error",
}

// ClassifyGStreamerError analyzes a GStreamer error and categorizes it.
//
// go-gst's GError does not expose Domain(), so classification relies on
// string matching of the message and debug string.
func ClassifyGStreamerError(gerr *gst.GError) ErrorCategory {
	if gerr == nil {
		return ErrCategoryUnknown
	}
	return ClassifyError(gerr.Error(), gerr.DebugString())
}

// ClassifyError categorizes an error from its message and debug string.
// Not-found is checked first: it is the most specific.
func ClassifyError(errMsg, debugStr string) ErrorCategory {
	combined := strings.ToLower(errMsg + " " + debugStr)

	if containsAny(combined, notFoundKeywords) {
		return ErrCategoryNotFound
	}
	if containsAny(combined, codecKeywords) {
		return ErrCategoryCodec
	}
	return ErrCategoryUnknown
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
