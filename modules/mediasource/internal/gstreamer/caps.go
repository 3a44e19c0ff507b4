package gstreamer

import (
	"strconv"
	"strings"
)

// CapsInfo holds the fields of a negotiated raw caps string
type CapsInfo struct {
	Media    string // e.g., "video/x-raw"
	Format   string
	Width    int
	Height   int
	FPS      float64
	Rate     int
	Channels int
}

// ParseCaps extracts raw video/audio parameters from a caps string such as
//
//	video/x-raw, format=(string)RGB, width=(int)320, height=(int)240, framerate=(fraction)25/1
//
// Unknown fields are ignored; missing fields stay zero.
func ParseCaps(s string) CapsInfo {
	var info CapsInfo

	fields := strings.Split(s, ",")
	if len(fields) == 0 {
		return info
	}
	info.Media = strings.TrimSpace(fields[0])

	for _, f := range fields[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(f), "=")
		if !ok {
			continue
		}
		// Strip the "(type)" annotation
		if i := strings.Index(value, ")"); strings.HasPrefix(value, "(") && i > 0 {
			value = value[i+1:]
		}
		value = strings.TrimSpace(strings.TrimSuffix(value, ";"))

		switch key {
		case "format":
			info.Format = value
		case "width":
			info.Width, _ = strconv.Atoi(value)
		case "height":
			info.Height, _ = strconv.Atoi(value)
		case "rate":
			info.Rate, _ = strconv.Atoi(value)
		case "channels":
			info.Channels, _ = strconv.Atoi(value)
		case "framerate":
			info.FPS = parseFraction(value)
		}
	}
	return info
}

func parseFraction(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, _ := strconv.ParseFloat(s, 64)
		return v
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

// RGBStride returns the row size GStreamer uses for packed RGB (rows are
// padded to 4 bytes).
func RGBStride(width int) int {
	return (width*3 + 3) &^ 3
}
