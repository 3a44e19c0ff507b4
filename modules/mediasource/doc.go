// Package mediasource defines the decoded-media contract consumed by the player.
//
// A Source exposes stream metadata and two time-indexed pulls:
//
//	FrameAt(t)      the video frame visible at playback time t
//	SamplesIn(r)    the interleaved PCM samples covering [r.Start, r.End)
//
// Implementations:
//   - gst:       GStreamer decoding (one pipeline per stream)
//   - synthetic: test-pattern video and sine-tone audio, described by YAML
//
// Concurrency contract: the player pulls video and audio from two different
// goroutines. FrameAt and SamplesIn MUST be safe to call concurrently with
// each other; calls on the same stream are never issued concurrently by the
// player but implementations serialize them anyway.
package mediasource
