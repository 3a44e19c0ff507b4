// Package player drives synchronized audio/video playback of a
// mediasource.Source against a clock.Clock.
//
// # State machine
//
//	Uninitialized ──Load──▶ Ready ──Play──▶ Playing ◀──Pause──▶ Paused
//	                          ▲                │                  │
//	                          └──────Stop──────┴──────────────────┘
//	                          ▲                │ time > duration
//	                          └──Stop── EndOfStream ◀─┘
//
// Load may be called in any state; a running session is stopped and joined
// first, but only after the new file has been opened and validated.
//
// # Pacing cycles
//
// Play launches one video task and, iff an audio format is present, one
// audio task. The video task is the pacing authority: it pre-rolls frame 0,
// starts the clock, then polls it, producing one frame per frame-index
// change. After each frame it publishes the next audio window
// [t, t+frame_interval] to a single-slot mailbox. The audio task pulls PCM
// for its current window, blocks on the mailbox, re-checks status, hands
// the chunk to the audio callback and adopts the received window. Audio
// therefore trails video by at most one frame interval.
//
// # Callback contract
//
// Callbacks run on the player's goroutines, never on the caller's.
//   - The video callback must return within roughly one frame interval and
//     must copy the frame if it keeps it.
//   - The audio callback must accept chunks whose sample count varies from
//     call to call.
//   - Calling Play or Load from a callback deadlocks (they join the running
//     tasks). Pause and Stop are safe.
//
// A callback error, like a pull error, ends the session: the status returns
// to Ready, the sibling task is woken and the error is reported by Wait and
// Err. Nothing is retried.
//
// # Shutdown
//
// Stop requests cancellation and returns immediately. Use Wait to join both
// tasks before releasing anything the callbacks use (e.g., the audio device).
package player
