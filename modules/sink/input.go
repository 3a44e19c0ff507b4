package sink

import "time"

// ChanInput is an InputSource fed through a channel. Useful for scripted
// input and for adapting event loops that push rather than poll.
type ChanInput struct {
	events chan Event
}

// NewChanInput creates an input with room for buffer pending events
func NewChanInput(buffer int) *ChanInput {
	return &ChanInput{events: make(chan Event, buffer)}
}

// Send queues ev without blocking. Returns false if the buffer is full.
func (c *ChanInput) Send(ev Event) bool {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	select {
	case c.events <- ev:
		return true
	default:
		return false
	}
}

// Key queues a key press
func (c *ChanInput) Key(name string) bool {
	return c.Send(Event{Kind: EventKey, Key: name})
}

// Click queues a mouse button press
func (c *ChanInput) Click(button int) bool {
	return c.Send(Event{Kind: EventMouse, Button: button})
}

// Poll implements InputSource.
func (c *ChanInput) Poll() (Event, bool) {
	select {
	case ev := <-c.events:
		return ev, true
	default:
		return Event{}, false
	}
}

// NoInput is an InputSource that never reports events
type NoInput struct{}

// Poll implements InputSource.
func (NoInput) Poll() (Event, bool) { return Event{}, false }
