package terminal

import "github.com/e7canasta/orion-media-player/modules/sink"

const (
	keyEsc       = 0x1b
	keyCtrlC     = 0x03
	keyBackspace = 0x7f
)

var arrows = map[byte]string{
	'A': "up",
	'B': "down",
	'C': "right",
	'D': "left",
}

// ParseKeys maps raw terminal bytes to key names. A lone ESC and Ctrl-C
// both map to sink.KeyEscape, since raw mode disables the interrupt signal.
func ParseKeys(b []byte) []string {
	var keys []string
	for i := 0; i < len(b); i++ {
		c := b[i]
		switch {
		case c == keyEsc:
			// CSI arrow sequence: ESC [ A..D
			if i+2 < len(b) && b[i+1] == '[' {
				if name, ok := arrows[b[i+2]]; ok {
					keys = append(keys, name)
					i += 2
					continue
				}
			}
			keys = append(keys, sink.KeyEscape)
		case c == keyCtrlC:
			keys = append(keys, sink.KeyEscape)
		case c == ' ':
			keys = append(keys, "space")
		case c == '\r' || c == '\n':
			keys = append(keys, "return")
		case c == '\t':
			keys = append(keys, "tab")
		case c == keyBackspace:
			keys = append(keys, "backspace")
		case c > ' ' && c < keyBackspace:
			keys = append(keys, string(rune(c)))
		}
	}
	return keys
}
