package tio

import (
	"time"
)

// reverseBits reverses the bit order of a byte, used by MSB2LSB.
func reverseBits(b byte) byte {
	var r byte
	for i := 0; i < 8; i++ {
		r <<= 1
		r |= b & 1
		b >>= 1
	}
	return r
}

// RenderAction is the result of running one device-side byte through
// Render: either a literal sequence of bytes to emit to the terminal,
// or a screen-clear request.
type RenderAction struct {
	Bytes       []byte
	ClearScreen bool
}

// Transform implements the bidirectional, order-sensitive byte mapping
// described by the Transform Pipeline, grounded on forward_to_tty and
// the device-read loop in tty.c. It is stateful only in the minimal
// ways the original is: a hex-input nibble accumulator, a
// previous-newline flag for timestamp injection, and the session's
// connect/previous timestamps.
type Transform struct {
	opts *Options

	// Render (device -> local) state.
	afterNewline bool
	sessionStart time.Time
	prevStamp    time.Time

	// Forward (local -> device) hex-input accumulator.
	hexNibbles [2]byte
	hexCount   int
}

// NewTransform ties a Transform to opts and marks "now" as the
// session's connect time for timestamp-start/delta bookkeeping.
func NewTransform(opts *Options) *Transform {
	return &Transform{opts: opts, afterNewline: true, sessionStart: time.Now()}
}

// Render runs one device-received byte through the device->local
// direction of the pipeline: MSB2LSB bit-reversal, INLCRNL/IFFESCC
// expansion, then the renderer (normal passthrough or hex), with a
// timestamp prefix injected on the first non-newline byte following a
// newline when the output mode is normal and timestamps are enabled.
func (t *Transform) Render(b byte) RenderAction {
	flags := t.opts.MapFlags
	msb := flags&MapMSB2LSB != 0

	if msb {
		b = reverseBits(b)
	}

	var out []byte
	switch {
	case flags&MapINLCRNL != 0 && b == '\n' && !msb:
		out = []byte{'\r', '\n'}
	case flags&MapIFFESCC != 0 && b == 0x0C && !msb:
		return RenderAction{ClearScreen: true}
	default:
		out = t.renderByte(b)
	}

	if t.opts.OutputMode == OutputNormal && t.opts.Timestamp != TimestampNone {
		if t.afterNewline && b != '\n' && b != '\r' {
			now := time.Now()
			prefix := timestampPrefix(t.opts.Timestamp, now, t.sessionStart, t.prevStamp)
			t.prevStamp = now
			out = append([]byte(prefix), out...)
		}
	}
	t.afterNewline = b == '\n'

	return RenderAction{Bytes: out}
}

// renderByte applies only the final renderer stage (normal passthrough
// vs. two-hex-digit rendering), with no framing bytes.
func (t *Transform) renderByte(b byte) []byte {
	if t.opts.OutputMode == OutputHex {
		return []byte(hexDigits(b))
	}
	return []byte{b}
}

const hextab = "0123456789abcdef"

func hexDigits(b byte) string {
	return string([]byte{hextab[b>>4], hextab[b&0x0f], ' '})
}

// ForwardAction is the result of running one locally-typed byte
// through Forward.
type ForwardAction struct {
	// Write, if non-nil, is the byte sequence to write to the device.
	Write []byte
	// Break requests tcsendbreak instead of a write (NUL + ONULBRK).
	Break bool
	// LocalEcho, if non-empty, is what should additionally be echoed
	// to the local terminal (used by the CRLF expansion, which echoes
	// twice per the Transform Pipeline's forward-direction rule).
	LocalEcho []byte
	// HexPending is true while a hex-mode nibble is being accumulated
	// and nothing should be written yet.
	HexPending bool
	// Invalid is true when hex-input mode received a non-hex digit.
	Invalid bool
}

// Forward runs one locally-typed byte through the local->device
// direction of the pipeline.
func (t *Transform) Forward(b byte) ForwardAction {
	flags := t.opts.MapFlags

	if b == 127 && flags&MapODELBS != 0 {
		b = '\b'
	}
	if b == '\r' && flags&MapOCRNL != 0 {
		b = '\n'
	}

	if (b == '\n' || b == '\r') && flags&MapONLCRNL != 0 {
		return ForwardAction{Write: []byte{'\r', '\n'}, LocalEcho: []byte{'\r', '\n'}}
	}

	if t.opts.InputMode == InputHex {
		return t.forwardHex(b)
	}

	if b == 0 && flags&MapONULBRK != 0 {
		return ForwardAction{Break: true}
	}

	echo := []byte{b}
	if flags&MapOLTU != 0 && b >= 'a' && b <= 'z' {
		b -= 'a' - 'A'
	}
	return ForwardAction{Write: []byte{b}, LocalEcho: echo}
}

// forwardHex accumulates two hex digits into one output byte, per the
// hex-input-mode rule in forward_to_tty/handle_hex_prompt.
func (t *Transform) forwardHex(b byte) ForwardAction {
	v, ok := hexNibble(b)
	if !ok {
		return ForwardAction{Invalid: true}
	}
	t.hexNibbles[t.hexCount] = v
	t.hexCount++
	if t.hexCount < 2 {
		return ForwardAction{HexPending: true}
	}
	out := t.hexNibbles[0]<<4 | t.hexNibbles[1]
	t.hexCount = 0
	return ForwardAction{Write: []byte{out}, LocalEcho: []byte{b}}
}

func hexNibble(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}
