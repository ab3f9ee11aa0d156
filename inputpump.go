package tio

import (
	"io"
	"os"
	"sync"

	"go.uber.org/atomic"
	"golang.org/x/sys/unix"
)

// Hot-key mailbox states, grounded on the key_hit global in tty.c.
// key_hit==0xff there means disarmed; key_hit==0 means armed and
// waiting for the abort keystroke; any other value is the captured
// byte. Go's zero value can't double as a sentinel the way C's can, so
// the captured byte is stored offset by +1 to keep 0 free for
// "armed-waiting".
const (
	hotkeyDisarmed int32 = -1
	hotkeyArmed    int32 = 0
)

// InputPump is the single cooperative worker that reads the local
// input stream into a pipe the Event Loop selects on, grounded on
// tty_stdin_input_thread in tty.c. Its only cross-task shared mutable
// field is the hot-key mailbox: the first byte seen while a blocking
// transfer has armed it is consumed (never forwarded) and read by the
// Transfer Adapter as the abort signal.
//
// The prefix+'q'/prefix+'F' recognition spec.md §4.C also assigns the
// pump is instead realised once, by the Command Interpreter, against
// bytes this pump forwards unchanged — keeping prefix-command
// recognition in the single place (component F) that already owns the
// rest of the dispatch table.
type InputPump struct {
	r  io.Reader
	pw *os.File
	pr *os.File

	hotkey atomic.Int32

	readyOnce sync.Once
	ready     chan struct{}
}

// NewInputPump creates the pipe and wraps r (typically os.Stdin).
func NewInputPump(r io.Reader) (*InputPump, error) {
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, err
	}
	p := &InputPump{r: r, pw: pw, pr: pr, ready: make(chan struct{})}
	p.hotkey.Store(hotkeyDisarmed)
	return p, nil
}

// Run reads r in BUFSIZ chunks until EOF or a fatal error, forwarding
// every byte except one consumed into the hot-key slot while armed. It
// signals readiness exactly once, after the pipe exists, so the main
// task cannot select on the pipe before it is usable.
func (p *InputPump) Run(log *Logger) {
	p.readyOnce.Do(func() { close(p.ready) })

	buf := make([]byte, writeBufSize)
	for {
		n, err := p.r.Read(buf)
		if n > 0 {
			p.forward(buf[:n])
		}
		if err != nil {
			if err == io.EOF {
				p.pw.Close()
				return
			}
			if errno, ok := err.(unix.Errno); ok && errno == unix.EINTR {
				continue
			}
			log.Warn().Err(err).Msg("could not read from stdin")
			continue
		}
	}
}

// forward consumes at most one byte into the hot-key slot (only while
// armed) and writes the remainder to the pipe untouched.
func (p *InputPump) forward(buf []byte) {
	start := 0
	if p.hotkey.Load() == hotkeyArmed && len(buf) > 0 {
		p.hotkey.Store(int32(buf[0]) + 1)
		start = 1
	}
	if start < len(buf) {
		_, _ = p.pw.Write(buf[start:])
	}
}

// Ready blocks until the pipe is created and Run has begun.
func (p *InputPump) Ready() <-chan struct{} { return p.ready }

// PipeReader exposes the read end for the Event Loop's select set.
func (p *InputPump) PipeReader() *os.File { return p.pr }

// ArmHotkey resets the mailbox to "armed, waiting" before a blocking
// transfer starts, so the next byte the pump sees is captured as the
// abort signal instead of being forwarded.
func (p *InputPump) ArmHotkey() { p.hotkey.Store(hotkeyArmed) }

// Disarm returns the mailbox to its normal, pass-everything-through
// state after a transfer completes.
func (p *InputPump) Disarm() { p.hotkey.Store(hotkeyDisarmed) }

// Hit reports whether a byte has been captured since the last
// ArmHotkey, i.e. whether the in-progress transfer should abort.
func (p *InputPump) Hit() bool {
	v := p.hotkey.Load()
	return v != hotkeyDisarmed && v != hotkeyArmed
}
