package tio

import (
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
)

// Console places the controlling terminal into raw mode on entry and
// guarantees restoration on exit, grounded on tty_configure/tty_restore
// in tty.c applied to stdin/stdout rather than the device.
type Console struct {
	stdinFd, stdoutFd     int
	savedIn, savedOut     unix.Termios
	haveIn, haveOut       bool
	interactiveIn         bool
}

// NewConsole records the stdin/stdout descriptors and whether stdin is
// a terminal. It neither reads termios nor switches to raw mode; Enter
// saves the current termios of both and then switches them to raw.
func NewConsole() *Console {
	return &Console{
		stdinFd:       int(os.Stdin.Fd()),
		stdoutFd:      int(os.Stdout.Fd()),
		interactiveIn: isatty.IsTerminal(os.Stdin.Fd()),
	}
}

// Interactive reports whether stdin is an actual terminal, as opposed
// to a pipe or redirected file.
func (c *Console) Interactive() bool { return c.interactiveIn }

// Enter disables stdout line buffering (a no-op at the fd layer in Go;
// writes are unbuffered already) and switches both stdin and stdout to
// raw mode, saving their original termios first. When stdin is not
// interactive, ISIG is re-enabled on stdout so ^C still terminates the
// process even though input is piped.
func (c *Console) Enter() error {
	if saved, err := unix.IoctlGetTermios(c.stdinFd, unix.TCGETS); err == nil {
		c.savedIn = *saved
		c.haveIn = true
		raw := *saved
		cfmakeraw(&raw)
		unix.IoctlSetTermios(c.stdinFd, unix.TCSETS, &raw)
	}

	if saved, err := unix.IoctlGetTermios(c.stdoutFd, unix.TCGETS); err == nil {
		c.savedOut = *saved
		c.haveOut = true
		raw := *saved
		cfmakeraw(&raw)
		if !c.interactiveIn {
			raw.Lflag |= unix.ISIG
		}
		unix.IoctlSetTermios(c.stdoutFd, unix.TCSETS, &raw)
	}

	return nil
}

// Restore replays the saved termios on both fds. It is idempotent and
// safe to register on every exit path (normal return, os.Exit via a
// deferred call, or a signal handler).
func (c *Console) Restore() {
	if c.haveIn {
		unix.IoctlSetTermios(c.stdinFd, unix.TCSETS, &c.savedIn)
	}
	if c.haveOut {
		unix.IoctlSetTermios(c.stdoutFd, unix.TCSETS, &c.savedOut)
	}
}

// cfmakeraw mirrors glibc's cfmakeraw: disables all input/output/line
// processing so every byte passes through untouched.
func cfmakeraw(t *unix.Termios) {
	t.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP | unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	t.Oflag &^= unix.OPOST
	t.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	t.Cflag &^= unix.CSIZE | unix.PARENB
	t.Cflag |= unix.CS8
	t.Cc[unix.VMIN] = 1
	t.Cc[unix.VTIME] = 0
}
