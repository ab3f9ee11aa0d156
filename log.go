package tio

import (
	"io"
	"os"
	"regexp"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with the severity vocabulary the
// original tool used (tio_printf / tio_warning_printf /
// tio_error_printf), so that callers elsewhere in this package read
// like diagnostics rather than generic log statements. Mute is
// implemented by raising the level past zerolog.PanicLevel rather
// than by dropping writes, so a muted session still produces a valid
// (empty) log stream.
type Logger struct {
	zerolog.Logger
}

// NewLogger builds a console-writer logger. When mute is true, all
// levels are suppressed.
func NewLogger(w io.Writer, mute bool) *Logger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05", NoColor: false}
	level := zerolog.InfoLevel
	if mute {
		level = zerolog.Disabled
	}
	l := zerolog.New(cw).Level(level).With().Timestamp().Logger()
	return &Logger{Logger: l}
}

// NewNopLogger discards everything; useful in tests and as a safe
// default before a session's real logger is wired up.
func NewNopLogger() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

// SetMute raises or lowers the suppression level in place.
func (l *Logger) SetMute(mute bool) {
	if mute {
		l.Logger = l.Logger.Level(zerolog.Disabled)
	} else {
		l.Logger = l.Logger.Level(zerolog.InfoLevel)
	}
}

// stripPattern removes ANSI CSI sequences and other non-printable
// control bytes except newline/carriage-return/tab, used by the log
// writer's "strip" mode before bytes reach the capture file.
var stripPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]|[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)

// LogWriter appends device-rendered bytes to a capture file, optionally
// stripping ANSI escapes and control bytes first. It supplements the bare "log on/off
// with filename" option field, grounded on log.c's strip mode.
type LogWriter struct {
	file *os.File
	strip bool
}

// OpenLogWriter opens filename in append mode, creating it if absent.
func OpenLogWriter(filename string, strip bool) (*LogWriter, error) {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	return &LogWriter{file: f, strip: strip}, nil
}

// Write implements io.Writer, applying the strip transform first.
func (w *LogWriter) Write(p []byte) (int, error) {
	out := p
	if w.strip {
		out = stripPattern.ReplaceAll(p, nil)
	}
	if _, err := w.file.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close flushes and closes the underlying file.
func (w *LogWriter) Close() error {
	return w.file.Close()
}

// timestampPrefix renders the prefix injected on the first non-newline
// byte following a newline. start is the session's connect time, used
// by the *-start variant; prev is the previous timestamp emitted, used
// by the *-delta variant to show inter-line gaps.
func timestampPrefix(mode TimestampMode, now, start, prev time.Time) string {
	switch mode {
	case TimestampTime24h:
		return now.Format("15:04:05.000 ")
	case TimestampTime24hStart:
		return now.Format("15:04:05.000") + " +" + now.Sub(start).String() + " "
	case TimestampTime24hDelta:
		if prev.IsZero() {
			return now.Format("15:04:05.000") + " +0s "
		}
		return now.Format("15:04:05.000") + " +" + now.Sub(prev).String() + " "
	case TimestampISO8601:
		return now.Format(time.RFC3339Nano) + " "
	default:
		return ""
	}
}
