package tio

import (
	"errors"
	"io"
	"os"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sys/unix"
)

// Session is the singleton per-run state the spec's Data Model §3
// describes: the device fd and its saved termios (owned by Port and
// Console), the rx/tx counters, the write-staging buffer (owned by
// Port), the hex-input accumulator and line-edit buffer used by the
// Command Interpreter, and the receive window used by the Script
// Bridge's expect(). It orchestrates Lifecycle & Recovery (§4.J) and
// the Event Loop (§4.G).
type Session struct {
	opts *Options
	log  *Logger

	console *Console
	pump    *InputPump
	stdout  io.Writer

	port      *Port
	lines     *LineController
	transform *Transform
	logWriter *LogWriter
	socket    *Socket

	rs485Saved   serialRS485
	rs485Enabled bool

	rxTotal atomic.Uint64
	txTotal atomic.Uint64

	connectedAt time.Time

	// Command Interpreter state (component F), kept here rather than
	// in a separate struct since it is the only consumer of most of
	// these fields and they are all part of the same per-session
	// mutable state the spec's Data Model names.
	prevByte      byte
	havePrev      bool
	sub           subState
	editBuf       []byte
	escState      escRecognizer
	scriptOnce    bool
	xferProto     Protocol
	quitRequested bool

	// exptWindow is the Script Bridge's rolling match buffer, reused
	// and Reset by each expect() call rather than reallocated.
	exptWindow *receiveWindow
}

// subState is the Command Interpreter's current sub-command, a flat
// tagged variant rather than virtual dispatch, per design note in
// spec.md §9.
type subState int

const (
	subNone subState = iota
	subLineToggle
	subLinePulse
	subXmodemChoose
	subYmodemFilename
)

// NewSession builds a Session from opts, ready to Run.
func NewSession(opts *Options, log *Logger) *Session {
	return &Session{
		opts:       opts,
		log:        log,
		console:    NewConsole(),
		stdout:     os.Stdout,
		transform:  NewTransform(opts),
		exptWindow: newReceiveWindow(2000),
	}
}

// Run is the top-level entry point: it enters raw console mode,
// starts the Input Pump, and drives Lifecycle & Recovery until the
// session exits, restoring terminal state on every path.
func (s *Session) Run() int {
	if err := s.opts.Validate(); err != nil {
		s.log.Error().Err(err).Msg("invalid configuration")
		return 1
	}

	s.console.Enter()
	defer s.console.Restore()

	pump, err := NewInputPump(os.Stdin)
	if err != nil {
		s.log.Error().Err(err).Msg("could not create input pipe")
		return 1
	}
	s.pump = pump
	go pump.Run(s.log)
	<-pump.Ready()

	if s.opts.Socket != "" {
		sock, err := NewSocket(s.opts.Socket)
		if err != nil {
			s.log.Warn().Err(err).Msg("could not start control socket")
		} else {
			s.socket = sock
			defer sock.Close()
		}
	}

	for {
		err := s.waitForDevice()
		if err != nil {
			return 1
		}

		code, reconnect := s.connectAndRun()
		if !reconnect {
			return code
		}
	}
}

// waitForDevice polls for the device to become available, grounded on
// the wait-for-device loop in §4.J: a distinct diagnostic is printed
// once per distinct errno rather than once per poll, and the poll
// interval is ~1 Hz regardless of whether stdin is interactive.
func (s *Session) waitForDevice() error {
	var lastErrno error
	for {
		fd, err := unix.Open(s.opts.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
		if err == nil {
			unix.Close(fd)
			return nil
		}
		classified := classifyOpenErr(err)
		if !errors.Is(classified, ErrDeviceNotFound) && !errors.Is(classified, ErrPermissionDenied) && !errors.Is(classified, ErrDeviceInUse) {
			s.log.Error().Err(classified).Msg("could not open device")
			return classified
		}
		if classified != lastErrno {
			s.log.Warn().Str("device", s.opts.Device).Msg("Waiting for tty device...")
			lastErrno = classified
		}
		time.Sleep(time.Second)
	}
}

// connectAndRun performs §4.J's connect sequence and then runs the
// Event Loop to completion, returning the exit status and whether the
// caller should loop back into wait-for-device (auto-connect).
func (s *Session) connectAndRun() (code int, reconnect bool) {
	if err := s.connect(); err != nil {
		s.log.Error().Err(err).Msg("could not connect")
		return 1, false
	}
	defer s.disconnect()

	if s.opts.LogEnabled && s.opts.LogFilename != "" {
		lw, err := OpenLogWriter(s.opts.LogFilename, s.opts.LogStrip)
		if err != nil {
			s.log.Warn().Err(err).Msg("could not open log file")
		} else {
			s.logWriter = lw
			defer lw.Close()
		}
	}

	s.runScriptIfDue()

	return s.eventLoop()
}

// connect implements §4.J connect: open, verify tty, flock, tcflush,
// save termios, apply termios, optional RS-485, alert-connect.
func (s *Session) connect() error {
	port, err := OpenPort(s.opts.Device, s.opts, s.log)
	if err != nil {
		return err
	}
	s.port = port
	s.lines = NewLineController(port.Fd(), s.log)
	s.transform = NewTransform(s.opts)

	if s.opts.RS485 {
		cfg, err := ParseRS485Config(s.opts.RS485Config)
		if err != nil {
			s.log.Warn().Err(err).Msg("invalid RS-485 config")
		} else if saved, err := EnableRS485(port.Fd(), cfg); err != nil {
			s.log.Warn().Err(err).Msg("RS-485 mode not supported")
		} else {
			s.rs485Saved = saved
			s.rs485Enabled = true
		}
	}

	s.connectedAt = time.Now()
	AlertConnect(s.stdout, s.opts.Alert)
	s.log.Info().Str("device", s.opts.Device).Int("baud", s.opts.BaudRate).Msg("connected")
	return nil
}

// disconnect implements §4.J disconnect: alert, RS-485 restore,
// unlock, close.
func (s *Session) disconnect() {
	if s.port == nil {
		return
	}
	AlertDisconnect(s.stdout, s.opts.Alert)
	if s.rs485Enabled {
		RestoreRS485(s.port.Fd(), s.rs485Saved)
		s.rs485Enabled = false
	}
	s.port.Close()
	s.log.Info().Msg("disconnected")
	s.port = nil
}

// runScriptIfDue launches the Script Bridge according to
// opts.ScriptPolicy: never runs no script; once runs only the first
// time connect() succeeds in this process; always runs on every
// connect.
func (s *Session) runScriptIfDue() {
	switch s.opts.ScriptPolicy {
	case ScriptNever:
		return
	case ScriptOnce:
		if s.scriptOnce {
			return
		}
		s.scriptOnce = true
	case ScriptAlways:
	}

	if s.opts.ScriptFile != "" {
		s.RunScriptFile(s.opts.ScriptFile)
	} else if s.opts.ScriptInline != "" {
		s.RunScriptInline(s.opts.ScriptInline)
	}
}
