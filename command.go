package tio

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// statusStyle renders the headings of the in-session status commands
// (?, c, L, s) in the color the -c/--color flag selects. ColorIndex 0
// means "no styling", matching the teacher's behavior of only adding
// color when a user opts in.
func (s *Session) statusStyle() lipgloss.Style {
	style := lipgloss.NewStyle()
	if s.opts.ColorIndex <= 0 {
		return style
	}
	return style.Foreground(lipgloss.Color(fmt.Sprintf("%d", s.opts.ColorIndex))).Bold(true)
}

// prefixKey is ctrl-t, the key that introduces every command in the
// table below, grounded on the KEY_PREFIX default in tio.c.
const prefixKey byte = 0x14

// escRecognizer swallows the three-byte ESC '[' X sequences a cursor
// key sends, so arrow keys typed into the transfer filename prompt don't
// land in the edit buffer as literal bytes. It is deliberately not a
// general VT100 parser: anything that isn't a recognized cursor
// sequence is replayed to the caller byte-for-byte.
type escRecognizer struct {
	state escState
}

type escState int

const (
	escIdle escState = iota
	escSawEscape
	escSawBracket
)

// Feed advances the recognizer by one byte. swallow is true while the
// byte is being held as part of a possible escape sequence; replay
// holds any bytes that should now be treated as literal input because
// the sequence turned out not to be a cursor key.
func (e *escRecognizer) Feed(b byte) (swallow bool, replay []byte) {
	switch e.state {
	case escIdle:
		if b == 0x1b {
			e.state = escSawEscape
			return true, nil
		}
		return false, nil
	case escSawEscape:
		if b == '[' {
			e.state = escSawBracket
			return true, nil
		}
		e.state = escIdle
		return false, []byte{0x1b, b}
	case escSawBracket:
		e.state = escIdle
		switch b {
		case 'A', 'B', 'C', 'D':
			return true, nil
		default:
			return false, []byte{0x1b, '[', b}
		}
	}
	return false, nil
}

// receiveWindow is the fixed-capacity rolling byte buffer the Script
// Bridge's expect() matches patterns against, grounded on the
// in-memory buffer read_poll accumulates in script.c. Oldest bytes are
// dropped once the window is full.
type receiveWindow struct {
	buf []byte
	cap int
}

func newReceiveWindow(capacity int) *receiveWindow {
	return &receiveWindow{buf: make([]byte, 0, capacity), cap: capacity}
}

func (w *receiveWindow) Reset() {
	w.buf = w.buf[:0]
}

func (w *receiveWindow) Write(p []byte) {
	w.buf = append(w.buf, p...)
	if len(w.buf) > w.cap {
		w.buf = w.buf[len(w.buf)-w.cap:]
	}
}

func (w *receiveWindow) Bytes() []byte {
	return w.buf
}

// HandleInputByte is the Command Interpreter's entry point for every
// byte arriving from the Input Pump or the control socket (§4.F). It
// recognizes the prefix key and, once seen, dispatches the next byte
// against the command table; everything else is forwarded to the
// device through the Transform Pipeline, with local echo if enabled.
func (s *Session) HandleInputByte(b byte) {
	switch s.sub {
	case subLineToggle:
		s.handleLineDigit(b, false)
		return
	case subLinePulse:
		s.handleLineDigit(b, true)
		return
	case subXmodemChoose:
		s.handleProtocolDigit(b)
		return
	case subYmodemFilename:
		s.handleFilenameByte(b)
		return
	}

	if s.havePrev && s.prevByte == prefixKey {
		s.havePrev = false
		s.dispatchCommand(b)
		return
	}

	if b == prefixKey {
		s.prevByte = b
		s.havePrev = true
		return
	}

	s.forwardToDevice(b)
}

// forwardToDevice runs b through the Transform Pipeline's local→device
// direction, writes whatever it produces, and echoes locally exactly
// what the pipeline says to echo (which can differ from b itself, e.g.
// CRLF expansion or hex-input mode).
func (s *Session) forwardToDevice(b byte) {
	action := s.transform.Forward(b)
	if s.opts.LocalEcho && len(action.LocalEcho) > 0 {
		s.writeStdout(action.LocalEcho)
	}
	switch {
	case action.Break:
		if s.port != nil {
			s.port.SendBreak()
		}
	case len(action.Write) > 0:
		s.writeToDevice(action.Write)
	}
}

func (s *Session) writeToDevice(p []byte) {
	if s.port == nil {
		return
	}
	n, err := s.port.WriteBytes(p)
	if err != nil {
		s.log.Warn().Err(err).Msg("write error")
		return
	}
	s.txTotal.Add(uint64(n))
}

// dispatchCommand implements the prefix+key table of §4.F.
func (s *Session) dispatchCommand(key byte) {
	switch key {
	case '?':
		s.printHelp()
	case 'b':
		s.port.SendBreak()
	case 'c':
		s.printConfiguration()
	case 'e':
		s.opts.ToggleLocalEcho()
	case 'f':
		if !s.opts.ToggleLog() {
			if s.logWriter != nil {
				s.logWriter.Close()
				s.logWriter = nil
			}
		} else if s.logWriter == nil {
			lw, err := OpenLogWriter(s.opts.LogFilename, s.opts.LogStrip)
			if err != nil {
				s.log.Warn().Err(err).Msg("could not open log file")
			} else {
				s.logWriter = lw
			}
		}
	case 'F':
		if s.port != nil {
			s.port.FlushBoth()
		}
	case 'g':
		s.sub = subLineToggle
	case 'h':
		s.opts.ToggleHexOutput()
	case 'i':
		s.opts.CycleInputMode()
	case 'l':
		s.writeStdout([]byte{0x1b, 'c'})
	case 'L':
		s.printLineStates()
	case 'm':
		s.opts.ToggleMSB2LSB()
	case 'o':
		s.opts.CycleOutputMode()
	case 'p':
		s.sub = subLinePulse
	case 'q':
		s.quitRequested = true
	case 'r':
		if s.opts.ScriptFile != "" {
			s.RunScriptFile(s.opts.ScriptFile)
		} else if s.opts.ScriptInline != "" {
			s.RunScriptInline(s.opts.ScriptInline)
		}
	case 's':
		s.printStatistics()
	case 't':
		s.opts.CycleTimestamp()
	case 'U':
		s.opts.ToggleOLTU()
	case 'v':
		fmt.Fprintln(s.stdout, "tio")
	case 'x':
		s.sub = subXmodemChoose
	case 'y':
		s.enterYmodemPrompt()
	case 'z':
		s.printEasterEgg()
	case prefixKey:
		s.forwardToDevice(prefixKey)
	}
}

// enterYmodemPrompt implements the 'y' command: unlike 'x', it skips
// the protocol-choice sub-command entirely and goes straight to the
// filename prompt with YMODEM pre-selected.
func (s *Session) enterYmodemPrompt() {
	s.xferProto = ProtocolYMODEM
	s.editBuf = s.editBuf[:0]
	s.escState = escRecognizer{}
	s.sub = subYmodemFilename
	s.writeStdout([]byte("\r\nfile: "))
}

// handleLineDigit consumes the single digit 0-5 that follows prefix+g
// (toggle) or prefix+p (pulse), selecting the modem-control line by
// position in LineController's mask table.
func (s *Session) handleLineDigit(b byte, pulse bool) {
	s.sub = subNone
	mask, ok := digitToLineMask(b)
	if !ok || s.lines == nil {
		return
	}
	if pulse {
		s.lines.Pulse(mask, s.opts.LinePulseDuration[mask])
	} else {
		s.lines.Toggle(mask)
	}
}

func digitToLineMask(b byte) (LineMask, bool) {
	switch b {
	case '0':
		return LineDTR, true
	case '1':
		return LineRTS, true
	case '2':
		return LineCTS, true
	case '3':
		return LineDSR, true
	case '4':
		return LineDCD, true
	case '5':
		return LineRI, true
	}
	return 0, false
}

// handleProtocolDigit consumes the digit following prefix+x that picks
// the transfer protocol, then moves to collecting a filename. Only
// XMODEM-1K and XMODEM-CRC are reachable here; YMODEM goes straight to
// the filename prompt via the 'y' command instead.
func (s *Session) handleProtocolDigit(b byte) {
	switch b {
	case '0':
		s.xferProto = ProtocolXMODEM1K
	case '1':
		s.xferProto = ProtocolXMODEMCRC
	default:
		s.sub = subNone
		return
	}
	s.editBuf = s.editBuf[:0]
	s.escState = escRecognizer{}
	s.sub = subYmodemFilename
	s.writeStdout([]byte("\r\nfile: "))
}

// handleFilenameByte implements destructive backspace, arrow-key
// swallowing via escRecognizer, and CR/LF submission for the filename
// line-editor, grounded on the line-editing loop in cmd.c.
func (s *Session) handleFilenameByte(b byte) {
	if swallow, replay := s.escState.Feed(b); swallow {
		return
	} else if len(replay) > 0 {
		for _, rb := range replay {
			s.appendFilenameByte(rb)
		}
		return
	}
	s.appendFilenameByte(b)
}

func (s *Session) appendFilenameByte(b byte) {
	switch b {
	case '\r', '\n':
		filename := string(s.editBuf)
		s.editBuf = s.editBuf[:0]
		s.sub = subNone
		s.writeStdout([]byte("\r\n"))
		if filename == "" {
			return
		}
		proto := s.xferProto
		go func() {
			if err := s.SendFile(filename, proto); err != nil {
				s.log.Warn().Err(err).Str("file", filename).Msg("transfer failed")
			} else {
				s.log.Info().Str("file", filename).Msg("transfer complete")
			}
		}()
	case 0x7f, 0x08:
		if len(s.editBuf) > 0 {
			s.editBuf = s.editBuf[:len(s.editBuf)-1]
			s.writeStdout([]byte("\b \b"))
		}
	default:
		if b >= 0x20 && b < 0x7f {
			s.editBuf = append(s.editBuf, b)
			s.writeStdout([]byte{b})
		}
	}
}

func (s *Session) printHelp() {
	fmt.Fprint(s.stdout, "\r\n"+
		s.statusStyle().Render("Key commands:")+"\r\n"+
		" ctrl-t ?   List key commands\r\n"+
		" ctrl-t b   Send break\r\n"+
		" ctrl-t c   Show configuration\r\n"+
		" ctrl-t e   Toggle local echo\r\n"+
		" ctrl-t f   Toggle log to file\r\n"+
		" ctrl-t F   Flush I/O buffers\r\n"+
		" ctrl-t g   Toggle line (then 0-5)\r\n"+
		" ctrl-t h   Toggle hexadecimal output\r\n"+
		" ctrl-t i   Change input mode\r\n"+
		" ctrl-t l   Clear screen\r\n"+
		" ctrl-t L   Show line states\r\n"+
		" ctrl-t m   Toggle MSB to LSB\r\n"+
		" ctrl-t o   Change output mode\r\n"+
		" ctrl-t p   Pulse line (then 0-5)\r\n"+
		" ctrl-t q   Quit\r\n"+
		" ctrl-t r   Run script\r\n"+
		" ctrl-t s   Show statistics\r\n"+
		" ctrl-t t   Change timestamp mode\r\n"+
		" ctrl-t U   Toggle uppercase on output\r\n"+
		" ctrl-t v   Show version\r\n"+
		" ctrl-t x   Send file via XMODEM (then protocol, filename)\r\n"+
		" ctrl-t y   Send file via YMODEM (then filename)\r\n"+
		" ctrl-t z   ???\r\n"+
		" ctrl-t ctrl-t  Send the prefix key itself\r\n")
}

func (s *Session) printConfiguration() {
	snap := s.opts.Snapshot()
	fmt.Fprintf(s.stdout, "\r\n%s\r\nDevice: %s\r\nBaudrate: %d\r\nDatabits: %d\r\nStopbits: %d\r\nParity: %s\r\nFlow: %s\r\n",
		s.statusStyle().Render("Configuration:"),
		snap.Device, snap.BaudRate, snap.DataBits, snap.StopBits, snap.Parity, snap.Flow)
}

func (s *Session) printLineStates() {
	if s.lines == nil {
		return
	}
	states, err := s.lines.States()
	if err != nil {
		return
	}
	fmt.Fprintf(s.stdout, "\r\n%s\r\nDTR: %v RTS: %v CTS: %v DSR: %v DCD: %v RI: %v\r\n",
		s.statusStyle().Render("Line states:"),
		states.DTR, states.RTS, states.CTS, states.DSR, states.DCD, states.RI)
}

func (s *Session) printStatistics() {
	elapsed := time.Since(s.connectedAt).Round(time.Second)
	fmt.Fprintf(s.stdout, "\r\n%s\r\nConnected: %s  Sent: %d bytes  Received: %d bytes\r\n",
		s.statusStyle().Render("Statistics:"),
		elapsed, s.txTotal.Load(), s.rxTotal.Load())
}

func (s *Session) printEasterEgg() {
	fmt.Fprint(s.stdout, "\r\n"+
		"     .--.\r\n"+
		"    |o_o |\r\n"+
		"    |:_/ |\r\n"+
		"   //   ( )\r\n"+
		"  (|     | )\r\n"+
		"  ='===='==\r\n")
}
