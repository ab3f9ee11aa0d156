package tio

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func newTestSession() (*Session, *bytes.Buffer) {
	var out bytes.Buffer
	s := &Session{
		opts:      DefaultOptions(),
		log:       NewLogger(io.Discard, true),
		stdout:    &out,
		transform: NewTransform(DefaultOptions()),
	}
	return s, &out
}

func sendCommand(s *Session, key byte) {
	s.HandleInputByte(prefixKey)
	s.HandleInputByte(key)
}

func TestDispatchCommandH_TogglesHexOutput(t *testing.T) {
	s, _ := newTestSession()
	sendCommand(s, 'h')
	if s.opts.OutputMode != OutputHex {
		t.Errorf("ctrl-t h: OutputMode = %v, want OutputHex", s.opts.OutputMode)
	}
}

func TestDispatchCommandS_PrintsStatistics(t *testing.T) {
	s, out := newTestSession()
	sendCommand(s, 's')
	if !strings.Contains(out.String(), "Sent:") {
		t.Errorf("ctrl-t s output = %q, want statistics", out.String())
	}
	if s.sub != subNone {
		t.Errorf("ctrl-t s: sub = %v, want subNone (s must not open the transfer picker)", s.sub)
	}
}

func TestDispatchCommandX_EntersXmodemChoose(t *testing.T) {
	s, _ := newTestSession()
	sendCommand(s, 'x')
	if s.sub != subXmodemChoose {
		t.Errorf("ctrl-t x: sub = %v, want subXmodemChoose", s.sub)
	}
}

func TestDispatchCommandY_GoesStraightToFilenamePrompt(t *testing.T) {
	s, out := newTestSession()
	sendCommand(s, 'y')
	if s.sub != subYmodemFilename {
		t.Errorf("ctrl-t y: sub = %v, want subYmodemFilename", s.sub)
	}
	if s.xferProto != ProtocolYMODEM {
		t.Errorf("ctrl-t y: xferProto = %v, want ProtocolYMODEM", s.xferProto)
	}
	if !strings.Contains(out.String(), "file: ") {
		t.Errorf("ctrl-t y output = %q, want a filename prompt", out.String())
	}
}

func TestDispatchCommandZ_PrintsEasterEgg(t *testing.T) {
	s, out := newTestSession()
	sendCommand(s, 'z')
	if out.Len() == 0 {
		t.Error("ctrl-t z should print something")
	}
	if strings.Contains(out.String(), "Sent:") {
		t.Error("ctrl-t z should not print statistics (that's ctrl-t s)")
	}
}

func TestHandleProtocolDigitRejectsYmodemDigit(t *testing.T) {
	s, _ := newTestSession()
	s.sub = subXmodemChoose
	s.xferProto = ProtocolXMODEM1K
	s.handleProtocolDigit('2')
	if s.sub != subNone {
		t.Errorf("handleProtocolDigit('2'): sub = %v, want subNone (not a valid xmodem-choose digit)", s.sub)
	}
	if s.xferProto != ProtocolXMODEM1K {
		t.Errorf("handleProtocolDigit('2') should not change xferProto, got %v", s.xferProto)
	}
}

func TestHandleProtocolDigitAcceptsXmodem(t *testing.T) {
	s, _ := newTestSession()
	s.sub = subXmodemChoose
	s.handleProtocolDigit('1')
	if s.xferProto != ProtocolXMODEMCRC {
		t.Errorf("handleProtocolDigit('1'): xferProto = %v, want ProtocolXMODEMCRC", s.xferProto)
	}
	if s.sub != subYmodemFilename {
		t.Errorf("handleProtocolDigit('1'): sub = %v, want subYmodemFilename", s.sub)
	}
}

func TestEscRecognizerPassthrough(t *testing.T) {
	var e escRecognizer
	swallow, replay := e.Feed('a')
	if swallow || replay != nil {
		t.Errorf("Feed('a') = (%v, %v), want (false, nil)", swallow, replay)
	}
}

func TestEscRecognizerCursorSequence(t *testing.T) {
	var e escRecognizer
	if swallow, _ := e.Feed(0x1b); !swallow {
		t.Error("Feed(ESC) should swallow")
	}
	if swallow, _ := e.Feed('['); !swallow {
		t.Error("Feed('[') should swallow")
	}
	swallow, replay := e.Feed('A')
	if !swallow || replay != nil {
		t.Errorf("Feed('A') = (%v, %v), want (true, nil)", swallow, replay)
	}
}

func TestEscRecognizerNonCursorReplay(t *testing.T) {
	var e escRecognizer
	e.Feed(0x1b)
	e.Feed('[')
	swallow, replay := e.Feed('Z')
	if swallow {
		t.Error("Feed('Z') after ESC [ should not swallow")
	}
	want := []byte{0x1b, '[', 'Z'}
	if string(replay) != string(want) {
		t.Errorf("replay = %v, want %v", replay, want)
	}
}

func TestEscRecognizerBareEscapeReplay(t *testing.T) {
	var e escRecognizer
	e.Feed(0x1b)
	swallow, replay := e.Feed('x')
	if swallow {
		t.Error("Feed('x') after bare ESC should not swallow")
	}
	want := []byte{0x1b, 'x'}
	if string(replay) != string(want) {
		t.Errorf("replay = %v, want %v", replay, want)
	}
}

func TestReceiveWindowWriteAndReset(t *testing.T) {
	w := newReceiveWindow(8)
	w.Write([]byte("abcd"))
	if string(w.Bytes()) != "abcd" {
		t.Errorf("Bytes() = %q, want %q", w.Bytes(), "abcd")
	}
	w.Reset()
	if len(w.Bytes()) != 0 {
		t.Errorf("Bytes() after Reset() = %q, want empty", w.Bytes())
	}
}

func TestReceiveWindowDropsOldest(t *testing.T) {
	w := newReceiveWindow(4)
	w.Write([]byte("abcdef"))
	if string(w.Bytes()) != "cdef" {
		t.Errorf("Bytes() = %q, want %q", w.Bytes(), "cdef")
	}
}
