package tio

import (
	"os"
	"regexp"
	"time"

	lua "github.com/yuin/gopher-lua"
	"golang.org/x/sys/unix"
)

// Script Bridge globals, grounded on script_set_globals in script.c. The
// line constants are the raw TIOCM_* bits rather than LineMask indices,
// matching the numbers a tiorc script written against the original tool
// already uses.
var scriptLineGlobals = map[string]int{
	"DTR": unix.TIOCM_DTR,
	"RTS": unix.TIOCM_RTS,
	"CTS": unix.TIOCM_CTS,
	"DSR": unix.TIOCM_DSR,
	"CD":  unix.TIOCM_CD,
	"RI":  unix.TIOCM_RI,
}

// maskFromBit reverse-looks-up a raw TIOCM_* bit to the LineMask the
// rest of the package uses internally.
func maskFromBit(bit int) (LineMask, bool) {
	for mask, b := range lineBits {
		if b == bit {
			return mask, true
		}
	}
	return 0, false
}

// newScriptState builds a *lua.LState with the tio function table and
// line/protocol globals bound to s, grounded on lua_register_tio and
// script_set_globals in script.c.
func (s *Session) newScriptState() *lua.LState {
	L := lua.NewState()

	L.SetGlobal("sleep", L.NewFunction(s.luaSleep))
	L.SetGlobal("msleep", L.NewFunction(s.luaMSleep))
	L.SetGlobal("high", L.NewFunction(s.luaHigh))
	L.SetGlobal("low", L.NewFunction(s.luaLow))
	L.SetGlobal("toggle", L.NewFunction(s.luaToggle))
	L.SetGlobal("config_high", L.NewFunction(s.luaConfigHigh))
	L.SetGlobal("config_low", L.NewFunction(s.luaConfigLow))
	L.SetGlobal("config_apply", L.NewFunction(s.luaConfigApply))
	L.SetGlobal("modem_send", L.NewFunction(s.luaModemSend))
	L.SetGlobal("send", L.NewFunction(s.luaSend))
	L.SetGlobal("expect", L.NewFunction(s.luaExpect))
	L.SetGlobal("exit", L.NewFunction(s.luaExit))

	for name, bit := range scriptLineGlobals {
		L.SetGlobal(name, lua.LNumber(bit))
	}
	L.SetGlobal("XMODEM_1K", lua.LNumber(ProtocolXMODEM1K))
	L.SetGlobal("XMODEM_CRC", lua.LNumber(ProtocolXMODEMCRC))
	L.SetGlobal("YMODEM", lua.LNumber(ProtocolYMODEM))

	return L
}

// RunScriptFile loads and runs filename, grounded on script_file_run.
func (s *Session) RunScriptFile(filename string) error {
	if filename == "" {
		s.log.Warn().Msg("missing script filename")
		return nil
	}
	L := s.newScriptState()
	defer L.Close()

	s.log.Info().Str("file", filename).Msg("running script")
	if err := L.DoFile(filename); err != nil {
		s.log.Warn().Err(err).Msg("lua error")
		return err
	}
	return nil
}

// RunScriptInline runs src as an inline script body, grounded on
// script_buffer_run.
func (s *Session) RunScriptInline(src string) error {
	L := s.newScriptState()
	defer L.Close()

	s.log.Info().Msg("running script")
	if err := L.DoString(src); err != nil {
		s.log.Warn().Err(err).Msg("lua error")
		return err
	}
	return nil
}

func (s *Session) luaSleep(L *lua.LState) int {
	seconds := L.ToInt64(1)
	if seconds < 0 {
		return 0
	}
	s.log.Info().Msgf("sleeping %d seconds", seconds)
	time.Sleep(time.Duration(seconds) * time.Second)
	return 0
}

func (s *Session) luaMSleep(L *lua.LState) int {
	ms := L.ToInt64(1)
	if ms < 0 {
		return 0
	}
	s.log.Info().Msgf("sleeping %d ms", ms)
	time.Sleep(time.Duration(ms) * time.Millisecond)
	return 0
}

func (s *Session) luaHigh(L *lua.LState) int {
	mask, ok := maskFromBit(int(L.ToInt64(1)))
	if !ok || s.lines == nil {
		return 0
	}
	s.lines.Set(mask, true)
	return 0
}

func (s *Session) luaLow(L *lua.LState) int {
	mask, ok := maskFromBit(int(L.ToInt64(1)))
	if !ok || s.lines == nil {
		return 0
	}
	s.lines.Set(mask, false)
	return 0
}

func (s *Session) luaToggle(L *lua.LState) int {
	mask, ok := maskFromBit(int(L.ToInt64(1)))
	if !ok || s.lines == nil {
		return 0
	}
	s.lines.Toggle(mask)
	return 0
}

func (s *Session) luaConfigHigh(L *lua.LState) int {
	mask, ok := maskFromBit(int(L.ToInt64(1)))
	if !ok || s.lines == nil {
		return 0
	}
	s.lines.Config(mask, true)
	return 0
}

func (s *Session) luaConfigLow(L *lua.LState) int {
	mask, ok := maskFromBit(int(L.ToInt64(1)))
	if !ok || s.lines == nil {
		return 0
	}
	s.lines.Config(mask, false)
	return 0
}

func (s *Session) luaConfigApply(L *lua.LState) int {
	if s.lines != nil {
		s.lines.ConfigApply()
	}
	return 0
}

func (s *Session) luaModemSend(L *lua.LState) int {
	file := L.ToString(1)
	proto := Protocol(L.ToInt64(2))
	if file == "" {
		return 0
	}
	s.log.Info().Str("file", file).Str("protocol", proto.String()).Msg("sending file")
	if err := s.SendFile(file, proto); err != nil {
		s.log.Info().Msg("aborted")
	} else {
		s.log.Info().Msg("done")
	}
	return 0
}

func (s *Session) luaSend(L *lua.LState) int {
	str := L.ToString(1)
	if s.port == nil {
		L.Push(lua.LNumber(-1))
		return 1
	}
	n, err := s.port.Write([]byte(str))
	if err != nil {
		s.log.Warn().Err(err).Msg("script send failed")
	}
	L.Push(lua.LNumber(n))
	return 1
}

// luaExpect implements expect(pattern, timeout_ms) by polling the
// device fd directly, bypassing the Event Loop entirely (scripts only
// ever run before the loop starts), grounded on expect/read_poll in
// script.c. Each call starts from an empty window, per "resets buffer
// to ignore previous expect calls" there.
func (s *Session) luaExpect(L *lua.LState) int {
	pattern := L.ToString(1)
	timeoutMs := L.ToInt64(2)

	if pattern == "" || timeoutMs < 0 || s.port == nil {
		L.Push(lua.LNumber(-1))
		return 1
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		s.log.Warn().Err(err).Msg("could not compile expect pattern")
		L.Push(lua.LNumber(-1))
		return 1
	}

	window := s.exptWindow
	window.Reset()
	var deadline time.Time
	hasDeadline := timeoutMs > 0
	if hasDeadline {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}

	buf := make([]byte, 1)
	for {
		if hasDeadline && time.Now().After(deadline) {
			L.Push(lua.LNumber(0))
			return 1
		}
		n, err := s.port.Read(buf)
		if n > 0 {
			s.writeStdout(buf[:1])
			window.Write(buf[:1])
			if re.Match(window.Bytes()) {
				L.Push(lua.LNumber(1))
				return 1
			}
			continue
		}
		if err != nil && err != unix.EAGAIN {
			s.log.Warn().Err(err).Msg("expect() read error")
			L.Push(lua.LNumber(0))
			return 1
		}
		time.Sleep(time.Millisecond)
	}
}

func (s *Session) luaExit(L *lua.LState) int {
	code := int(L.ToInt64(1))
	s.console.Restore()
	os.Exit(code)
	return 0
}
