package tio

import (
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// deviceChunk is one read() result from the device, handed from the
// background device reader to the Event Loop.
type deviceChunk struct {
	data []byte
	err  error
}

// readDeviceLoop is the background goroutine feeding ch; it exists so
// the Event Loop can multiplex the device alongside the input pipe and
// socket using Go's native select statement, the idiomatic analogue of
// the original's poll() fan-in.
func (s *Session) readDeviceLoop(ch chan<- deviceChunk, stop <-chan struct{}) {
	buf := make([]byte, writeBufSize)
	for {
		n, err := s.port.Read(buf)
		select {
		case <-stop:
			return
		default:
		}
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			ch <- deviceChunk{data: data}
		}
		switch err {
		case nil:
			if n == 0 {
				time.Sleep(time.Millisecond)
			}
		case unix.EAGAIN, unix.EINTR:
			time.Sleep(time.Millisecond)
		case io.EOF:
			ch <- deviceChunk{err: io.EOF}
			return
		default:
			ch <- deviceChunk{err: err}
			return
		}
	}
}

// readInputLoop feeds ch with bytes read from the Input Pump's pipe,
// closing inputDone when the pipe reaches EOF.
func (s *Session) readInputLoop(ch chan<- []byte, inputDone chan<- struct{}) {
	buf := make([]byte, writeBufSize)
	for {
		n, err := s.pump.PipeReader().Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			ch <- data
		}
		if err != nil {
			close(inputDone)
			return
		}
	}
}

// eventLoop is the multiplexed readiness wait of §4.G: device, input
// pipe and socket fan in; device bytes flow through the Transform
// Pipeline to the terminal/log/socket, input and socket bytes flow
// through the Command Interpreter to the device.
func (s *Session) eventLoop() (code int, reconnect bool) {
	deviceCh := make(chan deviceChunk, 16)
	stop := make(chan struct{})
	go s.readDeviceLoop(deviceCh, stop)
	defer close(stop)

	inputCh := make(chan []byte, 16)
	inputDone := make(chan struct{})
	go s.readInputLoop(inputCh, inputDone)

	var socketCh <-chan byte
	if s.socket != nil {
		socketCh = s.socket.Bytes()
	}

	var timeout <-chan time.Time
	if s.opts.ResponseWait {
		timeout = time.After(s.opts.ResponseTimeout)
	}

	for {
		select {
		case chunk, ok := <-deviceCh:
			if !ok {
				continue
			}
			if chunk.err != nil {
				s.log.Warn().Err(chunk.err).Msg("device read error")
				if s.opts.AutoConnect {
					return 0, true
				}
				return 1, false
			}
			done := s.renderDeviceBytes(chunk.data)
			if done {
				return 0, false
			}

		case data := <-inputCh:
			for _, b := range data {
				s.HandleInputByte(b)
			}
			s.port.Sync()
			if s.quitRequested {
				return 0, false
			}

		case <-inputDone:
			s.port.Sync()
			return 0, false

		case b := <-socketCh:
			s.HandleInputByte(b)
			s.port.Sync()

		case <-timeout:
			s.log.Error().Msg("timed out waiting for a response")
			return 1, false
		}
	}
}

// renderDeviceBytes runs every byte of a device read through the
// Transform Pipeline, tees post-render bytes to the log and socket,
// and implements response-wait mode's "CR or LF flushes and exits
// success" rule. It returns true when the session should exit.
func (s *Session) renderDeviceBytes(data []byte) bool {
	s.rxTotal.Add(uint64(len(data)))

	for _, b := range data {
		action := s.transform.Render(b)
		if action.ClearScreen {
			s.writeStdout([]byte{0x1b, 'c'})
			continue
		}
		s.writeStdout(action.Bytes)
		if s.logWriter != nil {
			s.logWriter.Write(action.Bytes)
		}
		if s.socket != nil {
			s.socket.Write(action.Bytes)
		}

		if s.opts.ResponseWait && (b == '\r' || b == '\n') {
			s.port.Sync()
			return true
		}
	}
	return false
}

func (s *Session) writeStdout(p []byte) {
	if len(p) == 0 {
		return
	}
	s.stdout.Write(p)
}
