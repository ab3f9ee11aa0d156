// Package tio implements an interactive, scriptable serial-line
// terminal: raw-mode console I/O against a tty device, a bidirectional
// byte-transformation pipeline, modem-line control, file transfer over
// XMODEM/YMODEM, an embedded Lua scripting bridge, and a line-oriented
// control socket.
//
// # Basic Usage
//
//	opts := tio.DefaultOptions()
//	opts.Device = "/dev/ttyUSB0"
//	opts.BaudRate = 9600
//
//	log := tio.NewLogger(os.Stderr, false)
//	session := tio.NewSession(opts, log)
//	os.Exit(session.Run())
//
// See cmd/root.go for the full command-line flag surface.
package tio
