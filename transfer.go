package tio

import (
	"github.com/mdjarv/tio/internal/xymodem"
)

// Protocol names a transfer protocol choice, shared between the
// Command Interpreter's 'x'/'y' sub-commands and the Script Bridge's
// modem_send().
type Protocol int

const (
	ProtocolXMODEM1K Protocol = iota
	ProtocolXMODEMCRC
	ProtocolYMODEM
)

func (p Protocol) String() string {
	switch p {
	case ProtocolXMODEM1K:
		return "XMODEM-1K"
	case ProtocolXMODEMCRC:
		return "XMODEM-CRC"
	case ProtocolYMODEM:
		return "YMODEM"
	default:
		return "?"
	}
}

func (p Protocol) xyMode() xymodem.Mode {
	switch p {
	case ProtocolXMODEMCRC:
		return xymodem.XMODEMCRC
	case ProtocolYMODEM:
		return xymodem.YMODEM
	default:
		return xymodem.XMODEM1K
	}
}

// SendFile is the thin façade over the blocking XMODEM/YMODEM sender
// spec.md §4.H calls for: it owns the device fd for the transfer's
// duration and is abortable via the Input Pump's hot-key mailbox,
// which it arms before starting and disarms on return.
func (s *Session) SendFile(path string, proto Protocol) error {
	s.pump.ArmHotkey()
	defer s.pump.Disarm()

	err := xymodem.Send(s.port, path, proto.xyMode(), s.pump.Hit)
	if err == xymodem.ErrAborted {
		return ErrTransferAborted
	}
	return err
}
