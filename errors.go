package tio

import "errors"

// Sentinel errors, grouped by the taxonomy in the error-handling design:
// configuration errors are fatal before connect, device-present errors
// are fatal once a device is being opened, device-transient errors are
// retried by the wait-for-device loop, and device-runtime errors trigger
// disconnect.
var (
	// Configuration errors.
	ErrInvalidBaudRate = errors.New("invalid baud rate")
	ErrInvalidDataBits = errors.New("invalid data bits")
	ErrInvalidStopBits = errors.New("invalid stop bits")
	ErrInvalidParity   = errors.New("invalid parity")
	ErrInvalidFlow     = errors.New("invalid flow control")
	ErrInvalidMapFlag  = errors.New("unknown map flag")
	ErrInvalidColor    = errors.New("invalid color")
	ErrInvalidConfig   = errors.New("invalid serial configuration")
	ErrNoConfigSection = errors.New("no matching configuration section")

	// Device-present errors.
	ErrNotATTY          = errors.New("not a tty device")
	ErrDeviceLocked     = errors.New("device file is locked by another process")
	ErrTermiosGet       = errors.New("could not get port settings")
	ErrTermiosSet       = errors.New("could not apply port settings")
	ErrSetSpeed         = errors.New("could not set arbitrary baud rate")
	ErrRS485Unsupported = errors.New("RS-485 mode not supported by this device")

	// Device-transient / device-runtime errors.
	ErrDeviceNotFound   = errors.New("serial device not found")
	ErrPermissionDenied = errors.New("permission denied accessing serial device")
	ErrDeviceInUse      = errors.New("serial device already in use")
	ErrPortClosed       = errors.New("serial port is closed")

	// Timeouts.
	ErrCTSTimeout      = errors.New("CTS timeout waiting for clear to send")
	ErrWriteTimeout    = errors.New("write operation timed out")
	ErrReadTimeout     = errors.New("read operation timed out")
	ErrSignalTimeout   = errors.New("timeout waiting for signal change")
	ErrResponseTimeout = errors.New("timed out waiting for a response")

	ErrInvalidSignalMask = errors.New("invalid signal mask")

	// Script bridge errors.
	ErrScriptCompile = errors.New("script failed to compile")
	ErrScriptLoad    = errors.New("script could not be loaded")
	ErrBadPattern    = errors.New("invalid expect pattern")

	// Transfer errors.
	ErrTransferAborted = errors.New("transfer aborted")
)
