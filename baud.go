package tio

import (
	"golang.org/x/sys/unix"
)

// standardBaudRates maps the host's fixed B* termios constants to the
// integer rates they represent. Any rate not in this table is still
// accepted by Options.Validate; the Device Port falls back to the
// termios2/BOTHER arbitrary-speed path for it.
var standardBaudRates = map[int]uint32{
	50:      unix.B50,
	75:      unix.B75,
	110:     unix.B110,
	134:     unix.B134,
	150:     unix.B150,
	200:     unix.B200,
	300:     unix.B300,
	600:     unix.B600,
	1200:    unix.B1200,
	1800:    unix.B1800,
	2400:    unix.B2400,
	4800:    unix.B4800,
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	500000:  unix.B500000,
	576000:  unix.B576000,
	921600:  unix.B921600,
	1000000: unix.B1000000,
	1152000: unix.B1152000,
	1500000: unix.B1500000,
	2000000: unix.B2000000,
	2500000: unix.B2500000,
	3000000: unix.B3000000,
	3500000: unix.B3500000,
	4000000: unix.B4000000,
}

// baudToTermios looks up the fixed termios speed constant for rate, if
// the host's kernel headers define one.
func baudToTermios(rate int) (uint32, error) {
	speed, ok := standardBaudRates[rate]
	if !ok {
		return 0, ErrInvalidBaudRate
	}
	return speed, nil
}

// isStandardBaudRate reports whether rate has a fixed B* constant, as
// opposed to needing the termios2/BOTHER arbitrary-speed path.
func isStandardBaudRate(rate int) bool {
	_, ok := standardBaudRates[rate]
	return ok
}

// setArbitrarySpeed applies a baud rate with no fixed B* constant using
// the Linux termios2 interface (TCGETS2/TCSETS2, BOTHER), grounded on
// setspeed.c's HAVE_TERMIOS2 branch. ispeed/ospeed on the termios2
// structure must be copied from the previously-saved termios before
// this call, matching the original's comment about OS quirks around
// arbitrary speed application.
func setArbitrarySpeed(fd int, rate int) error {
	t2, err := unix.IoctlGetTermios(fd, unix.TCGETS2)
	if err != nil {
		return ErrSetSpeed
	}
	t2.Cflag &^= unix.CBAUD
	t2.Cflag |= unix.BOTHER
	t2.Ispeed = uint32(rate)
	t2.Ospeed = uint32(rate)
	if err := unix.IoctlSetTermios(fd, unix.TCSETS2, t2); err != nil {
		return ErrSetSpeed
	}
	return nil
}
