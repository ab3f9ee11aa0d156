package tio

import (
	"time"

	"golang.org/x/sys/unix"
)

// lineBits maps the six LineMask values to their TIOCM_* ioctl bits,
// grounded on tty_line_name in tty.c.
var lineBits = map[LineMask]int{
	LineDTR: unix.TIOCM_DTR,
	LineRTS: unix.TIOCM_RTS,
	LineCTS: unix.TIOCM_CTS,
	LineDSR: unix.TIOCM_DSR,
	LineDCD: unix.TIOCM_CD,
	LineRI:  unix.TIOCM_RI,
}

// deferredLine is one slot of the six-slot deferred line-configuration
// table scripts use to stage several line changes and commit them with
// a single TIOCMSET.
type deferredLine struct {
	mask     LineMask
	value    bool
	reserved bool
}

// LineController implements the modem-line set/clear/toggle/pulse
// primitives over a device file descriptor, grounded on
// tty_line_set/tty_line_toggle/tty_line_config/tty_line_config_apply in
// tty.c.
//
// Polarity follows the original exactly: Set(mask, true) *clears* the
// termios TIOCM bit and is reported (and logged) as the line going
// HIGH. This is documented as an open question in the spec with two
// readings — a latent bug, or active-low hardware semantics — and this
// implementation pins the original's behavior rather than "fixing" it,
// so that an existing tiorc script or muscle memory trained on the C
// tool keeps working unchanged.
type LineController struct {
	fd       int
	log      *Logger
	deferred [6]deferredLine
}

// NewLineController wraps fd, the open device descriptor.
func NewLineController(fd int, log *Logger) *LineController {
	return &LineController{fd: fd, log: log}
}

func (c *LineController) getState() (int, error) {
	state, err := unix.IoctlGetInt(c.fd, unix.TIOCMGET)
	if err != nil {
		c.log.Warn().Err(err).Msg("could not get line state")
		return 0, err
	}
	return state, nil
}

func (c *LineController) setState(state int) error {
	if err := unix.IoctlSetInt(c.fd, unix.TIOCMSET, state); err != nil {
		c.log.Warn().Err(err).Msg("could not set line state")
		return err
	}
	return nil
}

// Set asserts or clears one line. See the polarity note on
// LineController: value=true clears the bit and is reported as HIGH.
func (c *LineController) Set(mask LineMask, value bool) error {
	state, err := c.getState()
	if err != nil {
		return err
	}
	bit := lineBits[mask]
	if value {
		state &^= bit
		c.log.Info().Str("line", mask.String()).Msg("setting line HIGH")
	} else {
		state |= bit
		c.log.Info().Str("line", mask.String()).Msg("setting line LOW")
	}
	return c.setState(state)
}

// Toggle flips one line's current state.
func (c *LineController) Toggle(mask LineMask) error {
	state, err := c.getState()
	if err != nil {
		return err
	}
	bit := lineBits[mask]
	if state&bit != 0 {
		state &^= bit
		c.log.Info().Str("line", mask.String()).Msg("setting line HIGH")
	} else {
		state |= bit
		c.log.Info().Str("line", mask.String()).Msg("setting line LOW")
	}
	return c.setState(state)
}

// Pulse toggles mask, waits duration, then toggles it back.
func (c *LineController) Pulse(mask LineMask, duration time.Duration) error {
	if err := c.Toggle(mask); err != nil {
		return err
	}
	if duration > 0 {
		time.Sleep(duration)
	}
	return c.Toggle(mask)
}

// LineState reports the current boolean state of every modem line.
type LineState struct {
	DTR, RTS, CTS, DSR, DCD, RI bool
}

// States reads all six lines in one ioctl. Per the polarity note on
// LineController, a cleared TIOCM bit reads as HIGH (true) and a set
// bit reads as LOW (false), matching Set/Toggle/ConfigApply.
func (c *LineController) States() (LineState, error) {
	state, err := c.getState()
	if err != nil {
		return LineState{}, err
	}
	return LineState{
		DTR: state&lineBits[LineDTR] == 0,
		RTS: state&lineBits[LineRTS] == 0,
		CTS: state&lineBits[LineCTS] == 0,
		DSR: state&lineBits[LineDSR] == 0,
		DCD: state&lineBits[LineDCD] == 0,
		RI:  state&lineBits[LineRI] == 0,
	}, nil
}

// Config stages a deferred setting in the six-slot table. At most one
// entry per mask is held: a second Config call for the same mask
// overwrites the earlier one rather than growing the table, matching
// invariant (v).
func (c *LineController) Config(mask LineMask, value bool) {
	for i := range c.deferred {
		if c.deferred[i].mask == mask && c.deferred[i].reserved {
			c.deferred[i].value = value
			return
		}
	}
	for i := range c.deferred {
		if !c.deferred[i].reserved {
			c.deferred[i] = deferredLine{mask: mask, value: value, reserved: true}
			return
		}
	}
}

// ConfigApply commits every staged entry with a single TIOCMGET +
// TIOCMSET round trip and clears the table.
func (c *LineController) ConfigApply() error {
	state, err := c.getState()
	if err != nil {
		return err
	}
	for i := range c.deferred {
		entry := c.deferred[i]
		if !entry.reserved {
			continue
		}
		bit := lineBits[entry.mask]
		if entry.value {
			state &^= bit
			c.log.Info().Str("line", entry.mask.String()).Msg("setting line HIGH")
		} else {
			state |= bit
			c.log.Info().Str("line", entry.mask.String()).Msg("setting line LOW")
		}
	}
	err = c.setState(state)
	c.deferred = [6]deferredLine{}
	return err
}
