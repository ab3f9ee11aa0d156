package tio

import (
	"fmt"
	"io"
	"time"
)

// AlertConnect emits the configured connect notification, grounded on
// alert_connect in alert.c.
func AlertConnect(w io.Writer, mode AlertMode) {
	switch mode {
	case AlertBell:
		soundBell(w)
	case AlertBlink:
		blinkBackground(w)
	}
}

// AlertDisconnect emits the configured disconnect notification, which
// the original doubles up (two bells / two blinks) to distinguish it
// audibly/visually from a connect event.
func AlertDisconnect(w io.Writer, mode AlertMode) {
	switch mode {
	case AlertBell:
		soundBell(w)
		time.Sleep(200 * time.Millisecond)
		soundBell(w)
	case AlertBlink:
		blinkBackground(w)
		time.Sleep(200 * time.Millisecond)
		blinkBackground(w)
	}
}

func soundBell(w io.Writer) {
	fmt.Fprint(w, "\a")
}

func blinkBackground(w io.Writer) {
	fmt.Fprint(w, "\x1b[?5h")
	time.Sleep(200 * time.Millisecond)
	fmt.Fprint(w, "\x1b[?5l")
}
