package tio

import (
	"bytes"
	"strings"
	"testing"
)

func TestAlertConnectBell(t *testing.T) {
	var buf bytes.Buffer
	AlertConnect(&buf, AlertBell)
	if buf.String() != "\a" {
		t.Errorf("AlertConnect(bell) wrote %q, want a single bell", buf.String())
	}
}

func TestAlertConnectNone(t *testing.T) {
	var buf bytes.Buffer
	AlertConnect(&buf, AlertNone)
	if buf.Len() != 0 {
		t.Errorf("AlertConnect(none) wrote %q, want nothing", buf.String())
	}
}

func TestAlertDisconnectDoublesBell(t *testing.T) {
	var buf bytes.Buffer
	AlertDisconnect(&buf, AlertBell)
	if got := strings.Count(buf.String(), "\a"); got != 2 {
		t.Errorf("AlertDisconnect(bell) wrote %d bells, want 2", got)
	}
}
