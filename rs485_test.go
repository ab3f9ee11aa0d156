package tio

import "testing"

func TestParseRS485Config(t *testing.T) {
	cfg, err := ParseRS485Config("RTS_ON_SEND=1,RTS_AFTER_SEND=0,RTS_DELAY_BEFORE_SEND=10,RTS_DELAY_AFTER_SEND=20,RX_DURING_TX=1")
	if err != nil {
		t.Fatalf("ParseRS485Config() error = %v", err)
	}
	if cfg.Flags&serRS485RTSOnSend == 0 {
		t.Error("expected RTS_ON_SEND bit set")
	}
	if cfg.Flags&serRS485RTSAfterSend != 0 {
		t.Error("expected RTS_AFTER_SEND bit clear")
	}
	if cfg.Flags&serRS485RxDuringTx == 0 {
		t.Error("expected RX_DURING_TX bit set")
	}
	if cfg.DelayRTSBeforeSend != 10 {
		t.Errorf("DelayRTSBeforeSend = %d, want 10", cfg.DelayRTSBeforeSend)
	}
	if cfg.DelayRTSAfterSend != 20 {
		t.Errorf("DelayRTSAfterSend = %d, want 20", cfg.DelayRTSAfterSend)
	}
}

func TestParseRS485ConfigEmpty(t *testing.T) {
	cfg, err := ParseRS485Config("")
	if err != nil {
		t.Fatalf("ParseRS485Config(\"\") error = %v", err)
	}
	if cfg.Flags != 0 {
		t.Errorf("Flags = %d, want 0", cfg.Flags)
	}
}

func TestParseRS485ConfigInvalidValue(t *testing.T) {
	if _, err := ParseRS485Config("RTS_ON_SEND=nope"); err == nil {
		t.Error("expected an error for a non-numeric value")
	}
}

func TestSetFlag(t *testing.T) {
	var flags uint32
	setFlag(&flags, serRS485Enabled, true)
	if flags&serRS485Enabled == 0 {
		t.Error("setFlag(true) should set the bit")
	}
	setFlag(&flags, serRS485Enabled, false)
	if flags&serRS485Enabled != 0 {
		t.Error("setFlag(false) should clear the bit")
	}
}
