package tio

import (
	"errors"
	"testing"
)

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Options)
		wantErr error
	}{
		{"defaults are valid", func(o *Options) {}, nil},
		{"negative baud rate", func(o *Options) { o.BaudRate = -1 }, ErrInvalidBaudRate},
		{"arbitrary positive baud rate is allowed", func(o *Options) { o.BaudRate = 123456 }, nil},
		{"bad databits", func(o *Options) { o.DataBits = 9 }, ErrInvalidDataBits},
		{"bad stopbits", func(o *Options) { o.StopBits = 3 }, ErrInvalidStopBits},
		{"bad parity", func(o *Options) { o.Parity = Parity(99) }, ErrInvalidParity},
		{"bad flow", func(o *Options) { o.Flow = Flow(99) }, ErrInvalidFlow},
		{"bad color index", func(o *Options) { o.ColorIndex = 999 }, ErrInvalidColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(opts)
			err := opts.Validate()
			if tt.wantErr == nil && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsToggles(t *testing.T) {
	opts := DefaultOptions()

	if got := opts.ToggleLocalEcho(); !got {
		t.Error("ToggleLocalEcho() from default false should return true")
	}
	if got := opts.ToggleLocalEcho(); got {
		t.Error("ToggleLocalEcho() twice should return to false")
	}

	if got := opts.ToggleMSB2LSB(); !got || opts.MapFlags&MapMSB2LSB == 0 {
		t.Error("ToggleMSB2LSB() should set MapMSB2LSB")
	}
	if got := opts.ToggleOLTU(); !got || opts.MapFlags&MapOLTU == 0 {
		t.Error("ToggleOLTU() should set MapOLTU")
	}

	if got := opts.CycleInputMode(); got != InputHex {
		t.Errorf("CycleInputMode() first call = %v, want InputHex", got)
	}
	if got := opts.CycleInputMode(); got != InputLine {
		t.Errorf("CycleInputMode() second call = %v, want InputLine", got)
	}
	if got := opts.CycleInputMode(); got != InputNormal {
		t.Errorf("CycleInputMode() third call = %v, want InputNormal", got)
	}

	start := opts.Timestamp
	for i := 0; i <= int(TimestampISO8601); i++ {
		opts.CycleTimestamp()
	}
	if opts.Timestamp != start {
		t.Error("CycleTimestamp() should wrap back to the starting mode after a full cycle")
	}
}

func TestParseMapFlag(t *testing.T) {
	if flag, ok := ParseMapFlag("OLTU"); !ok || flag != MapOLTU {
		t.Errorf("ParseMapFlag(OLTU) = (%v, %v), want (MapOLTU, true)", flag, ok)
	}
	if _, ok := ParseMapFlag("NOPE"); ok {
		t.Error("ParseMapFlag(NOPE) should not be ok")
	}
}

func TestOptionsSnapshotIsIndependent(t *testing.T) {
	opts := DefaultOptions()
	snap := opts.Snapshot()
	opts.ToggleLocalEcho()
	if snap.LocalEcho == opts.LocalEcho {
		t.Error("Snapshot() should not be affected by later mutation of the original")
	}
}
