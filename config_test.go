package tio

import "testing"

func TestExpandCaptureGroups(t *testing.T) {
	got := expandCaptureGroups("/dev/ttyUSB\\1", []string{"ttyUSB3", "3"})
	if got != "/dev/ttyUSB3" {
		t.Errorf("expandCaptureGroups() = %q, want %q", got, "/dev/ttyUSB3")
	}
}

func TestExpandCaptureGroupsNoMatch(t *testing.T) {
	got := expandCaptureGroups("tty=fixed", nil)
	if got != "tty=fixed" {
		t.Errorf("expandCaptureGroups() = %q, want unchanged template", got)
	}
}

func TestParseParity(t *testing.T) {
	tests := map[string]Parity{
		"odd":   ParityOdd,
		"even":  ParityEven,
		"mark":  ParityMark,
		"space": ParitySpace,
		"none":  ParityNone,
		"":      ParityNone,
		"ODD":   ParityOdd,
	}
	for input, want := range tests {
		if got := parseParity(input); got != want {
			t.Errorf("parseParity(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseFlow(t *testing.T) {
	tests := map[string]Flow{
		"hard":    FlowHard,
		"rtscts":  FlowHard,
		"soft":    FlowSoft,
		"xonxoff": FlowSoft,
		"none":    FlowNone,
	}
	for input, want := range tests {
		if got := parseFlow(input); got != want {
			t.Errorf("parseFlow(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseTimestampMode(t *testing.T) {
	tests := map[string]TimestampMode{
		"24hour":       TimestampTime24h,
		"24hour-start": TimestampTime24hStart,
		"24hour-delta": TimestampTime24hDelta,
		"iso8601":      TimestampISO8601,
		"bogus":        TimestampNone,
	}
	for input, want := range tests {
		if got := parseTimestampMode(input); got != want {
			t.Errorf("parseTimestampMode(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseAlertMode(t *testing.T) {
	tests := map[string]AlertMode{
		"bell":  AlertBell,
		"blink": AlertBlink,
		"none":  AlertNone,
		"":      AlertNone,
	}
	for input, want := range tests {
		if got := parseAlertMode(input); got != want {
			t.Errorf("parseAlertMode(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseScriptPolicy(t *testing.T) {
	tests := map[string]ScriptPolicy{
		"once":   ScriptOnce,
		"always": ScriptAlways,
		"never":  ScriptNever,
		"":       ScriptNever,
	}
	for input, want := range tests {
		if got := parseScriptPolicy(input); got != want {
			t.Errorf("parseScriptPolicy(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestBoolToOutputMode(t *testing.T) {
	if got := boolToOutputMode(true, OutputNormal); got != OutputHex {
		t.Errorf("boolToOutputMode(true, ...) = %v, want OutputHex", got)
	}
	if got := boolToOutputMode(false, OutputNormal); got != OutputNormal {
		t.Errorf("boolToOutputMode(false, OutputNormal) = %v, want OutputNormal", got)
	}
}

func TestBuildOptionsFromFlagsDefaults(t *testing.T) {
	f := &FlagValues{}
	opts, err := BuildOptionsFromFlags("/dev/ttyUSB0", f)
	if err != nil {
		t.Fatalf("BuildOptionsFromFlags() error = %v", err)
	}
	if opts.Device != "/dev/ttyUSB0" {
		t.Errorf("opts.Device = %q, want /dev/ttyUSB0", opts.Device)
	}
	if !opts.AutoConnect {
		t.Error("opts.AutoConnect should default true when NoAutoConnect is unset")
	}
}

func TestBuildOptionsFromFlagsKeepsDefaultResponseTimeout(t *testing.T) {
	f := &FlagValues{ResponseWait: true}
	opts, err := BuildOptionsFromFlags("/dev/ttyUSB0", f)
	if err != nil {
		t.Fatalf("BuildOptionsFromFlags() error = %v", err)
	}
	if opts.ResponseTimeout <= 0 {
		t.Errorf("opts.ResponseTimeout = %v, want the positive default when --response-timeout is unset", opts.ResponseTimeout)
	}
}

func TestBuildOptionsFromFlagsInvalidMap(t *testing.T) {
	f := &FlagValues{Map: []string{"NOT_A_REAL_FLAG"}}
	if _, err := BuildOptionsFromFlags("/dev/ttyUSB0", f); err != ErrInvalidMapFlag {
		t.Errorf("BuildOptionsFromFlags() error = %v, want ErrInvalidMapFlag", err)
	}
}
