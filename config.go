package tio

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// LoadConfigFile resolves and parses the first of $XDG_CONFIG_HOME/tio/tiorc,
// $HOME/.config/tio/tiorc, $HOME/.tiorc that exists, grounded on the
// resolution order in configfile.c. It returns nil, nil when none exist:
// a missing config file is not an error.
func LoadConfigFile() (*ini.File, error) {
	path := resolveConfigPath()
	if path == "" {
		return nil, nil
	}
	return ini.Load(path)
}

func resolveConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		if p := filepath.Join(xdg, "tio", "tiorc"); fileExists(p) {
			return p
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	if p := filepath.Join(home, ".config", "tio", "tiorc"); fileExists(p) {
		return p
	}
	if p := filepath.Join(home, ".tiorc"); fileExists(p) {
		return p
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// ApplyConfigSection looks up device against every named section's
// `pattern=` key (plain substring match first, then as an extended
// regular expression whose capture groups substitute into that
// section's `tty=` value) and, on a match, overlays the section's
// baudrate, databits, stopbits, parity and flow keys onto opts; other
// keys in the section are not applied. Grounded on configfile_parse's two-pass
// matching rule in configfile.c.
func ApplyConfigSection(file *ini.File, device string, opts *Options) error {
	if file == nil {
		return nil
	}
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		pattern := section.Key("pattern").String()
		if pattern == "" {
			continue
		}

		resolvedDevice := device
		matched := false
		if strings.Contains(device, pattern) {
			matched = true
		} else if re, err := regexp.Compile(pattern); err == nil {
			if groups := re.FindStringSubmatch(device); groups != nil {
				if tty := section.Key("tty").String(); tty != "" {
					resolvedDevice = expandCaptureGroups(tty, groups)
				}
				matched = true
			}
		}
		if !matched {
			continue
		}

		opts.Device = resolvedDevice
		applySectionKeys(section, opts)
		return nil
	}
	return ErrNoConfigSection
}

func expandCaptureGroups(template string, groups []string) string {
	out := template
	for i := len(groups) - 1; i >= 1; i-- {
		out = strings.ReplaceAll(out, fmt.Sprintf("\\%d", i), groups[i])
	}
	return out
}

func applySectionKeys(section *ini.Section, opts *Options) {
	if section.HasKey("baudrate") {
		opts.BaudRate, _ = section.Key("baudrate").Int()
	}
	if section.HasKey("databits") {
		opts.DataBits, _ = section.Key("databits").Int()
	}
	if section.HasKey("stopbits") {
		opts.StopBits, _ = section.Key("stopbits").Int()
	}
	if section.HasKey("parity") {
		opts.Parity = parseParity(section.Key("parity").String())
	}
	if section.HasKey("flow") {
		opts.Flow = parseFlow(section.Key("flow").String())
	}
}

func parseParity(s string) Parity {
	switch strings.ToLower(s) {
	case "odd":
		return ParityOdd
	case "even":
		return ParityEven
	case "mark":
		return ParityMark
	case "space":
		return ParitySpace
	default:
		return ParityNone
	}
}

func parseFlow(s string) Flow {
	switch strings.ToLower(s) {
	case "hard", "rtscts":
		return FlowHard
	case "soft", "xonxoff":
		return FlowSoft
	default:
		return FlowNone
	}
}

// FlagValues is the plain-data shape cmd/root.go fills in from pflag
// bindings; it exists so the cobra wiring (which must live in package
// main/cmd to avoid an import cycle) stays a thin translation layer
// over the real Options-building logic here.
type FlagValues struct {
	BaudRate          int
	DataBits          int
	StopBits          int
	Parity            string
	Flow              string
	OutputDelay       int
	OutputLineDelay   int
	LinePulseDuration int
	NoAutoConnect     bool
	LocalEcho         bool
	Timestamp         string
	ListDevices       bool
	Log               bool
	LogFile           string
	LogStrip          bool
	Map               []string
	Color             int
	Socket            string
	Hexadecimal       bool
	ResponseWait      bool
	ResponseTimeout   int
	RS485             bool
	RS485Config       string
	Alert             string
	Mute              bool
	Script            string
	ScriptFile        string
	ScriptRun         string
}

// BuildOptionsFromFlags is the single translation point from the cobra
// flag set to an Options record: defaults, then config file, then CLI
// flags, in that override order, per §4.L.
func BuildOptionsFromFlags(device string, f *FlagValues) (*Options, error) {
	opts := DefaultOptions()
	opts.Device = device

	if cfg, err := LoadConfigFile(); err == nil && cfg != nil {
		_ = ApplyConfigSection(cfg, device, opts)
	}

	if f.BaudRate != 0 {
		opts.BaudRate = f.BaudRate
	}
	if f.DataBits != 0 {
		opts.DataBits = f.DataBits
	}
	if f.StopBits != 0 {
		opts.StopBits = f.StopBits
	}
	if f.Parity != "" {
		opts.Parity = parseParity(f.Parity)
	}
	if f.Flow != "" {
		opts.Flow = parseFlow(f.Flow)
	}

	opts.OutputDelay = time.Duration(f.OutputDelay) * time.Millisecond
	opts.OutputLineDelay = time.Duration(f.OutputLineDelay) * time.Millisecond
	if f.LinePulseDuration > 0 {
		d := time.Duration(f.LinePulseDuration) * time.Millisecond
		for mask := range opts.LinePulseDuration {
			opts.LinePulseDuration[mask] = d
		}
	}

	opts.AutoConnect = !f.NoAutoConnect
	opts.LocalEcho = f.LocalEcho

	if f.Timestamp != "" {
		opts.Timestamp = parseTimestampMode(f.Timestamp)
	}

	opts.LogEnabled = f.Log
	opts.LogFilename = f.LogFile
	opts.LogStrip = f.LogStrip

	for _, name := range f.Map {
		if flag, ok := ParseMapFlag(name); ok {
			opts.MapFlags |= flag
		} else {
			return nil, ErrInvalidMapFlag
		}
	}

	opts.ColorIndex = f.Color
	opts.Socket = f.Socket
	opts.OutputMode = boolToOutputMode(f.Hexadecimal, opts.OutputMode)

	opts.ResponseWait = f.ResponseWait
	if f.ResponseTimeout > 0 {
		opts.ResponseTimeout = time.Duration(f.ResponseTimeout) * time.Millisecond
	}

	opts.RS485 = f.RS485
	opts.RS485Config = f.RS485Config

	if f.Alert != "" {
		opts.Alert = parseAlertMode(f.Alert)
	}
	opts.Mute = f.Mute

	opts.ScriptFile = f.ScriptFile
	opts.ScriptInline = f.Script
	opts.ScriptPolicy = parseScriptPolicy(f.ScriptRun)

	return opts, opts.Validate()
}

func boolToOutputMode(hex bool, current OutputMode) OutputMode {
	if hex {
		return OutputHex
	}
	return current
}

func parseTimestampMode(s string) TimestampMode {
	switch strings.ToLower(s) {
	case "24hour":
		return TimestampTime24h
	case "24hour-start":
		return TimestampTime24hStart
	case "24hour-delta":
		return TimestampTime24hDelta
	case "iso8601":
		return TimestampISO8601
	default:
		return TimestampNone
	}
}

func parseAlertMode(s string) AlertMode {
	switch strings.ToLower(s) {
	case "bell":
		return AlertBell
	case "blink":
		return AlertBlink
	default:
		return AlertNone
	}
}

func parseScriptPolicy(s string) ScriptPolicy {
	switch strings.ToLower(s) {
	case "once":
		return ScriptOnce
	case "always":
		return ScriptAlways
	default:
		return ScriptNever
	}
}
