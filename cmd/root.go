package cmd

import (
	"fmt"
	"os"

	"github.com/mdjarv/tio"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var flags tio.FlagValues

var rootCmd = &cobra.Command{
	Use:     "tio <device>",
	Short:   "A simple, minimal but powerful serial terminal",
	Version: "0.1.0",
	Args:    cobra.MaximumNArgs(1),
	RunE:    run,
}

// Execute runs the root command, returning the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return exitCode
}

var exitCode int

func run(cmd *cobra.Command, args []string) error {
	if flags.ListDevices {
		return listDevices()
	}

	if len(args) == 0 {
		return fmt.Errorf("missing device argument")
	}
	device := args[0]

	// viper.BindPFlags (wired in init) lets TIO_-prefixed environment
	// variables stand in for the baudrate, flow, parity, socket and alert
	// flags when the user didn't pass them explicitly, without disturbing
	// cobra/pflag's own CLI parsing.
	applyViperOverrides()

	opts, err := tio.BuildOptionsFromFlags(device, &flags)
	if err != nil {
		return err
	}

	log := tio.NewLogger(os.Stderr, opts.Mute)
	session := tio.NewSession(opts, log)
	exitCode = session.Run()
	return nil
}

func listDevices() error {
	devices, err := tio.ListDevices()
	if err != nil {
		return err
	}
	for _, d := range devices {
		if d.VendorID != "" {
			fmt.Printf("%s  %s  [%s:%s]\n", d.Path, d.Description, d.VendorID, d.ProductID)
		} else {
			fmt.Printf("%s  %s\n", d.Path, d.Description)
		}
	}
	return nil
}

// applyViperOverrides fills in the baudrate, flow, parity, socket and
// alert flags, when left at their zero value, from a TIO_-prefixed
// environment variable, e.g. TIO_BAUDRATE=9600. No other flag is read
// from the environment.
func applyViperOverrides() {
	if flags.BaudRate == 0 {
		flags.BaudRate = viper.GetInt("baudrate")
	}
	if flags.Flow == "" {
		flags.Flow = viper.GetString("flow")
	}
	if flags.Parity == "" {
		flags.Parity = viper.GetString("parity")
	}
	if flags.Socket == "" {
		flags.Socket = viper.GetString("socket")
	}
	if flags.Alert == "" {
		flags.Alert = viper.GetString("alert")
	}
}

func init() {
	f := rootCmd.Flags()
	f.IntVarP(&flags.BaudRate, "baudrate", "b", 0, "Baud rate (default 115200)")
	f.IntVarP(&flags.DataBits, "databits", "d", 0, "Data bits (default 8)")
	f.StringVarP(&flags.Flow, "flow", "f", "", "Flow control: none, hard, soft")
	f.IntVarP(&flags.StopBits, "stopbits", "s", 0, "Stop bits (default 1)")
	f.StringVarP(&flags.Parity, "parity", "p", "", "Parity: none, odd, even, mark, space")
	f.IntVarP(&flags.OutputDelay, "output-delay", "o", 0, "Delay between each output character (ms)")
	f.IntVarP(&flags.OutputLineDelay, "output-line-delay", "O", 0, "Delay between each output line (ms)")
	f.IntVar(&flags.LinePulseDuration, "line-pulse-duration", 0, "Modem-line pulse duration (ms)")
	f.BoolVarP(&flags.NoAutoConnect, "no-autoconnect", "n", false, "Disable automatic reconnect")
	f.BoolVarP(&flags.LocalEcho, "local-echo", "e", false, "Enable local echo")
	f.StringVarP(&flags.Timestamp, "timestamp", "t", "", "Timestamp mode: 24hour, 24hour-start, 24hour-delta, iso8601")
	f.StringVar(&flags.Timestamp, "timestamp-format", "", "Alias of --timestamp")
	f.BoolVarP(&flags.ListDevices, "list-devices", "L", false, "List available serial devices and exit")
	f.BoolVarP(&flags.Log, "log", "l", false, "Enable logging to file")
	f.StringVar(&flags.LogFile, "log-file", "", "Log filename")
	f.BoolVar(&flags.LogStrip, "log-strip", false, "Strip ANSI/control sequences from the log")
	f.StringSliceVarP(&flags.Map, "map", "m", nil, "Comma-separated output/input byte mappings")
	f.IntVarP(&flags.Color, "color", "c", 0, "Color index for status text (0-255)")
	f.StringVarP(&flags.Socket, "socket", "S", "", "Control socket: host:port, port, or unix path")
	f.BoolVarP(&flags.Hexadecimal, "hexadecimal", "x", false, "Enable hexadecimal output")
	f.BoolVarP(&flags.ResponseWait, "response-wait", "r", false, "Exit on first response from the device")
	f.IntVar(&flags.ResponseTimeout, "response-timeout", 0, "Response-wait timeout (ms)")
	f.BoolVar(&flags.RS485, "rs-485", false, "Enable RS-485 mode")
	f.StringVar(&flags.RS485Config, "rs-485-config", "", "RS-485 config, e.g. RTS_ON_SEND=1,RTS_AFTER_SEND=0")
	f.StringVar(&flags.Alert, "alert", "", "Connect/disconnect alert: none, bell, blink")
	f.BoolVar(&flags.Mute, "mute", false, "Suppress all diagnostic output")
	f.StringVar(&flags.Script, "script", "", "Inline Lua script to run on connect")
	f.StringVar(&flags.ScriptFile, "script-file", "", "Lua script file to run on connect")
	f.StringVar(&flags.ScriptRun, "script-run", "never", "Script launch policy: never, once, always")

	viper.SetEnvPrefix("TIO")
	viper.AutomaticEnv()
	_ = viper.BindPFlags(f)
}
