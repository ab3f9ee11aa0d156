package tio

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DeviceInfo describes one entry in the -L/--list-devices catalog.
type DeviceInfo struct {
	Path         string
	Description  string
	VendorID     string
	ProductID    string
	SerialNumber string
}

var serialDevicePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^ttyUSB\d+$`),
	regexp.MustCompile(`^ttyACM\d+$`),
	regexp.MustCompile(`^ttyS\d+$`),
	regexp.MustCompile(`^ttyAMA\d+$`),
	regexp.MustCompile(`^ttymxc\d+$`),
	regexp.MustCompile(`^ttyO\d+$`),
	regexp.MustCompile(`^ttySAC\d+$`),
	regexp.MustCompile(`^ttyTHS\d+$`),
}

// ListDevices scans /dev for serial character devices, grounded on
// ListPorts in the teacher's list.go.
func ListDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir("/dev")
	if err != nil {
		return nil, err
	}

	var out []DeviceInfo
	for _, entry := range entries {
		name := entry.Name()
		matched := false
		for _, pattern := range serialDevicePatterns {
			if pattern.MatchString(name) {
				matched = true
				break
			}
		}
		if !matched {
			continue
		}
		path := filepath.Join("/dev", name)
		if !isCharacterDevice(path) {
			continue
		}
		out = append(out, describeDevice(name, path))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func isCharacterDevice(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func describeDevice(name, path string) DeviceInfo {
	info := DeviceInfo{Path: path, Description: deviceDescription(name)}
	if strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM") {
		enrichUSBInfo(name, &info)
	}
	return info
}

func deviceDescription(name string) string {
	switch {
	case strings.HasPrefix(name, "ttyUSB"):
		return "USB Serial Port"
	case strings.HasPrefix(name, "ttyACM"):
		return "USB CDC/ACM Device"
	case strings.HasPrefix(name, "ttyAMA"):
		return "ARM Serial Port"
	case strings.HasPrefix(name, "ttymxc"):
		return "i.MX Serial Port"
	case strings.HasPrefix(name, "ttySAC"):
		return "Samsung Serial Port"
	case strings.HasPrefix(name, "ttyTHS"):
		return "Tegra Serial Port"
	case strings.HasPrefix(name, "ttyO"):
		return "OMAP Serial Port"
	case strings.HasPrefix(name, "ttyS"):
		return "Standard Serial Port"
	default:
		return "Serial Port"
	}
}

// enrichUSBInfo walks the /sys/class/tty/<name>/device symlink chain up
// to the USB interface's parent device node and reads idVendor/idProduct/
// serial, replacing the teacher's unimplemented TODO with the sysfs walk
// tio's own "-L" listing performs against lsusb-style metadata.
func enrichUSBInfo(name string, info *DeviceInfo) {
	devLink := filepath.Join("/sys/class/tty", name, "device")
	real, err := filepath.EvalSymlinks(devLink)
	if err != nil {
		return
	}

	dir := real
	for i := 0; i < 6; i++ {
		dir = filepath.Dir(dir)
		if vendor := readSysfsTrimmed(filepath.Join(dir, "idVendor")); vendor != "" {
			info.VendorID = vendor
			info.ProductID = readSysfsTrimmed(filepath.Join(dir, "idProduct"))
			info.SerialNumber = readSysfsTrimmed(filepath.Join(dir, "serial"))
			return
		}
		if dir == "/" || dir == "." {
			return
		}
	}
}

func readSysfsTrimmed(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
