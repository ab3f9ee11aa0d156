package tio

import "testing"

func TestDeviceDescription(t *testing.T) {
	tests := map[string]string{
		"ttyUSB0":  "USB Serial Port",
		"ttyACM1":  "USB CDC/ACM Device",
		"ttyAMA0":  "ARM Serial Port",
		"ttymxc2":  "i.MX Serial Port",
		"ttySAC1":  "Samsung Serial Port",
		"ttyTHS0":  "Tegra Serial Port",
		"ttyO0":    "OMAP Serial Port",
		"ttyS0":    "Standard Serial Port",
		"whatever": "Serial Port",
	}
	for name, want := range tests {
		if got := deviceDescription(name); got != want {
			t.Errorf("deviceDescription(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestEnrichUSBInfoMissingSysfsIsNoop(t *testing.T) {
	info := DeviceInfo{Path: "/dev/ttyUSB99"}
	enrichUSBInfo("ttyUSB99-does-not-exist", &info)
	if info.VendorID != "" || info.ProductID != "" || info.SerialNumber != "" {
		t.Errorf("enrichUSBInfo() on a missing device populated info: %+v", info)
	}
}
