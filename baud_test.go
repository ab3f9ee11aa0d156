package tio

import "testing"

func TestBaudToTermiosStandardRate(t *testing.T) {
	if _, err := baudToTermios(115200); err != nil {
		t.Errorf("baudToTermios(115200) error = %v", err)
	}
}

func TestBaudToTermiosNonStandardRate(t *testing.T) {
	if _, err := baudToTermios(123456); err == nil {
		t.Error("baudToTermios(123456) should fail: not a fixed B* rate")
	}
}

func TestIsStandardBaudRate(t *testing.T) {
	if !isStandardBaudRate(9600) {
		t.Error("9600 should be a standard baud rate")
	}
	if isStandardBaudRate(12345) {
		t.Error("12345 should not be a standard baud rate")
	}
}
