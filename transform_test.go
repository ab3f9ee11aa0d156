package tio

import (
	"bytes"
	"testing"
)

func TestTransformRenderPassthrough(t *testing.T) {
	opts := DefaultOptions()
	tr := NewTransform(opts)

	action := tr.Render('A')
	if !bytes.Equal(action.Bytes, []byte{'A'}) {
		t.Errorf("Render('A') = %v, want [A]", action.Bytes)
	}
}

func TestTransformRenderHexMode(t *testing.T) {
	opts := DefaultOptions()
	opts.OutputMode = OutputHex
	tr := NewTransform(opts)

	action := tr.Render(0xAB)
	if string(action.Bytes) != "ab " {
		t.Errorf("Render(0xAB) = %q, want %q", action.Bytes, "ab ")
	}
}

func TestTransformRenderMSB2LSB(t *testing.T) {
	opts := DefaultOptions()
	opts.MapFlags |= MapMSB2LSB
	tr := NewTransform(opts)

	// 0b10000001 reversed is 0b10000001 (palindrome); use an asymmetric byte.
	action := tr.Render(0b00000001)
	if action.Bytes[0] != 0b10000000 {
		t.Errorf("Render with MSB2LSB = %08b, want %08b", action.Bytes[0], byte(0b10000000))
	}
}

func TestTransformRenderClearScreen(t *testing.T) {
	opts := DefaultOptions()
	opts.MapFlags |= MapIFFESCC
	tr := NewTransform(opts)

	action := tr.Render(0x0C)
	if !action.ClearScreen {
		t.Error("Render(0x0C) with IFFESCC set should request a screen clear")
	}
}

func TestTransformForwardOLTU(t *testing.T) {
	opts := DefaultOptions()
	opts.MapFlags |= MapOLTU
	tr := NewTransform(opts)

	action := tr.Forward('a')
	if !bytes.Equal(action.Write, []byte{'A'}) {
		t.Errorf("Forward('a') with OLTU = %v, want [A]", action.Write)
	}
}

func TestTransformForwardHexAccumulates(t *testing.T) {
	opts := DefaultOptions()
	opts.InputMode = InputHex
	tr := NewTransform(opts)

	first := tr.Forward('a')
	if !first.HexPending {
		t.Fatal("Forward first hex nibble should be pending")
	}
	second := tr.Forward('5')
	if second.HexPending {
		t.Fatal("Forward second hex nibble should complete the byte")
	}
	if !bytes.Equal(second.Write, []byte{0xa5}) {
		t.Errorf("Forward hex 'a','5' = %v, want [0xa5]", second.Write)
	}
}

func TestTransformForwardHexInvalid(t *testing.T) {
	opts := DefaultOptions()
	opts.InputMode = InputHex
	tr := NewTransform(opts)

	action := tr.Forward('z')
	if !action.Invalid {
		t.Error("Forward('z') in hex mode should be Invalid")
	}
}

func TestTransformForwardONULBRK(t *testing.T) {
	opts := DefaultOptions()
	opts.MapFlags |= MapONULBRK
	tr := NewTransform(opts)

	action := tr.Forward(0)
	if !action.Break {
		t.Error("Forward(0) with ONULBRK set should request a break")
	}
}

func TestTransformForwardONLCRNL(t *testing.T) {
	opts := DefaultOptions()
	opts.MapFlags |= MapONLCRNL
	tr := NewTransform(opts)

	action := tr.Forward('\r')
	if !bytes.Equal(action.Write, []byte{'\r', '\n'}) {
		t.Errorf("Forward('\\r') with ONLCRNL = %v, want [\\r \\n]", action.Write)
	}
}

func TestReverseBits(t *testing.T) {
	cases := []struct{ in, want byte }{
		{0b00000001, 0b10000000},
		{0b11110000, 0b00001111},
		{0b00000000, 0b00000000},
		{0b11111111, 0b11111111},
	}
	for _, c := range cases {
		if got := reverseBits(c.in); got != c.want {
			t.Errorf("reverseBits(%08b) = %08b, want %08b", c.in, got, c.want)
		}
	}
}
