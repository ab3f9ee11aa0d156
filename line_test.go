package tio

import "testing"

func TestDigitToLineMask(t *testing.T) {
	tests := []struct {
		digit byte
		want  LineMask
		ok    bool
	}{
		{'0', LineDTR, true},
		{'1', LineRTS, true},
		{'5', LineRI, true},
		{'6', 0, false},
		{'x', 0, false},
	}
	for _, tt := range tests {
		got, ok := digitToLineMask(tt.digit)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("digitToLineMask(%q) = (%v, %v), want (%v, %v)", tt.digit, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLineMaskString(t *testing.T) {
	if LineDTR.String() != "DTR" {
		t.Errorf("LineDTR.String() = %q, want DTR", LineDTR.String())
	}
	if LineMask(99).String() != "?" {
		t.Errorf("unknown LineMask.String() = %q, want ?", LineMask(99).String())
	}
}

func TestLineBitsCoversEveryMask(t *testing.T) {
	for _, mask := range []LineMask{LineDTR, LineRTS, LineCTS, LineDSR, LineDCD, LineRI} {
		if _, ok := lineBits[mask]; !ok {
			t.Errorf("lineBits is missing an entry for %v", mask)
		}
	}
}
