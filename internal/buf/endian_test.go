package buf

import "testing"

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	if got := ReadU32LE(data, 0); got != 0x67452301 {
		t.Fatalf("ReadU32LE = 0x%x, want 0x67452301", got)
	}
	if got := ReadU32LE(data, 4); got != 0xefcdab89 {
		t.Fatalf("ReadU32LE = 0x%x, want 0xefcdab89", got)
	}

	PutU32LE(data, 2, 0xdeadbeef)
	if got := ReadU32LE(data, 2); got != 0xdeadbeef {
		t.Fatalf("round trip = 0x%x", got)
	}
	if data[0] != 0x01 || data[1] != 0x23 || data[6] != 0xcd {
		t.Fatalf("PutU32LE touched bytes outside its range: %x", data)
	}

	Zero(data, 1, 3)
	if data[0] != 0x01 || data[1] != 0 || data[3] != 0 || data[4] != 0xad {
		t.Fatalf("Zero cleared the wrong range: %x", data)
	}
}
