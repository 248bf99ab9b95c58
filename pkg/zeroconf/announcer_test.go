package zeroconf

import "testing"

func TestNoopCloseIsSafe(t *testing.T) {
	var a Announcer = Noop{}
	a.Close()
}

func TestDefaultMACIsStable(t *testing.T) {
	first, err := defaultMAC()
	if err != nil {
		t.Fatalf("defaultMAC: %v", err)
	}
	second, err := defaultMAC()
	if err != nil {
		t.Fatalf("defaultMAC: %v", err)
	}
	if first != second {
		t.Fatalf("defaultMAC not stable across calls: %q != %q", first, second)
	}
}
