package testkit

import "testing"

var dialer = func() string { return "pgxpool" }

func TestSwap_RestoresOnCleanup(t *testing.T) {
	t.Run("swapped", func(t *testing.T) {
		Serial(t)
		Swap(t, &dialer, func() string { return "fake" })
		if got := dialer(); got != "fake" {
			t.Fatalf("dialer = %q", got)
		}
	})
	if got := dialer(); got != "pgxpool" {
		t.Fatalf("not restored: %q", got)
	}
}
