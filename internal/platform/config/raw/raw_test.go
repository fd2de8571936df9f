package raw

import "testing"

func TestConf(t *testing.T) {
	t.Setenv("RAWT_LOG_CALLER", " Yes ")
	t.Setenv("RAWT_LOG_QUIET", "0")
	t.Setenv("RAWT_LOG_JUNK", "maybe")
	t.Setenv("RAWT_LOG_SAMPLE", " 12 ")
	t.Setenv("RAWT_LOG_NEG", "-3")
	t.Setenv("RAWT_LOG_WORD", "ten")

	c := New().Prefix("RAWT_").Prefix("LOG_")
	if c.Key("LEVEL") != "RAWT_LOG_LEVEL" {
		t.Fatalf("Key = %q", c.Key("LEVEL"))
	}

	bools := []struct {
		key       string
		def, want bool
	}{
		{"CALLER", false, true},
		{"QUIET", true, false},
		{"JUNK", true, true},
		{"UNSET", true, true},
	}
	for _, b := range bools {
		if got := c.GetBool(b.key, b.def); got != b.want {
			t.Fatalf("GetBool(%s) = %v", b.key, got)
		}
	}

	ints := []struct {
		key       string
		def, want int
	}{
		{"SAMPLE", 0, 12},
		{"NEG", 1, 1},
		{"WORD", 2, 2},
		{"UNSET", 3, 3},
	}
	for _, i := range ints {
		if got := c.GetInt(i.key, i.def); got != i.want {
			t.Fatalf("GetInt(%s) = %d", i.key, got)
		}
	}
}

func TestFirst(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CARDANOIDX_LOG_LEVEL", "")

	root := New()
	own, shared := root.Prefix("CARDANOIDX_LOG_"), root.Prefix("LOG_")
	if got := First("info", own.At("LEVEL"), shared.At("LEVEL")); got != "error" {
		t.Fatalf("shared fallback = %q", got)
	}
	t.Setenv("CARDANOIDX_LOG_LEVEL", "debug")
	if got := First("info", own.At("LEVEL"), shared.At("LEVEL")); got != "debug" {
		t.Fatalf("own key = %q", got)
	}
	if got := First("info", own.At("NOPE")); got != "info" {
		t.Fatalf("default = %q", got)
	}
}
