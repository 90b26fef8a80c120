package utils

import "testing"

func TestTruncate(t *testing.T) {
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate=%q", got)
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate should leave short strings unchanged, got %q", got)
	}
	if got := Truncate("anything", 0); got != "anything" {
		t.Errorf("maxLen 0 should be a no-op, got %q", got)
	}
}

func TestCollapseSpaces(t *testing.T) {
	if got := CollapseSpaces("  a \n b\t\tc  "); got != "a b c" {
		t.Errorf("CollapseSpaces=%q", got)
	}
}
