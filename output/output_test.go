package output

import (
	"strings"
	"testing"
)

func TestTruncateShortTextUnchanged(t *testing.T) {
	got, truncated := Truncate("short", 1024)
	if truncated {
		t.Fatal("short text must not be truncated")
	}
	if got != "short" {
		t.Fatalf("got %q", got)
	}
}

func TestTruncateExactFitUnchanged(t *testing.T) {
	text := strings.Repeat("a", 100)
	got, truncated := Truncate(text, 100)
	if truncated || got != text {
		t.Fatalf("got %q (truncated=%v)", got, truncated)
	}
}

func TestTruncateKeepsHeadAndTail(t *testing.T) {
	text := strings.Repeat("H", 500) + strings.Repeat("T", 500)
	got, truncated := Truncate(text, 256)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if len(got) > 256 {
		t.Fatalf("len = %d, exceeds bound", len(got))
	}
	if !strings.HasPrefix(got, "H") {
		t.Fatalf("head lost: %q", got[:20])
	}
	if !strings.HasSuffix(got, "T") {
		t.Fatalf("tail lost: %q", got[len(got)-20:])
	}
	if !strings.Contains(got, "truncated: 1000 bytes total") {
		t.Fatalf("marker missing or wrong total: %q", got)
	}
}

func TestTruncateHeadLargerThanTail(t *testing.T) {
	text := strings.Repeat("x", 10000)
	got, _ := Truncate(text, 1000)
	marker := strings.Index(got, "\n...")
	if marker <= 0 {
		t.Fatalf("no marker in %q", got)
	}
	tail := len(got) - strings.LastIndex(got, "...\n") - 4
	if marker <= tail {
		t.Fatalf("head %d should exceed tail %d", marker, tail)
	}
}

func TestTruncateZeroUsesDefault(t *testing.T) {
	text := strings.Repeat("a", DefaultMaxBytes+1)
	got, truncated := Truncate(text, 0)
	if !truncated {
		t.Fatal("expected truncation at default bound")
	}
	if len(got) > DefaultMaxBytes {
		t.Fatalf("len = %d, exceeds default bound", len(got))
	}

	if got, truncated := Truncate("fits", 0); truncated || got != "fits" {
		t.Fatalf("got %q (truncated=%v)", got, truncated)
	}
}

func TestTruncateTinyBound(t *testing.T) {
	got, truncated := Truncate(strings.Repeat("a", 100), 10)
	if !truncated {
		t.Fatal("expected truncation")
	}
	if len(got) > 10 {
		t.Fatalf("len = %d, exceeds bound", len(got))
	}
}
