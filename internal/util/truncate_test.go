package util

import (
	"strings"
	"testing"
)

func TestTruncateLog_ShortStringUnchanged(t *testing.T) {
	if got := TruncateLog("short", 10); got != "short" {
		t.Fatalf("expected unchanged string, got %q", got)
	}
}

func TestTruncateLog_LongStringTruncated(t *testing.T) {
	got := TruncateLog(strings.Repeat("a", 100), 10)
	if !strings.HasPrefix(got, "aaaaaaaaaa...") {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if !strings.Contains(got, "100 bytes total") {
		t.Fatalf("missing total size marker: %q", got)
	}
}

func TestTruncateBytes_UsesDefaultLimit(t *testing.T) {
	got := TruncateBytes([]byte(strings.Repeat("b", DefaultLogMaxLen+1)))
	if !strings.Contains(got, "truncated") {
		t.Fatalf("expected truncation at default limit: %q", got)
	}
}
