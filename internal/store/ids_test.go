package store

import (
	"strings"
	"testing"
)

func TestNewRecordID_Shape(t *testing.T) {
	id := newRecordID(nil)
	if !strings.HasPrefix(id, "fn-") {
		t.Fatalf("expected fn prefix, got %q", id)
	}
	suffix := strings.TrimPrefix(id, "fn-")
	if got, want := len(suffix), 8; got != want {
		t.Fatalf("expected id suffix len %d, got %d (%q)", want, got, suffix)
	}
}

func TestNewRecordID_SkipsTaken(t *testing.T) {
	calls := 0
	id := newRecordID(func(string) bool {
		calls++
		return calls < 3
	})
	if calls != 3 {
		t.Fatalf("expected 3 attempts; got %d", calls)
	}
	if id == "" {
		t.Fatalf("expected id")
	}
}
