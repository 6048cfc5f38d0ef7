package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestArchive_AppendAndList(t *testing.T) {
	ctx := context.Background()
	a, err := Open(ctx, filepath.Join(t.TempDir(), "nested", "halo.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()

	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	tick := 0
	a.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	for i, body := range []string{"first", "second", "third"} {
		e, err := a.Append(ctx, body, i+1)
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
		if e.ID == 0 {
			t.Fatalf("expected id to be assigned")
		}
	}

	got, err := a.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries; got %d", len(got))
	}
	if got[0].Text != "third" || got[1].Text != "second" {
		t.Fatalf("expected newest first; got %q, %q", got[0].Text, got[1].Text)
	}
	if got[0].Records != 3 || !got[0].CreatedAt.Equal(base.Add(3*time.Minute)) {
		t.Fatalf("unexpected entry: %+v", got[0])
	}

	all, err := a.List(ctx, 0)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries; got %d", len(all))
	}
}

func TestArchive_DirectoryPath(t *testing.T) {
	dir := t.TempDir()
	a, err := Open(context.Background(), dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()
	if want := filepath.Join(dir, DefaultFileName); a.Path() != want {
		t.Fatalf("expected %q; got %q", want, a.Path())
	}
}

func TestArchive_EmptyPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatalf("expected error for empty path")
	}
}
