package journal

import (
	"context"
	"path/filepath"
	"testing"
)

func TestAppendAndRecentRoundTrip(t *testing.T) {
	t.Parallel()

	j, err := Open(filepath.Join(t.TempDir(), "testjournal"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	ctx := context.Background()
	entries := []Entry{
		{CallID: "call-1", Caller: "External Caller", Callee: "AB", Directory: "AB", Filename: "a.mp3", Status: StatusArchived},
		{CallID: "call-2", Status: StatusSkipped, Detail: "no matching user"},
		{CallID: "call-3", Status: StatusFailed, Detail: "download failed"},
	}
	for _, entry := range entries {
		if err := j.Append(ctx, entry); err != nil {
			t.Fatalf("append %q: %v", entry.CallID, err)
		}
	}

	records, err := j.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("unexpected record count: got=%d want=3", len(records))
	}
	// Newest first.
	if records[0].CallID != "call-3" || records[2].CallID != "call-1" {
		t.Fatalf("unexpected order: %q .. %q", records[0].CallID, records[2].CallID)
	}
	if records[2].Status != StatusArchived || records[2].Directory != "AB" {
		t.Fatalf("unexpected first entry round trip: %+v", records[2])
	}
	if records[0].CreatedAt.IsZero() {
		t.Fatal("expected created_at to round trip")
	}
}

func TestRecentHonorsLimit(t *testing.T) {
	t.Parallel()

	j, err := Open(filepath.Join(t.TempDir(), "testjournal"))
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { _ = j.Close() })

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if err := j.Append(ctx, Entry{CallID: "call", Status: StatusSkipped}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	records, err := j.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("unexpected record count: got=%d want=2", len(records))
	}
}
