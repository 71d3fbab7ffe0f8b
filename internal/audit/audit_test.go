package audit

import (
	"path/filepath"
	"testing"

	"github.com/bearcove/hotmeal/internal/names"
	"github.com/bearcove/hotmeal/internal/patch"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.sqlite")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestOpenCreatesSchema(t *testing.T) {
	l := openTestLog(t)
	if _, err := l.Recent(10); err != nil {
		t.Fatalf("querying a freshly-created log should not fail: %v", err)
	}
}

func TestRecordAndRecentRoundTrip(t *testing.T) {
	l := openTestLog(t)

	patches := []patch.Patch{
		patch.SetText{At: patch.PathRef(0), Text: "hello"},
		patch.SetAttribute{At: patch.PathRef(0), Name: names.QualName{Local: names.Intern("class")}, Value: "x"},
	}
	if err := l.Record("/home", patches); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	got := entries[0]
	if got.Route != "/home" {
		t.Fatalf("Route = %q, want %q", got.Route, "/home")
	}
	if got.PatchCount != len(patches) {
		t.Fatalf("PatchCount = %d, want %d", got.PatchCount, len(patches))
	}
	if got.PushedAt.IsZero() {
		t.Fatalf("PushedAt should be set")
	}
}

func TestRecentOrdersNewestFirstAndRespectsLimit(t *testing.T) {
	l := openTestLog(t)

	routes := []string{"/a", "/b", "/c"}
	for _, r := range routes {
		if err := l.Record(r, []patch.Patch{patch.Remove{At: patch.PathRef(0)}}); err != nil {
			t.Fatalf("Record(%s): %v", r, err)
		}
	}

	entries, err := l.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (limit should cap results)", len(entries))
	}
	if entries[0].Route != "/c" || entries[1].Route != "/b" {
		t.Fatalf("entries = %+v, want newest-first [/c, /b]", entries)
	}
}

func TestRecordWithNoPatchesStillInsertsAnEntry(t *testing.T) {
	l := openTestLog(t)

	if err := l.Record("/empty", nil); err != nil {
		t.Fatalf("Record: %v", err)
	}

	entries, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 1 || entries[0].PatchCount != 0 {
		t.Fatalf("entries = %+v, want one entry with PatchCount 0", entries)
	}
}
