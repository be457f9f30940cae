package journal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	step := 0
	j.now = func() time.Time {
		step++
		return base.Add(time.Duration(step) * time.Second)
	}
	return j
}

func TestTailParsesRecentEntries(t *testing.T) {
	j := newTestJournal(t)
	j.Info("loaded 3 task(s)")
	j.Warn("stale toggle result for a ignored")
	j.Error("delete b: network down")

	entries := j.Tail(2)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Level != LevelWarn || entries[0].Message != "stale toggle result for a ignored" {
		t.Fatalf("entry 0 = %+v", entries[0])
	}
	if entries[1].Level != LevelError || entries[1].Message != "delete b: network down" {
		t.Fatalf("entry 1 = %+v", entries[1])
	}
	if !entries[1].Time.After(entries[0].Time) {
		t.Fatalf("entries out of order: %v then %v", entries[0].Time, entries[1].Time)
	}
}

func TestTailSkipsMalformedLines(t *testing.T) {
	j := newTestJournal(t)
	j.Info("good entry")
	raw := "not a journal line\n2026-08-23T12:00:00Z|SHOUT|unknown level\n"
	f, err := os.OpenFile(j.Path(), os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString(raw); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	entries := j.Tail(10)
	if len(entries) != 1 || entries[0].Message != "good entry" {
		t.Fatalf("entries = %+v, want the parseable one only", entries)
	}
}

func TestMessagesCollapseToOneLine(t *testing.T) {
	j := newTestJournal(t)
	j.Error("save a: connection reset\nby peer")

	entries := j.Tail(1)
	if len(entries) != 1 {
		t.Fatalf("len = %d, want 1", len(entries))
	}
	if entries[0].Message != "save a: connection reset by peer" {
		t.Fatalf("message = %q", entries[0].Message)
	}
}

func TestMessageMayContainSeparator(t *testing.T) {
	j := newTestJournal(t)
	j.Info("toggle a|b done")

	entries := j.Tail(1)
	if len(entries) != 1 || entries[0].Message != "toggle a|b done" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestTailOnEmptyJournal(t *testing.T) {
	j, err := New(filepath.Join(t.TempDir(), "journal.log"))
	if err != nil {
		t.Fatalf("new journal: %v", err)
	}
	if entries := j.Tail(5); entries != nil {
		t.Fatalf("tail of empty journal = %v, want nil", entries)
	}
}
