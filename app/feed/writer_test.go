package feed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hannahlog/rss-reruns/app/xmltree"
)

func TestUpdateBuildDateRSS(t *testing.T) {
	m := newRSS(t, rssTwoItems)

	at := mustDate(t, "2024-03-01T12:00:00Z")
	if err := m.UpdateBuildDate(at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, tag := range []string{"pubDate", "lastBuildDate"} {
		el, err := m.channel.Find(xmltree.Local(tag))
		if err != nil || el == nil {
			t.Fatalf("expected channel %s, got %v, %v", tag, el, err)
		}
		if el.Text() != "Fri, 01 Mar 2024 12:00:00 +0000" {
			t.Errorf("unexpected %s: %q", tag, el.Text())
		}
	}
}

func TestUpdateBuildDateAtom(t *testing.T) {
	m := newAtom(t, atomTwoEntries)

	at := mustDate(t, "2024-03-01T12:00:00Z")
	if err := m.UpdateBuildDate(at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The feed root is the channel for Atom; its updated must move, while
	// the per-entry updated fields stay put.
	updated, err := m.channel.Find(xmltree.Local("updated"))
	if err != nil || updated == nil {
		t.Fatalf("expected feed updated, got %v, %v", updated, err)
	}
	if updated.Text() != "2024-03-01T12:00:00Z" {
		t.Errorf("unexpected feed updated: %q", updated.Text())
	}

	entries, err := m.Entries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := entries[0].Find(xmltree.Local("updated"))
	if err != nil || first == nil {
		t.Fatalf("expected entry updated, got %v, %v", first, err)
	}
	if first.Text() != "2021-01-01T00:00:00Z" {
		t.Errorf("entry updated was touched: %q", first.Text())
	}
}

func TestWriteRoundTripsThroughFile(t *testing.T) {
	m := newRSS(t, rssTwoItems)

	if _, err := m.Rebroadcast(1, mustDate(t, "2024-03-01T12:00:00Z")); err != nil {
		t.Fatalf("rebroadcast failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.rss")
	if err := m.Write(path, true, mustDate(t, "2024-03-01T12:00:00Z")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	reloaded, err := Open(path, "")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	stats, err := reloaded.CollectStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Rebroadcast != 1 || stats.Pending != 1 {
		t.Errorf("state did not survive the file round trip: %+v", stats)
	}
}

func TestWriteStrippedFile(t *testing.T) {
	m := newRSS(t, rssTwoItems)

	path := filepath.Join(t.TempDir(), "public.rss")
	if err := m.Write(path, false, mustDate(t, "2024-03-01T12:00:00Z")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if strings.Contains(string(data), NamespaceURI) {
		t.Error("stripped output still references the metadata namespace")
	}
	if !strings.HasPrefix(strings.TrimSpace(string(data)), "<?xml") {
		t.Error("output does not start with an XML declaration")
	}
}
