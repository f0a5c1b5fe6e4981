package feed

import (
	"strings"
	"testing"

	"github.com/hannahlog/rss-reruns/app/xmltree"
)

const rssTwoItems = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Example Feed</title>
    <link>https://example.com/</link>
    <description>An example feed</description>
    <item>
      <guid>https://example.com/1</guid>
      <title>First post</title>
      <link>https://example.com/1</link>
      <pubDate>Fri, 01 Jan 2021 00:00:00 +0000</pubDate>
    </item>
    <item>
      <guid>https://example.com/2</guid>
      <title>Second post</title>
      <link>https://example.com/2</link>
      <pubDate>Tue, 01 Jun 2021 00:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

const rssNoItems = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Empty Feed</title>
    <link>https://example.com/</link>
    <description>No items here</description>
  </channel>
</rss>`

const atomTwoEntries = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Atom</title>
  <id>urn:example:feed</id>
  <updated>2021-06-01T00:00:00Z</updated>
  <entry>
    <id>urn:example:1</id>
    <title>First entry</title>
    <updated>2021-01-01T00:00:00Z</updated>
  </entry>
  <entry>
    <id>urn:example:2</id>
    <title>Second entry</title>
    <updated>2021-06-01T00:00:00Z</updated>
  </entry>
</feed>`

func newRSS(t *testing.T, doc string) *Modifier {
	t.Helper()
	m, err := FromBytes([]byte(doc), "feed.rss", "")
	if err != nil {
		t.Fatalf("failed to load RSS fixture: %v", err)
	}
	return m
}

func newAtom(t *testing.T, doc string) *Modifier {
	t.Helper()
	m, err := FromBytes([]byte(doc), "feed.atom", "")
	if err != nil {
		t.Fatalf("failed to load Atom fixture: %v", err)
	}
	return m
}

func entryMetaText(t *testing.T, m *Modifier, entry *xmltree.Element, key string) string {
	t.Helper()
	container, err := m.entryMeta(entry)
	if err != nil {
		t.Fatalf("failed to get entry metadata: %v", err)
	}
	text, ok, err := m.meta.Get(container, key)
	if err != nil {
		t.Fatalf("failed to read %s: %v", key, err)
	}
	if !ok {
		t.Fatalf("expected %s to be present", key)
	}
	return text
}

func TestLoadSeedsChannelDefaults(t *testing.T) {
	m := newRSS(t, rssTwoItems)

	order, err := m.Order()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != OrderChronological {
		t.Errorf("expected default order chronological, got %q", order)
	}

	forever, err := m.RunForever()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !forever {
		t.Error("expected run_forever default to be true")
	}

	original, ok, err := m.ChannelMeta(KeyOriginalTitle)
	if err != nil || !ok {
		t.Fatalf("expected original_title to be seeded: %v", err)
	}
	if original != "Example Feed" {
		t.Errorf("expected original title captured, got %q", original)
	}
}

func TestLoadSeedsEntryDefaults(t *testing.T) {
	m := newRSS(t, rssTwoItems)

	entries, err := m.Entries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if got := entryMetaText(t, m, entries[0], KeyOriginalPubDate); got != "Fri, 01 Jan 2021 00:00:00 +0000" {
		t.Errorf("unexpected original_pubdate: %q", got)
	}
	if got := entryMetaText(t, m, entries[0], KeyOriginalTitle); got != "First post" {
		t.Errorf("unexpected original_title: %q", got)
	}
	if got := entryMetaText(t, m, entries[0], KeyReran); got != FlagFalse {
		t.Errorf("expected reran to default to False, got %q", got)
	}
}

func TestLoadEmptyFeed(t *testing.T) {
	m := newRSS(t, rssNoItems)

	entries, err := m.Entries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected 0 entries, got %d", len(entries))
	}
}

func TestLoadMissingChannelFails(t *testing.T) {
	_, err := FromBytes([]byte(`<rss version="2.0"></rss>`), "feed.rss", "")
	if err == nil {
		t.Fatal("expected error for RSS document without channel")
	}
	if !strings.Contains(err.Error(), "channel") {
		t.Errorf("expected error to name the missing channel, got: %v", err)
	}
}

func TestSeedingIsIdempotent(t *testing.T) {
	m := newRSS(t, rssTwoItems)

	before, err := m.Serialize(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Seeding again must not change any metadata.
	if err := m.seedChannelDefaults(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.seedEntryDefaults(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after, err := m.Serialize(true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(before) != string(after) {
		t.Error("seeding twice changed the document")
	}
}

func TestSeedingPreservesExplicitEmptyValue(t *testing.T) {
	annotated := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:reruns="https://github.com/hannahlog/rss-reruns">
  <channel>
    <title>Example Feed</title>
    <reruns:channel_data>
      <reruns:title_prefix/>
    </reruns:channel_data>
  </channel>
</rss>`
	m := newRSS(t, annotated)

	prefix, ok, err := m.ChannelMeta(KeyTitlePrefix)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected title_prefix element to be present")
	}
	if prefix != "" {
		t.Errorf("present-but-empty title_prefix was overwritten with %q", prefix)
	}
}

func TestRoundTripPreservesState(t *testing.T) {
	m := newRSS(t, rssTwoItems)

	if _, err := m.Rebroadcast(1, mustDate(t, "2024-03-01T12:00:00Z")); err != nil {
		t.Fatalf("rebroadcast failed: %v", err)
	}

	data, err := m.Serialize(true)
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}

	reloaded, err := FromBytes(data, "feed.rss", "")
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	entries, err := reloaded.Entries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reranCount := 0
	for _, entry := range entries {
		if entryMetaText(t, reloaded, entry, KeyReran) == FlagTrue {
			reranCount++
		}
	}
	if reranCount != 1 {
		t.Errorf("expected exactly 1 reran entry after reload, got %d", reranCount)
	}

	pending, err := reloaded.Eligible()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pending) != 1 {
		t.Errorf("expected exactly 1 pending entry after reload, got %d", len(pending))
	}
}

func TestSerializeStripsMetadata(t *testing.T) {
	m := newRSS(t, rssTwoItems)

	stripped, err := m.Serialize(false)
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	out := string(stripped)
	if strings.Contains(out, "reruns:") {
		t.Error("stripped output still contains reruns elements")
	}
	if strings.Contains(out, NamespaceURI) {
		t.Error("stripped output still declares the reruns namespace")
	}
	if !strings.Contains(out, "<?xml") {
		t.Error("stripped output is missing the XML declaration")
	}

	// Stripping produces a derived copy: the retained document keeps state.
	kept, err := m.Serialize(true)
	if err != nil {
		t.Fatalf("serialize failed: %v", err)
	}
	if !strings.Contains(string(kept), "reruns:channel_data") {
		t.Error("stripping mutated the retained document")
	}
}

func TestAtomLoadAndEntries(t *testing.T) {
	m := newAtom(t, atomTwoEntries)

	if m.Dialect() != "atom" {
		t.Fatalf("expected atom dialect, got %q", m.Dialect())
	}

	entries, err := m.Entries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	if got := entryMetaText(t, m, entries[0], KeyOriginalPubDate); got != "2021-01-01T00:00:00Z" {
		t.Errorf("unexpected original_pubdate: %q", got)
	}
}

func TestAtomRebroadcastWritesBothDateFields(t *testing.T) {
	m := newAtom(t, atomTwoEntries)

	at := mustDate(t, "2024-03-01T12:00:00Z")
	reruns, err := m.Rebroadcast(1, at)
	if err != nil {
		t.Fatalf("rebroadcast failed: %v", err)
	}
	if len(reruns) != 1 {
		t.Fatalf("expected 1 rerun, got %d", len(reruns))
	}

	entries, err := m.Entries()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Chronological order: the 2021-01-01 entry reruns first.
	entry := entries[0]
	for _, tag := range []string{"published", "updated"} {
		el, err := entry.Find(xmltree.Local(tag))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if el == nil {
			t.Fatalf("expected %s element to exist", tag)
		}
		if el.Text() != "2024-03-01T12:00:00Z" {
			t.Errorf("expected %s rewritten to rerun time, got %q", tag, el.Text())
		}
	}
}
