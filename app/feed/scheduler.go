package feed

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/araddon/dateparse"

	"github.com/hannahlog/rss-reruns/app/xmltree"
)

// Rerun records one broadcast entry, in selection order.
type Rerun struct {
	GUID            string
	Title           string
	OriginalPubDate time.Time
	RebroadcastAt   time.Time
}

// Stats summarizes the per-entry state machine: every entry is either
// pending (reran=False) or already broadcast in the current cycle.
type Stats struct {
	Total       int
	Pending     int
	Rebroadcast int
}

// Eligible returns the entries still pending in the current cycle. It never
// triggers the wraparound reset: between Rebroadcast calls an exhausted
// feed reports an empty eligible set even with run_forever enabled, and the
// reset happens lazily inside the next Rebroadcast call.
func (m *Modifier) Eligible() ([]*xmltree.Element, error) {
	entries, err := m.Entries()
	if err != nil {
		return nil, err
	}
	var pending []*xmltree.Element
	for _, entry := range entries {
		entryMeta, err := m.entryMeta(entry)
		if err != nil {
			return nil, err
		}
		reran, err := m.meta.GetFlag(entryMeta, KeyReran)
		if err != nil {
			return nil, err
		}
		if !reran {
			pending = append(pending, entry)
		}
	}
	return pending, nil
}

// eligibleForRerun is Eligible plus the lazy reset: an empty pending set
// with run_forever enabled flips every entry back to pending and returns
// the full set.
func (m *Modifier) eligibleForRerun() ([]*xmltree.Element, error) {
	pending, err := m.Eligible()
	if err != nil {
		return nil, err
	}
	if len(pending) > 0 {
		return pending, nil
	}
	forever, err := m.RunForever()
	if err != nil {
		return nil, err
	}
	if !forever {
		return nil, nil
	}
	if err := m.markAllPending(); err != nil {
		return nil, err
	}
	return m.Entries()
}

func (m *Modifier) markAllPending() error {
	entries, err := m.Entries()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		entryMeta, err := m.entryMeta(entry)
		if err != nil {
			return err
		}
		if err := m.meta.SetFlag(entryMeta, KeyReran, false); err != nil {
			return err
		}
	}
	return nil
}

// OriginalPubDate returns an entry's true original publication date from
// its embedded metadata. Stored text is parsed leniently since it may have
// been captured from either dialect's date format.
func (m *Modifier) OriginalPubDate(entry *xmltree.Element) (time.Time, error) {
	entryMeta, err := m.entryMeta(entry)
	if err != nil {
		return time.Time{}, err
	}
	text, ok, err := m.meta.Get(entryMeta, KeyOriginalPubDate)
	if err != nil {
		return time.Time{}, err
	}
	if !ok || text == "" {
		return time.Time{}, &MissingElementError{Element: KeyOriginalPubDate}
	}
	t, err := dateparse.ParseAny(text)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse original_pubdate %q: %w", text, err)
	}
	return t, nil
}

// Rebroadcast selects count pending entries, rewrites their publication
// dates to at and marks them broadcast. When count covers the whole pending
// set the entire set is broadcast and the loop continues, which triggers
// the wraparound reset on the next iteration if run_forever is enabled.
// For a partial batch the channel's order policy applies: chronological
// (ascending original_pubdate) or a uniform shuffle.
//
// A zero at means the current time. The returned reruns are in selection
// order, accumulated across reset iterations. When run_forever is disabled
// and the feed runs out of entries the result is shorter than count.
//
// Mutations preceding a failure are not rolled back; this is a batch tool
// operating on an in-memory tree.
func (m *Modifier) Rebroadcast(count int, at time.Time) ([]Rerun, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeCount, count)
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	var reruns []Rerun
	remaining := count
	for remaining > 0 {
		entries, err := m.eligibleForRerun()
		if err != nil {
			return reruns, err
		}
		if len(entries) == 0 {
			// Exhausted and run_forever is off.
			break
		}

		if remaining >= len(entries) {
			for _, entry := range entries {
				rerun, err := m.rebroadcastEntry(entry, at)
				if err != nil {
					return reruns, err
				}
				reruns = append(reruns, rerun)
			}
			remaining -= len(entries)
			continue
		}

		if err := m.orderEntries(entries); err != nil {
			return reruns, err
		}
		for _, entry := range entries[:remaining] {
			rerun, err := m.rebroadcastEntry(entry, at)
			if err != nil {
				return reruns, err
			}
			reruns = append(reruns, rerun)
		}
		remaining = 0
	}
	return reruns, nil
}

func (m *Modifier) orderEntries(entries []*xmltree.Element) error {
	order, err := m.Order()
	if err != nil {
		return err
	}
	if order != OrderChronological {
		rand.Shuffle(len(entries), func(i, j int) {
			entries[i], entries[j] = entries[j], entries[i]
		})
		return nil
	}

	type dated struct {
		entry *xmltree.Element
		at    time.Time
	}
	pairs := make([]dated, len(entries))
	for i, entry := range entries {
		at, err := m.OriginalPubDate(entry)
		if err != nil {
			return err
		}
		pairs[i] = dated{entry: entry, at: at}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].at.Before(pairs[j].at)
	})
	for i, p := range pairs {
		entries[i] = p.entry
	}
	return nil
}

func (m *Modifier) rebroadcastEntry(entry *xmltree.Element, at time.Time) (Rerun, error) {
	original, err := m.OriginalPubDate(entry)
	if err != nil {
		return Rerun{}, err
	}
	if err := m.dialect.SetEntryPubDate(entry, at); err != nil {
		return Rerun{}, err
	}
	entryMeta, err := m.entryMeta(entry)
	if err != nil {
		return Rerun{}, err
	}
	if err := m.meta.SetFlag(entryMeta, KeyReran, true); err != nil {
		return Rerun{}, err
	}

	title, _, err := m.meta.Get(entryMeta, KeyOriginalTitle)
	if err != nil {
		return Rerun{}, err
	}
	return Rerun{
		GUID:            m.dialect.EntryGUID(entry),
		Title:           title,
		OriginalPubDate: original,
		RebroadcastAt:   at,
	}, nil
}

// CollectStats counts entries in each scheduler state.
func (m *Modifier) CollectStats() (Stats, error) {
	entries, err := m.Entries()
	if err != nil {
		return Stats{}, err
	}
	pending, err := m.Eligible()
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Total:       len(entries),
		Pending:     len(pending),
		Rebroadcast: len(entries) - len(pending),
	}, nil
}
