package feed

import (
	"strings"

	"github.com/ncruces/go-strftime"

	"github.com/hannahlog/rss-reruns/app/xmltree"
)

// SetFeedTitle recomposes the displayed feed title from the stored
// title_prefix, original_title and title_suffix parts, after updating the
// affixes when non-empty arguments are given. Empty parts are skipped, so a
// cleared suffix simply drops out of the composition. The original title
// itself is never touched. Returns the title as it will be written out.
func (m *Modifier) SetFeedTitle(prefix, suffix string) (string, error) {
	if prefix != "" {
		if err := m.meta.Set(m.metaCh, KeyTitlePrefix, prefix); err != nil {
			return "", err
		}
	}
	if suffix != "" {
		if err := m.meta.Set(m.metaCh, KeyTitleSuffix, suffix); err != nil {
			return "", err
		}
	}

	var parts []string
	for _, key := range []string{KeyTitlePrefix, KeyOriginalTitle, KeyTitleSuffix} {
		text, ok, err := m.meta.Get(m.metaCh, key)
		if err != nil {
			return "", err
		}
		if ok && text != "" {
			parts = append(parts, text)
		}
	}
	composed := strings.Join(parts, " ")

	title, err := m.channel.GetOrCreate(xmltree.Local("title"))
	if err != nil {
		return "", err
	}
	title.SetText(composed)
	return composed, nil
}

// SetEntryTitles recomposes every entry's displayed title from the
// channel-level entry_title_prefix/entry_title_suffix and the entry's
// original_title. Affixes are strftime patterns applied to the entry's
// original publication date, so a suffix like
// "(Originally published: %b %d %Y)" renders the true original date even
// after the entry's pubdate has been rewritten by a rerun.
func (m *Modifier) SetEntryTitles(prefix, suffix string) error {
	if prefix != "" {
		if err := m.meta.Set(m.metaCh, KeyEntryTitlePrefix, prefix); err != nil {
			return err
		}
	}
	if suffix != "" {
		if err := m.meta.Set(m.metaCh, KeyEntryTitleSuffix, suffix); err != nil {
			return err
		}
	}

	entries, err := m.Entries()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := m.setEntryTitle(entry); err != nil {
			return err
		}
	}
	return nil
}

func (m *Modifier) setEntryTitle(entry *xmltree.Element) error {
	entryMeta, err := m.entryMeta(entry)
	if err != nil {
		return err
	}

	original, err := m.OriginalPubDate(entry)
	if err != nil {
		return err
	}

	var parts []string
	appendPart := func(container *xmltree.Element, key string, format bool) error {
		text, ok, err := m.meta.Get(container, key)
		if err != nil {
			return err
		}
		if !ok || text == "" {
			return nil
		}
		if format {
			text = strftime.Format(text, original)
		}
		parts = append(parts, text)
		return nil
	}

	if err := appendPart(m.metaCh, KeyEntryTitlePrefix, true); err != nil {
		return err
	}
	if err := appendPart(entryMeta, KeyOriginalTitle, false); err != nil {
		return err
	}
	if err := appendPart(m.metaCh, KeyEntryTitleSuffix, true); err != nil {
		return err
	}

	title, err := entry.GetOrCreate(xmltree.Local("title"))
	if err != nil {
		return err
	}
	title.SetText(strings.Join(parts, " "))
	return nil
}
