package feed

import (
	"time"

	"github.com/hannahlog/rss-reruns/app/xmltree"
)

// Dialect abstracts the differences between the two supported feed formats:
// where the channel container lives, what an entry is called, which fields
// carry publication dates, and how those dates are rendered as text.
type Dialect interface {
	Name() string
	ContentType() string

	// Channel returns the feed-level container: the `channel` child of the
	// root for RSS, the root `feed` element itself for Atom.
	Channel(root *xmltree.Element) (*xmltree.Element, error)

	// Entries returns the channel's entry/item elements in document order.
	Entries(channel *xmltree.Element) ([]*xmltree.Element, error)

	// EntryPubDate reads an entry's publication date text as stored.
	EntryPubDate(entry *xmltree.Element) (string, error)

	// SetEntryPubDate rewrites an entry's publication date field(s).
	SetEntryPubDate(entry *xmltree.Element, t time.Time) error

	// SetBuildDate rewrites the feed-level last-published fields.
	SetBuildDate(channel *xmltree.Element, t time.Time) error

	// FormatDate and ParseDate are a lossless round-trip pair for any
	// timestamp with second-level precision.
	FormatDate(t time.Time) string
	ParseDate(text string) (time.Time, error)

	// EntryGUID returns the entry's stable identifier, falling back to the
	// entry link when the format's identifier element is absent.
	EntryGUID(entry *xmltree.Element) string
}

// rssDialect implements RSS 2.0: channel is a child of the root, entries
// are `item` elements, and dates follow RFC 822 (RFC 1123 with numeric
// zone, as the spec's examples use).
type rssDialect struct{}

func (rssDialect) Name() string        { return "rss" }
func (rssDialect) ContentType() string { return "application/rss+xml; charset=utf-8" }

func (rssDialect) Channel(root *xmltree.Element) (*xmltree.Element, error) {
	channel, err := root.Find(xmltree.Local("channel"))
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, &MissingElementError{Element: "channel"}
	}
	return channel, nil
}

func (rssDialect) Entries(channel *xmltree.Element) ([]*xmltree.Element, error) {
	return channel.FindAll(xmltree.Local("item"))
}

func (rssDialect) EntryPubDate(entry *xmltree.Element) (string, error) {
	pubdate, err := entry.Find(xmltree.Local("pubDate"))
	if err != nil {
		return "", err
	}
	if pubdate == nil {
		return "", &MissingElementError{Element: "pubDate"}
	}
	return pubdate.Text(), nil
}

func (d rssDialect) SetEntryPubDate(entry *xmltree.Element, t time.Time) error {
	pubdate, err := entry.GetOrCreate(xmltree.Local("pubDate"))
	if err != nil {
		return err
	}
	pubdate.SetText(d.FormatDate(t))
	return nil
}

func (d rssDialect) SetBuildDate(channel *xmltree.Element, t time.Time) error {
	for _, tag := range []string{"pubDate", "lastBuildDate"} {
		el, err := channel.GetOrCreate(xmltree.Local(tag))
		if err != nil {
			return err
		}
		el.SetText(d.FormatDate(t))
	}
	return nil
}

func (rssDialect) FormatDate(t time.Time) string {
	return t.Format(time.RFC1123Z)
}

func (rssDialect) ParseDate(text string) (time.Time, error) {
	return time.Parse(time.RFC1123Z, text)
}

func (rssDialect) EntryGUID(entry *xmltree.Element) string {
	if guid, err := entry.Find(xmltree.Local("guid")); err == nil && guid != nil && guid.Text() != "" {
		return guid.Text()
	}
	if link, err := entry.Find(xmltree.Local("link")); err == nil && link != nil {
		return link.Text()
	}
	return ""
}

// atomDialect implements Atom: the root `feed` element is the channel,
// entries are `entry` elements, and dates are RFC 3339 with an uppercase Z
// for UTC.
type atomDialect struct{}

func (atomDialect) Name() string        { return "atom" }
func (atomDialect) ContentType() string { return "application/atom+xml; charset=utf-8" }

func (atomDialect) Channel(root *xmltree.Element) (*xmltree.Element, error) {
	return root, nil
}

func (atomDialect) Entries(channel *xmltree.Element) ([]*xmltree.Element, error) {
	return channel.FindAll(xmltree.Local("entry"))
}

func (atomDialect) EntryPubDate(entry *xmltree.Element) (string, error) {
	for _, tag := range []string{"updated", "published"} {
		el, err := entry.Find(xmltree.Local(tag))
		if err != nil {
			return "", err
		}
		if el != nil {
			return el.Text(), nil
		}
	}
	return "", &MissingElementError{Element: "updated"}
}

func (d atomDialect) SetEntryPubDate(entry *xmltree.Element, t time.Time) error {
	// Atom carries both fields; a rerun counts as a republication, so both
	// are moved forward together.
	for _, tag := range []string{"published", "updated"} {
		el, err := entry.GetOrCreate(xmltree.Local(tag))
		if err != nil {
			return err
		}
		el.SetText(d.FormatDate(t))
	}
	return nil
}

func (d atomDialect) SetBuildDate(channel *xmltree.Element, t time.Time) error {
	el, err := channel.GetOrCreate(xmltree.Local("updated"))
	if err != nil {
		return err
	}
	el.SetText(d.FormatDate(t))
	return nil
}

func (atomDialect) FormatDate(t time.Time) string {
	return t.Format(time.RFC3339)
}

func (atomDialect) ParseDate(text string) (time.Time, error) {
	return time.Parse(time.RFC3339, text)
}

func (atomDialect) EntryGUID(entry *xmltree.Element) string {
	if id, err := entry.Find(xmltree.Local("id")); err == nil && id != nil && id.Text() != "" {
		return id.Text()
	}
	if link, err := entry.Find(xmltree.Local("link")); err == nil && link != nil {
		if href := link.Raw().SelectAttrValue("href", ""); href != "" {
			return href
		}
	}
	return ""
}
