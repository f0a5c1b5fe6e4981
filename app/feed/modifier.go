package feed

import (
	"fmt"
	"os"

	"github.com/beevik/etree"

	"github.com/hannahlog/rss-reruns/app/xmltree"
)

// Modifier holds one feed document and the embedded rerun state inside it.
// It is the explicit context object for every operation: no globals, no
// state outside the tree. Single-writer, single-document; callers that
// share a Modifier across goroutines must serialize access themselves.
type Modifier struct {
	doc       *etree.Document
	dialect   Dialect
	nsmap     map[string]string
	defaultNS string
	root      *xmltree.Element
	channel   *xmltree.Element
	meta      *MetaStore
	metaCh    *xmltree.Element
}

// Open reads a feed file, detects its dialect and initializes embedded
// metadata. formatHint may be "rss", "atom" or empty.
func Open(path string, formatHint string) (*Modifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed file: %w", err)
	}
	return FromBytes(data, path, formatHint)
}

// FromBytes builds a Modifier from an in-memory document. pathHint is only
// consulted for its file extension during dialect detection.
func FromBytes(data []byte, pathHint string, formatHint string) (*Modifier, error) {
	dialect, err := DetectDialect(pathHint, data, formatHint)
	if err != nil {
		return nil, err
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse feed document: %w", err)
	}
	return New(doc, dialect)
}

// New initializes a Modifier over an already-parsed document: declares the
// reruns namespace on the root if absent, locates the channel container and
// seeds channel- and entry-level metadata defaults. Seeding never
// overwrites present elements, so loading an already-annotated document is
// a no-op for existing state.
func New(doc *etree.Document, dialect Dialect) (*Modifier, error) {
	root := doc.Root()
	if root == nil {
		return nil, &MissingElementError{Element: "root"}
	}

	nsmap := xmltree.NSMapOf(root)
	if !declaresNamespace(nsmap, NamespaceURI) {
		root.CreateAttr("xmlns:"+NamespacePrefix, NamespaceURI)
		nsmap = xmltree.NSMapOf(root)
	}

	m := &Modifier{
		doc:       doc,
		dialect:   dialect,
		nsmap:     nsmap,
		defaultNS: nsmap[""],
		meta:      NewMetaStore(NamespaceURI),
	}
	m.root = xmltree.Wrap(root, m.nsmap, m.defaultNS)

	channel, err := dialect.Channel(m.root)
	if err != nil {
		return nil, err
	}
	m.channel = channel

	m.metaCh, err = m.meta.Container(m.channel, metaChannelTag)
	if err != nil {
		return nil, err
	}
	if err := m.seedChannelDefaults(); err != nil {
		return nil, err
	}
	if err := m.seedEntryDefaults(); err != nil {
		return nil, err
	}
	return m, nil
}

func declaresNamespace(nsmap map[string]string, uri string) bool {
	for prefix, declared := range nsmap {
		if prefix != "" && declared == uri {
			return true
		}
	}
	return false
}

func (m *Modifier) seedChannelDefaults() error {
	title, err := m.channel.GetOrCreate(xmltree.Local("title"))
	if err != nil {
		return err
	}

	defaults := []Default{
		{Key: KeyOrder, Text: textOf(OrderChronological)},
		{Key: KeyRate, Text: textOf("1")},
		{Key: KeyRunForever, Text: textOf(FlagTrue)},
		{Key: KeyOriginalTitle, Text: textOf(title.Text())},
		{Key: KeyTitlePrefix, Text: textOf("[Reruns:]")},
		{Key: KeyTitleSuffix, Text: nil},
		{Key: KeyEntryTitlePrefix, Text: textOf("[Rerun:]")},
		{Key: KeyEntryTitleSuffix, Text: textOf("(Originally published: %b %d %Y)")},
	}
	return m.meta.SeedDefaults(m.metaCh, defaults)
}

func (m *Modifier) seedEntryDefaults() error {
	entries, err := m.Entries()
	if err != nil {
		return err
	}
	for _, entry := range entries {
		entryMeta, err := m.entryMeta(entry)
		if err != nil {
			return err
		}

		// original_pubdate is write-once: capture the current pubdate only
		// the first time this entry is seen.
		present, err := m.meta.Has(entryMeta, KeyOriginalPubDate)
		if err != nil {
			return err
		}
		if !present {
			pubdate, err := m.dialect.EntryPubDate(entry)
			if err != nil {
				return err
			}
			if err := m.meta.Set(entryMeta, KeyOriginalPubDate, pubdate); err != nil {
				return err
			}
		}

		title, err := entry.GetOrCreate(xmltree.Local("title"))
		if err != nil {
			return err
		}
		defaults := []Default{
			{Key: KeyOriginalTitle, Text: textOf(title.Text())},
			{Key: KeyReran, Text: textOf(FlagFalse)},
		}
		if err := m.meta.SeedDefaults(entryMeta, defaults); err != nil {
			return err
		}
	}
	return nil
}

// Dialect returns the detected feed format name ("rss" or "atom").
func (m *Modifier) Dialect() string {
	return m.dialect.Name()
}

// ContentType returns the MIME type of the serialized document.
func (m *Modifier) ContentType() string {
	return m.dialect.ContentType()
}

// Entries returns the feed's entry elements in document order.
func (m *Modifier) Entries() ([]*xmltree.Element, error) {
	return m.dialect.Entries(m.channel)
}

func (m *Modifier) entryMeta(entry *xmltree.Element) (*xmltree.Element, error) {
	return m.meta.Container(entry, metaEntryTag)
}

// RunForever reports whether exhausting all entries resets eligibility
// instead of yielding nothing.
func (m *Modifier) RunForever() (bool, error) {
	return m.meta.GetFlag(m.metaCh, KeyRunForever)
}

// SetRunForever updates the wraparound behavior.
func (m *Modifier) SetRunForever(forever bool) error {
	return m.meta.SetFlag(m.metaCh, KeyRunForever, forever)
}

// Order returns the selection order for partial batches.
func (m *Modifier) Order() (string, error) {
	order, _, err := m.meta.Get(m.metaCh, KeyOrder)
	return order, err
}

// SetOrder updates the selection order. Only "chronological" and "shuffled"
// are accepted.
func (m *Modifier) SetOrder(order string) error {
	if order != OrderChronological && order != OrderShuffled {
		return fmt.Errorf("invalid order %q: expected %q or %q",
			order, OrderChronological, OrderShuffled)
	}
	return m.meta.Set(m.metaCh, KeyOrder, order)
}

// Rate returns the informational cadence value. The scheduler itself does
// not interpret it.
func (m *Modifier) Rate() (string, error) {
	rate, _, err := m.meta.Get(m.metaCh, KeyRate)
	return rate, err
}

// SetRate stores the cadence value as opaque text.
func (m *Modifier) SetRate(rate string) error {
	return m.meta.Set(m.metaCh, KeyRate, rate)
}

// ChannelMeta reads a channel-level metadata key directly.
func (m *Modifier) ChannelMeta(key string) (string, bool, error) {
	return m.meta.Get(m.metaCh, key)
}

// SetChannelMeta writes a channel-level metadata key directly.
func (m *Modifier) SetChannelMeta(key, text string) error {
	return m.meta.Set(m.metaCh, key, text)
}
