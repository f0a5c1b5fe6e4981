package feed

import (
	"github.com/hannahlog/rss-reruns/app/xmltree"
)

// Namespace holding all embedded rerun state. Declared on the document root
// at load time so that metadata round-trips through serialization without
// any external database.
const (
	NamespaceURI    = "https://github.com/hannahlog/rss-reruns"
	NamespacePrefix = "reruns"

	metaChannelTag = "channel_data"
	metaEntryTag   = "entry_data"
)

// Channel-level metadata keys.
const (
	KeyOrder            = "order"
	KeyRate             = "rate"
	KeyRunForever       = "run_forever"
	KeyOriginalTitle    = "original_title"
	KeyTitlePrefix      = "title_prefix"
	KeyTitleSuffix      = "title_suffix"
	KeyEntryTitlePrefix = "entry_title_prefix"
	KeyEntryTitleSuffix = "entry_title_suffix"
)

// Entry-level metadata keys.
const (
	KeyOriginalPubDate = "original_pubdate"
	KeyReran           = "reran"
)

// Order values.
const (
	OrderChronological = "chronological"
	OrderShuffled      = "shuffled"
)

// Boolean-as-text domain for embedded flags.
const (
	FlagTrue  = "True"
	FlagFalse = "False"
)

// Default is one seedable metadata key. A nil Text creates an empty
// element, which is distinct from an absent one: seeding tests element
// presence only, so a present-but-empty value is never overwritten.
type Default struct {
	Key  string
	Text *string
}

// MetaStore maps well-known keys to text values stored as namespaced child
// elements of a metadata container element. It owns no state of its own;
// everything lives in the tree.
type MetaStore struct {
	nsURI string
}

// NewMetaStore returns a store for keys under the given namespace URI.
func NewMetaStore(nsURI string) *MetaStore {
	return &MetaStore{nsURI: nsURI}
}

func (m *MetaStore) keyName(key string) xmltree.ExpandedName {
	return xmltree.ExpandedName{Space: m.nsURI, Local: key}
}

// Container returns the metadata container element (e.g. channel_data or
// entry_data) under node, creating it when absent.
func (m *MetaStore) Container(node *xmltree.Element, localTag string) (*xmltree.Element, error) {
	return node.GetOrCreate(m.keyName(localTag))
}

// Get reads the text of a key's element. The second return value reports
// whether the element is present at all.
func (m *MetaStore) Get(container *xmltree.Element, key string) (string, bool, error) {
	el, err := container.Find(m.keyName(key))
	if err != nil {
		return "", false, err
	}
	if el == nil {
		return "", false, nil
	}
	return el.Text(), true, nil
}

// Set writes a key's text, creating the element when absent and overwriting
// any prior value.
func (m *MetaStore) Set(container *xmltree.Element, key, text string) error {
	el, err := container.GetOrCreate(m.keyName(key))
	if err != nil {
		return err
	}
	el.SetText(text)
	return nil
}

// Has reports whether a key's element is present.
func (m *MetaStore) Has(container *xmltree.Element, key string) (bool, error) {
	return container.Has(m.keyName(key))
}

// SeedDefaults creates each absent key with its default text. Keys already
// present are left untouched, including present-but-empty elements, which
// makes seeding idempotent and original_* values write-once.
func (m *MetaStore) SeedDefaults(container *xmltree.Element, defaults []Default) error {
	for _, d := range defaults {
		present, err := m.Has(container, d.Key)
		if err != nil {
			return err
		}
		if present {
			continue
		}
		el, err := container.GetOrCreate(m.keyName(d.Key))
		if err != nil {
			return err
		}
		if d.Text != nil {
			el.SetText(*d.Text)
		}
	}
	return nil
}

// GetFlag reads a strict boolean-as-text key. Stored text outside
// {"True","False"} is an error, never coerced.
func (m *MetaStore) GetFlag(container *xmltree.Element, key string) (bool, error) {
	text, ok, err := m.Get(container, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, &InvalidFlagError{Key: key, Text: "<absent>"}
	}
	switch text {
	case FlagTrue:
		return true, nil
	case FlagFalse:
		return false, nil
	default:
		return false, &InvalidFlagError{Key: key, Text: text}
	}
}

// SetFlag writes a boolean-as-text key.
func (m *MetaStore) SetFlag(container *xmltree.Element, key string, value bool) error {
	if value {
		return m.Set(container, key, FlagTrue)
	}
	return m.Set(container, key, FlagFalse)
}

func textOf(s string) *string {
	return &s
}
