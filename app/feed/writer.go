package feed

import (
	"fmt"
	"os"
	"time"

	"github.com/beevik/etree"
)

// UpdateBuildDate rewrites the feed-level last-published fields: pubDate
// and lastBuildDate on the RSS channel, updated on the Atom feed.
func (m *Modifier) UpdateBuildDate(at time.Time) error {
	if at.IsZero() {
		at = time.Now().UTC()
	}
	return m.dialect.SetBuildDate(m.channel, at)
}

// Serialize renders the document pretty-printed with an XML declaration in
// UTF-8. With keepMetadata false a derived, metadata-free copy is
// serialized instead: every element in the reruns namespace and the
// namespace declaration itself are removed from the copy, leaving the
// in-memory document untouched.
func (m *Modifier) Serialize(keepMetadata bool) ([]byte, error) {
	doc := m.doc
	if !keepMetadata {
		doc = m.stripped()
	}
	ensureXMLDecl(doc)
	doc.Indent(2)
	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize feed: %w", err)
	}
	return data, nil
}

// Write updates the build date, serializes and writes the document to path.
// I/O errors surface as-is.
func (m *Modifier) Write(path string, keepMetadata bool, at time.Time) error {
	if err := m.UpdateBuildDate(at); err != nil {
		return err
	}
	data, err := m.Serialize(keepMetadata)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// stripped deep-copies the document and removes all embedded rerun state
// from the copy.
func (m *Modifier) stripped() *etree.Document {
	doc := m.doc.Copy()
	root := doc.Root()
	if root == nil {
		return doc
	}
	m.removeMetadataElements(root)
	for _, attr := range root.Attr {
		if attr.Space == "xmlns" && attr.Value == NamespaceURI {
			root.RemoveAttr(attr.Space + ":" + attr.Key)
			break
		}
	}
	return doc
}

func (m *Modifier) removeMetadataElements(el *etree.Element) {
	var doomed []*etree.Element
	for _, child := range el.ChildElements() {
		if child.Space != "" && m.nsmap[child.Space] == NamespaceURI {
			doomed = append(doomed, child)
			continue
		}
		m.removeMetadataElements(child)
	}
	for _, child := range doomed {
		el.RemoveChild(child)
	}
}

// ensureXMLDecl guarantees the serialized output starts with an XML
// declaration; documents parsed from files that had one keep theirs.
func ensureXMLDecl(doc *etree.Document) {
	for _, tok := range doc.Child {
		if pi, ok := tok.(*etree.ProcInst); ok && pi.Target == "xml" {
			return
		}
	}
	pi := doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.RemoveChild(pi)
	doc.InsertChildAt(0, pi)
}
