package xmltree

import (
	"github.com/beevik/etree"
)

// Element wraps an etree element together with the document's namespace map
// and a preferred default namespace for bare local names. All lookups and
// mutations are namespace-aware: children are matched by expanded name, not
// by whatever prefix the document declares.
type Element struct {
	el        *etree.Element
	nsmap     map[string]string
	defaultNS string
}

// Wrap builds an Element over el. nsmap maps prefixes to namespace URIs,
// with the empty prefix standing for the default xmlns declaration.
// defaultNS is the namespace applied to bare local names; pass "" for
// documents without a default namespace.
func Wrap(el *etree.Element, nsmap map[string]string, defaultNS string) *Element {
	return &Element{el: el, nsmap: nsmap, defaultNS: defaultNS}
}

// NSMapOf collects the namespace declarations from an element's attributes.
// The default xmlns declaration is stored under the empty prefix.
func NSMapOf(el *etree.Element) map[string]string {
	nsmap := make(map[string]string)
	for _, attr := range el.Attr {
		switch {
		case attr.Space == "xmlns":
			nsmap[attr.Key] = attr.Value
		case attr.Space == "" && attr.Key == "xmlns":
			nsmap[""] = attr.Value
		}
	}
	return nsmap
}

// Raw exposes the underlying etree element.
func (e *Element) Raw() *etree.Element {
	return e.el
}

// Tag returns the element's local name.
func (e *Element) Tag() string {
	return e.el.Tag
}

// Text returns the element's character data.
func (e *Element) Text() string {
	return e.el.Text()
}

// SetText replaces the element's character data.
func (e *Element) SetText(text string) {
	e.el.SetText(text)
}

// Resolve canonicalizes a name against the element's namespace map and
// default namespace.
func (e *Element) Resolve(name Name) (ExpandedName, error) {
	return name.Resolve(e.nsmap, e.defaultNS)
}

// expandedOf computes the expanded name of a concrete child element. An
// undeclared prefix resolves to no namespace at all, so such elements only
// match lookups outside every namespace.
func (e *Element) expandedOf(el *etree.Element) ExpandedName {
	if el.Space == "" {
		return ExpandedName{Space: e.nsmap[""], Local: el.Tag}
	}
	return ExpandedName{Space: e.nsmap[el.Space], Local: el.Tag}
}

func (e *Element) wrap(el *etree.Element) *Element {
	return &Element{el: el, nsmap: e.nsmap, defaultNS: e.defaultNS}
}

// Find returns the first child element matching name, or nil when absent.
func (e *Element) Find(name Name) (*Element, error) {
	want, err := e.Resolve(name)
	if err != nil {
		return nil, err
	}
	for _, child := range e.el.ChildElements() {
		if e.expandedOf(child) == want {
			return e.wrap(child), nil
		}
	}
	return nil, nil
}

// FindAll returns every child element matching name, in document order.
func (e *Element) FindAll(name Name) ([]*Element, error) {
	want, err := e.Resolve(name)
	if err != nil {
		return nil, err
	}
	var found []*Element
	for _, child := range e.el.ChildElements() {
		if e.expandedOf(child) == want {
			found = append(found, e.wrap(child))
		}
	}
	return found, nil
}

// Has reports whether a child element matching name exists.
func (e *Element) Has(name Name) (bool, error) {
	found, err := e.Find(name)
	if err != nil {
		return false, err
	}
	return found != nil, nil
}

// GetOrCreate returns the first child matching name, appending a new empty
// child when none exists. Existing siblings are never removed or reordered.
func (e *Element) GetOrCreate(name Name) (*Element, error) {
	found, err := e.Find(name)
	if err != nil {
		return nil, err
	}
	if found != nil {
		return found, nil
	}
	want, _ := e.Resolve(name)
	tag, err := e.prefixedTag(want)
	if err != nil {
		return nil, err
	}
	return e.wrap(e.el.CreateElement(tag)), nil
}

// Remove deletes the first child matching name. Removing an absent child is
// a no-op.
func (e *Element) Remove(name Name) error {
	found, err := e.Find(name)
	if err != nil {
		return err
	}
	if found != nil {
		e.el.RemoveChild(found.el)
	}
	return nil
}

// Parent returns the element's parent, or nil at the root.
func (e *Element) Parent() *Element {
	parent := e.el.Parent()
	if parent == nil {
		return nil
	}
	return e.wrap(parent)
}

// prefixedTag renders an expanded name using a prefix the document declares
// for its namespace URI. Names in the default namespace (or in none) stay
// bare. A declared prefix is preferred over the default declaration so that
// created elements read unambiguously.
func (e *Element) prefixedTag(name ExpandedName) (string, error) {
	if name.Space == "" {
		return name.Local, nil
	}
	for prefix, uri := range e.nsmap {
		if uri == name.Space && prefix != "" {
			return prefix + ":" + name.Local, nil
		}
	}
	if e.nsmap[""] == name.Space {
		return name.Local, nil
	}
	return "", &UnknownNamespaceError{PrefixOrURI: name.Space, NSMap: e.nsmap}
}
