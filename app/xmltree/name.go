package xmltree

import (
	"fmt"
	"strings"
)

// ExpandedName is a namespace URI plus local name. Space is empty for
// elements outside any namespace. An ExpandedName is unambiguous regardless
// of which prefixes the document happens to declare.
type ExpandedName struct {
	Space string
	Local string
}

func (n ExpandedName) String() string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// Name is a loosely-specified subelement identifier. Each variant resolves
// itself against a prefix-to-URI map and a default namespace into one
// canonical ExpandedName.
type Name interface {
	Resolve(nsmap map[string]string, defaultNS string) (ExpandedName, error)
}

// Local is a bare local name with no namespace information. It resolves
// against the default namespace, which may itself be empty ("no namespace").
type Local string

func (l Local) Resolve(nsmap map[string]string, defaultNS string) (ExpandedName, error) {
	return ExpandedName{Space: defaultNS, Local: string(l)}, nil
}

// Qualified pairs a namespace prefix or a literal namespace URI with a local
// name. The first field is looked up among the nsmap's prefixes; failing
// that, it is tried as one of the nsmap's URIs.
type Qualified struct {
	PrefixOrURI string
	Local       string
}

func (q Qualified) Resolve(nsmap map[string]string, defaultNS string) (ExpandedName, error) {
	if uri, ok := nsmap[q.PrefixOrURI]; ok {
		return ExpandedName{Space: uri, Local: q.Local}, nil
	}
	for _, uri := range nsmap {
		if uri == q.PrefixOrURI {
			return ExpandedName{Space: q.PrefixOrURI, Local: q.Local}, nil
		}
	}
	return ExpandedName{}, &UnknownNamespaceError{PrefixOrURI: q.PrefixOrURI, NSMap: nsmap}
}

// An ExpandedName is already fully resolved and passes through verbatim.
func (n ExpandedName) Resolve(nsmap map[string]string, defaultNS string) (ExpandedName, error) {
	return n, nil
}

// ParseName interprets a string identifier as one of the accepted forms:
//
//	"{uri}local"    expanded name in Clark notation, used verbatim
//	"prefix:local"  prefix resolved through the namespace map
//	"local"         bare local name, combined with the default namespace
//
// Prefixes cannot contain colons (URIs may), so a prefixed name is split on
// the first colon only.
func ParseName(s string) Name {
	if strings.HasPrefix(s, "{") {
		if end := strings.Index(s, "}"); end >= 0 {
			return ExpandedName{Space: s[1:end], Local: s[end+1:]}
		}
	}
	if prefix, local, ok := strings.Cut(s, ":"); ok {
		return Qualified{PrefixOrURI: prefix, Local: local}
	}
	return Local(s)
}

// UnknownNamespaceError reports an identifier whose prefix-or-URI string
// matches neither a declared prefix nor a declared URI.
type UnknownNamespaceError struct {
	PrefixOrURI string
	NSMap       map[string]string
}

func (e *UnknownNamespaceError) Error() string {
	return fmt.Sprintf("namespace %q is neither a prefix nor a URI in namespace map %v",
		e.PrefixOrURI, e.NSMap)
}
