package feed

import (
	"errors"
	"fmt"
)

// ErrNegativeCount rejects rebroadcast calls asking for a negative number
// of entries.
var ErrNegativeCount = errors.New("rebroadcast count must be non-negative")

// ErrUnknownFormat is returned when a document cannot be identified as
// either RSS or Atom.
var ErrUnknownFormat = errors.New("feed format could not be determined")

// MissingElementError reports a structurally required element that is
// absent from the document, e.g. an RSS document without a channel.
type MissingElementError struct {
	Element string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("required element %q not found", e.Element)
}

// InvalidFlagError reports stored boolean text outside the {"True","False"}
// domain.
type InvalidFlagError struct {
	Key  string
	Text string
}

func (e *InvalidFlagError) Error() string {
	return fmt.Sprintf("invalid boolean %q for %s: expected \"True\" or \"False\"", e.Text, e.Key)
}
