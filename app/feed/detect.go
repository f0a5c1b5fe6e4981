package feed

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/mmcdole/gofeed"
)

// DetectDialect identifies the feed format of a document. Resolution order:
// an explicit format hint ("rss"/"atom"), the file extension, gofeed's
// content-based detection, and finally the root element name.
func DetectDialect(path string, data []byte, formatHint string) (Dialect, error) {
	if formatHint != "" {
		switch {
		case strings.Contains(strings.ToLower(formatHint), "rss"):
			return rssDialect{}, nil
		case strings.Contains(strings.ToLower(formatHint), "atom"):
			return atomDialect{}, nil
		}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".rss":
		return rssDialect{}, nil
	case ".atom":
		return atomDialect{}, nil
	}

	switch gofeed.DetectFeedType(bytes.NewReader(data)) {
	case gofeed.FeedTypeRSS:
		return rssDialect{}, nil
	case gofeed.FeedTypeAtom:
		return atomDialect{}, nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	if root := doc.Root(); root != nil {
		switch {
		case strings.Contains(strings.ToLower(root.Tag), "rss"):
			return rssDialect{}, nil
		case strings.Contains(strings.ToLower(root.Tag), "feed"):
			return atomDialect{}, nil
		}
	}

	return nil, ErrUnknownFormat
}
