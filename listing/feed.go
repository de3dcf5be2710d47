package listing

import (
	"fmt"

	"github.com/mmcdole/gofeed"
)

// ParseFeed parses RSS or Atom XML into a feed. The gofeed library detects
// the format automatically.
func ParseFeed(xml string) (*gofeed.Feed, error) {
	fp := gofeed.NewParser()
	feed, err := fp.ParseString(xml)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return feed, nil
}

// FromFeed converts feed items into listing entries, in feed order. The
// item link becomes the entry URL and the first category, if any, becomes
// the listed type. Items without a link are skipped, matching the HTML
// listing behavior for blocks without an article link.
func FromFeed(feed *gofeed.Feed) []Entry {
	entries := make([]Entry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}

		listedType := ""
		if len(item.Categories) > 0 {
			listedType = item.Categories[0]
		}

		entries = append(entries, Entry{
			URL:        item.Link,
			ListedType: listedType,
		})
	}

	return entries
}
