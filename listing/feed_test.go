package listing

import (
	"testing"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
	<title>Nature</title>
	<item>
		<title>First item</title>
		<link>https://www.nature.com/articles/a1</link>
		<category>News</category>
	</item>
	<item>
		<title>Second item</title>
		<link>https://www.nature.com/articles/a2</link>
	</item>
</channel>
</rss>`

// TestParseFeed verifies RSS XML parses into a feed
func TestParseFeed(t *testing.T) {
	feed, err := ParseFeed(rssFixture)

	require.NoError(t, err)
	assert.Equal(t, "Nature", feed.Title)
	assert.Len(t, feed.Items, 2)
}

// TestParseFeed_Invalid verifies malformed XML is an error
func TestParseFeed_Invalid(t *testing.T) {
	_, err := ParseFeed("this is not a feed")
	assert.Error(t, err)
}

// TestFromFeed verifies item links and first categories map onto entries
func TestFromFeed(t *testing.T) {
	feed, err := ParseFeed(rssFixture)
	require.NoError(t, err)

	entries := FromFeed(feed)

	require.Len(t, entries, 2)
	assert.Equal(t, "https://www.nature.com/articles/a1", entries[0].URL)
	assert.Equal(t, "News", entries[0].ListedType)
	assert.Equal(t, "https://www.nature.com/articles/a2", entries[1].URL)
	assert.Equal(t, "", entries[1].ListedType)
}

// TestFromFeed_SkipsLinklessItems verifies items without links are dropped
func TestFromFeed_SkipsLinklessItems(t *testing.T) {
	feed := &gofeed.Feed{
		Items: []*gofeed.Item{
			{Title: "no link"},
			{Title: "has link", Link: "https://www.nature.com/articles/a3"},
		},
	}

	entries := FromFeed(feed)

	require.Len(t, entries, 1)
	assert.Equal(t, "https://www.nature.com/articles/a3", entries[0].URL)
}
