// Package listing discovers article entries, either from paginated HTML
// listing pages or from an RSS/Atom feed.
package listing

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Entry is one article teaser found on a listing page. ListedType is the
// category label shown next to the teaser, empty when the listing carries
// none.
type Entry struct {
	URL        string
	ListedType string
}

// Parse extracts article entries from a listing document, in document
// order. Blocks without a usable article link are skipped; relative links
// are resolved against base. No deduplication is performed.
func Parse(doc *goquery.Document, base string) []Entry {
	baseURL, err := url.Parse(base)
	if err != nil {
		baseURL = nil
	}

	var entries []Entry
	doc.Find("article").Each(func(_ int, block *goquery.Selection) {
		href, ok := block.Find(`a[data-track-action="view article"]`).First().Attr("href")
		if !ok || href == "" {
			// Promotional or malformed blocks carry no article link.
			return
		}

		entries = append(entries, Entry{
			URL:        resolveURL(baseURL, href),
			ListedType: strings.TrimSpace(block.Find(`span[data-test="article.type"]`).First().Text()),
		})
	})

	return entries
}

// PageURL builds the listing endpoint URL for one page, newest first. A
// zero year omits the year filter.
func PageURL(base string, page, year int) string {
	u := fmt.Sprintf("%s/nature/articles?sort=PubDate", base)
	if year != 0 {
		u += fmt.Sprintf("&year=%d", year)
	}
	return u + fmt.Sprintf("&page=%d", page)
}

// resolveURL resolves href against base, falling back to href itself when
// base is unusable.
func resolveURL(base *url.URL, href string) string {
	if base == nil {
		return href
	}

	ref, err := url.Parse(href)
	if err != nil {
		return href
	}

	return base.ResolveReference(ref).String()
}
