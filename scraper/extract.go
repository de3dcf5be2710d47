package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TitleFallback is used when no title can be recovered from a page.
const TitleFallback = "Untitled"

// BodyFallback is used when no body, teaser or description can be recovered.
const BodyFallback = "No content available."

// Article holds the best-effort content extracted from one article page.
// Published and Type are nil when the page does not declare them.
type Article struct {
	URL       string
	Title     string
	Body      string
	Published *string
	Type      *string
}

// titleMetaSelectors carry the canonical title in a content attribute,
// in preference order.
var titleMetaSelectors = []string{
	`meta[property="og:title"]`,
	`meta[name="dc.title"]`,
	`meta[name="citation_title"]`,
	`meta[name="twitter:title"]`,
}

// titleHeadingSelectors locate the primary heading on article layouts old
// and new.
var titleHeadingSelectors = []string{
	"h1.c-article-title",
	`h1[data-test="article-title"]`,
	"header.c-article-header h1",
	"article h1",
}

// bodySelectors locate the main-content container across article layouts.
var bodySelectors = []string{
	"div#content div.c-article-body",
	"div.c-article-body",
	`div[data-component="article-body"]`,
	"article div.article-item__body",
}

var titleSuffixRe = regexp.MustCompile(`\s*\|\s*Nature.*$`)

// Extract pulls title, body text, published date and declared type from an
// article document. Every field degrades through a fallback chain; Extract
// never fails, a page with no recognizable markup yields the fixed
// placeholders.
func Extract(doc *goquery.Document, url string) Article {
	article := Article{
		URL:       url,
		Title:     extractTitle(doc),
		Body:      extractBody(doc),
		Published: metaContent(doc, `meta[name="dc.date"]`, `meta[itemprop="datePublished"]`),
	}

	if t := metaContent(doc, `meta[name="dc.type"]`); t != nil {
		article.Type = t
	} else if txt := normalize(doc.Find(`span[data-test="article.type"]`).First().Text()); txt != "" {
		article.Type = &txt
	}

	return article
}

// extractTitle tries structured metadata, then heading elements, then the
// document title, then the fixed placeholder.
func extractTitle(doc *goquery.Document) string {
	for _, sel := range titleMetaSelectors {
		val := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
		// Some malformed pages carry the literal attribute name as the
		// value; treat that the same as absent.
		if val != "" && !strings.EqualFold(val, "content") {
			return val
		}
	}

	for _, sel := range titleHeadingSelectors {
		if txt := normalize(doc.Find(sel).First().Text()); txt != "" {
			return txt
		}
	}

	if txt := normalize(doc.Find("title").First().Text()); txt != "" {
		return titleSuffixRe.ReplaceAllString(txt, "")
	}

	return TitleFallback
}

// extractBody tries the main-content paragraphs, then the visible teaser,
// then meta descriptions, then the fixed fallback.
func extractBody(doc *goquery.Document) string {
	for _, sel := range bodySelectors {
		container := doc.Find(sel).First()
		if container.Length() == 0 {
			continue
		}

		var paragraphs []string
		container.Find("p").Each(func(_ int, p *goquery.Selection) {
			if txt := normalize(p.Text()); txt != "" {
				paragraphs = append(paragraphs, txt)
			}
		})

		if len(paragraphs) > 0 {
			return strings.Join(paragraphs, "\n\n")
		}
	}

	if teaser := normalize(doc.Find("p.article__teaser, div.c-article-teaser p").First().Text()); teaser != "" {
		return teaser
	}

	if desc := metaContent(doc, `meta[property="og:description"]`, `meta[name="description"]`); desc != nil {
		return *desc
	}

	return BodyFallback
}

// metaContent returns the trimmed content attribute of the first selector
// that has one, or nil.
func metaContent(doc *goquery.Document, selectors ...string) *string {
	for _, sel := range selectors {
		if val := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); val != "" {
			return &val
		}
	}
	return nil
}

// normalize collapses all whitespace runs in s to single spaces and trims
// the result.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
