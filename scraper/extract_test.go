package scraper

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

// TestExtract_FullArticle verifies all fields come from a well-formed page
func TestExtract_FullArticle(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Gene editing breakthrough">
		<meta name="dc.date" content="2020-03-14">
		<meta name="dc.type" content="News">
		<meta name="description" content="Short summary.">
	</head><body>
		<div id="content"><div class="c-article-body">
			<p>First paragraph.</p>
			<p>  Second   paragraph. </p>
			<p></p>
		</div></div>
	</body></html>`

	article := Extract(mustDoc(t, html), "https://www.nature.com/articles/x1")

	assert.Equal(t, "Gene editing breakthrough", article.Title)
	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", article.Body)
	require.NotNil(t, article.Published)
	assert.Equal(t, "2020-03-14", *article.Published)
	require.NotNil(t, article.Type)
	assert.Equal(t, "News", *article.Type)
	assert.Equal(t, "https://www.nature.com/articles/x1", article.URL)
}

// TestExtract_BodyBeatsTeaserAndMeta verifies the body container wins over
// the teaser and meta description when all are present
func TestExtract_BodyBeatsTeaserAndMeta(t *testing.T) {
	html := `<html><head>
		<meta name="description" content="meta description text">
	</head><body>
		<p class="article__teaser">teaser text</p>
		<div class="c-article-body"><p>real body text</p></div>
	</body></html>`

	article := Extract(mustDoc(t, html), "u")
	assert.Equal(t, "real body text", article.Body)
}

// TestExtract_TeaserFallback verifies the visible teaser is used when no
// body container matches
func TestExtract_TeaserFallback(t *testing.T) {
	html := `<html><head>
		<meta name="description" content="meta description text">
	</head><body>
		<div class="c-article-teaser"><p>teaser only</p></div>
	</body></html>`

	article := Extract(mustDoc(t, html), "u")
	assert.Equal(t, "teaser only", article.Body)
}

// TestExtract_MetaDescriptionFallback verifies the meta description is used
// when neither body nor teaser exists
func TestExtract_MetaDescriptionFallback(t *testing.T) {
	html := `<html><head>
		<meta name="description" content="only the description">
	</head><body><p>stray paragraph outside any container</p></body></html>`

	article := Extract(mustDoc(t, html), "u")
	assert.Equal(t, "only the description", article.Body)
}

// TestExtract_BodyFixedFallback verifies the fixed string is used on a page
// with no recoverable content, never an empty body
func TestExtract_BodyFixedFallback(t *testing.T) {
	article := Extract(mustDoc(t, "<html><body></body></html>"), "u")
	assert.Equal(t, BodyFallback, article.Body)
	assert.NotEmpty(t, article.Body)
}

// TestExtract_EmptyBodyContainerFallsThrough verifies a present but empty
// body container does not short-circuit the chain
func TestExtract_EmptyBodyContainerFallsThrough(t *testing.T) {
	html := `<html><body>
		<div class="c-article-body"><p>   </p></div>
		<p class="article__teaser">the teaser</p>
	</body></html>`

	article := Extract(mustDoc(t, html), "u")
	assert.Equal(t, "the teaser", article.Body)
}

// TestExtract_TitleHeadingFallback verifies the h1 chain when meta titles
// are absent
func TestExtract_TitleHeadingFallback(t *testing.T) {
	html := `<html><body><article><h1> Heading   Title </h1></article></body></html>`

	article := Extract(mustDoc(t, html), "u")
	assert.Equal(t, "Heading Title", article.Title)
}

// TestExtract_TitleGuardsLiteralContent verifies a meta tag whose value is
// the literal string "content" is skipped
func TestExtract_TitleGuardsLiteralContent(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="content">
	</head><body><h1 class="c-article-title">Real Title</h1></body></html>`

	article := Extract(mustDoc(t, html), "u")
	assert.Equal(t, "Real Title", article.Title)
}

// TestExtract_TitleElementFallback verifies <title> is used last, with the
// site suffix stripped
func TestExtract_TitleElementFallback(t *testing.T) {
	html := `<html><head><title>Plain Title | Nature Communications</title></head><body></body></html>`

	article := Extract(mustDoc(t, html), "u")
	assert.Equal(t, "Plain Title", article.Title)
}

// TestExtract_TitlePlaceholder verifies the placeholder on a titleless page
func TestExtract_TitlePlaceholder(t *testing.T) {
	article := Extract(mustDoc(t, "<html><body></body></html>"), "u")
	assert.Equal(t, TitleFallback, article.Title)
}

// TestExtract_PublishedMicrodataFallback verifies the itemprop date is used
// when dc.date is absent
func TestExtract_PublishedMicrodataFallback(t *testing.T) {
	html := `<html><head>
		<meta itemprop="datePublished" content="2019-07-01T10:00:00Z">
	</head><body></body></html>`

	article := Extract(mustDoc(t, html), "u")
	require.NotNil(t, article.Published)
	assert.Equal(t, "2019-07-01T10:00:00Z", *article.Published, "raw string, no reparsing")
}

// TestExtract_NoDate verifies Published is nil when no date markup exists
func TestExtract_NoDate(t *testing.T) {
	article := Extract(mustDoc(t, "<html><body></body></html>"), "u")
	assert.Nil(t, article.Published)
	assert.Nil(t, article.Type)
}

// TestExtract_TypeFromSpan verifies the visible type label is used when the
// meta tag is absent
func TestExtract_TypeFromSpan(t *testing.T) {
	html := `<html><body><span data-test="article.type">Editorial</span></body></html>`

	article := Extract(mustDoc(t, html), "u")
	require.NotNil(t, article.Type)
	assert.Equal(t, "Editorial", *article.Type)
}
