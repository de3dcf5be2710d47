// Package natscrape drives bounded scrapes of Nature.com article listings:
// fetch listing pages, filter entries by type and year, fetch matching
// articles, extract their content and persist text files plus metadata
// records.
package natscrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"natscrape/listing"
	"natscrape/metadata"
	"natscrape/sanitize"
	"natscrape/scraper"
)

// DefaultBaseURL is the site scraped when no override is configured.
const DefaultBaseURL = "https://www.nature.com"

// Options bound one scrape run.
type Options struct {
	// Pages is the number of listing pages to scan, starting at 1.
	Pages int
	// Type, when non-empty, keeps only entries whose listing label equals
	// it exactly (case-sensitive).
	Type string
	// Year, when non-zero, keeps only articles whose published date starts
	// with that year. Articles without a recoverable date are excluded.
	Year int
	// OutDir receives Page_<N>/ directories and text files. It must exist.
	OutDir string
	// Delay is the politeness pause before each article fetch.
	Delay time.Duration
	// BaseURL overrides DefaultBaseURL.
	BaseURL string
	// FeedURL, when non-empty, switches discovery from HTML listing pages
	// to an RSS/Atom feed; its entries are processed as page 1.
	FeedURL string
}

// Stats reports what one run processed.
type Stats struct {
	Pages   int // listing pages successfully fetched and parsed
	Matched int // entries that passed the type filter
	Saved   int // articles written to disk and recorded
}

// Runner executes one scrape run. The metadata sink and output directory
// are passed in by the caller so tests can substitute their own.
type Runner struct {
	client *scraper.Client
	sink   *metadata.Sink
	log    *slog.Logger
	opts   Options
}

// NewRunner creates a runner. A nil logger falls back to slog.Default().
func NewRunner(client *scraper.Client, sink *metadata.Sink, log *slog.Logger, opts Options) *Runner {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if log == nil {
		log = slog.Default()
	}

	return &Runner{
		client: client,
		sink:   sink,
		log:    log,
		opts:   opts,
	}
}

// Source names the discovery mode of this run.
func (r *Runner) Source() string {
	if r.opts.FeedURL != "" {
		return "feed"
	}
	return "listing"
}

// Run performs the scrape. Page-level and article-level failures are
// logged and skipped; Run only returns an error on context cancellation.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	seenNames := make(map[string]bool)

	if r.opts.FeedURL != "" {
		entries, err := r.feedEntries(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			r.log.Error("feed fetch failed", "url", r.opts.FeedURL, "error", err)
			return stats, nil
		}

		stats.Pages = 1
		if err := r.processEntries(ctx, 1, entries, seenNames, &stats); err != nil {
			return stats, err
		}

		r.logDone(stats)
		return stats, nil
	}

	for page := 1; page <= r.opts.Pages; page++ {
		pageURL := listing.PageURL(r.opts.BaseURL, page, r.opts.Year)

		doc, err := r.client.FetchDocument(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			// A bad listing page loses only that page.
			r.log.Warn("listing fetch failed", "page", page, "url", pageURL, "error", err)
			continue
		}

		entries := listing.Parse(doc, r.opts.BaseURL)
		stats.Pages++

		if err := r.processEntries(ctx, page, entries, seenNames, &stats); err != nil {
			return stats, err
		}

		r.log.Info("page processed", "page", page, "entries", len(entries))
	}

	r.logDone(stats)
	return stats, nil
}

// feedEntries fetches and parses the configured feed through the retrying
// client.
func (r *Runner) feedEntries(ctx context.Context) ([]listing.Entry, error) {
	body, _, err := r.client.Fetch(ctx, r.opts.FeedURL)
	if err != nil {
		return nil, err
	}

	feed, err := listing.ParseFeed(string(body))
	if err != nil {
		return nil, err
	}

	return listing.FromFeed(feed), nil
}

// processEntries runs the filter/fetch/extract/write pipeline for one
// page's entries, in document order. The returned error is non-nil only on
// context cancellation.
func (r *Runner) processEntries(ctx context.Context, page int, entries []listing.Entry, seenNames map[string]bool, stats *Stats) error {
	for _, entry := range entries {
		if r.opts.Type != "" && entry.ListedType != r.opts.Type {
			continue
		}
		stats.Matched++

		// Politeness pause before each new article request.
		if r.opts.Delay > 0 {
			if err := sleep(ctx, r.opts.Delay); err != nil {
				return err
			}
		}

		doc, err := r.client.FetchDocument(ctx, entry.URL)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, scraper.ErrRetriesExhausted) {
				r.log.Warn("article fetch retries exhausted", "page", page, "url", entry.URL, "error", err)
			} else {
				r.log.Warn("article fetch failed", "page", page, "url", entry.URL, "error", err)
			}
			continue
		}

		article := scraper.Extract(doc, entry.URL)

		if r.opts.Year != 0 && !publishedInYear(article.Published, r.opts.Year) {
			r.log.Debug("skipping article outside year filter",
				"url", entry.URL, "published", stringOr(article.Published, "<none>"))
			continue
		}

		if err := r.save(page, entry, article, seenNames); err != nil {
			r.log.Error("failed to save article", "page", page, "url", entry.URL, "error", err)
			continue
		}
		stats.Saved++
	}

	return nil
}

// save writes the article body to Page_<N>/<stem>.txt and appends the
// metadata record.
func (r *Runner) save(page int, entry listing.Entry, article scraper.Article, seenNames map[string]bool) error {
	stem := sanitize.Unique(sanitize.Filename(article.Title), entry.URL, seenNames)
	pageDir := fmt.Sprintf("Page_%d", page)

	// Page directories appear lazily, only once a page yields an article.
	if err := os.MkdirAll(filepath.Join(r.opts.OutDir, pageDir), 0o755); err != nil {
		return fmt.Errorf("failed to create page directory: %w", err)
	}

	filename := stem + ".txt"
	if err := os.WriteFile(filepath.Join(r.opts.OutDir, pageDir, filename), []byte(article.Body), 0o644); err != nil {
		return fmt.Errorf("failed to write article file: %w", err)
	}

	rec := metadata.Record{
		Title:      article.Title,
		URL:        entry.URL,
		File:       path.Join(pageDir, filename), // forward slashes regardless of platform
		Page:       page,
		Published:  article.Published,
		Type:       article.Type,
		ListedType: entry.ListedType,
	}
	if err := r.sink.Append(rec); err != nil {
		return err
	}

	r.log.Info("saved article", "title", article.Title, "file", rec.File)
	return nil
}

func (r *Runner) logDone(stats Stats) {
	r.log.Info("run complete",
		"pages", stats.Pages, "matched", stats.Matched, "saved", stats.Saved)
}

// publishedInYear reports whether a raw published string starts with the
// given year. A nil or unparseable date never matches.
func publishedInYear(published *string, year int) bool {
	if published == nil || len(*published) < 4 {
		return false
	}

	y, err := strconv.Atoi((*published)[:4])
	if err != nil {
		return false
	}

	return y == year
}

func stringOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}

// sleep blocks for d or until the context is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
