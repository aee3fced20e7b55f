// Package scraper enriches articles that arrived without a thumbnail or
// summary by reading the article page's OpenGraph tags.
package scraper

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/fetch"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

const defaultConcurrency = 10

// Portals serve these stock images when an article has no real thumbnail.
var placeholderMarkers = []string{
	"og_image_default",
	"noimage",
	"no_image",
	"/static.news/image/news/ogtag/",
}

type Enricher struct {
	fetch       *fetch.Client
	log         *slog.Logger
	concurrency int
	timeout     time.Duration
}

func NewEnricher(client *fetch.Client, log *slog.Logger) *Enricher {
	return &Enricher{
		fetch:       client,
		log:         log,
		concurrency: defaultConcurrency,
		timeout:     5 * time.Second,
	}
}

// Enrich fills missing thumbnails and summaries in place. Items that already
// have both are skipped; per-item fetch failures leave the item untouched.
func (e *Enricher) Enrich(ctx context.Context, items []news.Item) []news.Item {
	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i := range items {
		if items[i].Thumbnail != "" && items[i].Summary != "" {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(item *news.Item) {
			defer wg.Done()
			defer func() { <-sem }()

			meta, err := e.fetchMeta(ctx, item.URL)
			if err != nil {
				e.log.Debug("meta enrichment failed", "url", item.URL, "error", err)
				return
			}
			if item.Thumbnail == "" && meta.image != "" {
				item.Thumbnail = meta.image
			}
			if item.Summary == "" && meta.description != "" {
				item.Summary = news.CleanSummary(meta.description)
			}
		}(&items[i])
	}

	wg.Wait()
	return items
}

type pageMeta struct {
	image       string
	description string
}

func (e *Enricher) fetchMeta(ctx context.Context, pageURL string) (pageMeta, error) {
	html, err := e.fetch.Fetch(ctx, pageURL, fetch.Options{Timeout: e.timeout})
	if err != nil {
		return pageMeta{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return pageMeta{}, err
	}

	var meta pageMeta
	if img, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		img = strings.TrimSpace(img)
		if isRealImage(img) {
			meta.image = img
		}
	}
	if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		meta.description = strings.TrimSpace(desc)
	}
	if meta.description == "" {
		if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
			meta.description = strings.TrimSpace(desc)
		}
	}
	return meta, nil
}

func isRealImage(img string) bool {
	if !strings.HasPrefix(img, "http") {
		return false
	}
	lowered := strings.ToLower(img)
	for _, marker := range placeholderMarkers {
		if strings.Contains(lowered, marker) {
			return false
		}
	}
	return true
}
