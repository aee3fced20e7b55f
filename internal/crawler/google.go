package crawler

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/crawlhealth"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/fetch"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

// GoogleNews crawls the Google News KR RSS endpoints. RSS is the fallback
// source: no images, but it rarely breaks.
type GoogleNews struct {
	fetch     *fetch.Client
	endpoints Endpoints
	timeout   time.Duration
}

func NewGoogleNews(client *fetch.Client, endpoints Endpoints) *GoogleNews {
	return &GoogleNews{fetch: client, endpoints: endpoints, timeout: 8 * time.Second}
}

func (g *GoogleNews) Name() string { return string(news.PortalGoogle) }

// Crawl fetches the category feed, or the headline feed when category is
// empty. The method recommendation is irrelevant for an RSS source.
func (g *GoogleNews) Crawl(ctx context.Context, category news.Category, limit int, _ crawlhealth.Method) ([]news.Item, error) {
	feedURL := g.endpoints.Google.Headlines
	if category != "" {
		if u, ok := g.endpoints.Google.Categories[string(category)]; ok {
			feedURL = u
		}
	}
	return g.crawlFeed(ctx, feedURL, category, limit)
}

// Search fetches the RSS search feed for a keyword.
func (g *GoogleNews) Search(ctx context.Context, keyword string, limit int) ([]news.Item, error) {
	q := url.Values{}
	q.Set("q", keyword)
	q.Set("hl", "ko")
	q.Set("gl", "KR")
	q.Set("ceid", "KR:ko")
	return g.crawlFeed(ctx, g.endpoints.Google.SearchBase+"?"+q.Encode(), "", limit)
}

func (g *GoogleNews) crawlFeed(ctx context.Context, feedURL string, category news.Category, limit int) ([]news.Item, error) {
	xml, err := g.fetch.Fetch(ctx, feedURL, fetch.Options{Timeout: g.timeout})
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(xml)
	if err != nil {
		return nil, fmt.Errorf("parse google rss: %w", err)
	}

	now := time.Now()
	items := make([]news.Item, 0, limit)
	for _, r := range feed.Items {
		if len(items) >= limit {
			break
		}
		if r.Title == "" || r.Link == "" {
			continue
		}

		title, press := splitPressSuffix(r.Title)

		published := now
		if r.PublishedParsed != nil {
			published = *r.PublishedParsed
		} else if r.Published != "" {
			published = news.ParseTimestamp(r.Published, now)
		}

		cat := category
		if cat == "" {
			cat = news.GuessCategory(title)
		}

		item := news.Item{
			ID:          news.StableID(r.Link, "g"),
			Title:       title,
			Summary:     news.CleanSummary(stripHTML(r.Description)),
			URL:         r.Link,
			Source:      news.PortalGoogle,
			SourceName:  press,
			Category:    cat,
			PublishedAt: published,
			CollectedAt: now,
		}
		if r.Image != nil {
			item.Thumbnail = r.Image.URL
		}
		items = append(items, item)
	}

	return items, nil
}

// Google News titles end with " - 언론사"; peel the press name off.
func splitPressSuffix(title string) (string, string) {
	if i := strings.LastIndex(title, " - "); i > 0 {
		press := strings.TrimSpace(title[i+3:])
		if press != "" && len([]rune(press)) <= 20 {
			return strings.TrimSpace(title[:i]), press
		}
	}
	return title, "구글뉴스"
}

var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

func stripHTML(s string) string {
	s = htmlTagRe.ReplaceAllString(s, " ")
	s = strings.NewReplacer(
		"&amp;", "&", "&lt;", "<", "&gt;", ">",
		"&quot;", `"`, "&#39;", "'", "&apos;", "'", "&nbsp;", " ",
	).Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
