package crawler

import (
	"context"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/crawlhealth"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/fetch"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

var daumHeaders = map[string]string{
	"Accept-Language": "ko-KR,ko;q=0.9",
	"Referer":         "https://news.daum.net/",
}

var relativeTimeRe = regexp.MustCompile(`\d+분 전|\d+시간 전|어제|방금|\d+일 전|\d{4}\.`)

// Daum crawls news.daum.net section pages.
type Daum struct {
	fetch     *fetch.Client
	endpoints Endpoints
	timeout   time.Duration
}

func NewDaum(client *fetch.Client, endpoints Endpoints) *Daum {
	return &Daum{fetch: client, endpoints: endpoints, timeout: 10 * time.Second}
}

func (d *Daum) Name() string { return string(news.PortalDaum) }

// Crawl scrapes the section page for the category. Daum has a single fetch
// strategy, so the method recommendation is accepted but unused.
func (d *Daum) Crawl(ctx context.Context, category news.Category, limit int, _ crawlhealth.Method) ([]news.Item, error) {
	path, ok := d.endpoints.Daum.Sections[string(category)]
	if !ok {
		path = "society"
	}
	pageURL := d.endpoints.Daum.SectionBase + path

	html, err := d.fetch.Fetch(ctx, pageURL, fetch.Options{Timeout: d.timeout, Headers: daumHeaders})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var items []news.Item

	// Headlines plus the regular section list.
	doc.Find("a.item_newsheadline2, .list_news2 .item_issue2 a, .list_news .item_issue a").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}

		title := strings.TrimSpace(s.Find(".tit_txt, strong").Text())
		link, _ := s.Attr("href")
		if title == "" || link == "" || len([]rune(title)) < 4 {
			return true
		}
		if !strings.HasPrefix(link, "http") {
			link = "https://news.daum.net" + link
		}

		press := strings.TrimSpace(s.Find(".info_cp, .txt_cp").Text())
		if press == "" {
			press = "다음뉴스"
		}

		items = append(items, news.Item{
			ID:          news.StableID(link, "d"),
			Title:       title,
			Summary:     news.CleanSummary(s.Find(".desc_txt, .desc, .tit_desc, .news_desc").Text()),
			URL:         link,
			Thumbnail:   daumImage(s),
			Source:      news.PortalDaum,
			SourceName:  press,
			Category:    news.GuessCategory(title),
			PublishedAt: news.ParseTimestamp(daumDateText(s), now),
			CollectedAt: now,
		})
		return true
	})

	return items, nil
}

// HotIssues scrapes the realtime issue keywords off the Daum news home page.
// Used for search suggestions.
func (d *Daum) HotIssues(ctx context.Context) ([]string, error) {
	html, err := d.fetch.Fetch(ctx, d.endpoints.Daum.Home, fetch.Options{Timeout: 8 * time.Second, Headers: daumHeaders})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var keywords []string
	doc.Find("a.link_issue, .issue_list a, .realtime_issue a, .hot_issue a").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		n := len([]rune(text))
		if n <= 1 || n >= 20 {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		keywords = append(keywords, text)
	})

	if len(keywords) > 20 {
		keywords = keywords[:20]
	}
	return keywords, nil
}

func daumDateText(s *goquery.Selection) string {
	if t, ok := s.Find("[data-published-time]").Attr("data-published-time"); ok && t != "" {
		return t
	}
	if t, ok := s.Find("[datetime]").Attr("datetime"); ok && t != "" {
		return t
	}
	if t := strings.TrimSpace(s.Find(".info_view, .txt_time, .date, .info_date, time").First().Text()); t != "" {
		return t
	}
	// .txt_info mixes press names and times; pick the time-looking one.
	found := ""
	s.Find(".txt_info").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		t := strings.TrimSpace(span.Text())
		if relativeTimeRe.MatchString(t) {
			found = t
			return false
		}
		return true
	})
	return found
}

var fnameRe = regexp.MustCompile(`fname=(https?[^&\s]+)`)

// daumImage extracts the original image URL out of picture>source srcset,
// falling back to the img tag while skipping inline data: placeholders.
func daumImage(s *goquery.Selection) string {
	if srcset, ok := s.Find("picture source").First().Attr("srcset"); ok && srcset != "" {
		if m := fnameRe.FindStringSubmatch(srcset); m != nil {
			if decoded, err := url.QueryUnescape(m[1]); err == nil {
				return decoded
			}
			return m[1]
		}
		first := strings.TrimSpace(strings.Split(srcset, ",")[0])
		first = strings.Split(first, " ")[0]
		if strings.HasPrefix(first, "//") {
			return "https:" + first
		}
		if first != "" {
			return first
		}
	}

	img, ok := s.Find("img").Attr("data-src")
	if !ok || strings.HasPrefix(img, "data:") {
		img, _ = s.Find("img").Attr("src")
	}
	if strings.HasPrefix(img, "data:") {
		return ""
	}
	if strings.HasPrefix(img, "//") {
		img = "https:" + img
	}
	if !strings.HasPrefix(img, "http") {
		return ""
	}
	return img
}
