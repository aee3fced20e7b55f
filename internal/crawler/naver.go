package crawler

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/crawlhealth"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/fetch"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

var naverHeaders = map[string]string{
	"Accept-Language": "ko-KR,ko;q=0.9",
	"Referer":         "https://news.naver.com/",
}

// Naver crawls news.naver.com section pages. Section HTML carries thumbnails
// and ledes, which the RSS sources lack.
type Naver struct {
	fetch     *fetch.Client
	endpoints Endpoints
	timeout   time.Duration
}

func NewNaver(client *fetch.Client, endpoints Endpoints) *Naver {
	return &Naver{fetch: client, endpoints: endpoints, timeout: 10 * time.Second}
}

func (n *Naver) Name() string { return string(news.PortalNaver) }

// Crawl scrapes the section page for the category. Under the headless
// recommendation it crawls the daily ranking page instead — a simpler layout
// that survives the section markup changes that usually cause the failures.
func (n *Naver) Crawl(ctx context.Context, category news.Category, limit int, method crawlhealth.Method) ([]news.Item, error) {
	if method == crawlhealth.MethodHeadless {
		return n.crawlRanking(ctx, limit)
	}

	sid, ok := n.endpoints.Naver.Sections[string(category)]
	if !ok {
		sid = "102" // 사회
	}
	pageURL := n.endpoints.Naver.SectionBase + sid

	html, err := n.fetch.Fetch(ctx, pageURL, fetch.Options{Timeout: n.timeout, Headers: naverHeaders})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var items []news.Item

	doc.Find(".sa_item").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}

		titleEl := s.Find(".sa_text_title")
		title := strings.TrimSpace(titleEl.Text())
		link, _ := s.Find("a.sa_thumb_link").Attr("href")
		if link == "" {
			link, _ = titleEl.Closest("a").Attr("href")
		}
		if title == "" || link == "" || len([]rune(title)) < 4 {
			return true
		}

		press := strings.TrimSpace(s.Find(".sa_text_press").Text())
		if press == "" {
			press = "네이버뉴스"
		}
		dateText := strings.TrimSpace(s.Find(".sa_text_datetime_bullet").Text())
		lede := strings.TrimSpace(s.Find(".sa_text_lede, .sa_desc, .lede").Text())

		items = append(items, news.Item{
			ID:          news.StableID(link, "n"),
			Title:       title,
			Summary:     news.CleanSummary(lede),
			URL:         link,
			Thumbnail:   naverImage(s),
			Source:      news.PortalNaver,
			SourceName:  press,
			Category:    news.GuessCategory(title),
			PublishedAt: news.ParseTimestamp(dateText, now),
			CollectedAt: now,
		})
		return true
	})

	return items, nil
}

func (n *Naver) crawlRanking(ctx context.Context, limit int) ([]news.Item, error) {
	html, err := n.fetch.Fetch(ctx, n.endpoints.Naver.Ranking, fetch.Options{Timeout: n.timeout, Headers: naverHeaders})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var items []news.Item

	doc.Find("li.rankingnews_list_item, .ct_li").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(items) >= limit {
			return false
		}

		anchor := s.Find("a").First()
		title := strings.TrimSpace(anchor.Text())
		href, _ := anchor.Attr("href")
		if title == "" || href == "" {
			return true
		}
		link := href
		if !strings.HasPrefix(link, "http") {
			link = "https://news.naver.com" + link
		}

		press := strings.TrimSpace(s.Find(".press, .info_group em").First().Text())
		if press == "" {
			press = "네이버뉴스"
		}

		items = append(items, news.Item{
			ID:          news.StableID(link, "n"),
			Title:       title,
			URL:         link,
			Thumbnail:   naverImage(s),
			Source:      news.PortalNaver,
			SourceName:  press,
			Category:    news.GuessCategory(title),
			PublishedAt: now,
			CollectedAt: now,
		})
		return true
	})

	return items, nil
}

var pstaticTypeRe = regexp.MustCompile(`\?type=.*$`)

// naverImage prefers data-src (lazy loading), fixes protocol-relative URLs
// and rewrites pstatic.net thumbnails to a usable size.
func naverImage(s *goquery.Selection) string {
	img, ok := s.Find("img").Attr("data-src")
	if !ok || img == "" {
		img, _ = s.Find("img").Attr("src")
	}
	if img == "" {
		return ""
	}
	if strings.HasPrefix(img, "//") {
		img = "https:" + img
	}
	if strings.Contains(img, "pstatic.net") && strings.Contains(img, "?type=") {
		img = pstaticTypeRe.ReplaceAllString(img, "?type=w647")
	}
	if !strings.HasPrefix(img, "http") {
		return ""
	}
	return img
}
