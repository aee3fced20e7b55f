package crawler

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/fetch"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

const minPostTitleRunes = 3

var countRe = regexp.MustCompile(`\d+`)

func parseCount(s string) int {
	m := countRe.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0
	}
	n, _ := strconv.Atoi(m)
	return n
}

// Dcinside crawls the dcbest gallery, falling back to the main page when the
// gallery list returns nothing.
type Dcinside struct {
	fetch   *fetch.Client
	urls    []string
	timeout time.Duration
}

func NewDcinside(client *fetch.Client, endpoints Endpoints) *Dcinside {
	return &Dcinside{fetch: client, urls: endpoints.Communities.Dcinside, timeout: 8 * time.Second}
}

func (d *Dcinside) Name() string { return string(news.CommunityDcinside) }

func (d *Dcinside) Crawl(ctx context.Context, limit int) ([]news.CommunityPost, error) {
	headers := map[string]string{
		"Referer": "https://www.dcinside.com/",
		"Cookie":  "DCID=1",
	}

	var lastErr error
	for _, pageURL := range d.urls {
		html, err := d.fetch.Fetch(ctx, pageURL, fetch.Options{Timeout: d.timeout, Headers: headers})
		if err != nil {
			lastErr = err
			continue
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			lastErr = err
			continue
		}

		var posts []news.CommunityPost
		doc.Find("tr.ub-content, .gall_list tr, tr[data-no]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if len(posts) >= limit {
				return false
			}

			anchor := s.Find(".gall_tit a:not(.reply_num)").First()
			title := strings.TrimSpace(anchor.Text())
			href, _ := anchor.Attr("href")
			if title == "" || href == "" || strings.HasPrefix(href, "javascript:") {
				return true
			}
			if len([]rune(title)) < minPostTitleRunes {
				return true
			}
			if !strings.HasPrefix(href, "http") {
				href = "https://gall.dcinside.com" + href
			}

			posts = append(posts, news.CommunityPost{
				Source:       news.CommunityDcinside,
				PostTitle:    title,
				PostURL:      href,
				CommentCount: parseCount(s.Find(".reply_num, .gall_comment").First().Text()),
				ViewCount:    parseCount(s.Find(".gall_count").First().Text()),
				Keywords:     ExtractKeywords(title),
			})
			return true
		})

		if len(posts) > 0 {
			return posts, nil
		}
	}

	return nil, lastErr
}

// Fmkorea crawls the best board. Titles carry a trailing comment count in
// brackets, e.g. "제목 [52]".
type Fmkorea struct {
	fetch   *fetch.Client
	url     string
	timeout time.Duration
}

func NewFmkorea(client *fetch.Client, endpoints Endpoints) *Fmkorea {
	return &Fmkorea{fetch: client, url: endpoints.Communities.Fmkorea, timeout: 8 * time.Second}
}

func (f *Fmkorea) Name() string { return string(news.CommunityFmkorea) }

var fmTrailingCountRe = regexp.MustCompile(`\s*\[(\d+)\]\s*$`)

func (f *Fmkorea) Crawl(ctx context.Context, limit int) ([]news.CommunityPost, error) {
	headers := map[string]string{
		"Referer": "https://www.fmkorea.com/",
		"Cookie":  "fm_visited=1",
	}

	html, err := f.fetch.Fetch(ctx, f.url, fetch.Options{Timeout: f.timeout, Headers: headers})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var posts []news.CommunityPost
	doc.Find("li").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(posts) >= limit {
			return false
		}

		anchor := s.Find("h3 > a").First()
		href, _ := anchor.Attr("href")
		if href == "" || !strings.HasPrefix(href, "/best/") {
			return true
		}

		title := strings.TrimSpace(anchor.Text())
		comments := 0
		if m := fmTrailingCountRe.FindStringSubmatch(title); m != nil {
			comments, _ = strconv.Atoi(m[1])
			title = strings.TrimSpace(fmTrailingCountRe.ReplaceAllString(title, ""))
		}
		if len([]rune(title)) < minPostTitleRunes {
			return true
		}

		posts = append(posts, news.CommunityPost{
			Source:       news.CommunityFmkorea,
			PostTitle:    title,
			PostURL:      "https://www.fmkorea.com" + href,
			CommentCount: comments,
			Keywords:     ExtractKeywords(title),
		})
		return true
	})

	return posts, nil
}

// Clien crawls the popular post list.
type Clien struct {
	fetch   *fetch.Client
	url     string
	timeout time.Duration
}

func NewClien(client *fetch.Client, endpoints Endpoints) *Clien {
	return &Clien{fetch: client, url: endpoints.Communities.Clien, timeout: 8 * time.Second}
}

func (c *Clien) Name() string { return string(news.CommunityClien) }

func (c *Clien) Crawl(ctx context.Context, limit int) ([]news.CommunityPost, error) {
	html, err := c.fetch.Fetch(ctx, c.url, fetch.Options{Timeout: c.timeout})
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var posts []news.CommunityPost
	doc.Find("div.list_item").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(posts) >= limit {
			return false
		}

		anchor := s.Find("a.subject_fixed").First()
		if anchor.Length() == 0 {
			anchor = s.Find(".post_subject a").First()
		}
		title := strings.TrimSpace(anchor.Text())
		href, _ := anchor.Attr("href")
		if title == "" || href == "" || len([]rune(title)) < minPostTitleRunes {
			return true
		}
		if !strings.HasPrefix(href, "http") {
			href = "https://www.clien.net" + href
		}

		posts = append(posts, news.CommunityPost{
			Source:       news.CommunityClien,
			PostTitle:    title,
			PostURL:      href,
			CommentCount: parseCount(s.Find(".list_reply_cnt, .comment_count").First().Text()),
			ViewCount:    parseCount(s.Find(".list_hit, .view_count").First().Text()),
			Keywords:     ExtractKeywords(title),
		})
		return true
	})

	return posts, nil
}
