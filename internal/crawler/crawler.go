// Package crawler defines the source contracts and the per-site adapters
// that turn portal pages, RSS feeds and community boards into canonical
// records.
package crawler

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/crawlhealth"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

// Source is one news-portal crawler. Crawl must never block indefinitely
// (every network call goes through the fetch layer) and may return an error;
// the orchestrator treats errors as a zero-item contribution.
type Source interface {
	Name() string
	Crawl(ctx context.Context, category news.Category, limit int, method crawlhealth.Method) ([]news.Item, error)
}

// Community is one discussion-board crawler producing trend-signal posts.
type Community interface {
	Name() string
	Crawl(ctx context.Context, limit int) ([]news.CommunityPost, error)
}

// Endpoints holds the crawl URLs. Every site has compiled-in defaults;
// a YAML file can override them when a portal shuffles its layout.
type Endpoints struct {
	Google struct {
		Headlines  string            `yaml:"headlines"`
		Categories map[string]string `yaml:"categories"`
		SearchBase string            `yaml:"search_base"`
	} `yaml:"google"`
	Naver struct {
		SectionBase string            `yaml:"section_base"`
		Sections    map[string]string `yaml:"sections"`
		Ranking     string            `yaml:"ranking"`
	} `yaml:"naver"`
	Daum struct {
		SectionBase string            `yaml:"section_base"`
		Sections    map[string]string `yaml:"sections"`
		Home        string            `yaml:"home"`
	} `yaml:"daum"`
	Communities struct {
		Dcinside []string `yaml:"dcinside"`
		Fmkorea  string   `yaml:"fmkorea"`
		Clien    string   `yaml:"clien"`
	} `yaml:"communities"`
}

const googleRSSBase = "https://news.google.com/rss"

// DefaultEndpoints returns the known-good crawl URLs for every source.
func DefaultEndpoints() Endpoints {
	var e Endpoints

	e.Google.Headlines = googleRSSBase + "?hl=ko&gl=KR&ceid=KR:ko"
	e.Google.SearchBase = googleRSSBase + "/search"
	e.Google.Categories = map[string]string{
		string(news.CategoryEconomy):       googleRSSBase + "/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNRGx6TVdZU0FtdHZHZ0pMVWlnQVAB?hl=ko&gl=KR&ceid=KR:ko",
		string(news.CategorySociety):       googleRSSBase + "/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNRGRqTVhZU0FtdHZHZ0pMVWlnQVAB?hl=ko&gl=KR&ceid=KR:ko",
		string(news.CategoryPolitics):      googleRSSBase + "/topics/CAAqIQgKIhtDQkFTRGdvSUwyMHZNRFZ4ZERBU0FtdHZLQUFQAQ?hl=ko&gl=KR&ceid=KR:ko",
		string(news.CategoryTech):          googleRSSBase + "/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNRGRqTVhZU0FtdHZHZ0pMVWlnQVAB?hl=ko&gl=KR&ceid=KR:ko",
		string(news.CategorySports):        googleRSSBase + "/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNR1ptZDNZU0FtdHZHZ0pMVWlnQVAB?hl=ko&gl=KR&ceid=KR:ko",
		string(news.CategoryEntertainment): googleRSSBase + "/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNREpxYW5RU0FtdHZHZ0pMVWlnQVAB?hl=ko&gl=KR&ceid=KR:ko",
		string(news.CategoryWorld):         googleRSSBase + "/topics/CAAqJggKIiBDQkFTRWdvSUwyMHZNRGx1YlY4U0FtdHZHZ0pMVWlnQVAB?hl=ko&gl=KR&ceid=KR:ko",
		string(news.CategoryIncident):      googleRSSBase + "/search?q=사건+사고&hl=ko&gl=KR&ceid=KR:ko",
	}

	e.Naver.SectionBase = "https://news.naver.com/section/"
	e.Naver.Sections = map[string]string{
		string(news.CategoryPolitics):      "100",
		string(news.CategoryEconomy):       "101",
		string(news.CategorySociety):       "102",
		string(news.CategoryWorld):         "104",
		string(news.CategoryTech):          "105",
		string(news.CategoryEntertainment): "106",
		string(news.CategorySports):        "107",
	}
	e.Naver.Ranking = "https://news.naver.com/main/ranking/popularDay.naver"

	e.Daum.SectionBase = "https://news.daum.net/"
	e.Daum.Sections = map[string]string{
		string(news.CategoryEconomy):       "economy",
		string(news.CategorySociety):       "society",
		string(news.CategoryPolitics):      "politics",
		string(news.CategoryEntertainment): "entertain",
		string(news.CategorySports):        "sports",
		string(news.CategoryWorld):         "foreign",
	}
	e.Daum.Home = "https://news.daum.net/"

	e.Communities.Dcinside = []string{
		"https://gall.dcinside.com/board/lists/?id=dcbest",
		"https://www.dcinside.com/index.php",
	}
	e.Communities.Fmkorea = "https://www.fmkorea.com/best"
	e.Communities.Clien = "https://www.clien.net/service/board/cm_allmovie?sort=popular&po=0"

	return e
}

// LoadEndpoints reads endpoint overrides from a YAML file, merged over the
// defaults. A missing file is not an error.
func LoadEndpoints(path string) (Endpoints, error) {
	e := DefaultEndpoints()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return e, nil
	}
	if err != nil {
		return e, fmt.Errorf("read sources config: %w", err)
	}

	if err := yaml.Unmarshal(data, &e); err != nil {
		return e, fmt.Errorf("parse sources config: %w", err)
	}
	return e, nil
}
