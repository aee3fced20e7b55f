// Package news holds the canonical article and community-post records shared
// by the crawl, dedup, trending and summarization stages.
package news

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"
)

// Portal identifies a news source.
type Portal string

const (
	PortalNaver  Portal = "naver"
	PortalDaum   Portal = "daum"
	PortalGoogle Portal = "google"
)

// CommunitySource identifies a discussion board used as a trend signal.
type CommunitySource string

const (
	CommunityDcinside CommunitySource = "dcinside"
	CommunityFmkorea  CommunitySource = "fmkorea"
	CommunityClien    CommunitySource = "clien"
)

// Item is one canonical article. Crawlers create it, trend scoring adds
// TrendScore/CommunityMentions, summarization adds SummaryLines/Conclusion.
// Dedup only filters, never mutates.
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Summary     string    `json:"summary,omitempty"`
	URL         string    `json:"url"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Source      Portal    `json:"source"`
	SourceName  string    `json:"sourceName"` // press name, e.g. "조선일보"
	Category    Category  `json:"category"`
	PublishedAt time.Time `json:"publishedAt"`
	CollectedAt time.Time `json:"collectedAt"`

	// Trending path only
	TrendScore        int                `json:"trendScore,omitempty"`
	CommunityMentions []CommunityMention `json:"communityMentions,omitempty"`

	// Filled by the summarization scheduler
	SummaryLines []string `json:"summaryLines,omitempty"`
	Conclusion   string   `json:"conclusion,omitempty"`
}

// CommunityMention is one board post attached to a trending article.
type CommunityMention struct {
	Source       CommunitySource `json:"source"`
	PostTitle    string          `json:"postTitle"`
	PostURL      string          `json:"postUrl"`
	CommentCount int             `json:"commentCount"`
	ViewCount    int             `json:"viewCount"`
	CollectedAt  time.Time       `json:"collectedAt"`
}

// CommunityPost is a board post used only as a trend-signal source.
// Never persisted.
type CommunityPost struct {
	Source       CommunitySource
	PostTitle    string
	PostURL      string
	CommentCount int
	ViewCount    int
	Keywords     []string // words + adjacent-word bigrams
}

// Mention converts a post into the form embedded in a trending article.
func (p CommunityPost) Mention() CommunityMention {
	return CommunityMention{
		Source:       p.Source,
		PostTitle:    p.PostTitle,
		PostURL:      p.PostURL,
		CommentCount: p.CommentCount,
		ViewCount:    p.ViewCount,
		CollectedAt:  time.Now(),
	}
}

// CanonicalURL strips the query string; this is the dedup key.
func CanonicalURL(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// StableID derives an item ID from the canonical URL, so the same article
// recrawled later maps to the same identity. Summarization resumability and
// the item cache depend on this.
func StableID(rawURL, prefix string) string {
	sum := md5.Sum([]byte(CanonicalURL(rawURL)))
	return prefix + "_" + hex.EncodeToString(sum[:])[:12]
}

// TrendingResponse is the trending-path result.
type TrendingResponse struct {
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LatestResponse is one page of the latest-path result.
type LatestResponse struct {
	Items     []Item    `json:"items"`
	Total     int       `json:"total"`
	Page      int       `json:"page"`
	HasMore   bool      `json:"hasMore"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Cluster groups search results under a representative article.
type Cluster struct {
	ID             string `json:"id"`
	Topic          string `json:"topic"`
	Representative Item   `json:"representative"`
	Related        []Item `json:"related"`
}

// SearchResponse is the search-path result.
type SearchResponse struct {
	Keyword     string    `json:"keyword"`
	Total       int       `json:"total"`
	Clusters    []Cluster `json:"clusters"`
	Suggestions []string  `json:"suggestions"`
}
