// Package trending scores articles against community board chatter and
// selects the hottest ones.
package trending

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/dedup"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

const maxMentionsPerItem = 3

// Keywords are extracted from punctuation-free post titles, so article titles
// get the same treatment before matching or "이재명·한동훈" never matches the
// keyword "이재명 한동훈".
var titleStripRe = regexp.MustCompile(`[^\w가-힣\s]`)

// matchScore computes how strongly a single post's keywords resonate with an
// article title. Longer keywords are rarer and therefore weighted higher; a
// busy comment section adds a small engagement bonus.
func matchScore(title string, post news.CommunityPost) float64 {
	normalized := strings.ToLower(titleStripRe.ReplaceAllString(title, " "))
	normalized = strings.Join(strings.Fields(normalized), " ")

	score := 0.0
	matched := false
	for _, kw := range post.Keywords {
		if len([]rune(kw)) < 2 {
			continue
		}
		if !strings.Contains(normalized, strings.ToLower(kw)) {
			continue
		}
		matched = true
		switch n := len([]rune(kw)); {
		case n >= 4:
			score += 3
		case n >= 3:
			score += 2
		default:
			score += 1
		}
	}
	if !matched {
		return 0
	}

	score += math.Log10(math.Max(float64(post.CommentCount+1), 1)) * 0.5
	return score
}

type scored struct {
	item  news.Item
	score float64
	index int // original position, for stable ordering on ties
}

// FilterTrending picks the limit hottest articles. Items are pre-filtered
// through a looser title dedup first, then each is scored against every
// community post; articles no post mentions rank last in collection order,
// padding the result when fewer than limit items score.
func FilterTrending(items []news.Item, posts []news.CommunityPost, limit int) []news.Item {
	candidates := dedup.ByTitle(dedup.ByURL(items), dedup.TrendingPrefilterThreshold)

	if len(posts) == 0 {
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}
		return candidates
	}

	scoredItems := make([]scored, 0, len(candidates))
	var unscored []news.Item

	for i, item := range candidates {
		total := 0.0
		var mentions []news.CommunityMention
		for _, post := range posts {
			s := matchScore(item.Title, post)
			if s <= 0 {
				continue
			}
			total += s
			if len(mentions) < maxMentionsPerItem {
				mentions = append(mentions, post.Mention())
			}
		}

		if total <= 0 {
			unscored = append(unscored, item)
			continue
		}

		item.TrendScore = int(math.Round(total * 10))
		item.CommunityMentions = mentions
		scoredItems = append(scoredItems, scored{item: item, score: total, index: i})
	}

	sort.SliceStable(scoredItems, func(a, b int) bool {
		if scoredItems[a].score != scoredItems[b].score {
			return scoredItems[a].score > scoredItems[b].score
		}
		return scoredItems[a].index < scoredItems[b].index
	})

	out := make([]news.Item, 0, limit)
	for _, s := range scoredItems {
		if len(out) >= limit {
			break
		}
		out = append(out, s.item)
	}
	for _, item := range unscored {
		if len(out) >= limit {
			break
		}
		out = append(out, item)
	}
	return out
}

const (
	clusterChunkSize = 3
	maxClusters      = 8
)

// ClusterByTopic groups search results for a keyword: articles whose title
// carries the keyword lead clusters of up to clusterChunkSize, each padded
// with one non-matching article. When nothing matches directly, the first
// few results stand alone.
func ClusterByTopic(items []news.Item, keyword string) []news.Cluster {
	if len(items) == 0 {
		return nil
	}

	lowered := strings.ToLower(keyword)
	var primary, secondary []news.Item
	for _, item := range items {
		if strings.Contains(strings.ToLower(item.Title), lowered) {
			primary = append(primary, item)
		} else {
			secondary = append(secondary, item)
		}
	}

	if len(primary) == 0 {
		n := len(items)
		if n > 5 {
			n = 5
		}
		clusters := make([]news.Cluster, 0, n)
		for _, item := range items[:n] {
			clusters = append(clusters, news.Cluster{
				ID:             "cl_" + item.ID,
				Topic:          keyword,
				Representative: item,
			})
		}
		return clusters
	}

	var clusters []news.Cluster
	for i := 0; i < len(primary) && len(clusters) < maxClusters; i += clusterChunkSize {
		end := i + clusterChunkSize
		if end > len(primary) {
			end = len(primary)
		}
		chunk := primary[i:end]

		related := append([]news.Item{}, chunk[1:]...)
		if i < len(secondary) {
			related = append(related, secondary[i])
		}

		clusters = append(clusters, news.Cluster{
			ID:             "cl_" + chunk[0].ID,
			Topic:          keyword,
			Representative: chunk[0],
			Related:        related,
		})
	}
	return clusters
}
