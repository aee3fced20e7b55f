// Package dedup removes same-article duplicates collected from different
// portals: first by canonical URL, then by near-duplicate title clustering.
package dedup

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

const (
	// DefaultTitleThreshold is used on the aggregation path.
	DefaultTitleThreshold = 0.65
	// TrendingPrefilterThreshold is the looser pre-filter on the trending
	// path. The two values are intentionally kept distinct; see DESIGN.md.
	TrendingPrefilterThreshold = 0.60
)

var (
	bracketTagRe = regexp.MustCompile(`\[.*?\]|【.*?】|〔.*?〕`)
	nonWordRe    = regexp.MustCompile(`[^\w가-힣\s]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// NormalizeTitle strips press tags and punctuation, collapses whitespace and
// lowercases, so titles from different portals compare cleanly.
func NormalizeTitle(title string) string {
	t := bracketTagRe.ReplaceAllString(title, "")
	t = nonWordRe.ReplaceAllString(t, "")
	t = multiSpaceRe.ReplaceAllString(t, " ")
	return strings.ToLower(strings.TrimSpace(t))
}

func bigrams(text string) map[string]struct{} {
	runes := []rune(text)
	set := make(map[string]struct{}, len(runes))
	for i := 0; i+2 <= len(runes); i++ {
		set[string(runes[i:i+2])] = struct{}{}
	}
	return set
}

// JaccardSimilarity compares two titles over their 2-character shingle sets.
// Both empty counts as identical; exactly one empty as disjoint.
func JaccardSimilarity(a, b string) float64 {
	setA := bigrams(a)
	setB := bigrams(b)

	if len(setA) == 0 && len(setB) == 0 {
		return 1
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for gram := range setA {
		if _, ok := setB[gram]; ok {
			intersection++
		}
	}
	return float64(intersection) / float64(len(setA)+len(setB)-intersection)
}

// ByURL drops items whose canonical URL was already seen in this batch.
// First occurrence wins.
func ByURL(items []news.Item) []news.Item {
	seen := make(map[string]struct{}, len(items))
	unique := make([]news.Item, 0, len(items))
	for _, item := range items {
		key := news.CanonicalURL(item.URL)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, item)
	}
	return unique
}

// ByTitle rejects an item when its normalized title is at least threshold
// similar to ANY already-accepted title. Comparison order is insertion order;
// O(n²) is fine at the batch sizes this pipeline sees (hundreds).
func ByTitle(items []news.Item, threshold float64) []news.Item {
	unique := make([]news.Item, 0, len(items))
	accepted := make([]string, 0, len(items))

	for _, item := range items {
		normalized := NormalizeTitle(item.Title)
		isDuplicate := false

		for _, existing := range accepted {
			if JaccardSimilarity(normalized, existing) >= threshold {
				isDuplicate = true
				break
			}
		}

		if !isDuplicate {
			unique = append(unique, item)
			accepted = append(accepted, normalized)
		}
	}
	return unique
}

// Process is the standard aggregation-path pass: URL dedup, then title dedup
// at the default threshold, then newest first. Pure per call, no cross-call
// memory.
func Process(items []news.Item) []news.Item {
	out := ByTitle(ByURL(items), DefaultTitleThreshold)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PublishedAt.After(out[j].PublishedAt)
	})
	return out
}
