// Package aggregator orchestrates the crawl fan-out and assembles the
// trending, latest and search responses.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/cache"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/crawler"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/crawlhealth"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/dedup"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/metrics"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/scraper"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/store"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/trending"
)

const perSourceLimit = 30

// Portals have no section for these categories; crawl the listed sections
// instead and keep the items whose guessed category matches.
var categoryFallbacks = map[news.Category][]news.Category{
	news.CategoryIncident: {news.CategorySociety, news.CategoryPolitics},
	news.CategoryEtc:      {news.CategorySociety, news.CategoryEconomy},
}

// Options carries the tunables the orchestrator needs.
type Options struct {
	NewsDeadline      time.Duration
	CommunityDeadline time.Duration
	TrendingLimit     int
	PageSize          int
	CacheTTL          time.Duration
}

// Searcher serves the keyword search path.
type Searcher interface {
	Search(ctx context.Context, keyword string, limit int) ([]news.Item, error)
}

// IssueSource supplies hot-issue keywords for search suggestions.
type IssueSource interface {
	HotIssues(ctx context.Context) ([]string, error)
}

// Aggregator fans crawls out, settles them against deadlines and serves the
// three read paths. A slow or broken source degrades to an empty contribution
// instead of failing the response.
type Aggregator struct {
	sources     []crawler.Source
	communities []crawler.Community
	searcher    Searcher
	issues      IssueSource

	tracker  *crawlhealth.Tracker
	enricher *scraper.Enricher
	store    store.Store
	respCache *cache.Cache
	itemCache *cache.ItemCache
	log      *slog.Logger
	opts     Options
}

func New(
	sources []crawler.Source,
	communities []crawler.Community,
	searcher Searcher,
	issues IssueSource,
	tracker *crawlhealth.Tracker,
	enricher *scraper.Enricher,
	st store.Store,
	opts Options,
	log *slog.Logger,
) *Aggregator {
	return &Aggregator{
		sources:     sources,
		communities: communities,
		searcher:    searcher,
		issues:      issues,
		tracker:     tracker,
		enricher:    enricher,
		store:       st,
		respCache:   cache.New(),
		itemCache:   cache.NewItemCache(),
		log:         log,
		opts:        opts,
	}
}

// Trending crawls all portals and community boards, scores articles against
// board chatter and returns the hottest ones with any stored summaries
// attached.
func (a *Aggregator) Trending(ctx context.Context) (news.TrendingResponse, error) {
	if cached, ok := a.respCache.Get("trending"); ok {
		metrics.Global.IncrementCacheHits()
		return cached.(news.TrendingResponse), nil
	}

	start := time.Now()

	items := a.collectNews(ctx, "", perSourceLimit)
	posts := a.collectCommunity(ctx)

	before := len(items)
	selected := trending.FilterTrending(items, posts, a.opts.TrendingLimit)
	metrics.Global.AddItemsCollected(before)
	metrics.Global.AddDuplicatesFiltered(before - len(selected))
	metrics.Global.AddTrendingSelected(len(selected))

	selected = a.enricher.Enrich(ctx, selected)
	a.attachSummaries(selected)

	if err := a.store.SaveItems(selected); err != nil {
		a.log.Warn("failed to record trending items", "error", err)
	}
	a.itemCache.Put(selected)

	resp := news.TrendingResponse{Items: selected, UpdatedAt: time.Now()}
	a.respCache.Set("trending", resp, a.opts.CacheTTL)

	metrics.Global.RecordAggregationTime(time.Since(start))
	metrics.Global.SetLastRun()
	return resp, nil
}

// Latest returns one page of the deduplicated, newest-first feed for a
// category.
func (a *Aggregator) Latest(ctx context.Context, category news.Category, page int) (news.LatestResponse, error) {
	if page < 1 {
		page = 1
	}

	items, err := a.latestAll(ctx, category)
	if err != nil {
		return news.LatestResponse{}, err
	}

	total := len(items)
	offset := (page - 1) * a.opts.PageSize
	if offset > total {
		offset = total
	}
	end := offset + a.opts.PageSize
	if end > total {
		end = total
	}

	return news.LatestResponse{
		Items:     items[offset:end],
		Total:     total,
		Page:      page,
		HasMore:   offset+a.opts.PageSize < total,
		UpdatedAt: time.Now(),
	}, nil
}

func (a *Aggregator) latestAll(ctx context.Context, category news.Category) ([]news.Item, error) {
	key := "latest:" + string(category)
	if cached, ok := a.respCache.Get(key); ok {
		metrics.Global.IncrementCacheHits()
		return cached.([]news.Item), nil
	}

	start := time.Now()

	crawlCategories := []news.Category{category}
	if fallbacks, ok := categoryFallbacks[category]; ok {
		crawlCategories = fallbacks
	}

	var collected []news.Item
	for _, c := range crawlCategories {
		collected = append(collected, a.collectNews(ctx, c, perSourceLimit)...)
	}

	// Fallback sections carry mixed content; keep what matches.
	if _, usedFallback := categoryFallbacks[category]; usedFallback {
		filtered := collected[:0]
		for _, item := range collected {
			if news.GuessCategory(item.Title) == category {
				filtered = append(filtered, item)
			}
		}
		collected = filtered
	}

	before := len(collected)
	items := dedup.Process(collected)
	metrics.Global.AddItemsCollected(before)
	metrics.Global.AddDuplicatesFiltered(before - len(items))

	items = a.enricher.Enrich(ctx, items)
	a.attachSummaries(items)

	if err := a.store.SaveItems(items); err != nil {
		a.log.Warn("failed to record latest items", "error", err)
	}
	a.itemCache.Put(items)
	a.respCache.Set(key, items, a.opts.CacheTTL)

	metrics.Global.RecordAggregationTime(time.Since(start))
	metrics.Global.SetLastRun()
	return items, nil
}

// Search responses churn faster than the feed caches.
const searchCacheTTL = 30 * time.Second

const maxSuggestions = 5

// Search queries the RSS search feed and groups the results into topic
// clusters, with hot-issue keywords as suggestions.
func (a *Aggregator) Search(ctx context.Context, keyword string, limit int) (news.SearchResponse, error) {
	if keyword == "" {
		return news.SearchResponse{}, fmt.Errorf("empty search keyword")
	}
	if limit <= 0 {
		limit = perSourceLimit
	}

	key := "search:" + keyword
	if cached, ok := a.respCache.Get(key); ok {
		metrics.Global.IncrementCacheHits()
		return cached.(news.SearchResponse), nil
	}

	items, err := a.searcher.Search(ctx, keyword, limit)
	if err != nil {
		return news.SearchResponse{}, fmt.Errorf("search %q: %w", keyword, err)
	}
	items = dedup.Process(items)
	a.itemCache.Put(items)

	resp := news.SearchResponse{
		Keyword:     keyword,
		Total:       len(items),
		Clusters:    trending.ClusterByTopic(items, keyword),
		Suggestions: a.suggestions(ctx, keyword),
	}
	a.respCache.Set(key, resp, searchCacheTTL)
	return resp, nil
}

// suggestions surfaces hot-issue keywords minus the query itself, with a
// keyword-derived fallback when the hot-issue source is down.
func (a *Aggregator) suggestions(ctx context.Context, keyword string) []string {
	hot, err := a.issues.HotIssues(ctx)
	if err != nil {
		a.log.Debug("hot issues unavailable", "error", err)
		return []string{keyword + " 최신", keyword + " 원인", keyword + " 오늘"}
	}

	out := make([]string, 0, maxSuggestions)
	for _, k := range hot {
		if k == keyword {
			continue
		}
		out = append(out, k)
		if len(out) >= maxSuggestions {
			break
		}
	}
	return out
}

// Item returns a recently served article by ID.
func (a *Aggregator) Item(id string) (news.Item, bool) {
	item, ok := a.itemCache.Get(id)
	if ok {
		metrics.Global.IncrementCacheHits()
	}
	return item, ok
}

// CrawlLogs exposes recent crawl health entries for the monitoring endpoint.
func (a *Aggregator) CrawlLogs(n int) []crawlhealth.Entry {
	return a.tracker.RecentLogs(n)
}

type sourceResult struct {
	source   string
	items    []news.Item
	err      error
	method   crawlhealth.Method
	duration time.Duration
}

// collectNews fans out over the portal crawlers and settles everything
// against the news deadline. A source past the deadline contributes nothing;
// every outcome is recorded with the health tracker.
func (a *Aggregator) collectNews(ctx context.Context, category news.Category, limit int) []news.Item {
	ctx, cancel := context.WithTimeout(ctx, a.opts.NewsDeadline)
	defer cancel()

	results := make(chan sourceResult, len(a.sources))
	launched := 0

	for _, src := range a.sources {
		if a.tracker.IsSkipped(src.Name()) {
			a.log.Info("skipping unhealthy source", "source", src.Name())
			continue
		}
		launched++

		go func(src crawler.Source) {
			method := a.tracker.RecommendedMethod(src.Name())
			begin := time.Now()
			items, err := src.Crawl(ctx, category, limit, method)
			results <- sourceResult{
				source:   src.Name(),
				items:    items,
				err:      err,
				method:   method,
				duration: time.Since(begin),
			}
		}(src)
	}

	var collected []news.Item
	for i := 0; i < launched; i++ {
		select {
		case r := <-results:
			failed := 0
			if r.err != nil {
				failed = 1
				metrics.Global.IncrementCrawlFailures()
				a.log.Warn("source crawl failed", "source", r.source, "error", r.err)
			}
			a.tracker.Record(r.source, len(r.items), failed, r.method, r.duration)
			collected = append(collected, r.items...)
		case <-ctx.Done():
			a.log.Warn("news deadline hit, settling with partial results",
				"settled", i, "launched", launched)
			return collected
		}
	}
	return collected
}

func (a *Aggregator) collectCommunity(ctx context.Context) []news.CommunityPost {
	ctx, cancel := context.WithTimeout(ctx, a.opts.CommunityDeadline)
	defer cancel()

	type result struct {
		source string
		posts  []news.CommunityPost
		err    error
	}
	results := make(chan result, len(a.communities))

	for _, board := range a.communities {
		go func(board crawler.Community) {
			posts, err := board.Crawl(ctx, perSourceLimit)
			results <- result{source: board.Name(), posts: posts, err: err}
		}(board)
	}

	var posts []news.CommunityPost
	for i := 0; i < len(a.communities); i++ {
		select {
		case r := <-results:
			if r.err != nil {
				a.log.Warn("community crawl failed", "source", r.source, "error", r.err)
				continue
			}
			posts = append(posts, r.posts...)
		case <-ctx.Done():
			a.log.Warn("community deadline hit, settling with partial results",
				"settled", i, "launched", len(a.communities))
			return posts
		}
	}
	return posts
}

// attachSummaries fills in stored summary lines for items that already went
// through the summarization scheduler.
func (a *Aggregator) attachSummaries(items []news.Item) {
	if len(items) == 0 {
		return
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	summaries, err := a.store.GetSummaries(ids)
	if err != nil {
		a.log.Warn("failed to load summaries", "error", err)
		return
	}
	for i := range items {
		if s, ok := summaries[items[i].ID]; ok {
			items[i].SummaryLines = s.Lines
			items[i].Conclusion = s.Conclusion
		}
	}
}
