package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/crawler"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/crawlhealth"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/fetch"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/scraper"
	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/store"
)

// fakeSource serves canned items, optionally failing or stalling.
type fakeSource struct {
	name  string
	items []news.Item
	err   error
	delay time.Duration
	calls int
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Crawl(ctx context.Context, _ news.Category, _ int, _ crawlhealth.Method) ([]news.Item, error) {
	f.calls++
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	return f.items, f.err
}

type fakeCommunity struct {
	name  string
	posts []news.CommunityPost
	err   error
}

func (f *fakeCommunity) Name() string { return f.name }
func (f *fakeCommunity) Crawl(ctx context.Context, _ int) ([]news.CommunityPost, error) {
	return f.posts, f.err
}

type fakeSearcher struct {
	items []news.Item
	err   error
}

func (f *fakeSearcher) Search(_ context.Context, _ string, _ int) ([]news.Item, error) {
	return f.items, f.err
}

type fakeIssues struct{ keywords []string }

func (f *fakeIssues) HotIssues(context.Context) ([]string, error) { return f.keywords, nil }

type failingIssues struct{}

func (failingIssues) HotIssues(context.Context) ([]string, error) {
	return nil, fmt.Errorf("hot issue page unreachable")
}

type memStore struct {
	saved     []news.Item
	summaries map[string]store.Summary
}

func newMemStore() *memStore {
	return &memStore{summaries: make(map[string]store.Summary)}
}

func (m *memStore) SaveItems(items []news.Item) error {
	m.saved = append(m.saved, items...)
	return nil
}

func (m *memStore) GetSummaries(ids []string) (map[string]store.Summary, error) {
	out := make(map[string]store.Summary)
	for _, id := range ids {
		if s, ok := m.summaries[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (m *memStore) UnsummarizedCount() (int, error)                   { return 0, nil }
func (m *memStore) ListUnsummarized(int) ([]store.PendingItem, error) { return nil, nil }
func (m *memStore) BatchWriteSummaries([]store.Summary) error         { return nil }
func (m *memStore) LoadCycle() (store.Cycle, error)                   { return store.Cycle{}, nil }
func (m *memStore) SaveCycle(store.Cycle) error                       { return nil }
func (m *memStore) Cleanup(time.Duration) (int, error)                { return 0, nil }
func (m *memStore) Close() error                                      { return nil }

// enriched returns an item that already has a thumbnail and summary so the
// meta enricher has nothing to fetch.
func enriched(id, title string) news.Item {
	return news.Item{
		ID: id, Title: title,
		URL:         "https://ex.com/" + id,
		Thumbnail:   "https://img.ex.com/" + id + ".jpg",
		Summary:     "요약 " + title,
		PublishedAt: time.Now(),
	}
}

func newTestAggregator(t *testing.T, sources []crawler.Source, communities []crawler.Community, searcher Searcher, st store.Store) *Aggregator {
	t.Helper()
	log := slog.Default()
	return New(sources, communities, searcher, &fakeIssues{keywords: []string{"환율", "반도체"}},
		crawlhealth.New(log), scraper.NewEnricher(fetch.New(), log), st, Options{
			NewsDeadline:      2 * time.Second,
			CommunityDeadline: time.Second,
			TrendingLimit:     20,
			PageSize:          3,
			CacheTTL:          time.Minute,
		}, log)
}

func TestTrendingMergesSourcesAndSurvivesFailure(t *testing.T) {
	good := &fakeSource{name: "naver", items: []news.Item{
		enriched("n_1", "인공지능 투자 확대 발표"),
		enriched("n_2", "완전히 다른 스포츠 소식"),
	}}
	broken := &fakeSource{name: "daum", err: fmt.Errorf("layout changed")}
	st := newMemStore()

	agg := newTestAggregator(t, []crawler.Source{good, broken},
		[]crawler.Community{&fakeCommunity{name: "fmkorea", posts: []news.CommunityPost{
			{Source: news.CommunityFmkorea, PostTitle: "인공지능 실화냐", CommentCount: 99, Keywords: []string{"인공지능"}},
		}}}, &fakeSearcher{}, st)

	resp, err := agg.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Items, 2)

	// Community-matched article ranks first with a score and mention.
	assert.Equal(t, "n_1", resp.Items[0].ID)
	assert.Equal(t, 40, resp.Items[0].TrendScore)
	assert.Len(t, resp.Items[0].CommunityMentions, 1)
	assert.Zero(t, resp.Items[1].TrendScore)

	// Items were recorded for the summarization backlog.
	assert.Len(t, st.saved, 2)
}

func TestTrendingCachesResponse(t *testing.T) {
	src := &fakeSource{name: "naver", items: []news.Item{enriched("n_1", "기사 제목 하나")}}
	agg := newTestAggregator(t, []crawler.Source{src}, nil, &fakeSearcher{}, newMemStore())

	_, err := agg.Trending(context.Background())
	require.NoError(t, err)
	_, err = agg.Trending(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
}

func TestTrendingDeadlineSettlesPartial(t *testing.T) {
	fast := &fakeSource{name: "naver", items: []news.Item{enriched("n_1", "빠른 소스 기사")}}
	slow := &fakeSource{name: "daum", delay: 5 * time.Second, items: []news.Item{enriched("d_1", "느린 소스 기사")}}

	agg := New([]crawler.Source{fast, slow}, nil, &fakeSearcher{}, &fakeIssues{},
		crawlhealth.New(slog.Default()), scraper.NewEnricher(fetch.New(), slog.Default()), newMemStore(), Options{
			NewsDeadline:      200 * time.Millisecond,
			CommunityDeadline: 100 * time.Millisecond,
			TrendingLimit:     20,
			PageSize:          10,
			CacheTTL:          time.Minute,
		}, slog.Default())

	start := time.Now()
	resp, err := agg.Trending(context.Background())
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "n_1", resp.Items[0].ID)
}

func TestTrendingAttachesStoredSummaries(t *testing.T) {
	src := &fakeSource{name: "naver", items: []news.Item{enriched("n_1", "요약된 기사 제목")}}
	st := newMemStore()
	st.summaries["n_1"] = store.Summary{
		ItemID: "n_1", Lines: []string{"요약 줄임"}, Conclusion: "결론임",
	}

	agg := newTestAggregator(t, []crawler.Source{src}, nil, &fakeSearcher{}, st)

	resp, err := agg.Trending(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, []string{"요약 줄임"}, resp.Items[0].SummaryLines)
	assert.Equal(t, "결론임", resp.Items[0].Conclusion)
}

func TestLatestPagination(t *testing.T) {
	now := time.Now()
	var items []news.Item
	titles := []string{
		"전세 사기 일당 검거 소식",
		"음주운전 사고로 2명 부상",
		"대형 화재 진압 완료 발표",
		"보이스피싱 조직 체포 작전",
		"실종 아동 무사 발견 소식",
	}
	for i, title := range titles {
		it := enriched(fmt.Sprintf("n_%d", i), title)
		it.PublishedAt = now.Add(-time.Duration(i) * time.Hour)
		items = append(items, it)
	}
	src := &fakeSource{name: "naver", items: items}

	agg := newTestAggregator(t, []crawler.Source{src}, nil, &fakeSearcher{}, newMemStore())

	page1, err := agg.Latest(context.Background(), news.CategoryIncident, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, page1.Total)
	assert.Len(t, page1.Items, 3)
	assert.True(t, page1.HasMore)
	assert.Equal(t, "n_0", page1.Items[0].ID)

	page2, err := agg.Latest(context.Background(), news.CategoryIncident, 2)
	require.NoError(t, err)
	assert.Len(t, page2.Items, 2)
	assert.False(t, page2.HasMore)

	// Fallback sections were crawled once per fallback category, then cached.
	assert.Equal(t, 2, src.calls)
}

func TestSearchClustersResults(t *testing.T) {
	searcher := &fakeSearcher{items: []news.Item{
		enriched("g_1", "환율 1400원 돌파 임박"),
		enriched("g_2", "환율 1400원 돌파 임박했다"), // near-duplicate, deduped away
		enriched("g_3", "전혀 상관없는 스포츠 기사"),
	}}

	agg := newTestAggregator(t, nil, nil, searcher, newMemStore())

	resp, err := agg.Search(context.Background(), "환율", 30)
	require.NoError(t, err)

	assert.Equal(t, "환율", resp.Keyword)
	assert.Equal(t, 2, resp.Total)

	// Keyword match leads the cluster, padded with the non-matching article.
	require.Len(t, resp.Clusters, 1)
	assert.Equal(t, "환율", resp.Clusters[0].Topic)
	assert.Equal(t, "g_1", resp.Clusters[0].Representative.ID)
	require.Len(t, resp.Clusters[0].Related, 1)
	assert.Equal(t, "g_3", resp.Clusters[0].Related[0].ID)

	// The query keyword itself is excluded from suggestions.
	assert.Equal(t, []string{"반도체"}, resp.Suggestions)

	// Search results become retrievable by ID.
	item, ok := agg.Item("g_1")
	assert.True(t, ok)
	assert.Equal(t, "g_1", item.ID)
}

func TestSearchSuggestionFallback(t *testing.T) {
	agg := New(nil, nil, &fakeSearcher{items: []news.Item{enriched("g_1", "환율 기사")}},
		&failingIssues{}, crawlhealth.New(slog.Default()),
		scraper.NewEnricher(fetch.New(), slog.Default()), newMemStore(), Options{
			NewsDeadline:      time.Second,
			CommunityDeadline: time.Second,
			TrendingLimit:     20,
			PageSize:          10,
			CacheTTL:          time.Minute,
		}, slog.Default())

	resp, err := agg.Search(context.Background(), "환율", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"환율 최신", "환율 원인", "환율 오늘"}, resp.Suggestions)
}

func TestSearchEmptyKeyword(t *testing.T) {
	agg := newTestAggregator(t, nil, nil, &fakeSearcher{}, newMemStore())
	_, err := agg.Search(context.Background(), "", 10)
	assert.Error(t, err)
}

func TestSkippedSourceNotCrawled(t *testing.T) {
	src := &fakeSource{name: "naver", items: []news.Item{enriched("n_1", "기사 제목")}}
	tracker := crawlhealth.New(slog.Default())
	for i := 0; i < crawlhealth.SkipAfterConsecutiveFailures; i++ {
		tracker.Record("naver", 0, 1, crawlhealth.MethodStatic, time.Second)
	}

	agg := New([]crawler.Source{src}, nil, &fakeSearcher{}, &fakeIssues{},
		tracker, scraper.NewEnricher(fetch.New(), slog.Default()), newMemStore(), Options{
			NewsDeadline:      time.Second,
			CommunityDeadline: time.Second,
			TrendingLimit:     20,
			PageSize:          10,
			CacheTTL:          time.Minute,
		}, slog.Default())

	resp, err := agg.Trending(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Zero(t, src.calls)
}
