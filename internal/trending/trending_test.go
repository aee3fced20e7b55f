package trending

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghdtjdvlf/NewsCollect-vibe/internal/news"
)

func article(id, title string) news.Item {
	return news.Item{ID: id, Title: title, URL: "https://ex.com/" + id}
}

func post(title string, comments int, keywords ...string) news.CommunityPost {
	return news.CommunityPost{
		Source:       news.CommunityFmkorea,
		PostTitle:    title,
		PostURL:      "https://www.fmkorea.com/best/1",
		CommentCount: comments,
		Keywords:     keywords,
	}
}

func TestMatchScoreKeywordWeights(t *testing.T) {
	title := "인공지능 반도체 수출 급증"

	// 4+ rune keyword scores 3, 3-rune scores 2, 2-rune scores 1.
	assert.InDelta(t, 3.0, matchScore(title, post("p", 0, "인공지능")), 0.001)
	assert.InDelta(t, 2.0, matchScore(title, post("p", 0, "반도체")), 0.001)
	assert.InDelta(t, 1.0, matchScore(title, post("p", 0, "수출")), 0.001)

	// No keyword hit means zero, engagement bonus included.
	assert.Zero(t, matchScore(title, post("p", 500, "부동산")))
}

func TestMatchScoreEngagementBonus(t *testing.T) {
	title := "인공지능 규제 법안 발의"

	// 99 comments: 3 + log10(100)*0.5 = 4.0
	assert.InDelta(t, 4.0, matchScore(title, post("p", 99, "인공지능")), 0.001)
}

func TestMatchScoreNormalizesTitlePunctuation(t *testing.T) {
	// Punctuation between words becomes a space before matching, so
	// word-bigram keywords still hit.
	assert.InDelta(t, 3.0, matchScore("이재명·한동훈 전격 회동", post("p", 0, "이재명 한동훈")), 0.001)
	assert.InDelta(t, 3.0, matchScore("이재명 · 한동훈 전격 회동", post("p", 0, "이재명 한동훈")), 0.001)
}

func TestMatchScoreIgnoresShortKeywords(t *testing.T) {
	// Single-rune keywords carry no signal, wherever they came from.
	assert.Zero(t, matchScore("금값 사상 최고치 경신", post("p", 10, "금")))
}

func TestFilterTrendingNoPosts(t *testing.T) {
	items := []news.Item{
		article("a", "첫 번째 기사 제목"),
		article("b", "두 번째 기사 제목과 다른 내용"),
		article("c", "세 번째 완전 별개 주제"),
	}

	out := FilterTrending(items, nil, 2)
	assert.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Zero(t, out[0].TrendScore)
	assert.Empty(t, out[0].CommunityMentions)
}

func TestFilterTrendingScoring(t *testing.T) {
	items := []news.Item{
		article("cold", "아무도 언급하지 않는 기사"),
		article("hot", "인공지능 반도체 수출 사상 최대"),
	}
	posts := []news.CommunityPost{
		post("인공지능 미쳤다", 99, "인공지능"),
	}

	out := FilterTrending(items, posts, 2)
	assert.Len(t, out, 2)

	// Scored article leads; trendScore is the raw score times ten, rounded.
	assert.Equal(t, "hot", out[0].ID)
	assert.Equal(t, 40, out[0].TrendScore)
	assert.Len(t, out[0].CommunityMentions, 1)

	// Unscored article pads the tail, untouched.
	assert.Equal(t, "cold", out[1].ID)
	assert.Zero(t, out[1].TrendScore)
}

func TestFilterTrendingMentionCap(t *testing.T) {
	items := []news.Item{article("hot", "인공지능 대규모 투자 발표")}

	var posts []news.CommunityPost
	for i := 0; i < 5; i++ {
		posts = append(posts, post(fmt.Sprintf("인공지능 글 %d", i), 10, "인공지능"))
	}

	out := FilterTrending(items, posts, 5)
	assert.Len(t, out, 1)
	assert.Len(t, out[0].CommunityMentions, maxMentionsPerItem)

	// All five posts still contribute to the score.
	assert.Greater(t, out[0].TrendScore, 150) // 5 * (3 + bonus) * 10
}

func TestFilterTrendingPrefiltersNearDuplicates(t *testing.T) {
	items := []news.Item{
		article("a", "삼성전자 반도체 공장 증설 전격 발표"),
		article("b", "삼성전자 반도체 공장 증설 전격 발표했다"),
	}

	out := FilterTrending(items, nil, 10)
	assert.Len(t, out, 1)
	assert.Equal(t, "a", out[0].ID)
}

func TestClusterByTopic(t *testing.T) {
	items := []news.Item{
		article("a1", "환율 1400원 돌파 임박"),
		article("b1", "월드컵 예선 한국 승리"),
		article("a2", "환율 안정 대책 발표"),
		article("a3", "환율 변동성 확대 우려"),
		article("a4", "환율 방어 나선 당국"),
	}

	clusters := ClusterByTopic(items, "환율")
	assert.Len(t, clusters, 2)

	// First three keyword matches form a cluster, padded with one
	// non-matching article.
	assert.Equal(t, "환율", clusters[0].Topic)
	assert.Equal(t, "a1", clusters[0].Representative.ID)
	require.Len(t, clusters[0].Related, 3)
	assert.Equal(t, "a2", clusters[0].Related[0].ID)
	assert.Equal(t, "b1", clusters[0].Related[2].ID)

	assert.Equal(t, "a4", clusters[1].Representative.ID)
}

func TestClusterByTopicNoDirectMatch(t *testing.T) {
	items := []news.Item{
		article("a", "전혀 다른 기사 하나"),
		article("b", "전혀 다른 기사 둘"),
	}

	clusters := ClusterByTopic(items, "환율")
	assert.Len(t, clusters, 2)
	assert.Empty(t, clusters[0].Related)
	assert.Equal(t, "환율", clusters[0].Topic)
}

func TestClusterByTopicEmpty(t *testing.T) {
	assert.Nil(t, ClusterByTopic(nil, "환율"))
}
