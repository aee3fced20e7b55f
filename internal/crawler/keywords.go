package crawler

import (
	"regexp"
	"strings"
)

// Particles, verb endings and board slang that carry no trend signal.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		// 조사/어미
		"이", "가", "을", "를", "의", "에", "에서", "은", "는", "으로", "로",
		"와", "과", "이나", "나", "도", "만", "부터", "까지", "조차", "마저",
		"보다", "처럼", "같이", "만큼", "이라", "라고", "이라고",
		// 동사/형용사 어간
		"이다", "있다", "없다", "하다", "되다", "되어", "했다", "한다",
		"했습니다", "합니다", "입니다", "인데", "이고", "이며", "이지",
		"한다고", "했다고", "된다", "된다고",
		// 부사/관형사
		"때문에", "대한", "위한", "관련", "현재", "오늘", "내일", "어제",
		"이것", "그것", "저것", "이번", "그번", "어떤", "이런", "그런",
		"모든", "여러", "각각", "최근", "지금", "여기", "거기", "그리고",
		"하지만", "그러나", "따라서", "그래서", "또한", "만약", "비록",
		"아직", "이미", "다시", "또", "더", "가장", "매우", "너무",
		// 인터넷 슬랭
		"ㄷㄷ", "ㅋㅋ", "ㄴㄴ", "ㅠㅠ", "ㅎㅎ", "ㄱㄱ", "진짜", "정말", "완전",
		"레전드", "개웃김", "헐", "대박", "실화", "팩트", "인정", "동의",
	} {
		stopWords[w] = struct{}{}
	}
}

var (
	keywordStripRe = regexp.MustCompile(`[^\w가-힣\s]`)
	numericOnlyRe  = regexp.MustCompile(`^\d+$`)
)

const maxKeywords = 14

// ExtractKeywords pulls candidate trend keywords from a post title: words of
// at least 2 runes minus stopwords and bare numbers, plus adjacent-word
// bigrams so compound proper nouns survive.
func ExtractKeywords(title string) []string {
	cleaned := keywordStripRe.ReplaceAllString(title, " ")

	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len([]rune(w)) < 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		if numericOnlyRe.MatchString(w) {
			continue
		}
		words = append(words, w)
	}

	seen := make(map[string]struct{}, len(words)*2)
	keywords := make([]string, 0, len(words)*2)
	add := func(k string) {
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		keywords = append(keywords, k)
	}

	for _, w := range words {
		add(w)
	}
	for i := 0; i+1 < len(words); i++ {
		add(words[i] + " " + words[i+1])
	}

	if len(keywords) > maxKeywords {
		keywords = keywords[:maxKeywords]
	}
	return keywords
}
