package news

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	minutesAgoRe = regexp.MustCompile(`^(\d+)분\s*전$`)
	hoursAgoRe   = regexp.MustCompile(`^(\d+)시간\s*전$`)
	daysAgoRe    = regexp.MustCompile(`^(\d+)일\s*전$`)
	// "2025.01.15. 오후 3:45", "2026. 2. 25. 17:21", "2025.01.15."
	fullDateRe = regexp.MustCompile(`(\d{4})\.\s*(\d{1,2})\.\s*(\d{1,2})\.\s*(?:(오전|오후)?\s*(\d{1,2}):(\d{2}))?`)
	// "01.15. 오후 3:45" (current year)
	shortDateRe = regexp.MustCompile(`^(\d{1,2})\.\s*(\d{1,2})\.\s*(?:(오전|오후)?\s*(\d{1,2}):(\d{2}))?`)
)

// ParseTimestamp converts portal date strings, including Korean relative
// phrases ("5분 전", "어제"), to a time. Falls back to now on anything
// unparseable rather than failing a crawl.
func ParseTimestamp(raw string, now time.Time) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return now
	}

	if strings.HasPrefix(s, "방금") {
		return now
	}
	if m := minutesAgoRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * time.Minute)
	}
	if m := hoursAgoRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.Add(-time.Duration(n) * time.Hour)
	}
	if strings.HasPrefix(s, "어제") {
		return now.AddDate(0, 0, -1)
	}
	if m := daysAgoRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		return now.AddDate(0, 0, -n)
	}

	if m := fullDateRe.FindStringSubmatch(s); m != nil {
		return buildDate(atoiDefault(m[1], now.Year()), m[2], m[3], m[4], m[5], m[6], now.Location())
	}
	if m := shortDateRe.FindStringSubmatch(s); m != nil {
		return buildDate(now.Year(), m[1], m[2], m[3], m[4], m[5], now.Location())
	}

	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}

	return now
}

func buildDate(year int, month, day, meridiem, hour, minute string, loc *time.Location) time.Time {
	mo := atoiDefault(month, 1)
	d := atoiDefault(day, 1)
	h := atoiDefault(hour, 0)
	mi := atoiDefault(minute, 0)
	if meridiem == "오후" && h < 12 {
		h += 12
	}
	if meridiem == "오전" && h == 12 {
		h = 0
	}
	return time.Date(year, time.Month(mo), d, h, mi, 0, 0, loc)
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// Boilerplate that Korean press agencies append to article previews.
var summaryNoisePatterns = []*regexp.Regexp{
	regexp.MustCompile(`무단\s*전재(\s*및\s*재배포)?\s*(금지|禁止)?.*$`),
	regexp.MustCompile(`저작권.*$`),
	regexp.MustCompile(`ⓒ\s*\S+.*$`),
	regexp.MustCompile(`(?i)Copyright\s*.*$`),
	regexp.MustCompile(`\[\s*[가-힣]{2,5}\s*기자\s*\]`),
	regexp.MustCompile(`[가-힣]{2,5}\s*기자\s*=?\s*$`),
}

var trailingPressRe = regexp.MustCompile(`\s+[-–—|]\s+[가-힣a-zA-Z0-9\s()]{2,20}$`)
var whitespaceRe = regexp.MustCompile(`\s+`)

// CleanSummary strips copyright boilerplate and press-name suffixes from an
// article preview, caps it at 300 runes, and returns "" when nothing is left.
func CleanSummary(raw string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ""
	}

	for _, p := range summaryNoisePatterns {
		text = strings.TrimSpace(p.ReplaceAllString(text, ""))
	}
	text = strings.TrimSpace(trailingPressRe.ReplaceAllString(text, ""))
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))

	if text == "" {
		return ""
	}
	runes := []rune(text)
	if len(runes) > 300 {
		return string(runes[:300])
	}
	return text
}
