package news

import "regexp"

// Category is the fixed article category enumeration.
type Category string

const (
	CategoryEconomy       Category = "경제"
	CategoryIncident      Category = "사건사고"
	CategorySociety       Category = "사회"
	CategoryPolitics      Category = "정치"
	CategoryWorld         Category = "세계"
	CategoryTech          Category = "IT/과학"
	CategoryEntertainment Category = "연예"
	CategorySports        Category = "스포츠"
	CategoryEtc           Category = "기타"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryEconomy, CategoryIncident, CategorySociety, CategoryPolitics,
	CategoryWorld, CategoryTech, CategoryEntertainment, CategorySports, CategoryEtc,
}

// Keyword tables for title-based category guessing. Checked in order; first
// hit wins, so the more specific beats the generic.
var categoryPatterns = []struct {
	category Category
	re       *regexp.Regexp
}{
	{CategoryEconomy, regexp.MustCompile(`코스피|코스닥|금리|환율|주가|경제|GDP|물가|금융|주식|부동산|증시|채권|수출|수입|무역|원자재|원유|유가|기업|ETF`)},
	{CategoryIncident, regexp.MustCompile(`사고|화재|추락|사망|부상|범죄|경찰|검거|체포|살인|강도|폭행|절도|실종|익사|교통사고|형사|구속|기소`)},
	{CategoryPolitics, regexp.MustCompile(`대통령|국회|정부|여당|야당|선거|장관|총리|국정|정치|법안|이재명|국민의힘|민주당|내란|특검|윤석열|탄핵|검찰|의원`)},
	{CategoryTech, regexp.MustCompile(`AI|인공지능|반도체|삼성|LG|카카오|네이버|애플|구글|메타|IT|챗GPT|테슬라|엔비디아|로봇|드론|과학|우주|양자`)},
	{CategorySports, regexp.MustCompile(`월드컵|올림픽|축구|야구|농구|배구|스포츠|선수|경기|리그|감독|골프|수영|육상|테니스|격투`)},
	{CategoryEntertainment, regexp.MustCompile(`드라마|영화|아이돌|연예|가수|배우|음악|콘서트|팬덤|예능|방송|OTT|넷플릭스`)},
	{CategoryWorld, regexp.MustCompile(`미국|중국|일본|러시아|북한|유럽|해외|외교|전쟁|국제|이란|이스라엘|하마스|우크라이나|팔레스타인|중동|NATO|UN|트럼프|하메네이|두바이|호르무즈`)},
	{CategorySociety, regexp.MustCompile(`복지|교육|의료|병원|환경|사회|시민|학교|학생|민생|취업|일자리|저출생|인구|재난|기후`)},
}

// GuessCategory estimates the category of an article from its title.
func GuessCategory(title string) Category {
	for _, p := range categoryPatterns {
		if p.re.MatchString(title) {
			return p.category
		}
	}
	return CategoryEtc
}
