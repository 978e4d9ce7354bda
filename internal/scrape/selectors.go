package scrape

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// Selector はリンク候補を探す1つのセレクタパターン。
type Selector struct {
	Query   string
	matcher goquery.Matcher
}

// String はセレクタ文字列を返す。
func (s Selector) String() string {
	return s.Query
}

// linkSelectorQueries は優先度順のセレクタ表。
// 一致が1件以上あった最初のセレクタだけが使われる。
var linkSelectorQueries = []string{
	// リリース系のURL
	`a[href*="press-release"]`,
	`a[href*="announcement"]:not([href*="#"])`,
	`a[href*="news"]:not([href*="#"])`,
	`a[href*="media"]:not([href*="#"])`,
	`a[href*="asx"]:not([href*="#"])`,
	`a[href*="asx-announcement"]`,
	`a[href*="asx-report"]`,
	// ニュース一覧のコンテナ
	`.news-item a`,
	`.press-release a`,
	`.announcement a`,
	`.media-release a`,
	`.asx-announcement a`,
	`[class*="news"] a:not([href*="#"])`,
	`[class*="press"] a:not([href*="#"])`,
	`[class*="announcement"] a:not([href*="#"])`,
	// PDF
	`a[href$=".pdf"]`,
	`a[href*="pdf"]`,
	// 見出しリンク
	`h3 a:not([href*="#"]), h4 a:not([href*="#"]), h5 a:not([href*="#"])`,
	// 汎用コンテンツ領域
	`.content a:not([href*="#"])`,
	`article a:not([href*="#"])`,
	`main a:not([href*="#"])`,
}

// DefaultSelectors は組み込みのセレクタ表をコンパイルして返す。
func DefaultSelectors() []Selector {
	return compileSelectors(linkSelectorQueries)
}

func compileSelectors(queries []string) []Selector {
	selectors := make([]Selector, 0, len(queries))
	for _, q := range queries {
		selectors = append(selectors, Selector{Query: q, matcher: cascadia.MustCompile(q)})
	}
	return selectors
}

// dateClassMatcher は日付を含みそうなクラス名の要素に一致する。
var dateClassMatcher = cascadia.MustCompile(
	`[class*="date"], [class*="time"], [class*="publish"], [class*="created"], [class*="posted"]`,
)
