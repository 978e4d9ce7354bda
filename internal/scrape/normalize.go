package scrape

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/hitoshi/irwatch/internal/model"
)

const (
	// minTitleLength 未満のタイトルは親要素のテキストで置き換える。
	minTitleLength = 10
	// maxContextTitleLength 以上の親要素テキストはタイトルに採用しない。
	maxContextTitleLength = 200
	// maxDateElementLength 以上の日付要素テキストは日付として採用しない。
	maxDateElementLength = 50
)

var (
	// navigationTitle はタイトル全体がナビゲーション文言の場合に一致する。
	navigationTitle = regexp.MustCompile(`(?i)^(ASX Announcements?|News|Press Release|Announcement|Media|Investor Relations?)$`)
	// genericWord は親要素のテキストで置き換えるべき汎用語。
	genericWord = regexp.MustCompile(`(?i)^(announcement|news|press|media|asx)$`)
	// rejectedTitle は候補自体を破棄するタイトル。
	rejectedTitle = regexp.MustCompile(`(?i)^(announcement|news|press|media|asx|investor|relations?)$`)
	whitespaceRun = regexp.MustCompile(`[\s\p{Z}]+`)
)

// cleanTitle はリンクテキストからタイトルを整形する。
// リンクテキストが空の場合は空文字を返す。
func cleanTitle(link *goquery.Selection) string {
	title := trim(link.Text())
	if title == "" {
		return ""
	}

	if navigationTitle.MatchString(title) {
		title = ""
	}

	if runeLen(title) < minTitleLength || genericWord.MatchString(title) {
		parent := link.Parent()
		parentText := trim(parent.Text())
		grandparentText := trim(parent.Parent().Text())

		switch {
		case usableContextTitle(parentText, title):
			title = parentText
		case usableContextTitle(grandparentText, title):
			title = grandparentText
		}
	}

	return trim(whitespaceRun.ReplaceAllString(title, " "))
}

func usableContextTitle(text, current string) bool {
	n := runeLen(text)
	return n > runeLen(current) && n < maxContextTitleLength
}

// acceptableTitle は整形後のタイトルが候補として採用できるかを返す。
func acceptableTitle(title string) bool {
	return runeLen(title) > minTitleLength && !rejectedTitle.MatchString(title)
}

// 日付パターン。先に一致したものを優先し、一致した文字列をそのまま公開日とする。
var datePatterns = func() []*regexp.Regexp {
	const (
		sp         = `[\s\p{Zs}]`
		shortMonth = `(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)`
		longMonth  = `(January|February|March|April|May|June|July|August|September|October|November|December)`
	)
	return []*regexp.Regexp{
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`),
		regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{4}`),
		regexp.MustCompile(`\d{4}-\d{1,2}-\d{1,2}`),
		regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2}`),
		regexp.MustCompile(`\d{1,2}-\d{1,2}-\d{2}`),
		regexp.MustCompile(`(?i)` + shortMonth + sp + `+\d{1,2},?` + sp + `+\d{4}`),
		regexp.MustCompile(`(?i)` + longMonth + sp + `+\d{1,2},?` + sp + `+\d{4}`),
		regexp.MustCompile(`(?i)` + shortMonth + sp + `+\d{1,2}`),
		regexp.MustCompile(`(?i)` + longMonth + sp + `+\d{1,2}`),
		regexp.MustCompile(`(?i)(today|yesterday|this week|this month)`),
	}
}()

// urlDatePattern はURLパス中の /YYYY/M/D/ に一致する。
var urlDatePattern = regexp.MustCompile(`/(\d{4})/(\d{1,2})/(\d{1,2})/`)

// extractPublishDate はリンク周辺から公開日を抽出する。
// 見つからない場合は "Date not available" を返す。
func extractPublishDate(link *goquery.Selection, absoluteURL string) string {
	scope := dateSearchScope(link)
	for _, p := range datePatterns {
		if m := p.FindString(scope); m != "" {
			return m
		}
	}
	if d := dateFromElement(link); d != "" {
		return d
	}
	if d := dateFromURL(absoluteURL); d != "" {
		return d
	}
	return model.DateNotAvailable
}

// dateSearchScope はリンク・親・祖父母・兄弟要素と、最も近いdiv/article/sectionのテキストを空白で連結する。
func dateSearchScope(link *goquery.Selection) string {
	parent := link.Parent()
	return strings.Join([]string{
		link.Text(),
		parent.Text(),
		parent.Parent().Text(),
		link.Siblings().Text(),
		link.Closest("div").Text(),
		link.Closest("article").Text(),
		link.Closest("section").Text(),
	}, " ")
}

// dateFromElement はリンク自身または子孫のうち、日付らしいクラス名を持つ最初の要素のテキストを返す。
func dateFromElement(link *goquery.Selection) string {
	var el *goquery.Selection
	if isElement(link) && link.IsMatcher(dateClassMatcher) {
		el = link
	} else {
		el = link.FindMatcher(dateClassMatcher).First()
	}
	if el.Length() == 0 {
		return ""
	}
	text := trim(el.Text())
	if text == "" || runeLen(text) >= maxDateElementLength {
		return ""
	}
	return text
}

func isElement(s *goquery.Selection) bool {
	return s.Length() > 0 && s.Get(0).Type == html.ElementNode
}

// dateFromURL はURLの /YYYY/M/D/ を M/D/YYYY 形式に変換する。
func dateFromURL(absoluteURL string) string {
	m := urlDatePattern.FindStringSubmatch(absoluteURL)
	if m == nil {
		return ""
	}
	return fmt.Sprintf("%s/%s/%s", m[2], m[3], m[1])
}

// recencyWords のいずれかをタイトルに含む候補は新着とみなす。
var recencyWords = []string{"today", "yesterday", "latest", "new"}

// IsRecent は候補が新着らしいかを返す。
// 採用セレクタの結果の先頭（index 0）は常に新着とみなす。
func IsRecent(title string, index int) bool {
	if index == 0 {
		return true
	}
	lower := strings.ToLower(title)
	for _, w := range recencyWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
