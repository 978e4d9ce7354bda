package security

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

// TemplateSanitizer はWYSIWYGエディタから保存されるメールテンプレート本文をサニタイズする。
// script, iframe, on*イベント属性、javascript: URLを除去し、
// メール本文で一般的な書式タグとインラインスタイル、{URL} 等のプレースホルダーは保持する。
type TemplateSanitizer struct {
	policy *bluemonday.Policy
}

// linkValue はhref属性に許可する値。プレースホルダーそのものも許可する。
var linkValue = regexp.MustCompile(`(?i)^(https?:|mailto:|#|/|\{[A-Z_]+\})`)

// imageValue はsrc属性に許可する値。
var imageValue = regexp.MustCompile(`(?i)^(https:|\{[A-Z_]+\})`)

// NewTemplateSanitizer はTemplateSanitizerを生成する。
func NewTemplateSanitizer() *TemplateSanitizer {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr", "div", "span",
		"strong", "em", "b", "i", "u", "s", "small",
		"ul", "ol", "li", "blockquote", "pre", "code",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td",
	)
	p.AllowAttrs("style", "class", "align").Globally()
	p.AllowAttrs("colspan", "rowspan", "width", "cellpadding", "cellspacing", "border").OnElements("table", "td", "th")

	// プレースホルダー {URL} は相対URLとして解釈されるとエスケープされるため、
	// URLのパースは要求せず正規表現で値を制限する。
	p.AllowAttrs("href").Matching(linkValue).OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("src").Matching(imageValue).OnElements("img")
	p.AllowAttrs("alt", "width", "height").OnElements("img")

	return &TemplateSanitizer{policy: p}
}

// Sanitize はテンプレート本文をサニタイズする。
func (s *TemplateSanitizer) Sanitize(body string) string {
	return s.policy.Sanitize(body)
}
