package scrape

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/hitoshi/irwatch/internal/model"
)

// maxInspected は採用セレクタの結果のうち検査する候補数の上限。
const maxInspected = 3

// Candidate はセレクタに一致したリンク要素。
type Candidate struct {
	Index    int    // 採用セレクタの結果内での位置（文書順）
	RawTitle string // 整形前のリンクテキスト
	Href     string // href属性の値。属性がない場合は空

	link *goquery.Selection
}

// Extraction は1ページ分の抽出結果。
type Extraction struct {
	// Selector は一致した最初のセレクタ。どのセレクタにも一致しなかった場合は空。
	Selector string
	// Candidates は検査対象となった候補（最大3件）。
	Candidates []Candidate
	// Item は新着と判定された候補。該当なしの場合はnil。
	Item *model.NewsItem
}

// Miss は新着候補が見つからなかったかを返す。
func (e *Extraction) Miss() bool {
	return e.Item == nil
}

// Extractor はIRページから最新リリースのリンクを1件抽出する。
// セレクタ表を優先度順に試し、一致が1件以上あった最初のセレクタのみを使う。
type Extractor struct {
	selectors []Selector
}

// NewExtractor は組み込みのセレクタ表を使うExtractorを生成する。
func NewExtractor() *Extractor {
	return &Extractor{selectors: DefaultSelectors()}
}

// ParseDocument はページ本文をDOMに変換する。
// Content-Typeやmetaタグの文字コード宣言に従ってUTF-8へ変換する。
func ParseDocument(page *Page) (*goquery.Document, error) {
	r, err := charset.NewReader(bytes.NewReader(page.Body), page.ContentType)
	if err != nil {
		return nil, fmt.Errorf("文字コードの判定に失敗: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("HTMLの解析に失敗: %w", err)
	}
	return doc, nil
}

// Candidates は一致した最初のセレクタと、その結果の先頭から最大3件の候補を返す。
// 同じ文書に対しては常に同じ結果を返す。
func (e *Extractor) Candidates(doc *goquery.Document) (Selector, []Candidate) {
	for _, s := range e.selectors {
		matches := doc.FindMatcher(s.matcher)
		if matches.Length() == 0 {
			continue
		}
		n := min(matches.Length(), maxInspected)
		candidates := make([]Candidate, 0, n)
		matches.Slice(0, n).Each(func(i int, link *goquery.Selection) {
			href, _ := link.Attr("href")
			candidates = append(candidates, Candidate{
				Index:    i,
				RawTitle: trim(link.Text()),
				Href:     strings.TrimSpace(href),
				link:     link,
			})
		})
		return s, candidates
	}
	return Selector{}, nil
}

// Extract はページから企業の新着リリースを抽出する。
// 候補を文書順に検査し、タイトル整形を通過して新着と判定された最初の候補で打ち切る。
// 該当なしはエラーではなく Extraction.Miss() で表す。
// 企業URLやリンクのhrefがURLとして解釈できない場合はエラーを返す。
func (e *Extractor) Extract(page *Page, company model.Company) (*Extraction, error) {
	base, err := url.Parse(company.URL)
	if err != nil || !base.IsAbs() {
		return nil, fmt.Errorf("Invalid URL: %s", company.URL)
	}

	doc, err := ParseDocument(page)
	if err != nil {
		return nil, err
	}

	selector, candidates := e.Candidates(doc)
	result := &Extraction{Selector: selector.Query, Candidates: candidates}

	for _, c := range candidates {
		title := cleanTitle(c.link)
		if title == "" || c.Href == "" || !acceptableTitle(title) {
			continue
		}
		if !IsRecent(title, c.Index) {
			continue
		}

		ref, err := base.Parse(c.Href)
		if err != nil {
			return nil, fmt.Errorf("Invalid URL: %s", c.Href)
		}
		absoluteURL := ref.String()

		result.Item = &model.NewsItem{
			Title:       title,
			URL:         absoluteURL,
			PublishDate: extractPublishDate(c.link, absoluteURL),
			Company:     company.Name,
			Ticker:      company.DisplayTicker(),
		}
		break
	}

	return result, nil
}
