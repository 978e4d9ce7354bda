package digest

import (
	"fmt"
	"strings"

	"github.com/hitoshi/irwatch/internal/model"
)

// 新着なし・エラー時の埋め込み値。
const (
	NoNewsTitle        = "No new announcements found"
	PlaceholderURL     = "#"
	PlaceholderPublish = "N/A"
)

// Digest は1回の実行で送信するダイジェストメールを組み立てる。
// 本文はテンプレート本文そのものから始まり、企業ごとの断片を企業リスト順に追記する。
type Digest struct {
	template model.EmailTemplate
	day      string
	body     strings.Builder
	newItems int
}

// New はテンプレートと実行日（YYYY-MM-DD）からDigestを生成する。
func New(template model.EmailTemplate, day string) *Digest {
	d := &Digest{template: template, day: day}
	d.body.WriteString(template.Body)
	return d
}

// AddItem は新着記事の断片を追記する。
func (d *Digest) AddItem(item model.NewsItem) {
	d.newItems++
	d.append(Fields{
		KeyDate:        d.day,
		KeyCompanyName: item.Company,
		KeyTicker:      item.Ticker,
		KeyTitle:       item.Title,
		KeyURL:         item.URL,
		KeyPublishDate: item.PublishDate,
	})
}

// AddMiss は新着が見つからなかった企業の断片を追記する。
func (d *Digest) AddMiss(company model.Company) {
	d.append(d.placeholderFields(company, NoNewsTitle))
}

// AddError は取得・抽出に失敗した企業の断片を追記する。
// エラーメッセージは赤字のspanで囲んでタイトル位置に埋め込む。
func (d *Digest) AddError(company model.Company, err error) {
	title := fmt.Sprintf(`<span style="color: #d63031;">Error: %s</span>`, err.Error())
	d.append(d.placeholderFields(company, title))
}

func (d *Digest) placeholderFields(company model.Company, title string) Fields {
	return Fields{
		KeyDate:        d.day,
		KeyCompanyName: company.Name,
		KeyTicker:      company.DisplayTicker(),
		KeyTitle:       title,
		KeyURL:         PlaceholderURL,
		KeyPublishDate: PlaceholderPublish,
	}
}

func (d *Digest) append(fields Fields) {
	d.body.WriteString(Render(d.template.Body, fields))
}

// NewItems は追記された新着記事の件数を返す。
func (d *Digest) NewItems() int {
	return d.newItems
}

// HasNewItems は1件以上の新着記事があるかを返す。
func (d *Digest) HasNewItems() bool {
	return d.newItems > 0
}

// Body は組み立てた本文を返す。
func (d *Digest) Body() string {
	return d.body.String()
}

// Subject は件名テンプレートに実行日と企業数を埋め込んで返す。
func (d *Digest) Subject(companyCount int) string {
	return Render(d.template.Subject, SubjectFields(d.day, companyCount))
}
