package model

// DateNotAvailable は公開日を抽出できなかった場合の値。
const DateNotAvailable = "Date not available"

// NewsItem は1回のスクレイプで発見された新着記事を表す。
// 構造化レコードとしては保存されず、重複判定キーのみが永続化される。
type NewsItem struct {
	Title       string
	URL         string // 絶対URL
	PublishDate string // 抽出した文字列をそのまま保持する
	Company     string
	Ticker      string
}

// DedupKey は送信済み判定に用いるキーを返す。
func (n NewsItem) DedupKey() string {
	return DedupKey(n.Company, n.URL)
}

// DedupKey は "{企業名}-{絶対URL}" 形式の重複判定キーを生成する。
func DedupKey(companyName, absoluteURL string) string {
	return companyName + "-" + absoluteURL
}
