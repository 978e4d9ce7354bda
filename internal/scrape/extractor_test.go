package scrape

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/hitoshi/irwatch/internal/model"
)

func newPage(body string) *Page {
	return &Page{
		URL:         "https://acme.example/ir",
		Body:        []byte(body),
		ContentType: "text/html; charset=utf-8",
	}
}

func mustDoc(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := ParseDocument(newPage(body))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	return doc
}

var acme = model.Company{Name: "Acme", Ticker: "ACM", URL: "https://acme.example/ir"}

// --- 抽出 ---

// TestExtract_AcmeScenario は代表的なIRページから新着記事を抽出できることを検証する。
func TestExtract_AcmeScenario(t *testing.T) {
	page := newPage(`<html><body>
<nav><a href="#top">Top</a></nav>
<ul class="releases"><li><a href="/news/q3">Acme Reports Q3 Results</a></li></ul>
</body></html>`)

	result, err := NewExtractor().Extract(page, acme)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Selector != `a[href*="news"]:not([href*="#"])` {
		t.Errorf("Selector = %q", result.Selector)
	}
	if result.Miss() {
		t.Fatal("expected a news item, got miss")
	}

	want := model.NewsItem{
		Title:       "Acme Reports Q3 Results",
		URL:         "https://acme.example/news/q3",
		PublishDate: model.DateNotAvailable,
		Company:     "Acme",
		Ticker:      "ACM",
	}
	if *result.Item != want {
		t.Errorf("Item = %#v, want %#v", *result.Item, want)
	}
}

// TestExtract_FirstMatchingSelectorWins は最初に一致したセレクタの候補が全滅しても後続のセレクタを試さないことを検証する。
func TestExtract_FirstMatchingSelectorWins(t *testing.T) {
	page := newPage(`<html><body>
<div><span><a href="/press-release/q3.pdf">PDF</a></span></div>
<ul><li><a href="/news/q3">Acme Reports Q3 Results</a></li></ul>
</body></html>`)

	result, err := NewExtractor().Extract(page, acme)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Selector != `a[href*="press-release"]` {
		t.Errorf("Selector = %q, want press-release selector", result.Selector)
	}
	if !result.Miss() {
		t.Errorf("expected miss, got %#v", result.Item)
	}
}

// TestExtract_InspectsAtMostThree は先頭3件のみを検査し、2件目以降は新着語を含む場合のみ採用することを検証する。
func TestExtract_InspectsAtMostThree(t *testing.T) {
	page := newPage(`<html><body><ul>
<li><span><a href="/news/1">Go</a></span></li>
<li><a href="/news/2">Acme quarterly results published</a></li>
<li><a href="/news/3">Latest: Acme dividend declared</a></li>
<li><a href="/news/4">Brand new Acme product launched</a></li>
</ul></body></html>`)

	result, err := NewExtractor().Extract(page, acme)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Candidates) != 3 {
		t.Fatalf("len(Candidates) = %d, want 3", len(result.Candidates))
	}
	if result.Miss() {
		t.Fatal("expected a news item, got miss")
	}
	if result.Item.URL != "https://acme.example/news/3" {
		t.Errorf("Item.URL = %q, want /news/3", result.Item.URL)
	}
	if result.Item.Title != "Latest: Acme dividend declared" {
		t.Errorf("Item.Title = %q", result.Item.Title)
	}
}

// TestExtract_NoSelectorMatches はどのセレクタにも一致しない場合に該当なしとなることを検証する。
func TestExtract_NoSelectorMatches(t *testing.T) {
	page := newPage(`<html><body><p>No links here.</p><a href="#contact">Contact</a></body></html>`)

	result, err := NewExtractor().Extract(page, acme)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Selector != "" || len(result.Candidates) != 0 || !result.Miss() {
		t.Errorf("Extract() = %#v, want empty miss", result)
	}
}

// TestExtract_InvalidHref はhrefがURLとして解釈できない場合にエラーを返すことを検証する。
func TestExtract_InvalidHref(t *testing.T) {
	page := newPage(`<html><body><a href="http://[news">Acme results for the quarter</a></body></html>`)

	_, err := NewExtractor().Extract(page, acme)
	if err == nil {
		t.Fatal("expected error for invalid href")
	}
	if !strings.Contains(err.Error(), "Invalid URL") {
		t.Errorf("error = %v", err)
	}
}

// TestExtract_InvalidCompanyURL は企業URLが相対URLの場合にエラーを返すことを検証する。
func TestExtract_InvalidCompanyURL(t *testing.T) {
	company := model.Company{Name: "Broken", URL: "ir/news"}
	_, err := NewExtractor().Extract(newPage(`<a href="/news/1">Broken Co results announced</a>`), company)
	if err == nil {
		t.Fatal("expected error for relative company URL")
	}
}

// TestExtract_TickerDefaults はティッカー未設定の企業で N/A が使われることを検証する。
func TestExtract_TickerDefaults(t *testing.T) {
	company := model.Company{Name: "Globex", URL: "https://globex.example/investors/"}
	page := newPage(`<main><a href="media/2024/03/15/globex-results/">Globex full year results</a></main>`)

	result, err := NewExtractor().Extract(page, company)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Miss() {
		t.Fatal("expected a news item")
	}
	if result.Item.Ticker != "N/A" {
		t.Errorf("Ticker = %q, want N/A", result.Item.Ticker)
	}
	if result.Item.URL != "https://globex.example/investors/media/2024/03/15/globex-results/" {
		t.Errorf("URL = %q", result.Item.URL)
	}
	if result.Item.PublishDate != "03/15/2024" {
		t.Errorf("PublishDate = %q, want 03/15/2024", result.Item.PublishDate)
	}
}

// TestExtract_DecodesDeclaredCharset はContent-Typeの文字コード宣言に従って本文を変換することを検証する。
func TestExtract_DecodesDeclaredCharset(t *testing.T) {
	page := &Page{
		URL:         "https://societe.example/ir",
		Body:        []byte("<html><body><a href=\"/news/h1\">Soci\xe9t\xe9 G\xe9n\xe9rale half-year results</a></body></html>"),
		ContentType: "text/html; charset=windows-1252",
	}
	company := model.Company{Name: "SG", URL: "https://societe.example/ir"}

	result, err := NewExtractor().Extract(page, company)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Miss() {
		t.Fatal("expected a news item")
	}
	if result.Item.Title != "Société Générale half-year results" {
		t.Errorf("Title = %q", result.Item.Title)
	}
}

// TestCandidates_Deterministic は同じ文書に対して常に同じセレクタと候補を返すことを検証する。
func TestCandidates_Deterministic(t *testing.T) {
	body := `<html><body>
<h3><a href="/a">First heading link here</a></h3>
<h5><a href="/b">Second heading link here</a></h5>
<h4><a href="/c">Third heading link here</a></h4>
<h3><a href="/d">Fourth heading link here</a></h3>
</body></html>`
	extractor := NewExtractor()

	sel1, c1 := extractor.Candidates(mustDoc(t, body))
	sel2, c2 := extractor.Candidates(mustDoc(t, body))

	if sel1.Query != sel2.Query {
		t.Fatalf("selector differs: %q vs %q", sel1.Query, sel2.Query)
	}
	if !strings.HasPrefix(sel1.Query, "h3 a") {
		t.Errorf("selector = %q, want heading selector", sel1.Query)
	}
	if len(c1) != 3 || len(c2) != 3 {
		t.Fatalf("candidate counts = %d, %d; want 3", len(c1), len(c2))
	}
	// 見出しレベルに関係なく文書順に並ぶ
	wantHrefs := []string{"/a", "/b", "/c"}
	for i := range c1 {
		if c1[i].Href != wantHrefs[i] || c2[i].Href != wantHrefs[i] || c1[i].Index != i {
			t.Errorf("candidate[%d] = %+v / %+v, want href %s", i, c1[i], c2[i], wantHrefs[i])
		}
	}
}

// --- タイトル整形 ---

func firstLink(t *testing.T, body string) *goquery.Selection {
	t.Helper()
	link := mustDoc(t, body).Find("a").First()
	if link.Length() == 0 {
		t.Fatal("fixture has no link")
	}
	return link
}

// TestCleanTitle_ShortTitleUsesParentText は短いタイトルが親要素のテキストで置き換えられることを検証する。
func TestCleanTitle_ShortTitleUsesParentText(t *testing.T) {
	link := firstLink(t, `<div><p><a href="/news/sale">Read:</a> Acme Ltd completes sale of its copper assets</p></div>`)

	got := cleanTitle(link)
	want := "Read: Acme Ltd completes sale of its copper assets"
	if runeLen(want) != 50 {
		t.Fatalf("fixture length = %d, want 50", runeLen(want))
	}
	if got != want {
		t.Errorf("cleanTitle() = %q, want %q", got, want)
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "十分な長さのタイトルはそのまま",
			body: `<li><a href="/x">Acme Reports Q3 Results</a></li>`,
			want: "Acme Reports Q3 Results",
		},
		{
			name: "ナビゲーション文言は親要素のテキストで置き換える",
			body: `<li>Acme completes acquisition of Beta Corp <a href="/x">News</a></li>`,
			want: "Acme completes acquisition of Beta Corp News",
		},
		{
			name: "親のテキストが長くない場合は祖父母を使う",
			body: `<div>Acme trading update for March <span><a href="/x">Read</a></span></div>`,
			want: "Acme trading update for March Read",
		},
		{
			name: "親も祖父母も200文字以上の場合は置き換えない",
			body: `<div><p><a href="/x">Read</a> ` + strings.Repeat("long text ", 25) + `</p></div>`,
			want: "Read",
		},
		{
			name: "空白の連続を1つにまとめる",
			body: `<li><a href="/x">Acme   results
				for the   quarter</a></li>`,
			want: "Acme results for the quarter",
		},
		{
			name: "リンクテキストが空の場合は空",
			body: `<li>Acme results for the quarter <a href="/x"> </a></li>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanTitle(firstLink(t, tt.body)); got != tt.want {
				t.Errorf("cleanTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAcceptableTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Acme Reports Q3 Results", true},
		{"0123456789", false}, // 10文字ちょうどは不可
		{"01234567890", true},
		{"Investor", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := acceptableTitle(tt.title); got != tt.want {
			t.Errorf("acceptableTitle(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}

// --- 公開日 ---

// TestExtractPublishDate_NumericBeforeNamedMonth は数値形式が月名形式より優先されることを検証する。
func TestExtractPublishDate_NumericBeforeNamedMonth(t *testing.T) {
	link := firstLink(t, `<li><a href="/news/a">Acme update Dec 5, 2024</a> <span>05/12/2024</span></li>`)

	if got := extractPublishDate(link, "https://acme.example/news/a"); got != "05/12/2024" {
		t.Errorf("extractPublishDate() = %q, want 05/12/2024", got)
	}
}

func TestExtractPublishDate(t *testing.T) {
	tests := []struct {
		name string
		body string
		url  string
		want string
	}{
		{
			name: "ISO形式",
			body: `<article><h3><a href="/x">Acme results</a></h3><time>2024-3-15</time></article>`,
			url:  "https://acme.example/x",
			want: "2024-3-15",
		},
		{
			name: "月名（大文字小文字を区別しない）",
			body: `<section><p>published MARCH 15, 2024</p><a href="/x">Acme results</a></section>`,
			url:  "https://acme.example/x",
			want: "MARCH 15, 2024",
		},
		{
			name: "年なしの月名",
			body: `<div><a href="/x">Acme results</a><small>Jul 4</small></div>`,
			url:  "https://acme.example/x",
			want: "Jul 4",
		},
		{
			name: "相対語",
			body: `<div><a href="/x">Acme results</a><small>Posted yesterday</small></div>`,
			url:  "https://acme.example/x",
			want: "yesterday",
		},
		{
			name: "日付クラスの子孫要素",
			body: `<li><a href="/x"><span class="post-date">Q3 FY24</span> Acme quarterly report</a></li>`,
			url:  "https://acme.example/x",
			want: "Q3 FY24",
		},
		{
			name: "日付クラスを持つリンク自身",
			body: `<li><a class="publish-link" href="/x">Acme annual report released</a></li>`,
			url:  "https://acme.example/x",
			want: "Acme annual report released",
		},
		{
			name: "URLの年月日",
			body: `<li><a href="/2024/03/15/acme/">Acme results</a></li>`,
			url:  "https://acme.example/2024/03/15/acme/",
			want: "03/15/2024",
		},
		{
			name: "見つからない場合",
			body: `<li><a href="/x">Acme results</a></li>`,
			url:  "https://acme.example/x",
			want: model.DateNotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractPublishDate(firstLink(t, tt.body), tt.url); got != tt.want {
				t.Errorf("extractPublishDate() = %q, want %q", got, tt.want)
			}
		})
	}
}

// --- 新着判定 ---

func TestIsRecent(t *testing.T) {
	tests := []struct {
		title string
		index int
		want  bool
	}{
		{"Anything at all", 0, true},
		{"Acme quarterly results", 1, false},
		{"Acme results TODAY", 1, true},
		{"Yesterday's trading halt", 2, true},
		{"Latest investor presentation", 2, true},
		{"Acme announces new CFO", 1, true},
		{"Acme quarterly report", 2, false},
	}
	for _, tt := range tests {
		if got := IsRecent(tt.title, tt.index); got != tt.want {
			t.Errorf("IsRecent(%q, %d) = %v, want %v", tt.title, tt.index, got, tt.want)
		}
	}
}
