// Package scrape はIRページの取得と最新リリースリンクの抽出を行う。
package scrape

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultUserAgent はIRページ取得時に送信するデスクトップブラウザのUser-Agent。
// 一部のIRサイトはボット風のUser-Agentを拒否する。
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// SSRFValidator はSSRF検証のインターフェース。
type SSRFValidator interface {
	ValidateURL(rawURL string) error
	Client(timeout time.Duration) *http.Client
}

// FetchRecorder はページ取得のメトリクス記録インターフェース。
type FetchRecorder interface {
	RecordHTTPStatus(statusCode int)
	RecordFetchLatency(duration time.Duration)
}

// FetchError はIRページの取得失敗を表す。
// 呼び出し側は実行全体を中断せず、企業ごとのエラー表示に変換する。
type FetchError struct {
	URL        string
	StatusCode int // HTTPステータス異常の場合のみ設定される
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
	}
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Page は取得したIRページ。
type Page struct {
	URL         string
	Body        []byte
	ContentType string
}

// FetcherConfig はFetcherの設定。
type FetcherConfig struct {
	Timeout     time.Duration
	MaxBodySize int64
	UserAgent   string
}

// Fetcher は企業のIRページを1回だけGETで取得する。リトライは行わない。
type Fetcher struct {
	guard       SSRFValidator
	client      *http.Client
	recorder    FetchRecorder
	logger      *slog.Logger
	userAgent   string
	maxBodySize int64
}

// NewFetcher はFetcherの新しいインスタンスを生成する。
func NewFetcher(guard SSRFValidator, recorder FetchRecorder, logger *slog.Logger, cfg FetcherConfig) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	return &Fetcher{
		guard:       guard,
		client:      guard.Client(cfg.Timeout),
		recorder:    recorder,
		logger:      logger,
		userAgent:   cfg.UserAgent,
		maxBodySize: cfg.MaxBodySize,
	}
}

// Fetch はページを取得する。リダイレクトはHTTPクライアントに従う。
// 2xx以外のステータス、ネットワークエラー、タイムアウトは *FetchError を返す。
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if err := f.guard.ValidateURL(pageURL); err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("SSRF検証に失敗: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn("IRページの取得に失敗しました",
			slog.String("url", pageURL),
			slog.String("error", err.Error()),
		)
		return nil, &FetchError{URL: pageURL, Err: err}
	}
	defer resp.Body.Close()

	duration := time.Since(start)
	f.recorder.RecordHTTPStatus(resp.StatusCode)
	f.recorder.RecordFetchLatency(duration)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		f.logger.Warn("IRページが異常なステータスを返しました",
			slog.String("url", pageURL),
			slog.Int("http_status", resp.StatusCode),
		)
		return nil, &FetchError{
			URL:        pageURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", resp.Status),
		}
	}

	reader := io.Reader(resp.Body)
	if f.maxBodySize > 0 {
		reader = io.LimitReader(resp.Body, f.maxBodySize)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Err: fmt.Errorf("レスポンス読み取り失敗: %w", err)}
	}

	f.logger.Debug("IRページを取得しました",
		slog.String("url", pageURL),
		slog.Int("http_status", resp.StatusCode),
		slog.Int("bytes", len(body)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return &Page{
		URL:         pageURL,
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}
