package scrape

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// --- モック ---

type mockGuard struct {
	validateFn func(rawURL string) error
}

func (m *mockGuard) ValidateURL(rawURL string) error {
	if m.validateFn != nil {
		return m.validateFn(rawURL)
	}
	return nil
}

func (m *mockGuard) Client(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

type mockRecorder struct {
	statuses  []int
	latencies int
}

func (m *mockRecorder) RecordHTTPStatus(statusCode int)   { m.statuses = append(m.statuses, statusCode) }
func (m *mockRecorder) RecordFetchLatency(time.Duration) { m.latencies++ }

func newTestFetcher(guard SSRFValidator, recorder FetchRecorder, maxBody int64) *Fetcher {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewFetcher(guard, recorder, logger, FetcherConfig{Timeout: 5 * time.Second, MaxBodySize: maxBody})
}

// --- テスト ---

// TestFetch_SendsBrowserUserAgent はデスクトップブラウザのUser-Agentで取得することを検証する。
func TestFetch_SendsBrowserUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer ts.Close()

	recorder := &mockRecorder{}
	page, err := newTestFetcher(&mockGuard{}, recorder, 1024).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, DefaultUserAgent)
	}
	if string(page.Body) != "<html><body>ok</body></html>" {
		t.Errorf("Body = %q", page.Body)
	}
	if page.ContentType != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q", page.ContentType)
	}
	if len(recorder.statuses) != 1 || recorder.statuses[0] != 200 || recorder.latencies != 1 {
		t.Errorf("recorder = %+v", recorder)
	}
}

// TestFetch_FollowsRedirect はリダイレクト先の本文を返すことを検証する。
func TestFetch_FollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("moved"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	page, err := newTestFetcher(&mockGuard{}, &mockRecorder{}, 1024).Fetch(context.Background(), ts.URL+"/old")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(page.Body) != "moved" {
		t.Errorf("Body = %q, want moved", page.Body)
	}
}

// TestFetch_NonSuccessStatus は2xx以外のステータスがFetchErrorになることを検証する。
func TestFetch_NonSuccessStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	recorder := &mockRecorder{}
	_, err := newTestFetcher(&mockGuard{}, recorder, 1024).Fetch(context.Background(), ts.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", fetchErr.StatusCode)
	}
	if fetchErr.Error() != "Request failed with status code 404" {
		t.Errorf("Error() = %q", fetchErr.Error())
	}
	if len(recorder.statuses) != 1 || recorder.statuses[0] != 404 {
		t.Errorf("statuses = %v, want [404]", recorder.statuses)
	}
}

// TestFetch_NetworkError は接続失敗がFetchErrorになることを検証する。
func TestFetch_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	recorder := &mockRecorder{}
	_, err := newTestFetcher(&mockGuard{}, recorder, 1024).Fetch(context.Background(), url)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if fetchErr.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", fetchErr.StatusCode)
	}
	if len(recorder.statuses) != 0 {
		t.Errorf("no status should be recorded, got %v", recorder.statuses)
	}
}

// TestFetch_SSRFRejected はSSRF検証に失敗したURLへリクエストしないことを検証する。
func TestFetch_SSRFRejected(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	guard := &mockGuard{validateFn: func(string) error { return errors.New("blocked IP address") }}
	_, err := newTestFetcher(guard, &mockRecorder{}, 1024).Fetch(context.Background(), ts.URL)

	var fetchErr *FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("error = %v, want *FetchError", err)
	}
	if called {
		t.Error("server should not be called when SSRF validation fails")
	}
}

// TestFetch_LimitsBodySize は最大サイズを超える本文が切り詰められることを検証する。
func TestFetch_LimitsBodySize(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789abcdef"))
	}))
	defer ts.Close()

	page, err := newTestFetcher(&mockGuard{}, &mockRecorder{}, 10).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(page.Body) != "0123456789" {
		t.Errorf("Body = %q, want first 10 bytes", page.Body)
	}
}
