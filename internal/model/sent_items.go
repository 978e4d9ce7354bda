package model

import (
	"strings"
	"time"
)

// SentItems は重複判定キーから最終送信日時（ISO 8601）への対応表。
// エントリは削除されず、運用期間に比例して増え続ける。
type SentItems map[string]string

// SentOn は指定キーが day（YYYY-MM-DD）に送信済みかを返す。
// 保存された日時の日付部分（"T" より前）と day を比較する。
func (s SentItems) SentOn(key, day string) bool {
	ts, ok := s[key]
	if !ok || ts == "" {
		return false
	}
	date, _, _ := strings.Cut(ts, "T")
	return date == day
}

// Record は指定キーの送信日時を記録する。
func (s SentItems) Record(key string, at time.Time) {
	s[key] = FormatTimestamp(at)
}

// Clone はマップの複製を返す。
func (s SentItems) Clone() SentItems {
	out := make(SentItems, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// FormatTimestamp は時刻をUTCのISO 8601（ミリ秒精度）文字列に変換する。
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// DayOf は時刻のUTC暦日を YYYY-MM-DD 形式で返す。
func DayOf(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
