// Package model はドメインモデルを定義する。
package model

import "time"

// TickerNotAvailable はティッカー未設定時にテンプレートへ埋め込む値。
const TickerNotAvailable = "N/A"

// Company はIRページの監視対象企業を表す。
// 永続化形式では安定したIDを持たず、リスト内の位置で識別される。
type Company struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker,omitempty"`
	URL    string `json:"url"`
}

// DisplayTicker はテンプレート埋め込み用のティッカーを返す。
// 未設定の場合は "N/A" を返す。
func (c Company) DisplayTicker() string {
	if c.Ticker == "" {
		return TickerNotAvailable
	}
	return c.Ticker
}

// Client はテナント（運用者が管理する顧客）を表す。
// テナントごとに企業・受信者・ブログ・設定・送信済み記録のファイルが分離される。
type Client struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Recipient はダイジェストメールの受信者を表す。
type Recipient struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Blog はテナントが参照するブログを表す。
type Blog struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// BlogSuggestion はブログ推薦の1件を表す。
type BlogSuggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	URL         string `json:"url"`
}
