package model

import "time"

// User はダッシュボードにログインする運用者を表す。
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password"`
}

// Session は運用者のログインセッションを表す。
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired はセッションが指定時刻において期限切れかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
