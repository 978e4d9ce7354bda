package repository

import (
	"fmt"
	"regexp"
)

// Tenant はデータファイル群を識別するテナントID。
// 空文字はクライアントに属さないデフォルトテナントを表す。
type Tenant string

// DefaultTenant はデフォルトテナント。
const DefaultTenant Tenant = ""

// tenantIDPattern はファイル名に埋め込めるテナントIDの形式。
var tenantIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ParseTenant はクエリパラメータ等から受け取ったクライアントIDをテナントに変換する。
// 空文字はデフォルトテナントとして扱う。
// パス区切り文字などファイル名に使えない文字を含む場合はエラーを返す。
func ParseTenant(clientID string) (Tenant, error) {
	if clientID == "" {
		return DefaultTenant, nil
	}
	if !tenantIDPattern.MatchString(clientID) {
		return "", fmt.Errorf("invalid client id: %q", clientID)
	}
	return Tenant(clientID), nil
}

// IsDefault はデフォルトテナントかを返す。
func (t Tenant) IsDefault() bool {
	return t == DefaultTenant
}

// String はログ出力用の表記を返す。
func (t Tenant) String() string {
	if t.IsDefault() {
		return "default"
	}
	return string(t)
}

// テナント別ファイルの基底名。
const (
	kindCompanies  = "companies"
	kindRecipients = "recipients"
	kindBlogs      = "blogs"
	kindSettings   = "settings"
	kindSentItems  = "sent-items"
)

// tenantKinds はクライアント削除時に消去するファイル種別。
var tenantKinds = []string{kindCompanies, kindRecipients, kindBlogs, kindSettings, kindSentItems}

// fileName はテナントとファイル種別からファイル名を生成する。
// デフォルトテナントは "companies.json"、クライアントは "companies_{id}.json" となる。
func (t Tenant) fileName(kind string) string {
	if t.IsDefault() {
		return kind + ".json"
	}
	return kind + "_" + string(t) + ".json"
}

// 共有ファイル名。
const (
	clientsFile  = "clients.json"
	usersFile    = "users.json"
	sessionsFile = "sessions.json"
)
