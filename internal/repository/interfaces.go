// Package repository はデータ永続化のインターフェースを定義する。
// 実装はDATA_DIR配下のフラットなJSONファイルで、テナントごとにファイルを分離する。
package repository

import (
	"context"

	"github.com/hitoshi/irwatch/internal/model"
)

// ClientRepository はクライアント（テナント）一覧の永続化インターフェース。
type ClientRepository interface {
	// List は登録順のクライアント一覧を返す。ファイルが存在しない場合は空スライスを返す。
	List(ctx context.Context) ([]model.Client, error)

	// FindByID は指定IDのクライアントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Client, error)

	// Create はクライアントを追加する。
	// 大文字小文字を区別せず同名のクライアントが存在する場合は ErrDuplicate を返す。
	Create(ctx context.Context, client *model.Client) error

	// Delete は指定IDのクライアントを一覧から削除する。存在しない場合は ErrNotFound を返す。
	Delete(ctx context.Context, id string) error
}

// ListRepository はテナントごとの配列ファイル（企業・受信者・ブログ）の永続化インターフェース。
type ListRepository[T any] interface {
	// List はテナントの一覧を返す。ファイルが存在しない場合は空スライスを返す。
	List(ctx context.Context, tenant Tenant) ([]T, error)

	// Save はテナントの一覧を丸ごと置き換える。
	Save(ctx context.Context, tenant Tenant, items []T) error
}

// CompanyRepository は監視対象企業一覧の永続化インターフェース。
type CompanyRepository = ListRepository[model.Company]

// RecipientRepository は受信者一覧の永続化インターフェース。
type RecipientRepository = ListRepository[model.Recipient]

// BlogRepository はブログ一覧の永続化インターフェース。
type BlogRepository = ListRepository[model.Blog]

// SettingsRepository はテナント設定の永続化インターフェース。
type SettingsRepository interface {
	// Load は設定を読み込む。ファイルが存在しない場合は空の設定を返す。
	// 呼び出しごとにファイルを読み直し、キャッシュしない。
	Load(ctx context.Context, tenant Tenant) (*model.Settings, error)

	// Update は設定を読み込み、fnで変更した結果を書き戻す。
	// fnがエラーを返した場合は書き込まない。
	Update(ctx context.Context, tenant Tenant, fn func(*model.Settings) error) error
}

// SentItemRepository は送信済み記録（重複判定ストア）の永続化インターフェース。
type SentItemRepository interface {
	// Load は送信済み記録を読み込む。ファイルが存在しない場合は空のマップを返す。
	Load(ctx context.Context, tenant Tenant) (model.SentItems, error)

	// Save は送信済み記録を書き込む。
	Save(ctx context.Context, tenant Tenant, items model.SentItems) error
}

// UserRepository は運用者アカウントの永続化インターフェース。
type UserRepository interface {
	// FindByUsername はユーザー名で検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// Create はユーザーを追加する。同名ユーザーが存在する場合は ErrDuplicate を返す。
	Create(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int, error)
}
