package repository

import (
	"context"

	"github.com/hitoshi/irwatch/internal/model"
)

// JSONListRepository はテナント別の配列ファイルを扱うListRepositoryの実装。
type JSONListRepository[T any] struct {
	store *FileStore
	kind  string
}

// NewJSONCompanyRepository は企業一覧（companies*.json）のリポジトリを生成する。
func NewJSONCompanyRepository(store *FileStore) *JSONListRepository[model.Company] {
	return &JSONListRepository[model.Company]{store: store, kind: kindCompanies}
}

// NewJSONRecipientRepository は受信者一覧（recipients*.json）のリポジトリを生成する。
func NewJSONRecipientRepository(store *FileStore) *JSONListRepository[model.Recipient] {
	return &JSONListRepository[model.Recipient]{store: store, kind: kindRecipients}
}

// NewJSONBlogRepository はブログ一覧（blogs*.json）のリポジトリを生成する。
func NewJSONBlogRepository(store *FileStore) *JSONListRepository[model.Blog] {
	return &JSONListRepository[model.Blog]{store: store, kind: kindBlogs}
}

// List はテナントの一覧を返す。ファイルが存在しない場合は空スライスを返す。
// 配列以外の内容の場合は ErrCorruptFile をラップしたエラーを返す。
func (r *JSONListRepository[T]) List(ctx context.Context, tenant Tenant) ([]T, error) {
	items := []T{}
	if _, err := r.store.readJSON(tenant.fileName(r.kind), &items); err != nil {
		return nil, err
	}
	if items == nil {
		// ファイル内容が null の場合
		items = []T{}
	}
	return items, nil
}

// Save はテナントの一覧を丸ごと置き換える。
func (r *JSONListRepository[T]) Save(ctx context.Context, tenant Tenant, items []T) error {
	if items == nil {
		items = []T{}
	}
	return r.store.writeJSON(tenant.fileName(r.kind), items)
}
