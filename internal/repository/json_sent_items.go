package repository

import (
	"context"

	"github.com/hitoshi/irwatch/internal/model"
)

// JSONSentItemRepository は sent-items*.json を扱うSentItemRepositoryの実装。
// 実行間の排他制御は行わない。同時に実行された場合は後から書いた内容が残る。
type JSONSentItemRepository struct {
	store *FileStore
}

// NewJSONSentItemRepository はJSONSentItemRepositoryを生成する。
func NewJSONSentItemRepository(store *FileStore) *JSONSentItemRepository {
	return &JSONSentItemRepository{store: store}
}

// Load は送信済み記録を読み込む。
func (r *JSONSentItemRepository) Load(ctx context.Context, tenant Tenant) (model.SentItems, error) {
	items := model.SentItems{}
	if _, err := r.store.readJSON(tenant.fileName(kindSentItems), &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = model.SentItems{}
	}
	return items, nil
}

// Save は送信済み記録を書き込む。
func (r *JSONSentItemRepository) Save(ctx context.Context, tenant Tenant, items model.SentItems) error {
	if items == nil {
		items = model.SentItems{}
	}
	return r.store.writeJSON(tenant.fileName(kindSentItems), items)
}
