package repository

import (
	"context"

	"github.com/hitoshi/irwatch/internal/model"
)

// JSONSettingsRepository は settings*.json を扱うSettingsRepositoryの実装。
type JSONSettingsRepository struct {
	store *FileStore
}

// NewJSONSettingsRepository はJSONSettingsRepositoryを生成する。
func NewJSONSettingsRepository(store *FileStore) *JSONSettingsRepository {
	return &JSONSettingsRepository{store: store}
}

// Load は設定を読み込む。ファイルが存在しない場合は空の設定を返す。
func (r *JSONSettingsRepository) Load(ctx context.Context, tenant Tenant) (*model.Settings, error) {
	var settings model.Settings
	if _, err := r.store.readJSON(tenant.fileName(kindSettings), &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update は設定を読み込み、fnで変更した結果を書き戻す。
// 他のセクションの値はそのまま保持される。
func (r *JSONSettingsRepository) Update(ctx context.Context, tenant Tenant, fn func(*model.Settings) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	settings, err := r.Load(ctx, tenant)
	if err != nil {
		return err
	}
	if err := fn(settings); err != nil {
		return err
	}
	return r.store.writeJSON(tenant.fileName(kindSettings), settings)
}
