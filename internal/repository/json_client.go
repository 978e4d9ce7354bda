package repository

import (
	"context"
	"slices"
	"strings"

	"github.com/hitoshi/irwatch/internal/model"
)

// JSONClientRepository は clients.json を扱うClientRepositoryの実装。
type JSONClientRepository struct {
	store *FileStore
}

// NewJSONClientRepository はJSONClientRepositoryを生成する。
func NewJSONClientRepository(store *FileStore) *JSONClientRepository {
	return &JSONClientRepository{store: store}
}

func (r *JSONClientRepository) load() ([]model.Client, error) {
	clients := []model.Client{}
	if _, err := r.store.readJSON(clientsFile, &clients); err != nil {
		return nil, err
	}
	if clients == nil {
		clients = []model.Client{}
	}
	return clients, nil
}

// List は登録順のクライアント一覧を返す。
func (r *JSONClientRepository) List(ctx context.Context) ([]model.Client, error) {
	return r.load()
}

// FindByID は指定IDのクライアントを取得する。見つからない場合はnilを返す。
func (r *JSONClientRepository) FindByID(ctx context.Context, id string) (*model.Client, error) {
	clients, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range clients {
		if clients[i].ID == id {
			return &clients[i], nil
		}
	}
	return nil, nil
}

// Create はクライアントを末尾に追加する。
func (r *JSONClientRepository) Create(ctx context.Context, client *model.Client) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	clients, err := r.load()
	if err != nil {
		return err
	}
	for _, c := range clients {
		if strings.EqualFold(c.Name, client.Name) || c.ID == client.ID {
			return ErrDuplicate
		}
	}
	clients = append(clients, *client)
	return r.store.writeJSON(clientsFile, clients)
}

// Delete は指定IDのクライアントを一覧から削除する。
// テナントのデータファイルは削除しない（FileStore.RemoveTenant を使う）。
func (r *JSONClientRepository) Delete(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	clients, err := r.load()
	if err != nil {
		return err
	}
	idx := slices.IndexFunc(clients, func(c model.Client) bool { return c.ID == id })
	if idx < 0 {
		return ErrNotFound
	}
	clients = slices.Delete(clients, idx, idx+1)
	return r.store.writeJSON(clientsFile, clients)
}
