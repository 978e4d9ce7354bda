package repository

import (
	"context"
	"slices"
	"time"

	"github.com/hitoshi/irwatch/internal/model"
)

// JSONUserRepository は users.json を扱うUserRepositoryの実装。
type JSONUserRepository struct {
	store *FileStore
}

// NewJSONUserRepository はJSONUserRepositoryを生成する。
func NewJSONUserRepository(store *FileStore) *JSONUserRepository {
	return &JSONUserRepository{store: store}
}

func (r *JSONUserRepository) load() ([]model.User, error) {
	users := []model.User{}
	if _, err := r.store.readJSON(usersFile, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FindByUsername はユーザー名で検索する。見つからない場合はnilを返す。
func (r *JSONUserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	users, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, nil
}

// Create はユーザーを追加する。
func (r *JSONUserRepository) Create(ctx context.Context, user *model.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return err
	}
	if slices.ContainsFunc(users, func(u model.User) bool { return u.Username == user.Username }) {
		return ErrDuplicate
	}
	users = append(users, *user)
	return r.store.writeJSON(usersFile, users)
}

// JSONSessionRepository は sessions.json を扱うSessionRepositoryの実装。
type JSONSessionRepository struct {
	store *FileStore
	now   func() time.Time
}

// NewJSONSessionRepository はJSONSessionRepositoryを生成する。
func NewJSONSessionRepository(store *FileStore) *JSONSessionRepository {
	return &JSONSessionRepository{store: store, now: time.Now}
}

func (r *JSONSessionRepository) load() ([]model.Session, error) {
	sessions := []model.Session{}
	if _, err := r.store.readJSON(sessionsFile, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// Create はセッションを追加する。
func (r *JSONSessionRepository) Create(ctx context.Context, session *model.Session) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sessions, err := r.load()
	if err != nil {
		return err
	}
	sessions = append(sessions, *session)
	return r.store.writeJSON(sessionsFile, sessions)
}

// FindByID は指定IDの有効なセッションを取得する。
// 存在しない場合や期限切れの場合はnilを返す。
func (r *JSONSessionRepository) FindByID(ctx context.Context, id string) (*model.Session, error) {
	sessions, err := r.load()
	if err != nil {
		return nil, err
	}
	now := r.now()
	for i := range sessions {
		if sessions[i].ID == id {
			if sessions[i].Expired(now) {
				return nil, nil
			}
			return &sessions[i], nil
		}
	}
	return nil, nil
}

// DeleteByID は指定IDのセッションを削除する。存在しない場合は何もしない。
func (r *JSONSessionRepository) DeleteByID(ctx context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sessions, err := r.load()
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(sessions, func(s model.Session) bool { return s.ID == id })
	return r.store.writeJSON(sessionsFile, kept)
}

// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
func (r *JSONSessionRepository) DeleteExpired(ctx context.Context) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	sessions, err := r.load()
	if err != nil {
		return 0, err
	}
	before := len(sessions)
	now := r.now()
	kept := slices.DeleteFunc(sessions, func(s model.Session) bool { return s.Expired(now) })
	removed := before - len(kept)
	if removed == 0 {
		return 0, nil
	}
	if err := r.store.writeJSON(sessionsFile, kept); err != nil {
		return 0, err
	}
	return removed, nil
}
