// Package client はクライアント（テナント）管理のドメインロジックを提供する。
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
)

// TenantRemover はテナントのデータファイルを一括削除するインターフェース。
type TenantRemover interface {
	RemoveTenant(tenant repository.Tenant) error
}

// TenantScheduler はテナントの自動実行スケジュールを管理するインターフェース。
type TenantScheduler interface {
	Reschedule(ctx context.Context, tenant repository.Tenant) error
	Remove(tenant repository.Tenant)
}

// Service はクライアント管理のサービス層。
type Service struct {
	clients   repository.ClientRepository
	files     TenantRemover
	scheduler TenantScheduler
	logger    *slog.Logger
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// schedulerがnilの場合はスケジュールの登録・解除を行わない。
func NewService(
	clients repository.ClientRepository,
	files TenantRemover,
	scheduler TenantScheduler,
	logger *slog.Logger,
) *Service {
	return &Service{
		clients:   clients,
		files:     files,
		scheduler: scheduler,
		logger:    logger,
		now:       time.Now,
	}
}

// List は登録順のクライアント一覧を返す。
func (s *Service) List(ctx context.Context) ([]model.Client, error) {
	clients, err := s.clients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("クライアント一覧の取得に失敗しました: %w", err)
	}
	return clients, nil
}

// Create はクライアントを登録し、デフォルトスケジュールで自動実行を登録する。
// 名前は大文字小文字を区別せず一意。
func (s *Service) Create(ctx context.Context, name, description string) (*model.Client, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, model.NewRequiredFieldError("Client name")
	}

	client := &model.Client{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   s.now().UTC(),
	}
	err := s.clients.Create(ctx, client)
	if errors.Is(err, repository.ErrDuplicate) {
		return nil, model.NewDuplicateClientError()
	}
	if err != nil {
		return nil, fmt.Errorf("クライアントの登録に失敗しました: %w", err)
	}

	if s.scheduler != nil {
		if err := s.scheduler.Reschedule(ctx, repository.Tenant(client.ID)); err != nil {
			s.logger.Warn("クライアントのスケジュール登録に失敗しました",
				slog.String("client_id", client.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("クライアントを登録しました",
		slog.String("client_id", client.ID),
		slog.String("name", client.Name),
	)
	return client, nil
}

// Delete はクライアントを削除する。
// 削除順序: クライアント一覧 → テナントのデータファイル → スケジュール
func (s *Service) Delete(ctx context.Context, id string) error {
	client, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("クライアントの取得に失敗しました: %w", err)
	}
	if client == nil {
		return model.NewClientNotFoundError(id)
	}

	err = s.clients.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewClientNotFoundError(id)
	}
	if err != nil {
		return fmt.Errorf("クライアントの削除に失敗しました: %w", err)
	}

	tenant, err := repository.ParseTenant(id)
	if err != nil {
		// ファイル名に使えないIDのテナントファイルは存在しない
		s.logger.Warn("テナントIDが不正なためデータファイルの削除をスキップしました",
			slog.String("client_id", id),
		)
	} else {
		if err := s.files.RemoveTenant(tenant); err != nil {
			return fmt.Errorf("クライアントのデータファイル削除に失敗しました: %w", err)
		}
		if s.scheduler != nil {
			s.scheduler.Remove(tenant)
		}
	}

	s.logger.Info("クライアントを削除しました",
		slog.String("client_id", id),
		slog.String("name", client.Name),
	)
	return nil
}
