// Package settings はテナント設定（メール・スケジュール・テンプレート・ブログプロンプト）の管理を提供する。
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
	"github.com/hitoshi/irwatch/internal/worker/automation"
)

// Sanitizer はメールテンプレート本文のサニタイズ処理のインターフェース。
type Sanitizer interface {
	Sanitize(body string) string
}

// Rescheduler はテナントの自動実行スケジュールを再登録するインターフェース。
type Rescheduler interface {
	Reschedule(ctx context.Context, tenant repository.Tenant) error
}

// Service は設定管理のサービス層。
type Service struct {
	repo        repository.SettingsRepository
	sanitizer   Sanitizer
	rescheduler Rescheduler
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
// reschedulerがnilの場合、スケジュール保存時の再登録は行わない。
func NewService(
	repo repository.SettingsRepository,
	sanitizer Sanitizer,
	rescheduler Rescheduler,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		sanitizer:   sanitizer,
		rescheduler: rescheduler,
		logger:      logger,
	}
}

// Get はテナントの設定をそのまま返す。
func (s *Service) Get(ctx context.Context, tenant repository.Tenant) (*model.Settings, error) {
	settings, err := s.repo.Load(ctx, tenant)
	if err != nil {
		return nil, fmt.Errorf("設定の読み込みに失敗しました: %w", err)
	}
	return settings, nil
}

// SaveEmail はSMTP接続と送信先の設定を保存する。全項目が必須。
func (s *Service) SaveEmail(ctx context.Context, tenant repository.Tenant, email *model.EmailSettings) error {
	if email == nil {
		return model.NewInvalidRequestError()
	}
	if field := email.MissingField(); field != "" {
		return model.NewRequiredFieldError(field)
	}

	err := s.repo.Update(ctx, tenant, func(settings *model.Settings) error {
		settings.Email = email
		return nil
	})
	if err != nil {
		return fmt.Errorf("メール設定の保存に失敗しました: %w", err)
	}

	s.logger.Info("メール設定を保存しました",
		slog.String("tenant", tenant.String()),
		slog.Int("recipients", len(email.ToEmails)),
	)
	return nil
}

// SaveSchedule はcron式を検証して保存し、テナントの自動実行を再登録する。
func (s *Service) SaveSchedule(ctx context.Context, tenant repository.Tenant, expr string) error {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return model.NewRequiredFieldError("Cron schedule")
	}
	if _, err := automation.ParseSchedule(expr); err != nil {
		return model.NewInvalidScheduleError(expr)
	}

	err := s.repo.Update(ctx, tenant, func(settings *model.Settings) error {
		settings.Schedule = &model.ScheduleSettings{Cron: expr}
		return nil
	})
	if err != nil {
		return fmt.Errorf("スケジュール設定の保存に失敗しました: %w", err)
	}

	if s.rescheduler != nil {
		if err := s.rescheduler.Reschedule(ctx, tenant); err != nil {
			s.logger.Warn("スケジュールの再登録に失敗しました",
				slog.String("tenant", tenant.String()),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("スケジュール設定を保存しました",
		slog.String("tenant", tenant.String()),
		slog.String("cron", expr),
	)
	return nil
}

// SaveTemplate はメールテンプレートを保存する。本文はサニタイズしてから保存する。
func (s *Service) SaveTemplate(ctx context.Context, tenant repository.Tenant, tmpl model.EmailTemplate) error {
	if tmpl.Subject == "" {
		return model.NewRequiredFieldError("subject")
	}
	if tmpl.Body == "" {
		return model.NewRequiredFieldError("body")
	}

	sanitized := model.EmailTemplate{
		Subject: tmpl.Subject,
		Body:    s.sanitizer.Sanitize(tmpl.Body),
	}
	err := s.repo.Update(ctx, tenant, func(settings *model.Settings) error {
		settings.EmailTemplate = &sanitized
		return nil
	})
	if err != nil {
		return fmt.Errorf("メールテンプレートの保存に失敗しました: %w", err)
	}

	if len(sanitized.Body) != len(tmpl.Body) {
		s.logger.Info("メールテンプレートの一部をサニタイズしました",
			slog.String("tenant", tenant.String()),
			slog.Int("original_length", len(tmpl.Body)),
			slog.Int("sanitized_length", len(sanitized.Body)),
		)
	}
	return nil
}

// SaveBlogPrompt はブログ推薦プロンプトを保存する。
func (s *Service) SaveBlogPrompt(ctx context.Context, tenant repository.Tenant, prompt string) error {
	if prompt == "" {
		return model.NewRequiredFieldError("Blog prompt")
	}

	err := s.repo.Update(ctx, tenant, func(settings *model.Settings) error {
		settings.BlogPrompt = prompt
		return nil
	})
	if err != nil {
		return fmt.Errorf("ブログプロンプトの保存に失敗しました: %w", err)
	}
	return nil
}
