package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/irwatch/internal/mailer"
	"github.com/hitoshi/irwatch/internal/metrics"
	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
)

// ErrEmailNotConfigured はテナントにメール設定が登録されていない場合のエラー。
var ErrEmailNotConfigured = errors.New("email settings not configured")

const testEmailHTML = `
<h1>Test Email</h1>
<p>This is a test email from your IR Website News Scraper.</p>
<p>If you received this email, your email configuration is working correctly!</p>
<p>Sent at: %s</p>
`

const testAutomationHTML = `
<h1>Test Automation Results</h1>
<p>This is a test run of your IR Website News Scraper automation.</p>
<p>Timestamp: %s</p>
<hr>
<p>Automation test completed successfully!</p>`

// Operations は管理画面から手動で起動するメール操作を提供する。
type Operations struct {
	settings  SettingsLoader
	runner    RunnerService
	sender    mailer.Sender
	collector metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

// NewOperations はOperationsを生成する。
func NewOperations(
	settings SettingsLoader,
	runner RunnerService,
	sender mailer.Sender,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Operations {
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Operations{
		settings:  settings,
		runner:    runner,
		sender:    sender,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// SendTestEmail は固定のテストメールを設定済みの件名で送信する。
func (o *Operations) SendTestEmail(ctx context.Context, tenant repository.Tenant) error {
	email, err := o.loadEmail(ctx, tenant)
	if err != nil {
		return err
	}

	html := fmt.Sprintf(testEmailHTML, o.timestamp())
	if err := o.sender.Send(ctx, email, "", html); err != nil {
		return &MailTransportError{Tenant: tenant, Err: err}
	}
	o.collector.RecordEmailSent(metrics.EmailTest)

	o.logger.Info("テストメールを送信しました", slog.String("tenant", tenant.String()))
	return nil
}

// TestAutomation はテナントの自動実行を即時に1回行い、完了通知メールを送信する。
// 自動実行自体が失敗した場合は完了通知を送らない。
func (o *Operations) TestAutomation(ctx context.Context, tenant repository.Tenant) (*Report, error) {
	email, err := o.loadEmail(ctx, tenant)
	if err != nil {
		return nil, err
	}

	report, err := o.runner.Run(ctx, tenant)
	if err != nil {
		return nil, err
	}

	html := fmt.Sprintf(testAutomationHTML, o.timestamp())
	if err := o.sender.Send(ctx, email, "", html); err != nil {
		return nil, &MailTransportError{Tenant: tenant, Err: err}
	}
	o.collector.RecordEmailSent(metrics.EmailTest)

	o.logger.Info("自動実行テストが完了しました",
		slog.String("tenant", tenant.String()),
		slog.Int("new_items", report.NewItems),
		slog.Bool("digest_sent", report.Sent),
	)
	return report, nil
}

// loadEmail はテナントのメール設定を返す。未登録の場合は ErrEmailNotConfigured を返す。
func (o *Operations) loadEmail(ctx context.Context, tenant repository.Tenant) (*model.EmailSettings, error) {
	settings, err := o.settings.Load(ctx, tenant)
	if err != nil {
		return nil, &TemplateLoadError{Tenant: tenant, Err: err}
	}
	if settings == nil || settings.Email == nil {
		return nil, ErrEmailNotConfigured
	}
	return settings.Email, nil
}

func (o *Operations) timestamp() string {
	return o.now().UTC().Format("2006-01-02 15:04:05 UTC")
}
