// Package mailer はSMTPによるHTMLメール送信を提供する。
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/hitoshi/irwatch/internal/model"
)

// smtpsPort は接続直後からTLSを使うSMTPSのポート番号。
const smtpsPort = 465

// Sender はメール送信のインターフェース。
type Sender interface {
	// Send はsettingsのSMTP接続情報で、全受信者を1つのToヘッダーに並べた1通のHTMLメールを送信する。
	// subjectが空の場合はsettings.Subjectを使う。リトライは行わない。
	Send(ctx context.Context, settings *model.EmailSettings, subject, html string) error
}

// SMTPMailer はgo-mailを使ったSenderの実装。
type SMTPMailer struct {
	logger  *slog.Logger
	timeout time.Duration

	// deliver はテストで差し替える。
	deliver func(ctx context.Context, client *mail.Client, msg *mail.Msg) error
}

// NewSMTPMailer はSMTPMailerを生成する。
func NewSMTPMailer(logger *slog.Logger, timeout time.Duration) *SMTPMailer {
	return &SMTPMailer{
		logger:  logger,
		timeout: timeout,
		deliver: func(ctx context.Context, client *mail.Client, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}
}

// Send はメールを1通送信する。
func (m *SMTPMailer) Send(ctx context.Context, settings *model.EmailSettings, subject, html string) error {
	if settings == nil {
		return fmt.Errorf("email settings not configured")
	}
	if subject == "" {
		subject = settings.Subject
	}

	msg, err := buildMessage(settings, subject, html)
	if err != nil {
		return err
	}
	client, err := m.newClient(settings)
	if err != nil {
		return fmt.Errorf("SMTPクライアントの生成に失敗: %w", err)
	}

	start := time.Now()
	if err := m.deliver(ctx, client, msg); err != nil {
		m.logger.Error("メール送信に失敗しました",
			slog.String("smtp_host", settings.SMTPHost),
			slog.Int("smtp_port", int(settings.SMTPPort)),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("メール送信に失敗: %w", err)
	}

	m.logger.Info("メールを送信しました",
		slog.String("subject", subject),
		slog.Int("recipients", len(settings.ToEmails)),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// buildMessage は送信メッセージを組み立てる。
// From は "fromName" <fromEmail>、To は全受信者を並べた1つのヘッダーになる。
func buildMessage(settings *model.EmailSettings, subject, html string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(settings.FromName, settings.FromEmail); err != nil {
		return nil, fmt.Errorf("送信元アドレスが不正です: %w", err)
	}
	if len(settings.ToEmails) == 0 {
		return nil, fmt.Errorf("送信先が設定されていません")
	}
	if err := msg.To(settings.ToEmails...); err != nil {
		return nil, fmt.Errorf("送信先アドレスが不正です: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)
	return msg, nil
}

func (m *SMTPMailer) newClient(settings *model.EmailSettings) (*mail.Client, error) {
	port := int(settings.SMTPPort)
	opts := []mail.Option{
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(settings.SMTPUser),
		mail.WithPassword(settings.SMTPPass),
		mail.WithTimeout(m.timeout),
	}
	if port == smtpsPort {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}
	opts = append(opts, mail.WithPort(port))
	return mail.NewClient(settings.SMTPHost, opts...)
}
