package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// デフォルトのメールテンプレート。settings.emailTemplate が未設定の場合に使用する。
const (
	DefaultTemplateSubject = "Daily Investor Relations Update - {DATE}"
	DefaultTemplateBody    = "<h1>Daily Investor Relations Update</h1>\n<p>Date: {DATE}</p>\n<hr>\n<p><strong>{COMPANY_NAME} ({TICKER})</strong> - <a href=\"{URL}\" target=\"_blank\">{TITLE}</a> - {PUBLISH_DATE}</p>"
)

// Settings はテナントごとの設定ファイルの内容を表す。
// ファイルが存在しない場合は空オブジェクトとして扱い、各フィールドは個別にデフォルト値を持つ。
type Settings struct {
	Email         *EmailSettings    `json:"email,omitempty"`
	Schedule      *ScheduleSettings `json:"schedule,omitempty"`
	EmailTemplate *EmailTemplate    `json:"emailTemplate,omitempty"`
	BlogPrompt    string            `json:"blogPrompt,omitempty"`
}

// Template は有効なメールテンプレートを返す。未設定の場合はデフォルトを返す。
func (s *Settings) Template() EmailTemplate {
	if s == nil || s.EmailTemplate == nil {
		return DefaultEmailTemplate()
	}
	return *s.EmailTemplate
}

// CronExpr は設定されたcron式を返す。未設定の場合は空文字を返す。
func (s *Settings) CronExpr() string {
	if s == nil || s.Schedule == nil {
		return ""
	}
	return strings.TrimSpace(s.Schedule.Cron)
}

// EmailSettings はSMTP接続とダイジェスト送信先の設定。
type EmailSettings struct {
	SMTPHost  string   `json:"smtpHost"`
	SMTPPort  Port     `json:"smtpPort"`
	SMTPUser  string   `json:"smtpUser"`
	SMTPPass  string   `json:"smtpPass"`
	FromName  string   `json:"fromName"`
	FromEmail string   `json:"fromEmail"`
	ToEmails  []string `json:"toEmails"`
	Subject   string   `json:"subject"`
}

// MissingField は必須項目のうち最初に未入力のものの名前を返す。
// すべて入力済みの場合は空文字を返す。
func (e *EmailSettings) MissingField() string {
	switch {
	case strings.TrimSpace(e.SMTPHost) == "":
		return "smtpHost"
	case e.SMTPPort <= 0:
		return "smtpPort"
	case e.SMTPUser == "":
		return "smtpUser"
	case e.SMTPPass == "":
		return "smtpPass"
	case e.FromName == "":
		return "fromName"
	case e.FromEmail == "":
		return "fromEmail"
	case len(e.ToEmails) == 0:
		return "toEmails"
	case e.Subject == "":
		return "subject"
	}
	return ""
}

// ScheduleSettings は自動実行スケジュールの設定。
type ScheduleSettings struct {
	Cron string `json:"cron"`
}

// EmailTemplate はダイジェストメールの件名と本文テンプレート。
type EmailTemplate struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// DefaultEmailTemplate はデフォルトのメールテンプレートを返す。
func DefaultEmailTemplate() EmailTemplate {
	return EmailTemplate{
		Subject: DefaultTemplateSubject,
		Body:    DefaultTemplateBody,
	}
}

// Port はSMTPポート番号。
// 設定画面からは文字列で送られることがあるため、数値と文字列の両方を受け付ける。
type Port int

// UnmarshalJSON は数値または数値文字列をポート番号として解釈する。
func (p *Port) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*p = Port(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("smtpPort must be a number: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*p = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("smtpPort must be a number: %q", s)
	}
	*p = Port(n)
	return nil
}
