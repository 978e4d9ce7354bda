package automation

import (
	"fmt"

	"github.com/hitoshi/irwatch/internal/repository"
)

// DedupPersistenceError は送信済み記録の読み書き失敗を表す。実行全体を中断する。
type DedupPersistenceError struct {
	Tenant repository.Tenant
	Op     string // "load" または "save"
	Err    error
}

func (e *DedupPersistenceError) Error() string {
	return fmt.Sprintf("送信済み記録の%sに失敗しました (tenant=%s): %v", opLabel(e.Op), e.Tenant, e.Err)
}

func (e *DedupPersistenceError) Unwrap() error { return e.Err }

func opLabel(op string) string {
	if op == "save" {
		return "保存"
	}
	return "読み込み"
}

// TemplateLoadError は設定ファイル（メールテンプレート）の読み込み失敗を表す。実行全体を中断する。
type TemplateLoadError struct {
	Tenant repository.Tenant
	Err    error
}

func (e *TemplateLoadError) Error() string {
	return fmt.Sprintf("メールテンプレートの読み込みに失敗しました (tenant=%s): %v", e.Tenant, e.Err)
}

func (e *TemplateLoadError) Unwrap() error { return e.Err }

// MailTransportError はダイジェストメールの送信失敗を表す。
// この場合、実行中に記録した送信済みエントリは保存されない。
type MailTransportError struct {
	Tenant repository.Tenant
	Err    error
}

func (e *MailTransportError) Error() string {
	return fmt.Sprintf("ダイジェストメールの送信に失敗しました (tenant=%s): %v", e.Tenant, e.Err)
}

func (e *MailTransportError) Unwrap() error { return e.Err }
