// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, tenant, mail, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeRequiredField      = "REQUIRED_FIELD"
	ErrCodeNotArray           = "NOT_ARRAY"
	ErrCodeClientNotFound     = "CLIENT_NOT_FOUND"
	ErrCodeDuplicateClient    = "DUPLICATE_CLIENT"
	ErrCodeInvalidSchedule    = "INVALID_SCHEDULE"
	ErrCodeEmailNotConfigured = "EMAIL_NOT_CONFIGURED"
	ErrCodeUsernameTaken      = "USERNAME_TAKEN"
	ErrCodeMissingCredentials = "MISSING_CREDENTIALS"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeAutomationFailed   = "AUTOMATION_FAILED"
	ErrCodeTestEmailFailed    = "TEST_EMAIL_FAILED"
)

// NewInvalidRequestError はリクエストボディ解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewRequiredFieldError は必須項目未入力エラーを生成する。
// メッセージは既存フロントエンドとの互換のため "<field> is required" 形式とする。
func NewRequiredFieldError(field string) *APIError {
	return &APIError{
		Code:     ErrCodeRequiredField,
		Message:  fmt.Sprintf("%s is required", field),
		Category: "validation",
		Action:   "必須項目を入力してください。",
	}
}

// NewNotArrayError は配列以外のボディを受け取った場合のエラーを生成する。
func NewNotArrayError(kind string) *APIError {
	return &APIError{
		Code:     ErrCodeNotArray,
		Message:  fmt.Sprintf("%s data must be an array", kind),
		Category: "validation",
		Action:   "JSON配列で送信してください。",
	}
}

// NewClientNotFoundError はクライアント未検出エラーを生成する。
func NewClientNotFoundError(clientID string) *APIError {
	return &APIError{
		Code:     ErrCodeClientNotFound,
		Message:  fmt.Sprintf("Client not found: %s", clientID),
		Category: "tenant",
		Action:   "クライアントIDを確認してください。",
	}
}

// NewDuplicateClientError は同名クライアントが既に存在する場合のエラーを生成する。
func NewDuplicateClientError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateClient,
		Message:  "Client with this name already exists",
		Category: "tenant",
		Action:   "別のクライアント名を指定してください。",
	}
}

// NewInvalidScheduleError はcron式が不正な場合のエラーを生成する。
func NewInvalidScheduleError(expr string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidSchedule,
		Message:  fmt.Sprintf("無効なcron式です: %s", expr),
		Category: "validation",
		Action:   "「分 時 日 月 曜日」の5フィールド形式で指定してください（例: 0 8 * * *）。",
	}
}

// NewEmailNotConfiguredError はメール設定未登録エラーを生成する。
func NewEmailNotConfiguredError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailNotConfigured,
		Message:  "Email settings not configured",
		Category: "mail",
		Action:   "設定画面でSMTP接続情報と送信先を登録してください。",
	}
}

// NewUsernameTakenError はユーザー名重複エラーを生成する。
func NewUsernameTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeUsernameTaken,
		Message:  "Username already exists",
		Category: "auth",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewMissingCredentialsError はユーザー名またはパスワードが未入力の場合のエラーを生成する。
func NewMissingCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingCredentials,
		Message:  "Username and password are required",
		Category: "auth",
		Action:   "ユーザー名とパスワードを入力してください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid credentials",
		Category: "auth",
		Action:   "ユーザー名とパスワードを確認してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewAutomationFailedError は自動実行テストの失敗エラーを生成する。
func NewAutomationFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeAutomationFailed,
		Message:  "Error running automation test",
		Category: "mail",
		Action:   "SMTP設定と企業URLを確認し、ログを参照してください。",
	}
}

// NewTestEmailFailedError はテストメール送信失敗エラーを生成する。
func NewTestEmailFailedError() *APIError {
	return &APIError{
		Code:     ErrCodeTestEmailFailed,
		Message:  "Error sending test email",
		Category: "mail",
		Action:   "SMTPホスト・ポート・認証情報を確認してください。",
	}
}
