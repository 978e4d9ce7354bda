package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
)

// SettingsServiceInterface は設定ハンドラーが必要とするサービスインターフェース。
type SettingsServiceInterface interface {
	Get(ctx context.Context, tenant repository.Tenant) (*model.Settings, error)
	SaveEmail(ctx context.Context, tenant repository.Tenant, email *model.EmailSettings) error
	SaveSchedule(ctx context.Context, tenant repository.Tenant, expr string) error
	SaveTemplate(ctx context.Context, tenant repository.Tenant, tmpl model.EmailTemplate) error
	SaveBlogPrompt(ctx context.Context, tenant repository.Tenant, prompt string) error
}

// SettingsHandler はテナント設定のHTTPハンドラー。
type SettingsHandler struct {
	service SettingsServiceInterface
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(service SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{service: service}
}

type scheduleRequest struct {
	Cron string `json:"cron"`
}

type blogPromptRequest struct {
	BlogPrompt string `json:"blogPrompt"`
}

// GetSettings はテナントの設定を返す。未設定の場合は {}。
// GET /api/settings?clientId=
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}
	settings, err := h.service.Get(r.Context(), tenant)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// SaveEmail はメール設定を保存する。
// POST /api/settings/email?clientId=
func (h *SettingsHandler) SaveEmail(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}
	var req model.EmailSettings
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.SaveEmail(r.Context(), tenant, &req); err != nil {
		handleServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email settings saved successfully")
}

// SaveSchedule はスケジュール設定を保存する。
// POST /api/settings/schedule?clientId=
func (h *SettingsHandler) SaveSchedule(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}
	var req scheduleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.SaveSchedule(r.Context(), tenant, req.Cron); err != nil {
		handleServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Schedule settings saved successfully")
}

// SaveTemplate はメールテンプレートを保存する。
// POST /api/settings/email-template?clientId=
func (h *SettingsHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}
	var req model.EmailTemplate
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.SaveTemplate(r.Context(), tenant, req); err != nil {
		handleServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email template saved successfully")
}

// SaveBlogPrompt はブログ推薦プロンプトを保存する。
// POST /api/settings/blog-prompt?clientId=
func (h *SettingsHandler) SaveBlogPrompt(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}
	var req blogPromptRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.SaveBlogPrompt(r.Context(), tenant, req.BlogPrompt); err != nil {
		handleServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Blog prompt saved successfully")
}
