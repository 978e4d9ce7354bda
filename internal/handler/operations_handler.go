package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/irwatch/internal/middleware"
	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
	"github.com/hitoshi/irwatch/internal/worker/automation"
)

// BlogSuggesterInterface はブログ推薦のサービスインターフェース。
type BlogSuggesterInterface interface {
	Suggest(ctx context.Context, clientID string) ([]model.BlogSuggestion, error)
}

// OperationsInterface は手動メール操作のサービスインターフェース。
type OperationsInterface interface {
	SendTestEmail(ctx context.Context, tenant repository.Tenant) error
	TestAutomation(ctx context.Context, tenant repository.Tenant) (*automation.Report, error)
}

// StatusReporter はテナントごとの自動実行状況のインターフェース。
type StatusReporter interface {
	Snapshot() []automation.TenantStatus
}

// OperationsHandler はブログ推薦・テストメール・自動実行テスト・実行状況のHTTPハンドラー。
type OperationsHandler struct {
	blogs      BlogSuggesterInterface
	operations OperationsInterface
	status     StatusReporter
}

// NewOperationsHandler はOperationsHandlerを生成する。
func NewOperationsHandler(blogs BlogSuggesterInterface, operations OperationsInterface, status StatusReporter) *OperationsHandler {
	return &OperationsHandler{
		blogs:      blogs,
		operations: operations,
		status:     status,
	}
}

type suggestionsRequest struct {
	ClientID string `json:"clientId"`
}

// automationResponse は自動実行テストのレスポンス。
type automationResponse struct {
	Message    string `json:"message"`
	Companies  int    `json:"companies"`
	NewItems   int    `json:"newItems"`
	Suppressed int    `json:"suppressed"`
	Errors     int    `json:"errors"`
	DigestSent bool   `json:"digestSent"`
}

// BlogSuggestions はクライアント向けのブログ推薦を返す。
// POST /api/blogs/suggestions
func (h *OperationsHandler) BlogSuggestions(w http.ResponseWriter, r *http.Request) {
	var req suggestionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	suggestions, err := h.blogs.Suggest(r.Context(), req.ClientID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

// TestEmail はテストメールを送信する。
// POST /api/test-email?clientId=
func (h *OperationsHandler) TestEmail(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	err := h.operations.SendTestEmail(r.Context(), tenant)
	if errors.Is(err, automation.ErrEmailNotConfigured) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewEmailNotConfiguredError())
		return
	}
	if err != nil {
		slog.Error("テストメールの送信に失敗しました",
			slog.String("tenant", tenant.String()),
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewTestEmailFailedError())
		return
	}
	writeMessage(w, http.StatusOK, "Test email sent successfully")
}

// TestAutomation はテナントの自動実行を即時に行い、結果を返す。
// POST /api/test-automation?clientId=
func (h *OperationsHandler) TestAutomation(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	report, err := h.operations.TestAutomation(r.Context(), tenant)
	if errors.Is(err, automation.ErrEmailNotConfigured) {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewEmailNotConfiguredError())
		return
	}
	if err != nil {
		slog.Error("自動実行テストに失敗しました",
			slog.String("tenant", tenant.String()),
			slog.String("error", err.Error()),
		)
		middleware.WriteErrorResponse(w, http.StatusInternalServerError, model.NewAutomationFailedError())
		return
	}

	writeJSON(w, http.StatusOK, automationResponse{
		Message:    "Test automation completed successfully",
		Companies:  report.Companies,
		NewItems:   report.NewItems,
		Suppressed: report.Suppressed,
		Errors:     report.Errors,
		DigestSent: report.Sent,
	})
}

// AutomationStatus はテナントごとの次回・前回実行と結果を返す。
// GET /api/automation/status
func (h *OperationsHandler) AutomationStatus(w http.ResponseWriter, r *http.Request) {
	statuses := []automation.TenantStatus{}
	if h.status != nil {
		statuses = h.status.Snapshot()
	}
	writeJSON(w, http.StatusOK, statuses)
}
