// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/irwatch/internal/middleware"
	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
)

// clientIDParam はテナントを指定するクエリパラメータ名。
const clientIDParam = "clientId"

// messageResponse は成功時の汎用レスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// writeMessage は {"message": ...} 形式の成功レスポンスを書き込む。
func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, messageResponse{Message: message})
}

// decodeJSON はリクエストボディをデコードする。失敗時は400を書き込んでfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return false
	}
	return true
}

// tenantFromRequest はクエリパラメータ clientId からテナントを取得する。
// 未指定の場合はデフォルトテナント。ファイル名に使えないIDは404を書き込んでfalseを返す。
func tenantFromRequest(w http.ResponseWriter, r *http.Request) (repository.Tenant, bool) {
	clientID := r.URL.Query().Get(clientIDParam)
	tenant, err := repository.ParseTenant(clientID)
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewClientNotFoundError(clientID))
		return "", false
	}
	return tenant, true
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest, model.ErrCodeRequiredField, model.ErrCodeNotArray,
		model.ErrCodeInvalidSchedule, model.ErrCodeEmailNotConfigured,
		model.ErrCodeMissingCredentials, model.ErrCodeUsernameTaken, model.ErrCodeDuplicateClient:
		return http.StatusBadRequest
	case model.ErrCodeClientNotFound:
		return http.StatusNotFound
	case model.ErrCodeInvalidCredentials, model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeAutomationFailed, model.ErrCodeTestEmailFailed:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
