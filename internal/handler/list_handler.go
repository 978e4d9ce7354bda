package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/irwatch/internal/middleware"
	"github.com/hitoshi/irwatch/internal/model"
	"github.com/hitoshi/irwatch/internal/repository"
)

// ListHandler はテナントごとの配列データ（企業・受信者・ブログ）を丸ごと取得・保存するHTTPハンドラー。
type ListHandler[T any] struct {
	repo repository.ListRepository[T]
	kind string // レスポンスメッセージに使う複数形の名前（例: "Companies"）
}

// NewListHandler はListHandlerを生成する。
func NewListHandler[T any](repo repository.ListRepository[T], kind string) *ListHandler[T] {
	return &ListHandler[T]{repo: repo, kind: kind}
}

// Get はテナントの一覧を返す。ファイルが存在しない場合は空配列。
// GET /api/{kind}?clientId=
func (h *ListHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	items, err := h.repo.List(r.Context(), tenant)
	if err != nil {
		slog.Error("一覧の読み込みに失敗しました",
			slog.String("kind", h.kind),
			slog.String("tenant", tenant.String()),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// Save はテナントの一覧を丸ごと置き換える。ボディはJSON配列でなければならない。
// POST /api/{kind}?clientId=
func (h *ListHandler[T]) Save(w http.ResponseWriter, r *http.Request) {
	tenant, ok := tenantFromRequest(w, r)
	if !ok {
		return
	}

	var raw json.RawMessage
	if !decodeJSON(w, r, &raw) {
		return
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewNotArrayError(h.kind))
		return
	}

	if err := h.repo.Save(r.Context(), tenant, items); err != nil {
		slog.Error("一覧の保存に失敗しました",
			slog.String("kind", h.kind),
			slog.String("tenant", tenant.String()),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	slog.Info("一覧を保存しました",
		slog.String("kind", h.kind),
		slog.String("tenant", tenant.String()),
		slog.Int("count", len(items)),
	)
	writeMessage(w, http.StatusOK, h.kind+" saved successfully")
}
