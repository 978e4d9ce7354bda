package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/irwatch/internal/model"
)

// ClientServiceInterface はクライアントハンドラーが必要とするサービスインターフェース。
type ClientServiceInterface interface {
	List(ctx context.Context) ([]model.Client, error)
	Create(ctx context.Context, name, description string) (*model.Client, error)
	Delete(ctx context.Context, id string) error
}

// ClientHandler はクライアント管理のHTTPハンドラー。
type ClientHandler struct {
	service ClientServiceInterface
}

// NewClientHandler はClientHandlerを生成する。
func NewClientHandler(service ClientServiceInterface) *ClientHandler {
	return &ClientHandler{service: service}
}

// createClientRequest はクライアント登録リクエストのボディ。
type createClientRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListClients はクライアント一覧を返す。
// GET /api/clients
func (h *ClientHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clients)
}

// CreateClient はクライアントを登録する。
// POST /api/clients
func (h *ClientHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req createClientRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	client, err := h.service.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

// DeleteClient はクライアントとそのデータを削除する。
// DELETE /api/clients/{id}
func (h *ClientHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Client deleted successfully")
}
