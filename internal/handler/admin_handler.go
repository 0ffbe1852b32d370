package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/clothtracker/internal/model"
)

// AdminServiceInterface は管理ハンドラーが必要とするサービスインターフェース。
type AdminServiceInterface interface {
	ListAll(ctx context.Context) ([]*model.Profile, error)
}

// AdminHandler は管理画面向けのHTTPハンドラー。
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler はAdminHandlerを生成する。
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// ListUsers は登録ユーザーの一覧を登録の新しい順で返す。
// GET /api/admin/users（認証必須）
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 空でもnullではなく[]を返す
	users := []profileResponse{}
	for _, p := range profiles {
		users = append(users, toProfileResponse(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": len(users),
	})
}
