package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/clothtracker/internal/middleware"
	"github.com/hitoshi/clothtracker/internal/model"
)

// ClothServiceInterface は衣類ハンドラーが必要とするサービスインターフェース。
type ClothServiceInterface interface {
	List(ctx context.Context, userID string) (*model.Wardrobe, error)
	Add(ctx context.Context, userID string, fields model.ClothFields, category model.Category) (*model.Wardrobe, error)
	Edit(ctx context.Context, userID, itemID string, fields model.ClothFields) (*model.Wardrobe, error)
	Delete(ctx context.Context, userID, itemID string) (*model.Wardrobe, error)
	Move(ctx context.Context, userID, itemID string, category model.Category) (*model.Wardrobe, error)
}

// ClothHandler は衣類アイテム関連のHTTPハンドラー。
type ClothHandler struct {
	service ClothServiceInterface
}

// NewClothHandler はClothHandlerを生成する。
func NewClothHandler(service ClothServiceInterface) *ClothHandler {
	return &ClothHandler{service: service}
}

// clothItemResponse は衣類アイテム1点のレスポンス表現。
type clothItemResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Color     string `json:"color,omitempty"`
	Type      string `json:"type,omitempty"`
	Brand     string `json:"brand,omitempty"`
	Size      string `json:"size,omitempty"`
	Notes     string `json:"notes,omitempty"`
	ImageURL  string `json:"image_url,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// wardrobeResponse は区分ごとに分割された一覧のレスポンス表現。
type wardrobeResponse struct {
	Fresh   []clothItemResponse `json:"fresh"`
	Wearing []clothItemResponse `json:"wearing"`
	Dirty   []clothItemResponse `json:"dirty"`
	Total   int                 `json:"total"`
}

func toClothItemResponse(item *model.ClothItem) clothItemResponse {
	return clothItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Category:  string(item.Category),
		Color:     item.Color,
		Type:      item.Type,
		Brand:     item.Brand,
		Size:      item.Size,
		Notes:     item.Notes,
		ImageURL:  item.ImageURL,
		CreatedAt: item.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: item.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func toWardrobeResponse(w *model.Wardrobe) wardrobeResponse {
	resp := wardrobeResponse{
		// 空の区分でもnullではなく[]を返す
		Fresh:   []clothItemResponse{},
		Wearing: []clothItemResponse{},
		Dirty:   []clothItemResponse{},
		Total:   w.Total(),
	}
	for _, item := range w.Fresh {
		resp.Fresh = append(resp.Fresh, toClothItemResponse(item))
	}
	for _, item := range w.Wearing {
		resp.Wearing = append(resp.Wearing, toClothItemResponse(item))
	}
	for _, item := range w.Dirty {
		resp.Dirty = append(resp.Dirty, toClothItemResponse(item))
	}
	return resp
}

// clothFieldsRequest は追加・編集フォームのリクエストボディ。
type clothFieldsRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Color    string `json:"color"`
	Type     string `json:"type"`
	Brand    string `json:"brand"`
	Size     string `json:"size"`
	Notes    string `json:"notes"`
}

func (req *clothFieldsRequest) fields() model.ClothFields {
	return model.ClothFields{
		Name:  req.Name,
		Color: req.Color,
		Type:  req.Type,
		Brand: req.Brand,
		Size:  req.Size,
		Notes: req.Notes,
	}
}

// List は全アイテムを区分ごとに分割して返す。
// GET /api/clothes
func (h *ClothHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	wardrobe, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWardrobeResponse(wardrobe))
}

// Add はアイテムを追加し、更新後の一覧を返す。
// POST /api/clothes
func (h *ClothHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	var req clothFieldsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	wardrobe, err := h.service.Add(r.Context(), userID, req.fields(), model.Category(req.Category))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWardrobeResponse(wardrobe))
}

// Edit はアイテムの可変フィールドを上書きし、更新後の一覧を返す。
// PATCH /api/clothes/{id}
func (h *ClothHandler) Edit(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	var req clothFieldsRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	itemID := chi.URLParam(r, "id")
	wardrobe, err := h.service.Edit(r.Context(), userID, itemID, req.fields())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWardrobeResponse(wardrobe))
}

// Delete はアイテムを削除し、更新後の一覧を返す。
// DELETE /api/clothes/{id}
func (h *ClothHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	itemID := chi.URLParam(r, "id")
	wardrobe, err := h.service.Delete(r.Context(), userID, itemID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWardrobeResponse(wardrobe))
}

// Move はアイテムを別の区分に移動し、更新後の一覧を返す。
// POST /api/clothes/{id}/move
func (h *ClothHandler) Move(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		handleServiceError(w, model.NewUnauthorizedError())
		return
	}

	var req struct {
		Category string `json:"category"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, err)
		return
	}

	itemID := chi.URLParam(r, "id")
	wardrobe, err := h.service.Move(r.Context(), userID, itemID, model.Category(req.Category))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWardrobeResponse(wardrobe))
}
