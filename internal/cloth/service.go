// Package cloth は衣類アイテムの管理機能を提供する。
//
// アイテムはfresh（洗濯済み）、wearing（着用中）、dirty（洗濯待ち）の
// 3区分のいずれか1つに属する。全ての書き込み操作は完了後に一覧を
// 再取得して返し、UIが常に永続化済みの状態を表示できるようにする。
package cloth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/clothtracker/internal/model"
	"github.com/hitoshi/clothtracker/internal/repository"
	"github.com/hitoshi/clothtracker/internal/security"
)

// MetricsRecorder はワードローブ操作の計測インターフェース。nil可。
type MetricsRecorder interface {
	RecordWardrobeMutation(op string)
}

// Service は衣類アイテム管理サービス。
type Service struct {
	clothRepo repository.ClothRepository
	sanitizer security.FieldSanitizerService
	metrics   MetricsRecorder
}

// NewService は衣類アイテム管理サービスを生成する。metricsはnil可。
func NewService(clothRepo repository.ClothRepository, sanitizer security.FieldSanitizerService, metrics MetricsRecorder) *Service {
	return &Service{
		clothRepo: clothRepo,
		sanitizer: sanitizer,
		metrics:   metrics,
	}
}

func (s *Service) record(op string) {
	if s.metrics != nil {
		s.metrics.RecordWardrobeMutation(op)
	}
}

// List はユーザーの全アイテムを区分ごとに分割して返す。
// 各区分内はcreated_at降順（新しいアイテムが先頭）。
func (s *Service) List(ctx context.Context, userID string) (*model.Wardrobe, error) {
	items, err := s.clothRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	w := &model.Wardrobe{}
	for _, item := range items {
		switch item.Category {
		case model.CategoryFresh:
			w.Fresh = append(w.Fresh, item)
		case model.CategoryWearing:
			w.Wearing = append(w.Wearing, item)
		case model.CategoryDirty:
			w.Dirty = append(w.Dirty, item)
		}
	}
	return w, nil
}

// sanitizeFields は全フリーテキスト項目からHTMLタグを除去する。
func (s *Service) sanitizeFields(fields model.ClothFields) model.ClothFields {
	return model.ClothFields{
		Name:  s.sanitizer.Sanitize(fields.Name),
		Color: s.sanitizer.Sanitize(fields.Color),
		Type:  s.sanitizer.Sanitize(fields.Type),
		Brand: s.sanitizer.Sanitize(fields.Brand),
		Size:  s.sanitizer.Sanitize(fields.Size),
		Notes: s.sanitizer.Sanitize(fields.Notes),
	}
}

// Add は指定区分にアイテムを追加し、更新後の一覧を返す。
// 名前はサニタイズ後に必須。区分は3値のいずれかでなければならない。
func (s *Service) Add(ctx context.Context, userID string, fields model.ClothFields, category model.Category) (*model.Wardrobe, error) {
	if !category.IsValid() {
		return nil, model.NewInvalidCategoryError(string(category))
	}

	fields = s.sanitizeFields(fields)
	if fields.Name == "" {
		return nil, model.NewValidationError("アイテム名を入力してください。")
	}

	now := time.Now()
	item := &model.ClothItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      fields.Name,
		Category:  category,
		Color:     fields.Color,
		Type:      fields.Type,
		Brand:     fields.Brand,
		Size:      fields.Size,
		Notes:     fields.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.clothRepo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.record("add")
	return s.List(ctx, userID)
}

// Edit はアイテムの可変フィールドを上書きし、更新後の一覧を返す。
// 区分は変更しない。指定ユーザーが所有していないアイテムは未検出扱い。
func (s *Service) Edit(ctx context.Context, userID, itemID string, fields model.ClothFields) (*model.Wardrobe, error) {
	item, err := s.clothRepo.FindByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}

	fields = s.sanitizeFields(fields)
	if fields.Name == "" {
		return nil, model.NewValidationError("アイテム名を入力してください。")
	}

	if err := s.clothRepo.UpdateFields(ctx, userID, itemID, fields, time.Now()); err != nil {
		return nil, err
	}

	s.record("edit")
	return s.List(ctx, userID)
}

// Delete はアイテムを削除し、更新後の一覧を返す。
func (s *Service) Delete(ctx context.Context, userID, itemID string) (*model.Wardrobe, error) {
	item, err := s.clothRepo.FindByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}

	if err := s.clothRepo.Delete(ctx, userID, itemID); err != nil {
		return nil, err
	}

	s.record("delete")
	return s.List(ctx, userID)
}

// Move はアイテムを指定区分に移動し、更新後の一覧を返す。
// 現在と同じ区分への移動は冪等な無操作として成功する。
func (s *Service) Move(ctx context.Context, userID, itemID string, category model.Category) (*model.Wardrobe, error) {
	if !category.IsValid() {
		return nil, model.NewInvalidCategoryError(string(category))
	}

	item, err := s.clothRepo.FindByID(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, model.NewItemNotFoundError(itemID)
	}

	if item.Category != category {
		if err := s.clothRepo.UpdateCategory(ctx, userID, itemID, category, time.Now()); err != nil {
			return nil, err
		}
	}

	s.record("move")
	return s.List(ctx, userID)
}
