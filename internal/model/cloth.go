// Package model はドメインモデルを定義する。
package model

import "time"

// Category は衣類アイテムが属する状態区分を表す。
// アイテムは常にいずれか1つの区分にのみ属する（集合ではなく分割）。
type Category string

const (
	// CategoryFresh は洗濯済みで着用可能な状態。
	CategoryFresh Category = "fresh"
	// CategoryWearing は現在着用中の状態。
	CategoryWearing Category = "wearing"
	// CategoryDirty は洗濯待ちの状態。
	CategoryDirty Category = "dirty"
)

// Categories は全区分を定義順で返す。
func Categories() []Category {
	return []Category{CategoryFresh, CategoryWearing, CategoryDirty}
}

// IsValid は区分が定義済みの3値のいずれかであるかを返す。
func (c Category) IsValid() bool {
	switch c {
	case CategoryFresh, CategoryWearing, CategoryDirty:
		return true
	}
	return false
}

// ClothItem は衣類アイテム1点を表す。
// Name以外の属性フィールドは任意（空文字列が未設定を表す）。
type ClothItem struct {
	ID        string
	UserID    string
	Name      string
	Category  Category
	Color     string
	Type      string
	Brand     string
	Size      string
	Notes     string
	ImageURL  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ClothFields は追加・編集フォームから受け取る可変フィールドの集合。
// Categoryは含まない（区分の変更はMove操作のみが行う）。
type ClothFields struct {
	Name  string
	Color string
	Type  string
	Brand string
	Size  string
	Notes string
}

// Wardrobe はユーザーの全アイテムを区分ごとに分割した結果を表す。
// 各スライスはcreated_at降順。同一アイテムが複数の区分に現れることはない。
type Wardrobe struct {
	Fresh   []*ClothItem
	Wearing []*ClothItem
	Dirty   []*ClothItem
}

// Total は全区分のアイテム合計数を返す。
func (w *Wardrobe) Total() int {
	return len(w.Fresh) + len(w.Wearing) + len(w.Dirty)
}
