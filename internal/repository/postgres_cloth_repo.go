package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/clothtracker/internal/model"
)

// PostgresClothRepo はPostgreSQLを使用した衣類アイテムリポジトリ。
// ユーザーデータ分離のため、全クエリにuser_id条件を付与する。
type PostgresClothRepo struct {
	db *sql.DB
}

// NewPostgresClothRepo はPostgresClothRepoを生成する。
func NewPostgresClothRepo(db *sql.DB) *PostgresClothRepo {
	return &PostgresClothRepo{db: db}
}

const clothColumns = `id, user_id, name, category, color, type, brand, size, notes, image_url, created_at, updated_at`

func scanClothItem(row interface{ Scan(...any) error }) (*model.ClothItem, error) {
	item := &model.ClothItem{}
	err := row.Scan(
		&item.ID, &item.UserID, &item.Name, &item.Category,
		&item.Color, &item.Type, &item.Brand, &item.Size,
		&item.Notes, &item.ImageURL, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID は指定ユーザーが所有するアイテムを取得する。
// 見つからない場合（他ユーザー所有を含む）はnilを返す。
func (r *PostgresClothRepo) FindByID(ctx context.Context, userID, itemID string) (*model.ClothItem, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+clothColumns+` FROM clothes WHERE id = $1 AND user_id = $2`,
		itemID, userID,
	)
	item, err := scanClothItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find cloth item: %w", err)
	}
	return item, nil
}

// ListByUserID はユーザーの全アイテムをcreated_at降順で返す。
func (r *PostgresClothRepo) ListByUserID(ctx context.Context, userID string) ([]*model.ClothItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+clothColumns+` FROM clothes
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list cloth items: %w", err)
	}
	defer rows.Close()

	var items []*model.ClothItem
	for rows.Next() {
		item, err := scanClothItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cloth item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate cloth items: %w", err)
	}

	return items, nil
}

// Create はアイテムを作成する。
func (r *PostgresClothRepo) Create(ctx context.Context, item *model.ClothItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO clothes (`+clothColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		item.ID, item.UserID, item.Name, item.Category,
		item.Color, item.Type, item.Brand, item.Size,
		item.Notes, item.ImageURL, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cloth item: %w", err)
	}
	return nil
}

// UpdateFields は可変フィールドを上書きする。区分は変更しない。
func (r *PostgresClothRepo) UpdateFields(ctx context.Context, userID, itemID string, fields model.ClothFields, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE clothes
		 SET name = $3, color = $4, type = $5, brand = $6, size = $7, notes = $8, updated_at = $9
		 WHERE id = $1 AND user_id = $2`,
		itemID, userID,
		fields.Name, fields.Color, fields.Type, fields.Brand, fields.Size, fields.Notes,
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update cloth item: %w", err)
	}
	return nil
}

// UpdateCategory はアイテムの区分を更新する。
// 現在と同じ区分への更新も許可される（冪等な無操作）。
func (r *PostgresClothRepo) UpdateCategory(ctx context.Context, userID, itemID string, category model.Category, updatedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE clothes SET category = $3, updated_at = $4
		 WHERE id = $1 AND user_id = $2`,
		itemID, userID, string(category), updatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update cloth category: %w", err)
	}
	return nil
}

// Delete は指定ユーザーが所有するアイテムを削除する。
func (r *PostgresClothRepo) Delete(ctx context.Context, userID, itemID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM clothes WHERE id = $1 AND user_id = $2`,
		itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete cloth item: %w", err)
	}
	return nil
}

// DeleteByUserID はユーザーの全アイテムを削除する。退会処理用。
func (r *PostgresClothRepo) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM clothes WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user cloth items: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ClothRepository = (*PostgresClothRepo)(nil)
