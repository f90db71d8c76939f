package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/data/entity"
	"storefront/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	FindAll(ctx context.Context) ([]*entity.Category, error)
	FindTopLevel(ctx context.Context) ([]*entity.Category, error)
	// FindSubcategories lists subcategories of parentID, or all of them when parentID is nil
	FindSubcategories(ctx context.Context, parentID *uuid.UUID) ([]*entity.Category, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountChildren(ctx context.Context, id uuid.UUID) (int64, error)
	CountProducts(ctx context.Context, id uuid.UUID) (int64, error)
}

type categoryRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewCategoryRepository(db database.Querier, log *zap.Logger) CategoryRepository {
	return &categoryRepository{
		db:  db,
		log: log.With(zap.String("repository", "category")),
	}
}

func (r *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	query := `
		INSERT INTO categories (id, name, "order", parent_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		category.ID,
		category.Name,
		category.Order,
		category.ParentID,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create category",
			zap.Error(err),
			zap.String("name", category.Name),
		)
		return fmt.Errorf("failed to create category: %w", translateError(err))
	}

	return nil
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	query := `
		SELECT id, name, "order", parent_id, created_at, updated_at
		FROM categories
		WHERE id = $1
	`

	var category entity.Category
	err := r.db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Order,
		&category.ParentID,
		&category.CreatedAt,
		&category.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find category by ID",
			zap.Error(err),
			zap.String("category_id", id.String()),
		)
		return nil, fmt.Errorf("failed to find category: %w", err)
	}

	return &category, nil
}

func (r *categoryRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Category, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []*entity.Category
	for rows.Next() {
		var category entity.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Order,
			&category.ParentID,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			r.log.Error("Failed to scan category row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) FindAll(ctx context.Context) ([]*entity.Category, error) {
	return r.list(ctx, `
		SELECT id, name, "order", parent_id, created_at, updated_at
		FROM categories
		ORDER BY "order", name
	`)
}

func (r *categoryRepository) FindTopLevel(ctx context.Context) ([]*entity.Category, error) {
	return r.list(ctx, `
		SELECT id, name, "order", parent_id, created_at, updated_at
		FROM categories
		WHERE parent_id IS NULL
		ORDER BY "order", name
	`)
}

func (r *categoryRepository) FindSubcategories(ctx context.Context, parentID *uuid.UUID) ([]*entity.Category, error) {
	query := `
		SELECT c.id, c.name, c."order", c.parent_id, c.created_at, c.updated_at,
		       p.id, p.name, p."order", p.created_at, p.updated_at
		FROM categories c
		JOIN categories p ON p.id = c.parent_id
		WHERE ($1::uuid IS NULL OR c.parent_id = $1)
		ORDER BY p."order", p.name, c."order", c.name
	`

	rows, err := r.db.Query(ctx, query, parentID)
	if err != nil {
		r.log.Error("Failed to list subcategories", zap.Error(err))
		return nil, fmt.Errorf("failed to list subcategories: %w", err)
	}
	defer rows.Close()

	var categories []*entity.Category
	for rows.Next() {
		var category entity.Category
		var parent entity.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Order,
			&category.ParentID,
			&category.CreatedAt,
			&category.UpdatedAt,
			&parent.ID,
			&parent.Name,
			&parent.Order,
			&parent.CreatedAt,
			&parent.UpdatedAt,
		); err != nil {
			r.log.Error("Failed to scan subcategory row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan subcategory: %w", err)
		}
		category.Parent = &parent
		categories = append(categories, &category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *entity.Category) error {
	query := `
		UPDATE categories
		SET name = $2, "order" = $3, parent_id = $4, updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		category.ID,
		category.Name,
		category.Order,
		category.ParentID,
		category.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update category",
			zap.Error(err),
			zap.String("category_id", category.ID.String()),
		)
		return fmt.Errorf("failed to update category: %w", translateError(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", category.ID, pgx.ErrNoRows)
	}

	return nil
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		r.log.Warn("Failed to delete category",
			zap.Error(err),
			zap.String("category_id", id.String()),
		)
		return fmt.Errorf("failed to delete category: %w", translateError(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("category %s: %w", id, pgx.ErrNoRows)
	}

	return nil
}

func (r *categoryRepository) count(ctx context.Context, query string, id uuid.UUID) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, query, id).Scan(&total); err != nil {
		r.log.Error("Failed to count category references",
			zap.Error(err),
			zap.String("category_id", id.String()),
		)
		return 0, fmt.Errorf("failed to count category references: %w", err)
	}
	return total, nil
}

func (r *categoryRepository) CountChildren(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM categories WHERE parent_id = $1`, id)
}

func (r *categoryRepository) CountProducts(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM products WHERE category_id = $1`, id)
}
