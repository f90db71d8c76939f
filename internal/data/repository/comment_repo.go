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

type CommentRepository interface {
	Create(ctx context.Context, comment *entity.Comment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error)
	FindActiveByProduct(ctx context.Context, productID uuid.UUID) ([]*entity.Comment, error)
	// FindAll includes inactive comments; productID nil means every product
	FindAll(ctx context.Context, productID *uuid.UUID, limit, offset int) ([]*entity.Comment, error)
	CountAll(ctx context.Context, productID *uuid.UUID) (int64, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}

type commentRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewCommentRepository(db database.Querier, log *zap.Logger) CommentRepository {
	return &commentRepository{
		db:  db,
		log: log.With(zap.String("repository", "comment")),
	}
}

func (r *commentRepository) Create(ctx context.Context, comment *entity.Comment) error {
	query := `
		INSERT INTO comments (id, product_id, author, content, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		comment.ID,
		comment.ProductID,
		comment.Author,
		comment.Content,
		comment.IsActive,
		comment.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create comment",
			zap.Error(err),
			zap.String("product_id", comment.ProductID.String()),
		)
		return fmt.Errorf("failed to create comment: %w", translateError(err))
	}

	return nil
}

func (r *commentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Comment, error) {
	query := `
		SELECT id, product_id, author, content, is_active, created_at
		FROM comments
		WHERE id = $1
	`

	var comment entity.Comment
	err := r.db.QueryRow(ctx, query, id).Scan(
		&comment.ID,
		&comment.ProductID,
		&comment.Author,
		&comment.Content,
		&comment.IsActive,
		&comment.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find comment by ID",
			zap.Error(err),
			zap.String("comment_id", id.String()),
		)
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	return &comment, nil
}

func (r *commentRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Comment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list comments", zap.Error(err))
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*entity.Comment
	for rows.Next() {
		var comment entity.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.ProductID,
			&comment.Author,
			&comment.Content,
			&comment.IsActive,
			&comment.CreatedAt,
		); err != nil {
			r.log.Error("Failed to scan comment row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, &comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return comments, nil
}

func (r *commentRepository) FindActiveByProduct(ctx context.Context, productID uuid.UUID) ([]*entity.Comment, error) {
	return r.list(ctx, `
		SELECT id, product_id, author, content, is_active, created_at
		FROM comments
		WHERE product_id = $1 AND is_active
		ORDER BY created_at DESC
	`, productID)
}

func (r *commentRepository) FindAll(ctx context.Context, productID *uuid.UUID, limit, offset int) ([]*entity.Comment, error) {
	return r.list(ctx, `
		SELECT id, product_id, author, content, is_active, created_at
		FROM comments
		WHERE ($1::uuid IS NULL OR product_id = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, productID, limit, offset)
}

func (r *commentRepository) CountAll(ctx context.Context, productID *uuid.UUID) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM comments WHERE ($1::uuid IS NULL OR product_id = $1)`,
		productID,
	).Scan(&total)
	if err != nil {
		r.log.Error("Failed to count comments", zap.Error(err))
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return total, nil
}

func (r *commentRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.Exec(ctx, `UPDATE comments SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		r.log.Error("Failed to moderate comment",
			zap.Error(err),
			zap.String("comment_id", id.String()),
		)
		return fmt.Errorf("failed to moderate comment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("comment %s: %w", id, pgx.ErrNoRows)
	}

	return nil
}
