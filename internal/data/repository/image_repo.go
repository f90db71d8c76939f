package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/data/entity"
	"storefront/pkg/database"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ImageRepository interface {
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]*entity.AdditionalImage, error)
	// ReplaceForProduct makes images the complete additional-image set of the product
	ReplaceForProduct(ctx context.Context, productID uuid.UUID, images []string) error
	DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	DeleteBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error)
}

type imageRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewImageRepository(db database.Querier, log *zap.Logger) ImageRepository {
	return &imageRepository{
		db:  db,
		log: log.With(zap.String("repository", "additional_image")),
	}
}

func (r *imageRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]*entity.AdditionalImage, error) {
	query := `
		SELECT id, product_id, image, created_at
		FROM additional_images
		WHERE product_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		r.log.Error("Failed to find additional images",
			zap.Error(err),
			zap.String("product_id", productID.String()),
		)
		return nil, fmt.Errorf("failed to find additional images: %w", err)
	}
	defer rows.Close()

	var images []*entity.AdditionalImage
	for rows.Next() {
		var image entity.AdditionalImage
		if err := rows.Scan(&image.ID, &image.ProductID, &image.Image, &image.CreatedAt); err != nil {
			r.log.Error("Failed to scan additional image row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan additional image: %w", err)
		}
		images = append(images, &image)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return images, nil
}

func (r *imageRepository) ReplaceForProduct(ctx context.Context, productID uuid.UUID, images []string) error {
	if _, err := r.DeleteByProduct(ctx, productID); err != nil {
		return err
	}

	query := `
		INSERT INTO additional_images (id, product_id, image, created_at)
		VALUES ($1, $2, $3, $4)
	`

	now := time.Now()
	for i, image := range images {
		// keep insertion order stable for FindByProduct
		createdAt := now.Add(time.Duration(i) * time.Microsecond)
		if _, err := r.db.Exec(ctx, query, uuid.New(), productID, image, createdAt); err != nil {
			r.log.Error("Failed to insert additional image",
				zap.Error(err),
				zap.String("product_id", productID.String()),
			)
			return fmt.Errorf("failed to insert additional image: %w", translateError(err))
		}
	}

	return nil
}

func (r *imageRepository) DeleteByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM additional_images WHERE product_id = $1`, productID)
	if err != nil {
		r.log.Error("Failed to delete additional images",
			zap.Error(err),
			zap.String("product_id", productID.String()),
		)
		return 0, fmt.Errorf("failed to delete additional images: %w", err)
	}
	return result.RowsAffected(), nil
}

func (r *imageRepository) DeleteBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	query := `
		DELETE FROM additional_images
		WHERE product_id IN (SELECT id FROM products WHERE seller_id = $1)
	`

	result, err := r.db.Exec(ctx, query, sellerID)
	if err != nil {
		r.log.Error("Failed to delete seller images",
			zap.Error(err),
			zap.String("seller_id", sellerID.String()),
		)
		return 0, fmt.Errorf("failed to delete seller images: %w", err)
	}
	return result.RowsAffected(), nil
}
