package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/data/entity"
	"storefront/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	// FindActive returns active products newest first, capped at limit
	FindActive(ctx context.Context, limit int) ([]*entity.Product, error)
	// FindActiveByCategory filters active products of a category. An empty
	// keyword disables the text filter, a limit of 0 disables paging.
	FindActiveByCategory(ctx context.Context, categoryID uuid.UUID, keyword string, limit, offset int) ([]*entity.Product, error)
	CountActiveByCategory(ctx context.Context, categoryID uuid.UUID, keyword string) (int64, error)

	FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]*entity.Product, error)
	CountBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error)
	DeleteBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error)
}

type productRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewProductRepository(db database.Querier, log *zap.Logger) ProductRepository {
	return &productRepository{
		db:  db,
		log: log.With(zap.String("repository", "product")),
	}
}

const productColumns = `id, category_id, title, content, price, manufacturer, image,
		       seller_id, is_active, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var product entity.Product
	err := row.Scan(
		&product.ID,
		&product.CategoryID,
		&product.Title,
		&product.Content,
		&product.Price,
		&product.Manufacturer,
		&product.Image,
		&product.SellerID,
		&product.IsActive,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, category_id, title, content, price, manufacturer, image,
		                      seller_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		product.ID,
		product.CategoryID,
		product.Title,
		product.Content,
		product.Price,
		product.Manufacturer,
		product.Image,
		product.SellerID,
		product.IsActive,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to create product",
			zap.Error(err),
			zap.String("title", product.Title),
		)
		return fmt.Errorf("failed to create product: %w", translateError(err))
	}

	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	product, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find product by ID",
			zap.Error(err),
			zap.String("product_id", id.String()),
		)
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	return product, nil
}

// Update never touches seller_id or created_at
func (r *productRepository) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products
		SET category_id = $2, title = $3, content = $4, price = $5, manufacturer = $6,
		    image = $7, is_active = $8, updated_at = $9
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		product.ID,
		product.CategoryID,
		product.Title,
		product.Content,
		product.Price,
		product.Manufacturer,
		product.Image,
		product.IsActive,
		product.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update product",
			zap.Error(err),
			zap.String("product_id", product.ID.String()),
		)
		return fmt.Errorf("failed to update product: %w", translateError(err))
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", product.ID, pgx.ErrNoRows)
	}

	return nil
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete product",
			zap.Error(err),
			zap.String("product_id", id.String()),
		)
		return fmt.Errorf("failed to delete product: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("product %s: %w", id, pgx.ErrNoRows)
	}

	return nil
}

func (r *productRepository) list(ctx context.Context, query string, args ...any) ([]*entity.Product, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list products", zap.Error(err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*entity.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			r.log.Error("Failed to scan product row", zap.Error(err))
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return products, nil
}

func (r *productRepository) FindActive(ctx context.Context, limit int) ([]*entity.Product, error) {
	return r.list(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE is_active
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
}

// likePattern escapes LIKE metacharacters so the keyword matches literally
func likePattern(keyword string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(keyword)
	return "%" + escaped + "%"
}

func categoryFilter(categoryID uuid.UUID, keyword string) (string, []any) {
	where := ` WHERE is_active AND category_id = $1`
	args := []any{categoryID}

	if keyword != "" {
		args = append(args, likePattern(keyword))
		where += ` AND (title ILIKE $2 ESCAPE '\' OR content ILIKE $2 ESCAPE '\')`
	}

	return where, args
}

func (r *productRepository) FindActiveByCategory(ctx context.Context, categoryID uuid.UUID, keyword string, limit, offset int) ([]*entity.Product, error) {
	var queryBuilder strings.Builder
	where, args := categoryFilter(categoryID, keyword)

	queryBuilder.WriteString(`SELECT ` + productColumns + ` FROM products`)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(` ORDER BY created_at DESC`)

	if limit > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
		args = append(args, limit, offset)
	}

	products, err := r.list(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, err
	}

	r.log.Debug("Products found",
		zap.String("category_id", categoryID.String()),
		zap.String("keyword", keyword),
		zap.Int("count", len(products)),
	)

	return products, nil
}

func (r *productRepository) CountActiveByCategory(ctx context.Context, categoryID uuid.UUID, keyword string) (int64, error) {
	where, args := categoryFilter(categoryID, keyword)

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products`+where, args...).Scan(&total); err != nil {
		r.log.Error("Failed to count products",
			zap.Error(err),
			zap.String("category_id", categoryID.String()),
		)
		return 0, fmt.Errorf("failed to count products: %w", err)
	}

	return total, nil
}

func (r *productRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID) ([]*entity.Product, error) {
	return r.list(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE seller_id = $1
		ORDER BY created_at DESC
	`, sellerID)
}

func (r *productRepository) CountBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE seller_id = $1`, sellerID).Scan(&total); err != nil {
		r.log.Error("Failed to count seller products",
			zap.Error(err),
			zap.String("seller_id", sellerID.String()),
		)
		return 0, fmt.Errorf("failed to count seller products: %w", err)
	}
	return total, nil
}

func (r *productRepository) DeleteBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM products WHERE seller_id = $1`, sellerID)
	if err != nil {
		r.log.Error("Failed to delete seller products",
			zap.Error(err),
			zap.String("seller_id", sellerID.String()),
		)
		return 0, fmt.Errorf("failed to delete seller products: %w", err)
	}
	return result.RowsAffected(), nil
}
