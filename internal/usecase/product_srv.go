package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storefront/internal/data/entity"
	"storefront/internal/data/repository"
	"storefront/internal/dto/request"
	"storefront/internal/dto/response"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultHomePageLimit    = 20
	defaultCategoryPageSize = 2
)

// NUMERIC(12,2)
var maxPrice = decimal.New(1, 10)

type ProductService interface {
	// ListActive returns the newest active products; limit <= 0 uses the configured home page size
	ListActive(ctx context.Context, limit int) ([]*entity.Product, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID, req *request.ByCategoryRequest) (*response.CategoryPage, error)
	GetDetail(ctx context.Context, productID uuid.UUID) (*response.ProductDetail, error)

	ListOwn(ctx context.Context, sellerID uuid.UUID) ([]*entity.Product, error)
	GetOwn(ctx context.Context, sellerID, productID uuid.UUID) (*response.ProductDetail, error)
	Create(ctx context.Context, sellerID uuid.UUID, req *request.ProductRequest) (*entity.Product, error)
	Update(ctx context.Context, sellerID, productID uuid.UUID, req *request.ProductRequest) (*entity.Product, error)
	Delete(ctx context.Context, sellerID, productID uuid.UUID) error
}

type productService struct {
	repo          *repository.Repository
	homePageLimit int
	pageSize      int
	log           *zap.Logger
}

func NewProductService(repo *repository.Repository, config utils.CatalogConfig, log *zap.Logger) ProductService {
	s := &productService{
		repo:          repo,
		homePageLimit: config.HomePageLimit,
		pageSize:      config.CategoryPageSize,
		log:           log.With(zap.String("service", "product")),
	}
	if s.homePageLimit <= 0 {
		s.homePageLimit = defaultHomePageLimit
	}
	if s.pageSize <= 0 {
		s.pageSize = defaultCategoryPageSize
	}
	return s
}

func (s *productService) ListActive(ctx context.Context, limit int) ([]*entity.Product, error) {
	if limit <= 0 {
		limit = s.homePageLimit
	}
	return s.repo.Product.FindActive(ctx, limit)
}

// subcategory loads a category and requires it to be second tier
func (s *productService) subcategory(ctx context.Context, categoryID uuid.UUID) (*entity.Category, error) {
	category, err := s.repo.Category.FindByID(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if category == nil || !category.IsSubcategory() {
		return nil, nil
	}
	return category, nil
}

func (s *productService) ListByCategory(ctx context.Context, categoryID uuid.UUID, req *request.ByCategoryRequest) (*response.CategoryPage, error) {
	category, err := s.subcategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, utils.NotFoundf("subcategory %s", categoryID)
	}

	keyword := strings.TrimSpace(req.Keyword)
	page := &response.CategoryPage{Category: category, Keyword: keyword, Page: 1, TotalPages: 1}

	if keyword != "" {
		products, err := s.repo.Product.FindActiveByCategory(ctx, categoryID, keyword, 0, 0)
		if err != nil {
			return nil, fmt.Errorf("search products: %w", err)
		}
		page.Products = products
		page.Total = int64(len(products))
		return page, nil
	}

	total, err := s.repo.Product.CountActiveByCategory(ctx, categoryID, "")
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}

	page.Paginated = true
	page.Total = total
	page.Page = utils.ClampPage(req.Page, total, s.pageSize)
	if pages := utils.CalculateTotalPages(total, s.pageSize); pages > 1 {
		page.TotalPages = pages
	}

	page.Products, err = s.repo.Product.FindActiveByCategory(ctx, categoryID, "", s.pageSize, utils.CalculateOffset(page.Page, s.pageSize))
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	return page, nil
}

func (s *productService) detail(ctx context.Context, product *entity.Product, activeComments bool) (*response.ProductDetail, error) {
	images, err := s.repo.Image.FindByProduct(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("load images: %w", err)
	}

	category, err := s.repo.Category.FindByID(ctx, product.CategoryID)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}

	detail := &response.ProductDetail{Product: product, Category: category, Images: images}
	if activeComments {
		if detail.Comments, err = s.repo.Comment.FindActiveByProduct(ctx, product.ID); err != nil {
			return nil, fmt.Errorf("load comments: %w", err)
		}
	}
	return detail, nil
}

func (s *productService) GetDetail(ctx context.Context, productID uuid.UUID) (*response.ProductDetail, error) {
	product, err := s.repo.Product.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, utils.NotFoundf("product %s", productID)
	}

	return s.detail(ctx, product, true)
}

func (s *productService) ListOwn(ctx context.Context, sellerID uuid.UUID) ([]*entity.Product, error) {
	return s.repo.Product.FindBySeller(ctx, sellerID)
}

// own loads a product of the seller. Other sellers' products are reported
// as missing rather than forbidden.
func (s *productService) own(ctx context.Context, repos *repository.Repository, sellerID, productID uuid.UUID) (*entity.Product, error) {
	product, err := repos.Product.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product == nil || product.SellerID != sellerID {
		return nil, utils.NotFoundf("product %s", productID)
	}
	return product, nil
}

func (s *productService) GetOwn(ctx context.Context, sellerID, productID uuid.UUID) (*response.ProductDetail, error) {
	product, err := s.own(ctx, s.repo, sellerID, productID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, product, false)
}

// validate checks the request and returns the target category ID
func (s *productService) validate(ctx context.Context, req *request.ProductRequest) (uuid.UUID, error) {
	fields := utils.ValidateStruct(req)
	if fields == nil {
		fields = map[string]string{}
	}

	switch {
	case req.Price.IsNegative():
		fields["price"] = "Ensure this value is greater than or equal to 0."
	case req.Price.GreaterThanOrEqual(maxPrice):
		fields["price"] = "Ensure that there are no more than 12 digits in total."
	case !req.Price.Equal(req.Price.Round(2)):
		fields["price"] = "Ensure that there are no more than 2 decimal places."
	}

	var categoryID uuid.UUID
	if _, bad := fields["category_id"]; !bad {
		categoryID = uuid.MustParse(req.CategoryID)
		category, err := s.subcategory(ctx, categoryID)
		if err != nil {
			return uuid.Nil, err
		}
		if category == nil {
			fields["category_id"] = "Select a subcategory."
		}
	}

	if err := utils.ValidationErrorFrom(fields); err != nil {
		return uuid.Nil, err
	}
	return categoryID, nil
}

func applyProductRequest(product *entity.Product, categoryID uuid.UUID, req *request.ProductRequest) {
	product.CategoryID = categoryID
	product.Title = strings.TrimSpace(req.Title)
	product.Content = strings.TrimSpace(req.Content)
	product.Price = req.Price
	product.Manufacturer = strings.TrimSpace(req.Manufacturer)
	product.Image = nil
	if req.Image != nil && strings.TrimSpace(*req.Image) != "" {
		image := strings.TrimSpace(*req.Image)
		product.Image = &image
	}
	product.IsActive = req.IsActive
}

func (s *productService) Create(ctx context.Context, sellerID uuid.UUID, req *request.ProductRequest) (*entity.Product, error) {
	categoryID, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	product := &entity.Product{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		SellerID: sellerID,
	}
	applyProductRequest(product, categoryID, req)

	err = s.repo.WithinTx(ctx, func(repos *repository.Repository) error {
		if err := repos.Product.Create(ctx, product); err != nil {
			return err
		}
		return repos.Image.ReplaceForProduct(ctx, product.ID, utils.NonEmpty(req.Images))
	})
	if err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.log.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("seller_id", sellerID.String()))

	return product, nil
}

// Update replaces the product fields and its complete additional-image
// set atomically.
func (s *productService) Update(ctx context.Context, sellerID, productID uuid.UUID, req *request.ProductRequest) (*entity.Product, error) {
	categoryID, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	var product *entity.Product
	err = s.repo.WithinTx(ctx, func(repos *repository.Repository) error {
		product, err = s.own(ctx, repos, sellerID, productID)
		if err != nil {
			return err
		}

		applyProductRequest(product, categoryID, req)
		product.UpdatedAt = time.Now()

		if err := repos.Product.Update(ctx, product); err != nil {
			return err
		}
		return repos.Image.ReplaceForProduct(ctx, product.ID, utils.NonEmpty(req.Images))
	})
	if err != nil {
		return nil, fmt.Errorf("update product %s: %w", productID, err)
	}

	s.log.Info("Product updated", zap.String("product_id", productID.String()))
	return product, nil
}

func (s *productService) Delete(ctx context.Context, sellerID, productID uuid.UUID) error {
	err := s.repo.WithinTx(ctx, func(repos *repository.Repository) error {
		if _, err := s.own(ctx, repos, sellerID, productID); err != nil {
			return err
		}
		if _, err := repos.Image.DeleteByProduct(ctx, productID); err != nil {
			return err
		}
		return repos.Product.Delete(ctx, productID)
	})
	if err != nil {
		return fmt.Errorf("delete product %s: %w", productID, err)
	}

	s.log.Info("Product deleted", zap.String("product_id", productID.String()))
	return nil
}
