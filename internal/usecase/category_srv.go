package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/data/entity"
	"storefront/internal/data/repository"
	"storefront/internal/dto/request"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CategoryService interface {
	ListAll(ctx context.Context) ([]*entity.Category, error)
	ListTopLevel(ctx context.Context) ([]*entity.Category, error)
	// ListSubcategories returns the children of parentID, or every
	// subcategory when parentID is nil.
	ListSubcategories(ctx context.Context, parentID *uuid.UUID) ([]*entity.Category, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	Create(ctx context.Context, req *request.CategoryRequest) (*entity.Category, error)
	// CreateSubcategory is Create with a mandatory top-level parent
	CreateSubcategory(ctx context.Context, req *request.CategoryRequest) (*entity.Category, error)
	Update(ctx context.Context, id uuid.UUID, req *request.CategoryRequest) (*entity.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewCategoryService(repo *repository.Repository, log *zap.Logger) CategoryService {
	return &categoryService{
		repo: repo,
		log:  log.With(zap.String("service", "category")),
	}
}

func (s *categoryService) ListAll(ctx context.Context) ([]*entity.Category, error) {
	return s.repo.Category.FindAll(ctx)
}

func (s *categoryService) ListTopLevel(ctx context.Context) ([]*entity.Category, error) {
	return s.repo.Category.FindTopLevel(ctx)
}

func (s *categoryService) ListSubcategories(ctx context.Context, parentID *uuid.UUID) ([]*entity.Category, error) {
	return s.repo.Category.FindSubcategories(ctx, parentID)
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	category, err := s.repo.Category.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if category == nil {
		return nil, utils.NotFoundf("category %s", id)
	}
	return category, nil
}

// resolveParent validates the requested parent. Only top-level categories
// can have children, which keeps the taxonomy at two tiers.
func (s *categoryService) resolveParent(ctx context.Context, self *uuid.UUID, raw *string) (*uuid.UUID, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}

	parentID, err := uuid.Parse(*raw)
	if err != nil {
		return nil, utils.NewValidationError("parent_id", "Must be a valid UUID")
	}
	if self != nil && parentID == *self {
		return nil, utils.NewValidationError("parent_id", "A category cannot be its own parent.")
	}

	parent, err := s.repo.Category.FindByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("find parent category: %w", err)
	}
	if parent == nil {
		return nil, utils.NewValidationError("parent_id", "Select a valid choice. That choice is not one of the available choices.")
	}
	if !parent.IsTopLevel() {
		return nil, utils.NewValidationError("parent_id", "The parent must be a top-level category.")
	}

	return &parentID, nil
}

func (s *categoryService) create(ctx context.Context, req *request.CategoryRequest, requireParent bool) (*entity.Category, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	parentID, err := s.resolveParent(ctx, nil, req.ParentID)
	if err != nil {
		return nil, err
	}
	if requireParent && parentID == nil {
		return nil, utils.NewValidationError("parent_id", "This field is required")
	}

	now := time.Now()
	category := &entity.Category{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:     strings.TrimSpace(req.Name),
		Order:    req.Order,
		ParentID: parentID,
	}

	if err := s.repo.Category.Create(ctx, category); err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, utils.ValidationErrorFrom(map[string]string{
				"name": "A category with this name or order already exists.",
			})
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	s.log.Info("Category created",
		zap.String("category_id", category.ID.String()),
		zap.String("name", category.Name),
		zap.Bool("subcategory", category.IsSubcategory()))

	return category, nil
}

func (s *categoryService) Create(ctx context.Context, req *request.CategoryRequest) (*entity.Category, error) {
	return s.create(ctx, req, false)
}

func (s *categoryService) CreateSubcategory(ctx context.Context, req *request.CategoryRequest) (*entity.Category, error) {
	return s.create(ctx, req, true)
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, req *request.CategoryRequest) (*entity.Category, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	category, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	parentID, err := s.resolveParent(ctx, &id, req.ParentID)
	if err != nil {
		return nil, err
	}

	if parentID != nil && category.IsTopLevel() {
		children, err := s.repo.Category.CountChildren(ctx, id)
		if err != nil {
			return nil, err
		}
		if children > 0 {
			return nil, utils.NewValidationError("parent_id", "A category with subcategories cannot become a subcategory.")
		}
	}
	if parentID == nil && category.IsSubcategory() {
		products, err := s.repo.Category.CountProducts(ctx, id)
		if err != nil {
			return nil, err
		}
		if products > 0 {
			return nil, utils.NewValidationError("parent_id", "A category with products must stay a subcategory.")
		}
	}

	category.Name = strings.TrimSpace(req.Name)
	category.Order = req.Order
	category.ParentID = parentID
	category.UpdatedAt = time.Now()

	if err := s.repo.Category.Update(ctx, category); err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, utils.NewValidationError("name", "A category with this name or order already exists.")
		}
		return nil, fmt.Errorf("update category: %w", err)
	}

	s.log.Info("Category updated", zap.String("category_id", id.String()))
	return category, nil
}

// Delete refuses with utils.ErrIntegrity while products or subcategories
// still reference the category.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	products, err := s.repo.Category.CountProducts(ctx, id)
	if err != nil {
		return err
	}
	children, err := s.repo.Category.CountChildren(ctx, id)
	if err != nil {
		return err
	}
	if products > 0 || children > 0 {
		s.log.Warn("Refused to delete referenced category",
			zap.String("category_id", id.String()),
			zap.Int64("products", products),
			zap.Int64("subcategories", children))
		return fmt.Errorf("category %s is referenced by %d products and %d subcategories: %w",
			id, products, children, utils.ErrIntegrity)
	}

	if err := s.repo.Category.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}

	s.log.Info("Category deleted", zap.String("category_id", id.String()))
	return nil
}
