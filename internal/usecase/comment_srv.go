package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"storefront/internal/data/entity"
	"storefront/internal/data/repository"
	"storefront/internal/dto/request"
	"storefront/internal/dto/response"
	"storefront/pkg/metrics"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxAuthorLength matches comments.author VARCHAR(40)
const maxAuthorLength = 40

type CommentService interface {
	// Submit stores a comment on an active product. An empty actor means a
	// guest, who must name themselves and solve the captcha.
	Submit(ctx context.Context, productID uuid.UUID, actor string, req *request.CommentRequest) (*entity.Comment, error)
	ListActive(ctx context.Context, productID uuid.UUID) ([]*entity.Comment, error)
	ListAll(ctx context.Context, req *request.ListCommentsRequest) (*response.PaginatedResponse[response.CommentResponse], error)
	Moderate(ctx context.Context, commentID uuid.UUID, req *request.ModerateCommentRequest) (*entity.Comment, error)
}

type commentService struct {
	repo     *repository.Repository
	captcha  CaptchaService
	notifier Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewCommentService(repo *repository.Repository, captcha CaptchaService, deps Deps, log *zap.Logger) CommentService {
	return &commentService{
		repo:     repo,
		captcha:  captcha,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		log:      log.With(zap.String("service", "comment")),
	}
}

func (s *commentService) activeProduct(ctx context.Context, productID uuid.UUID) (*entity.Product, error) {
	product, err := s.repo.Product.FindByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product == nil || !product.IsActive {
		return nil, utils.NotFoundf("product %s", productID)
	}
	return product, nil
}

func (s *commentService) Submit(ctx context.Context, productID uuid.UUID, actor string, req *request.CommentRequest) (*entity.Comment, error) {
	product, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	fields := utils.ValidateStruct(req)
	if fields == nil {
		fields = map[string]string{}
	}

	author := strings.TrimSpace(req.Author)
	guest := actor == ""
	if author == "" {
		if guest {
			fields["author"] = "This field is required"
		}
		author = actor
	}
	// a defaulted username can be longer than the column
	if _, failed := fields["author"]; !failed && utf8.RuneCountInString(author) > maxAuthorLength {
		fields["author"] = fmt.Sprintf("Maximum value is %d", maxAuthorLength)
	}

	if err := utils.ValidationErrorFrom(fields); err != nil {
		return nil, err
	}

	if guest {
		if err := s.captcha.Verify(ctx, req.CaptchaID, req.CaptchaAnswer); err != nil {
			return nil, err
		}
	}

	comment := &entity.Comment{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		ProductID: productID,
		Author:    author,
		Content:   strings.TrimSpace(req.Content),
		IsActive:  true,
	}

	var seller *entity.User
	err = s.repo.WithinTx(ctx, func(repos *repository.Repository) error {
		if err := repos.Comment.Create(ctx, comment); err != nil {
			return err
		}
		seller, err = repos.User.FindByID(ctx, product.SellerID)
		return err
	})
	if err != nil {
		if errors.Is(err, utils.ErrIntegrity) {
			return nil, utils.NotFoundf("product %s", productID)
		}
		return nil, fmt.Errorf("create comment: %w", err)
	}

	kind := "user"
	if guest {
		kind = "guest"
	}
	s.metrics.Comments.WithLabelValues(kind).Inc()
	s.log.Info("Comment created",
		zap.String("comment_id", comment.ID.String()),
		zap.String("product_id", productID.String()),
		zap.String("author_kind", kind))

	s.notify(ctx, CommentCreated{Comment: comment, Product: product, Seller: seller})

	return comment, nil
}

// notify informs the seller when they opted in. Failures never reach the caller.
func (s *commentService) notify(ctx context.Context, event CommentCreated) {
	if event.Seller == nil || !event.Seller.SendMessages {
		return
	}

	if err := s.notifier.NotifyComment(ctx, event); err != nil {
		s.log.Warn("Failed to dispatch comment notification",
			zap.Error(err),
			zap.String("comment_id", event.Comment.ID.String()),
			zap.String("seller_id", event.Seller.ID.String()))
	}
}

func (s *commentService) ListActive(ctx context.Context, productID uuid.UUID) ([]*entity.Comment, error) {
	if _, err := s.activeProduct(ctx, productID); err != nil {
		return nil, err
	}
	return s.repo.Comment.FindActiveByProduct(ctx, productID)
}

func (s *commentService) ListAll(ctx context.Context, req *request.ListCommentsRequest) (*response.PaginatedResponse[response.CommentResponse], error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	var productID *uuid.UUID
	if req.ProductID != "" {
		id := uuid.MustParse(req.ProductID)
		productID = &id
	}

	perPage := req.Limit()
	total, err := s.repo.Comment.CountAll(ctx, productID)
	if err != nil {
		return nil, err
	}

	page := utils.ClampPage(req.Page, total, perPage)
	comments, err := s.repo.Comment.FindAll(ctx, productID, perPage, utils.CalculateOffset(page, perPage))
	if err != nil {
		return nil, err
	}

	return response.NewPaginatedResponse(response.CommentsToResponse(comments), page, perPage, total), nil
}

func (s *commentService) Moderate(ctx context.Context, commentID uuid.UUID, req *request.ModerateCommentRequest) (*entity.Comment, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	comment, err := s.repo.Comment.FindByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("find comment: %w", err)
	}
	if comment == nil {
		return nil, utils.NotFoundf("comment %s", commentID)
	}

	if err := s.repo.Comment.SetActive(ctx, commentID, *req.IsActive); err != nil {
		return nil, fmt.Errorf("moderate comment: %w", err)
	}
	comment.IsActive = *req.IsActive

	s.log.Info("Comment moderated",
		zap.String("comment_id", commentID.String()),
		zap.Bool("is_active", comment.IsActive))

	return comment, nil
}
