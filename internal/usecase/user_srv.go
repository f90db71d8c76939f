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
	"storefront/internal/dto/response"
	"storefront/pkg/signing"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Activation states accepted by ListUsers
const (
	ActStateActivated = "activated"
	ActStateThreeDays = "threedays"
	ActStateWeek      = "week"
)

type UserService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*response.Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*entity.User, error)
	// DeleteAccount removes the user with their products, the products'
	// additional images and every session, in one transaction.
	DeleteAccount(ctx context.Context, userID uuid.UUID) (*response.DeletionSummary, error)

	ListUsers(ctx context.Context, req *request.ListUsersRequest) (*response.PaginatedResponse[response.UserResponse], error)
	ResendActivation(ctx context.Context, req *request.ResendActivationRequest) (int, error)
	CountPending(ctx context.Context, olderThan time.Duration) (int64, error)
}

type userService struct {
	repo     *repository.Repository
	baseURL  string
	signer   *signing.Signer
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewUserService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) UserService {
	return &userService{
		repo:     repo,
		baseURL:  config.App.BaseURL,
		signer:   deps.Signer,
		notifier: deps.Notifier,
		log:      log.With(zap.String("service", "user")),
		now:      time.Now,
	}
}

func (us *userService) findUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := us.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, utils.NotFoundf("user %s", userID)
	}
	return user, nil
}

func (us *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*response.Profile, error) {
	user, err := us.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	products, err := us.repo.Product.FindBySeller(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list own products: %w", err)
	}

	return &response.Profile{User: user, Products: products}, nil
}

func (us *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *request.UpdateProfileRequest) (*entity.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	fields := utils.ValidateStruct(req)
	if fields == nil {
		fields = map[string]string{}
	}

	user, err := us.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if _, ok := fields["username"]; !ok && req.Username != user.Username {
		existing, err := us.repo.User.FindByUsername(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if existing != nil {
			fields["username"] = "A user with that username already exists."
		}
	}
	if _, ok := fields["email"]; !ok && !strings.EqualFold(req.Email, user.Email) {
		existing, err := us.repo.User.FindByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if existing != nil {
			fields["email"] = "A user with that email already exists."
		}
	}

	if err := utils.ValidationErrorFrom(fields); err != nil {
		return nil, err
	}

	user.Username = req.Username
	user.Email = req.Email
	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.SendMessages = req.SendMessages
	user.UpdatedAt = us.now()

	if err := us.repo.User.Update(ctx, user); err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, utils.NewValidationError("username", "A user with that username or email already exists.")
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	us.log.Info("Profile updated", zap.String("user_id", userID.String()))
	return user, nil
}

func (us *userService) DeleteAccount(ctx context.Context, userID uuid.UUID) (*response.DeletionSummary, error) {
	summary := &response.DeletionSummary{}

	err := us.repo.WithinTx(ctx, func(repos *repository.Repository) error {
		user, err := repos.User.FindByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("find user: %w", err)
		}
		if user == nil {
			return utils.NotFoundf("user %s", userID)
		}

		if summary.Images, err = repos.Image.DeleteBySeller(ctx, userID); err != nil {
			return err
		}
		if summary.Products, err = repos.Product.DeleteBySeller(ctx, userID); err != nil {
			return err
		}
		if err := repos.Session.RevokeAllUserSessions(ctx, userID); err != nil {
			return err
		}
		return repos.User.Delete(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("delete account %s: %w", userID, err)
	}

	us.log.Info("Account deleted",
		zap.String("user_id", userID.String()),
		zap.Int64("products", summary.Products),
		zap.Int64("images", summary.Images))

	return summary, nil
}

func (us *userService) userFilter(actState string) repository.UserFilter {
	var filter repository.UserFilter
	now := us.now()

	switch actState {
	case ActStateActivated:
		activated := true
		filter.Activated = &activated
	case ActStateThreeDays, ActStateWeek:
		pending := false
		cutoff := now.AddDate(0, 0, -3)
		if actState == ActStateWeek {
			cutoff = now.AddDate(0, 0, -7)
		}
		filter.Activated = &pending
		filter.JoinedBefore = &cutoff
	}

	return filter
}

func (us *userService) ListUsers(ctx context.Context, req *request.ListUsersRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	perPage := req.Limit()
	filter := us.userFilter(req.ActState)

	total, err := us.repo.User.CountAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	page := utils.ClampPage(req.Page, total, perPage)
	users, err := us.repo.User.FindAll(ctx, filter, perPage, utils.CalculateOffset(page, perPage))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	data := make([]response.UserResponse, 0, len(users))
	for _, u := range users {
		data = append(data, response.UserToResponse(u))
	}

	return response.NewPaginatedResponse(data, page, perPage, total), nil
}

// ResendActivation re-sends the activation mail to every listed pending
// user and returns how many were sent. Activated or unknown users are skipped.
func (us *userService) ResendActivation(ctx context.Context, req *request.ResendActivationRequest) (int, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return 0, err
	}

	sent := 0
	for _, raw := range req.UserIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return sent, utils.NewValidationError("user_ids", "Must be a valid UUID")
		}

		user, err := us.repo.User.FindByID(ctx, id)
		if err != nil {
			return sent, fmt.Errorf("find user %s: %w", id, err)
		}
		if user == nil || user.IsActivated {
			continue
		}

		notifyRegistered(ctx, us.signer, us.notifier, us.baseURL, user, us.log)
		sent++
	}

	us.log.Info("Activation mail resent", zap.Int("count", sent))
	return sent, nil
}

func (us *userService) CountPending(ctx context.Context, olderThan time.Duration) (int64, error) {
	pending := false
	cutoff := us.now().Add(-olderThan)
	return us.repo.User.CountAll(ctx, repository.UserFilter{Activated: &pending, JoinedBefore: &cutoff})
}
