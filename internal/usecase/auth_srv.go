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
	"storefront/pkg/jwtutil"
	"storefront/pkg/metrics"
	"storefront/pkg/signing"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgPasswordMismatch   = "The two password fields didn't match."
	msgInvalidCredentials = "Unable to log in with provided credentials."
	msgInactiveAccount    = "This account is inactive."
)

// SessionMeta describes the client opening a session
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*entity.User, error)
	Activate(ctx context.Context, sign string) (response.ActivationOutcome, error)
	Login(ctx context.Context, req *request.LoginRequest, kind entity.SessionKind, meta SessionMeta) (*response.SessionResponse, error)
	Logout(ctx context.Context, token uuid.UUID) error
	ChangePassword(ctx context.Context, userID uuid.UUID, req *request.ChangePasswordRequest) error

	ObtainTokenPair(ctx context.Context, req *request.LoginRequest) (*response.TokenPairResponse, error)
	RefreshToken(ctx context.Context, req *request.TokenRefreshRequest) (*response.AccessTokenResponse, error)
	VerifyToken(ctx context.Context, req *request.TokenVerifyRequest) error

	// Authenticate resolves a session token to its active user, or nil
	Authenticate(ctx context.Context, token uuid.UUID, kind entity.SessionKind) (*entity.User, error)
	// AuthenticateJWT resolves an access token to its active user, or nil
	AuthenticateJWT(ctx context.Context, token string) (*entity.User, error)
}

type authService struct {
	repo     *repository.Repository
	config   *utils.Config
	policy   utils.PasswordPolicy
	signer   *signing.Signer
	jwt      *jwtutil.JWTUtil
	notifier Notifier
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewAuthService(
	repo *repository.Repository,
	config *utils.Config,
	deps Deps,
	log *zap.Logger,
) AuthService {
	return &authService{
		repo:     repo,
		config:   config,
		policy:   utils.NewPasswordPolicy(config.Password),
		signer:   deps.Signer,
		jwt:      deps.JWT,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		log:      log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*entity.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	fields := utils.ValidateStruct(req)
	if fields == nil {
		fields = map[string]string{}
	}

	if _, ok := fields["username"]; !ok {
		existing, err := s.repo.User.FindByUsername(ctx, req.Username)
		if err != nil {
			return nil, fmt.Errorf("check username: %w", err)
		}
		if existing != nil {
			fields["username"] = "A user with that username already exists."
		}
	}

	if _, ok := fields["email"]; !ok {
		existing, err := s.repo.User.FindByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("check email: %w", err)
		}
		if existing != nil {
			fields["email"] = "A user with that email already exists."
		}
	}

	if req.Password1 != "" {
		if problems := s.policy.Validate(req.Password1, req.Username, req.Email, req.FirstName, req.LastName); len(problems) > 0 {
			fields["password1"] = strings.Join(problems, " ")
		}
	}
	if req.Password2 != "" && req.Password1 != req.Password2 {
		fields["password2"] = msgPasswordMismatch
	}

	if err := utils.ValidationErrorFrom(fields); err != nil {
		s.log.Warn("Register validation failed", zap.Any("errors", fields))
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(req.Password1)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	user := &entity.User{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         entity.RoleCustomer,
		IsActive:     false,
		IsActivated:  false,
		SendMessages: req.SendMessages,
	}

	if err := s.repo.User.Create(ctx, user); err != nil {
		if errors.Is(err, utils.ErrConflict) {
			return nil, utils.NewValidationError("username", "A user with that username or email already exists.")
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.metrics.Registrations.Inc()
	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	notifyRegistered(ctx, s.signer, s.notifier, s.config.App.BaseURL, user, s.log)

	return user, nil
}

// ActivationPath is the route an activation link points to
func ActivationPath(sign string) string {
	return "/accounts/register/activate/" + sign + "/"
}

func notifyRegistered(ctx context.Context, signer *signing.Signer, notifier Notifier, baseURL string, user *entity.User, log *zap.Logger) {
	sign, err := signer.Sign(user.Username)
	if err != nil {
		log.Error("Failed to sign activation token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return
	}

	event := UserRegistered{
		User:          user,
		ActivationURL: strings.TrimRight(baseURL, "/") + ActivationPath(sign),
	}
	if err := notifier.NotifyRegistered(ctx, event); err != nil {
		log.Warn("Failed to dispatch activation notification",
			zap.Error(err),
			zap.String("user_id", user.ID.String()))
	}
}

// Activate turns a pending account into an activated one. A bad or expired
// signature is reported as utils.ErrBadSignature.
func (s *authService) Activate(ctx context.Context, sign string) (response.ActivationOutcome, error) {
	username, err := s.signer.Unsign(sign)
	if err != nil {
		s.metrics.Activations.WithLabelValues("bad_signature").Inc()
		s.log.Warn("Activation with bad signature", zap.Error(err))
		return "", fmt.Errorf("activation token: %w", utils.ErrBadSignature)
	}

	user, err := s.repo.User.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("find user %s: %w", username, err)
	}
	if user == nil {
		s.metrics.Activations.WithLabelValues("not_found").Inc()
		return "", utils.NotFoundf("user %s", username)
	}

	if !user.IsPending() {
		s.metrics.Activations.WithLabelValues("already_done").Inc()
		return response.ActivationAlreadyDone, nil
	}

	user.IsActive = true
	user.IsActivated = true
	user.UpdatedAt = time.Now()
	if err := s.repo.User.Update(ctx, user); err != nil {
		return "", fmt.Errorf("activate user %s: %w", username, err)
	}

	s.metrics.Activations.WithLabelValues("done").Inc()
	s.log.Info("User activated", zap.String("user_id", user.ID.String()))
	return response.ActivationDone, nil
}

// checkCredentials returns a ValidationError for unknown users, wrong
// passwords and inactive accounts.
func (s *authService) checkCredentials(ctx context.Context, req *request.LoginRequest) (*entity.User, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.repo.User.FindByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid credentials", zap.String("username", req.Username))
		return nil, utils.NewValidationError("non_field_errors", msgInvalidCredentials)
	}

	if !user.IsActive {
		s.log.Warn("Inactive user tried to login", zap.String("user_id", user.ID.String()))
		return nil, utils.NewValidationError("non_field_errors", msgInactiveAccount)
	}

	return user, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest, kind entity.SessionKind, meta SessionMeta) (*response.SessionResponse, error) {
	user, err := s.checkCredentials(ctx, req)
	if err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, user.ID, kind, meta)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	now := time.Now()
	if err := s.repo.User.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.log.Warn("Failed to record last login", zap.Error(err), zap.String("user_id", user.ID.String()))
	} else {
		user.LastLogin = &now
	}

	s.log.Info("User logged in",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username),
		zap.String("kind", string(kind)))

	resp := response.SessionToResponse(user, session)
	return &resp, nil
}

func (s *authService) Logout(ctx context.Context, token uuid.UUID) error {
	if err := s.repo.Session.Revoke(ctx, token); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info("Session revoked")
	return nil
}

func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, req *request.ChangePasswordRequest) error {
	if err := utils.ValidateRequest(req); err != nil {
		return err
	}

	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return utils.NotFoundf("user %s", userID)
	}

	if !utils.CheckPasswordHash(req.OldPassword, user.PasswordHash) {
		return utils.NewValidationError("old_password", "Your old password was entered incorrectly. Please enter it again.")
	}
	if req.NewPassword1 != req.NewPassword2 {
		return utils.NewValidationError("new_password2", msgPasswordMismatch)
	}
	if problems := s.policy.Validate(req.NewPassword1, user.Username, user.Email, user.FirstName, user.LastName); len(problems) > 0 {
		return utils.NewValidationError("new_password2", strings.Join(problems, " "))
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword1)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.repo.User.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info("Password changed", zap.String("user_id", userID.String()))
	return nil
}

func (s *authService) ObtainTokenPair(ctx context.Context, req *request.LoginRequest) (*response.TokenPairResponse, error) {
	user, err := s.checkCredentials(ctx, req)
	if err != nil {
		if _, ok := utils.FieldErrors(err); ok && req.Username != "" && req.Password != "" {
			return nil, fmt.Errorf("no active account found with the given credentials: %w", utils.ErrUnauthorized)
		}
		return nil, err
	}

	pair, err := s.jwt.GeneratePair(user.ID, user.Username, string(user.Role))
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	return &response.TokenPairResponse{Access: pair.Access, Refresh: pair.Refresh}, nil
}

func (s *authService) RefreshToken(ctx context.Context, req *request.TokenRefreshRequest) (*response.AccessTokenResponse, error) {
	if err := utils.ValidateRequest(req); err != nil {
		return nil, err
	}

	access, err := s.jwt.Refresh(req.Refresh)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", utils.ErrUnauthorized)
	}

	return &response.AccessTokenResponse{Access: access}, nil
}

func (s *authService) VerifyToken(ctx context.Context, req *request.TokenVerifyRequest) error {
	if err := utils.ValidateRequest(req); err != nil {
		return err
	}

	if _, err := s.jwt.Validate(req.Token, ""); err != nil {
		return fmt.Errorf("verify token: %w", utils.ErrUnauthorized)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token uuid.UUID, kind entity.SessionKind) (*entity.User, error) {
	session, err := s.repo.Session.FindValidSession(ctx, token, kind)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	return s.activeUser(ctx, session.UserID)
}

func (s *authService) AuthenticateJWT(ctx context.Context, token string) (*entity.User, error) {
	claims, err := s.jwt.Validate(token, jwtutil.TokenTypeAccess)
	if err != nil {
		return nil, nil
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, nil
	}

	return s.activeUser(ctx, userID)
}

func (s *authService) activeUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.repo.User.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, nil
	}
	return user, nil
}

func (s *authService) createSession(ctx context.Context, userID uuid.UUID, kind entity.SessionKind, meta SessionMeta) (*entity.Session, error) {
	now := time.Now()
	session := &entity.Session{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: now,
		},
		UserID:    userID,
		Token:     uuid.New(),
		Kind:      kind,
		UserAgent: optional(meta.UserAgent),
		IPAddress: optional(meta.IPAddress),
		ExpiresAt: now.Add(s.config.Session.Expiry()),
	}

	if err := s.repo.Session.Create(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
