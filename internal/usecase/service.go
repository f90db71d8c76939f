package usecase

import (
	"storefront/internal/data/repository"
	"storefront/pkg/jwtutil"
	"storefront/pkg/metrics"
	"storefront/pkg/signing"
	"storefront/pkg/utils"

	"go.uber.org/zap"
)

// Deps are the collaborators shared by the services
type Deps struct {
	Signer   *signing.Signer
	JWT      *jwtutil.JWTUtil
	Notifier Notifier
	Metrics  *metrics.Metrics
}

type Service struct {
	Auth     AuthService
	User     UserService
	Category CategoryService
	Product  ProductService
	Comment  CommentService
	Captcha  CaptchaService
}

func NewService(repo *repository.Repository, config *utils.Config, deps Deps, log *zap.Logger) *Service {
	if deps.Notifier == nil {
		deps.Notifier = nopNotifier{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	captcha := NewCaptchaService(repo, config.Captcha, log)
	return &Service{
		Auth:     NewAuthService(repo, config, deps, log),
		User:     NewUserService(repo, config, deps, log),
		Category: NewCategoryService(repo, log),
		Product:  NewProductService(repo, config.Catalog, log),
		Comment:  NewCommentService(repo, captcha, deps, log),
		Captcha:  captcha,
	}
}
