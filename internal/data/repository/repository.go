package repository

import (
	"context"
	"fmt"

	"storefront/pkg/database"
	"storefront/pkg/utils"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Transactor runs fn with repositories bound to a single transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(repos *Repository) error) error
}

type Repository struct {
	User     UserRepository
	Session  SessionRepository
	Category CategoryRepository
	Product  ProductRepository
	Image    ImageRepository
	Comment  CommentRepository
	Captcha  CaptchaRepository

	Tx Transactor
}

func NewRepository(db database.PgxIface, rdb redis.Cmdable, log *zap.Logger) *Repository {
	repos := newQueryRepositories(db, log)
	repos.Captcha = NewCaptchaRepository(rdb, log)
	repos.Tx = &pgTransactor{db: db, log: log, captcha: repos.Captcha}
	return repos
}

func newQueryRepositories(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		User:     NewUserRepository(q, log),
		Session:  NewSessionRepository(q, log),
		Category: NewCategoryRepository(q, log),
		Product:  NewProductRepository(q, log),
		Image:    NewImageRepository(q, log),
		Comment:  NewCommentRepository(q, log),
	}
}

// WithinTx runs fn in a transaction when a transactor is configured, and
// directly on r otherwise.
func (r *Repository) WithinTx(ctx context.Context, fn func(repos *Repository) error) error {
	if r.Tx == nil {
		return fn(r)
	}
	return r.Tx.WithinTx(ctx, fn)
}

type pgTransactor struct {
	db      database.PgxIface
	log     *zap.Logger
	captcha CaptchaRepository
}

func (t *pgTransactor) WithinTx(ctx context.Context, fn func(repos *Repository) error) error {
	return database.WithTx(ctx, t.db, func(tx pgx.Tx) error {
		repos := newQueryRepositories(tx, t.log)
		repos.Captcha = t.captcha
		return fn(repos)
	})
}

// translateError maps constraint violations onto the domain taxonomy
func translateError(err error) error {
	switch database.PgErrorCode(err) {
	case database.CodeForeignKeyViolation:
		return fmt.Errorf("%w: %v", utils.ErrIntegrity, err)
	case database.CodeUniqueViolation:
		return fmt.Errorf("%w: %v", utils.ErrConflict, err)
	case database.CodeCheckViolation:
		return fmt.Errorf("%w: %v", utils.ErrIntegrity, err)
	}
	return err
}
