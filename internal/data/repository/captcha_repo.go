package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const captchaKeyPrefix = "captcha:"

// CaptchaRepository keeps pending challenge answers until they expire or are used.
type CaptchaRepository interface {
	Save(ctx context.Context, id, answer string, ttl time.Duration) error
	// Take returns the stored answer and removes it; ok is false when the
	// challenge is unknown or expired.
	Take(ctx context.Context, id string) (answer string, ok bool, err error)
}

type captchaRepository struct {
	rdb redis.Cmdable
	log *zap.Logger
}

func NewCaptchaRepository(rdb redis.Cmdable, log *zap.Logger) CaptchaRepository {
	return &captchaRepository{
		rdb: rdb,
		log: log.With(zap.String("repository", "captcha")),
	}
}

func (r *captchaRepository) Save(ctx context.Context, id, answer string, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, captchaKeyPrefix+id, answer, ttl).Err(); err != nil {
		r.log.Error("Failed to store captcha", zap.Error(err), zap.String("captcha_id", id))
		return fmt.Errorf("store captcha: %w", err)
	}
	return nil
}

func (r *captchaRepository) Take(ctx context.Context, id string) (string, bool, error) {
	answer, err := r.rdb.GetDel(ctx, captchaKeyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		r.log.Error("Failed to load captcha", zap.Error(err), zap.String("captcha_id", id))
		return "", false, fmt.Errorf("load captcha: %w", err)
	}
	return answer, true, nil
}
