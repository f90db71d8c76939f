package usecase

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"storefront/internal/data/repository"
	"storefront/internal/dto/response"
	"storefront/pkg/utils"

	"github.com/dchest/captcha"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const captchaDataPrefix = "data:image/png;base64,"

const (
	msgCaptchaRequired = "This field is required"
	msgCaptchaInvalid  = "Invalid CAPTCHA"
)

type CaptchaService interface {
	New(ctx context.Context) (*response.Captcha, error)
	// Verify consumes the challenge; a challenge can be answered once.
	Verify(ctx context.Context, id, answer string) error
}

type captchaService struct {
	repo   *repository.Repository
	length int
	ttl    time.Duration
	log    *zap.Logger
}

func NewCaptchaService(repo *repository.Repository, config utils.CaptchaConfig, log *zap.Logger) CaptchaService {
	s := &captchaService{
		repo:   repo,
		length: config.Length,
		ttl:    config.TTL(),
		log:    log.With(zap.String("service", "captcha")),
	}
	if s.length <= 0 {
		s.length = 5
	}
	if s.ttl <= 0 {
		s.ttl = 5 * time.Minute
	}
	return s
}

func (s *captchaService) New(ctx context.Context) (*response.Captcha, error) {
	id := uuid.NewString()
	digits := captcha.RandomDigits(s.length)

	image, err := renderCaptcha(id, digits)
	if err != nil {
		return nil, fmt.Errorf("render captcha: %w", err)
	}

	if err := s.repo.Captcha.Save(ctx, id, digitsToString(digits), s.ttl); err != nil {
		return nil, err
	}

	return &response.Captcha{ID: id, Image: image}, nil
}

func (s *captchaService) Verify(ctx context.Context, id, answer string) error {
	answer = strings.TrimSpace(answer)
	if id == "" || answer == "" {
		return utils.NewValidationError("captcha", msgCaptchaRequired)
	}

	expected, ok, err := s.repo.Captcha.Take(ctx, id)
	if err != nil {
		return err
	}
	if !ok || !strings.EqualFold(expected, answer) {
		s.log.Warn("Captcha rejected", zap.String("captcha_id", id), zap.Bool("known", ok))
		return utils.NewValidationError("captcha", msgCaptchaInvalid)
	}

	return nil
}

// renderCaptcha draws digits as a distorted PNG and returns it as a data URI.
// The answer only exists as pixels, never as text in the page.
func renderCaptcha(id string, digits []byte) (string, error) {
	var buf bytes.Buffer
	if _, err := captcha.NewImage(id, digits, captcha.StdWidth, captcha.StdHeight).WriteTo(&buf); err != nil {
		return "", err
	}
	return captchaDataPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// digitsToString turns captcha digits (values 0-9) into the typed answer
func digitsToString(digits []byte) string {
	b := make([]byte, len(digits))
	for i, d := range digits {
		b[i] = '0' + d
	}
	return string(b)
}
