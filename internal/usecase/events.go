package usecase

import (
	"context"

	"storefront/internal/data/entity"
)

// CommentCreated fires after a comment is stored
type CommentCreated struct {
	Comment *entity.Comment
	Product *entity.Product
	Seller  *entity.User
}

// UserRegistered fires for a new pending account and again when an
// administrator resends the activation mail.
type UserRegistered struct {
	User          *entity.User
	ActivationURL string
}

// Notifier delivers side effects of domain events. Implementations must
// not block; errors are logged by the caller and never roll anything back.
type Notifier interface {
	NotifyComment(ctx context.Context, event CommentCreated) error
	NotifyRegistered(ctx context.Context, event UserRegistered) error
}

type nopNotifier struct{}

func (nopNotifier) NotifyComment(context.Context, CommentCreated) error     { return nil }
func (nopNotifier) NotifyRegistered(context.Context, UserRegistered) error { return nil }
