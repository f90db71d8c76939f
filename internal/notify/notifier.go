package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"storefront/internal/usecase"
	"storefront/pkg/mailer"
	"storefront/pkg/metrics"
	"storefront/pkg/utils"

	"go.uber.org/zap"
)

// ErrQueueFull is returned when the outgoing mail queue has no room left.
var ErrQueueFull = errors.New("mail queue full")

// ErrClosed is returned after Close.
var ErrClosed = errors.New("notifier closed")

const (
	kindComment    = "comment"
	kindActivation = "activation"
)

var (
	commentSubject = template.Must(template.New("comment_subject").Parse(
		`New comment on "{{.Product.Title}}"`))
	commentBody = template.Must(template.New("comment_body").Parse(
		`Hello {{.Seller.Username}},

{{.Comment.Author}} left a comment on your product "{{.Product.Title}}":

{{.Comment.Content}}

View it here: {{.URL}}
`))
	activationSubject = template.Must(template.New("activation_subject").Parse(
		`Activate your account {{.User.Username}}`))
	activationBody = template.Must(template.New("activation_body").Parse(
		`Hello {{.User.Username}},

You registered on our store. To activate your account follow the link:

{{.ActivationURL}}

If you did not register, ignore this message.
`))
)

type job struct {
	kind string
	msg  mailer.Message
}

// MailNotifier turns domain events into emails and delivers them from a
// background worker. Enqueueing never blocks: a full queue drops the mail.
type MailNotifier struct {
	sender  mailer.Sender
	baseURL string
	metrics *metrics.Metrics
	log     *zap.Logger

	queue  chan job
	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

var _ usecase.Notifier = (*MailNotifier)(nil)

func NewMailNotifier(sender mailer.Sender, config *utils.Config, m *metrics.Metrics, log *zap.Logger) *MailNotifier {
	size := config.Email.QueueSize
	if size <= 0 {
		size = 100
	}
	if m == nil {
		m = metrics.New()
	}
	return &MailNotifier{
		sender:  sender,
		baseURL: strings.TrimRight(config.App.BaseURL, "/"),
		metrics: m,
		log:     log.With(zap.String("service", "notify")),
		queue:   make(chan job, size),
		done:    make(chan struct{}),
	}
}

// Start runs the delivery worker until Close drains the queue.
func (n *MailNotifier) Start(ctx context.Context) {
	go func() {
		defer close(n.done)
		for j := range n.queue {
			n.deliver(ctx, j)
		}
	}()
}

// Close stops accepting mail and waits for the worker to flush what was
// already queued, or for ctx to end.
func (n *MailNotifier) Close(ctx context.Context) error {
	n.mu.Lock()
	if !n.closed {
		n.closed = true
		close(n.queue)
	}
	n.mu.Unlock()

	select {
	case <-n.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *MailNotifier) deliver(ctx context.Context, j job) {
	if err := n.sender.Send(ctx, j.msg); err != nil {
		n.metrics.Notifications.WithLabelValues(j.kind, "failed").Inc()
		n.log.Error("Failed to deliver notification",
			zap.Error(err),
			zap.String("kind", j.kind),
			zap.String("to", j.msg.To))
		return
	}
	n.metrics.Notifications.WithLabelValues(j.kind, "sent").Inc()
}

func (n *MailNotifier) enqueue(kind string, msg mailer.Message) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return ErrClosed
	}

	select {
	case n.queue <- job{kind: kind, msg: msg}:
		n.metrics.Notifications.WithLabelValues(kind, "queued").Inc()
		return nil
	default:
		n.metrics.Notifications.WithLabelValues(kind, "dropped").Inc()
		n.log.Warn("Mail queue full, dropping notification",
			zap.String("kind", kind),
			zap.String("to", msg.To))
		return ErrQueueFull
	}
}

func (n *MailNotifier) NotifyComment(_ context.Context, event usecase.CommentCreated) error {
	data := struct {
		usecase.CommentCreated
		URL string
	}{
		CommentCreated: event,
		URL:            fmt.Sprintf("%s/%s/%s/", n.baseURL, event.Product.CategoryID, event.Product.ID),
	}

	msg, err := render(event.Seller.Email, commentSubject, commentBody, data)
	if err != nil {
		return fmt.Errorf("render comment mail: %w", err)
	}
	return n.enqueue(kindComment, msg)
}

func (n *MailNotifier) NotifyRegistered(_ context.Context, event usecase.UserRegistered) error {
	msg, err := render(event.User.Email, activationSubject, activationBody, event)
	if err != nil {
		return fmt.Errorf("render activation mail: %w", err)
	}
	return n.enqueue(kindActivation, msg)
}

func render(to string, subject, body *template.Template, data any) (mailer.Message, error) {
	var s, b bytes.Buffer
	if err := subject.Execute(&s, data); err != nil {
		return mailer.Message{}, err
	}
	if err := body.Execute(&b, data); err != nil {
		return mailer.Message{}, err
	}
	return mailer.Message{To: to, Subject: s.String(), Body: b.String()}, nil
}
