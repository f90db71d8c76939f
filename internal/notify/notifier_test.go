package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront/internal/data/entity"
	"storefront/internal/usecase"
	"storefront/pkg/mailer"
	"storefront/pkg/metrics"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	gate chan struct{}
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func (s *recordingSender) messages() []mailer.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]mailer.Message(nil), s.sent...)
}

func testConfig(queueSize int) *utils.Config {
	return &utils.Config{
		App:   utils.AppConfig{BaseURL: "http://shop.test/"},
		Email: utils.EmailConfig{QueueSize: queueSize},
	}
}

func commentEvent() usecase.CommentCreated {
	product := &entity.Product{Base: entity.Base{ID: uuid.New()}, CategoryID: uuid.New(), Title: "Red shoes"}
	return usecase.CommentCreated{
		Comment: &entity.Comment{Author: "guest", Content: "Still available?"},
		Product: product,
		Seller:  &entity.User{Username: "seller", Email: "seller@example.com"},
	}
}

func counterValue(t *testing.T, m *metrics.Metrics, kind, result string) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Notifications.WithLabelValues(kind, result).Write(&out))
	return out.GetCounter().GetValue()
}

func TestNotifyCommentDeliversMail(t *testing.T) {
	sender := &recordingSender{}
	m := metrics.New()
	n := NewMailNotifier(sender, testConfig(10), m, zap.NewNop())
	n.Start(context.Background())

	event := commentEvent()
	require.NoError(t, n.NotifyComment(context.Background(), event))
	require.NoError(t, n.Close(context.Background()))

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "seller@example.com", sent[0].To)
	assert.Equal(t, `New comment on "Red shoes"`, sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Still available?")
	assert.Contains(t, sent[0].Body, "http://shop.test/"+event.Product.CategoryID.String()+"/"+event.Product.ID.String()+"/")
	assert.Equal(t, float64(1), counterValue(t, m, kindComment, "sent"))
}

func TestNotifyRegisteredIncludesLink(t *testing.T) {
	sender := &recordingSender{}
	n := NewMailNotifier(sender, testConfig(10), nil, zap.NewNop())
	n.Start(context.Background())

	err := n.NotifyRegistered(context.Background(), usecase.UserRegistered{
		User:          &entity.User{Username: "buyer", Email: "buyer@example.com"},
		ActivationURL: "http://shop.test/accounts/register/activate/abc/",
	})
	require.NoError(t, err)
	require.NoError(t, n.Close(context.Background()))

	sent := sender.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "buyer@example.com", sent[0].To)
	assert.Contains(t, sent[0].Body, "http://shop.test/accounts/register/activate/abc/")
}

func TestFullQueueDropsWithoutBlocking(t *testing.T) {
	sender := &recordingSender{gate: make(chan struct{})}
	m := metrics.New()
	n := NewMailNotifier(sender, testConfig(1), m, zap.NewNop())

	// worker not started: the single slot fills up
	require.NoError(t, n.NotifyComment(context.Background(), commentEvent()))

	done := make(chan error, 1)
	go func() { done <- n.NotifyComment(context.Background(), commentEvent()) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQueueFull)
	case <-time.After(time.Second):
		t.Fatal("NotifyComment blocked on a full queue")
	}
	assert.Equal(t, float64(1), counterValue(t, m, kindComment, "dropped"))

	n.Start(context.Background())
	close(sender.gate)
	require.NoError(t, n.Close(context.Background()))
	assert.Len(t, sender.messages(), 1)

	assert.ErrorIs(t, n.NotifyComment(context.Background(), commentEvent()), ErrClosed)
}

func TestDeliveryFailureIsCounted(t *testing.T) {
	sender := &recordingSender{err: errors.New("relay refused")}
	m := metrics.New()
	n := NewMailNotifier(sender, testConfig(10), m, zap.NewNop())
	n.Start(context.Background())

	require.NoError(t, n.NotifyComment(context.Background(), commentEvent()))
	require.NoError(t, n.Close(context.Background()))

	assert.Equal(t, float64(1), counterValue(t, m, kindComment, "failed"))
}
