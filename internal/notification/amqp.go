package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// PasswordResetRoutingKey routes reset code events on the exchange.
const PasswordResetRoutingKey = "auth.password_reset.requested"

const publishTimeout = 3 * time.Second

// PasswordResetRequested asks the mail worker to deliver a reset code.
type PasswordResetRequested struct {
	Email       string    `json:"email"`
	Code        string    `json:"code"`
	RequestedAt time.Time `json:"requested_at"`
}

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMailer hands reset codes to a mail worker over a topic exchange.
type RabbitMailer struct {
	conn     *amqp.Connection
	ch       publisher
	exchange string
	now      func() time.Time
}

// NewRabbitMailer dials url and declares exchange as a durable topic exchange.
func NewRabbitMailer(url, exchange string) (*RabbitMailer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbit: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &RabbitMailer{conn: conn, ch: ch, exchange: exchange, now: time.Now}, nil
}

func (m *RabbitMailer) SendOTP(ctx context.Context, to, code string) error {
	body, err := json.Marshal(PasswordResetRequested{Email: to, Code: code, RequestedAt: m.now().UTC()})
	if err != nil {
		return err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, publishTimeout)
		defer cancel()
	}

	err = m.ch.PublishWithContext(ctx, m.exchange, PasswordResetRoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		MessageId:    uuid.NewString(),
		Timestamp:    m.now(),
		Headers: amqp.Table{
			"X-Request-ID": chimw.GetReqID(ctx),
		},
	})
	if err != nil {
		return fmt.Errorf("publish reset event: %w", err)
	}
	return nil
}

func (m *RabbitMailer) Close() error {
	if m == nil {
		return nil
	}
	if c, ok := m.ch.(*amqp.Channel); ok && c != nil {
		_ = c.Close()
	}
	if m.conn != nil {
		_ = m.conn.Close()
	}
	return nil
}
