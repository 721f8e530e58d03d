package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer reads reset code events from a durable queue bound to the exchange.
type Consumer struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	q    string
}

func NewConsumer(url, exchange, queue string) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbit: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	fail := func(step string, err error) (*Consumer, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}
	qd, err := ch.QueueDeclare(queue, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}
	if err := ch.QueueBind(qd.Name, PasswordResetRoutingKey, exchange, false, nil); err != nil {
		return fail("bind queue", err)
	}
	return &Consumer{conn: conn, ch: ch, q: qd.Name}, nil
}

func (c *Consumer) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Consume runs workers goroutines feeding deliveries to handle until ctx is
// done. Failed deliveries are requeued.
func (c *Consumer) Consume(ctx context.Context, workers int, handle func(context.Context, []byte) error) error {
	if workers <= 0 {
		workers = 1
	}
	if err := c.ch.Qos(workers*4, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	msgs, err := c.ch.Consume(c.q, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				select {
				case d, ok := <-msgs:
					if !ok {
						return
					}
					if err := handle(ctx, d.Body); err != nil {
						_ = d.Nack(false, true)
						continue
					}
					_ = d.Ack(false)
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	<-ctx.Done()
	wg.Wait()
	return nil
}

// ResetMailHandler returns a delivery handler that mails each
// PasswordResetRequested event through mailer. Undecodable events are
// dropped so they do not loop forever.
func ResetMailHandler(mailer Mailer, logger *slog.Logger) func(context.Context, []byte) error {
	return func(ctx context.Context, body []byte) error {
		var ev PasswordResetRequested
		if err := json.Unmarshal(body, &ev); err != nil || ev.Email == "" || ev.Code == "" {
			logger.Error("dropping malformed reset event", "error", err)
			return nil
		}
		if err := mailer.SendOTP(ctx, ev.Email, ev.Code); err != nil {
			logger.Error("failed to deliver reset code", "to", ev.Email, "error", err)
			return err
		}
		logger.Info("reset code delivered", "to", ev.Email)
		return nil
	}
}
