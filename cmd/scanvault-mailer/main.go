// Command scanvault-mailer delivers password reset codes published to the
// message broker when the API runs with MAIL_TRANSPORT=amqp.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tendant/scanvault/internal/config"
	"github.com/tendant/scanvault/internal/notification"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if !cfg.HasSMTP() {
		logger.Error("SMTP_SERVER and SMTP_EMAIL are required")
		os.Exit(1)
	}

	mailer := notification.NewEmailService(notification.EmailConfig{
		Host:     cfg.Mail.SMTPServer,
		Port:     cfg.Mail.SMTPPort,
		User:     cfg.Mail.SMTPEmail,
		Password: cfg.Mail.SMTPPassword,
		FromName: cfg.Mail.FromName,
	})

	consumer, err := notification.NewConsumer(cfg.Mail.AMQPURL, cfg.Mail.AMQPExchange, cfg.Mail.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to broker", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("consuming reset events", "queue", cfg.Mail.AMQPQueue, "workers", cfg.Mail.Workers)
	if err := consumer.Consume(ctx, cfg.Mail.Workers, notification.ResetMailHandler(mailer, logger)); err != nil {
		logger.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("mailer stopped")
}
