package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-rental-marketplace/config"
	"github.com/oksasatya/go-rental-marketplace/pkg/helpers"
	"github.com/oksasatya/go-rental-marketplace/pkg/mailer"
	mailtpl "github.com/oksasatya/go-rental-marketplace/pkg/mailer/templates"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	consumer, err := helpers.NewRabbitConsumer(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue, 16)
	if err != nil {
		logger.Fatalf("amqp: %v", err)
	}
	defer consumer.Close()

	msgs, err := consumer.Deliveries()
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	ctx := context.Background()
	resolver := mailtpl.IPAPIResolver{}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var job mailer.EmailJob
			if err := json.Unmarshal(msg.Body, &job); err != nil {
				logger.WithError(err).Warn("bad message")
				_ = msg.Nack(false, false)
				continue
			}
			if err := helpers.NormalizeJob(&job); err != nil {
				logger.WithError(err).WithField("to", job.To).Warn("dropping email job")
				_ = msg.Nack(false, false)
				continue
			}

			helpers.LocalizeTimesIfPossible(ctx, resolver, job.Data)

			subject, text, html, err := helpers.RenderJob(&job)
			if err != nil {
				logger.WithError(err).WithField("template", job.Template).Warn("render failed")
				_ = msg.Nack(false, false)
				continue
			}

			c, cancel := context.WithTimeout(ctx, 15*time.Second)
			err = mg.Send(c, job.To, subject, text, html)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("template", job.Template).Error("send failed")
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
		close(done)
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	if !waitForShutdown(stop, done) {
		consumer.Close()
		logger.Fatal("delivery channel closed; exiting")
	}
	logger.Info("shutting down...")
	consumer.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// waitForShutdown blocks until a signal arrives (true) or the delivery loop
// ends on its own (false).
func waitForShutdown(stop <-chan os.Signal, done <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	case <-done:
		return false
	}
}
