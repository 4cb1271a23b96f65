package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"elearning/internal/config"
	"elearning/internal/logging"
	"elearning/internal/notify"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log).With().Str("component", "mailer").Logger()

	smtp := notify.NewSMTPNotifier(cfg.SMTP, cfg.Mail.From)
	consumer, err := notify.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, smtp, cfg.Mail.SendTimeout, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to mail queue")
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("shutting down mailer")
		cancel()
	}()

	logger.Info().Str("queue", cfg.AMQP.Queue).Str("smtp_host", cfg.SMTP.Host).Msg("mailer started")
	if err := consumer.Run(ctx); err != nil {
		_ = consumer.Close()
		logger.Fatal().Err(err).Msg("mailer stopped")
	}
	logger.Info().Msg("mailer stopped")
}
