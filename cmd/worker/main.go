// Worker consumes quote events from Kafka and emails them.
// Set KAFKA_BROKERS, NOTIFY_KAFKA_TOPIC, KAFKA_GROUP_ID and the SMTP_* / NOTIFY_* settings.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/config"
	"codebrick-site/backend/internal/logging"
	"codebrick-site/backend/internal/notify"
	"codebrick-site/backend/internal/notify/email"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.Configure(cfg.LogLevel, cfg.LogFormat)

	brokers := cfg.KafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	sender, err := email.NewSender(email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.NotifyFrom,
		To:       cfg.NotifyRecipients(),
		Subject:  cfg.NotifySubject,
		SiteName: cfg.NotifySiteName,
		Footer:   cfg.NotifyFooter,
	})
	if err != nil {
		log.WithError(err).Fatal("worker: email")
	}

	reader := notify.NewKafkaReader(brokers, cfg.NotifyKafkaTopic, cfg.KafkaGroupID)
	w := notify.NewWorker(reader, sender, cfg.NotifyTimeout(), log)
	defer w.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.WithFields(logrus.Fields{
		"topic": cfg.NotifyKafkaTopic,
		"group": cfg.KafkaGroupID,
	}).Info("worker: consuming quote events")

	for {
		err := w.Run(ctx)
		if err == nil {
			log.Info("worker: stopped")
			return
		}
		log.WithError(err).Warn("worker: kafka read error; retrying")
		select {
		case <-ctx.Done():
			log.Info("worker: stopped")
			return
		case <-time.After(time.Second):
		}
	}
}
