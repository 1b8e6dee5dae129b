package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"codebrick-site/backend/internal/admin"
	adminhandler "codebrick-site/backend/internal/admin/handler"
	"codebrick-site/backend/internal/audit"
	audithandler "codebrick-site/backend/internal/audit/handler"
	auditrepo "codebrick-site/backend/internal/audit/repository"
	"codebrick-site/backend/internal/config"
	"codebrick-site/backend/internal/db"
	"codebrick-site/backend/internal/db/schema"
	healthhandler "codebrick-site/backend/internal/health/handler"
	"codebrick-site/backend/internal/intake"
	intakehandler "codebrick-site/backend/internal/intake/handler"
	"codebrick-site/backend/internal/logging"
	"codebrick-site/backend/internal/notify"
	"codebrick-site/backend/internal/notify/email"
	"codebrick-site/backend/internal/platform/reqctx"
	"codebrick-site/backend/internal/security"
	"codebrick-site/backend/internal/server"
	"codebrick-site/backend/internal/session"
	"codebrick-site/backend/internal/submission/repository"
	"codebrick-site/backend/internal/telemetry"
	otelsetup "codebrick-site/backend/internal/telemetry/otel"
)

const (
	sessionIssuer   = "codebrick-site"
	sessionAudience = "codebrick-admin"
	shutdownTimeout = 15 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log := logging.Configure(cfg.LogLevel, cfg.LogFormat)
	ctx := context.Background()

	conn, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("db: open")
	}
	defer conn.Close()
	if err := schema.Ensure(ctx, conn, cfg.DatabasePath, log); err != nil {
		log.WithError(err).Fatal("db: schema")
	}

	providers, err := otelsetup.NewProviders(ctx, otelsetup.Options{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Env,
		Insecure:    cfg.OTLPInsecure,
		Log:         log,
	})
	if err != nil {
		log.WithError(err).Fatal("telemetry: providers")
	}
	providers.SetGlobal()
	emitter := otelsetup.NewEventEmitter(providers.LoggerProvider)
	metrics, err := telemetry.NewMetrics(providers.MeterProvider.Meter("codebrick.site"))
	if err != nil {
		log.WithError(err).Fatal("telemetry: metrics")
	}

	notifier, closeNotifier, err := buildNotifier(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("notify")
	}
	dispatcher := notify.NewDispatcher(notifier, cfg.NotifyTimeout(), log, metrics)

	gate, policy, err := buildGate(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Fatal("admin")
	}
	if cfg.AdminPasswordHash == "" {
		log.Warn("admin: ADMIN_PASSWORD_HASH is not set; admin login is disabled (see cmd/adminpass)")
	}

	submissions := repository.NewSQLiteRepository(conn)
	audits := auditrepo.NewSQLiteRepository(conn)
	auditLogger := audit.NewLogger(audits, reqctx.ClientIP, log)
	svc := intake.NewService(submissions, dispatcher,
		intake.WithEventEmitter(emitter),
		intake.WithMetrics(metrics),
		intake.WithLogger(log),
	)

	router := server.NewRouter(server.Deps{
		Intake: intakehandler.New(svc, log),
		Admin: adminhandler.New(gate, submissions, security.NewHasher(cfg.BcryptCost),
			adminhandler.Credentials{Username: cfg.AdminUsername, PasswordHash: cfg.AdminPasswordHash},
			auditLogger, cfg.PublicDir, log),
		Gate:        gate,
		Audit:       audithandler.New(audits, log),
		AuditLogger: auditLogger,
		Health: healthhandler.New(map[string]healthhandler.Check{
			"database": conn.PingContext,
			"policy":   policy.HealthCheck,
		}, log),
		Emitter:        emitter,
		PublicDir:      cfg.PublicDir,
		AllowedOrigins: cfg.AllowedOrigins(),
		ServiceName:    cfg.ServiceName,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("serve")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	if err := dispatcher.Drain(shutdownCtx); err != nil {
		log.WithError(err).Warn("notify: pending notifications abandoned")
	}
	if closeNotifier != nil {
		if err := closeNotifier.Close(); err != nil {
			log.WithError(err).Warn("notify: close")
		}
	}
	if cfg.OTLPEndpoint != "" {
		time.Sleep(telemetry.ShutdownDrainDuration)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("telemetry: shutdown")
	}
	log.Info("http server stopped")
}

// buildNotifier picks the quote transport: Kafka when brokers are configured, SMTP when email
// is configured, otherwise Noop. The returned Closer may be nil.
func buildNotifier(cfg *config.Config, log logrus.FieldLogger) (notify.Notifier, io.Closer, error) {
	if brokers := cfg.KafkaBrokersList(); len(brokers) > 0 {
		p, err := notify.NewKafkaPublisher(brokers, cfg.NotifyKafkaTopic)
		if err != nil {
			return nil, nil, err
		}
		log.WithField("topic", cfg.NotifyKafkaTopic).Info("notify: publishing quote events to kafka")
		return p, p, nil
	}
	if cfg.EmailEnabled() {
		s, err := email.NewSender(emailConfig(cfg))
		if err != nil {
			return nil, nil, err
		}
		log.WithField("smtp_host", cfg.SMTPHost).Info("notify: sending quote emails via smtp")
		return s, nil, nil
	}
	log.Warn("notify: no SMTP or Kafka configured; quote notifications are disabled")
	return notify.Noop{Log: log}, nil, nil
}

func emailConfig(cfg *config.Config) email.Config {
	return email.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.NotifyFrom,
		To:       cfg.NotifyRecipients(),
		Subject:  cfg.NotifySubject,
		SiteName: cfg.NotifySiteName,
		Footer:   cfg.NotifyFooter,
	}
}

func buildGate(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*admin.Gate, *admin.Policy, error) {
	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		var err error
		if secret, err = security.RandomSecret(security.MinSecretBytes); err != nil {
			return nil, nil, err
		}
		log.Warn("admin: SESSION_SECRET not set; using a random secret (sessions end on restart)")
	}
	tokens, err := security.NewSessionTokens(secret, sessionIssuer, sessionAudience, cfg.SessionTTL())
	if err != nil {
		return nil, nil, err
	}
	policy, err := admin.NewPolicy(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	if err := policy.HealthCheck(ctx); err != nil {
		return nil, nil, err
	}
	gate := admin.NewGate(tokens, session.NewMemoryStore(), policy, cfg.IsProduction(), log)
	return gate, policy, nil
}
