package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	accountdomain "jobtrack-backend/internal/account/domain"
	accountrepo "jobtrack-backend/internal/account/repository"
	appdomain "jobtrack-backend/internal/application/domain"
	apprepo "jobtrack-backend/internal/application/repository"
	appusecase "jobtrack-backend/internal/application/usecase"
	ingestusecase "jobtrack-backend/internal/ingest/usecase"
	"jobtrack-backend/internal/notification"
	watchusecase "jobtrack-backend/internal/watch/usecase"
	"jobtrack-backend/pkg/ai"
	"jobtrack-backend/pkg/config"
	"jobtrack-backend/pkg/database"
	"jobtrack-backend/pkg/fcm"
	"jobtrack-backend/pkg/gmail"
	"jobtrack-backend/pkg/utils/crypto"

	"google.golang.org/api/idtoken"
	"gorm.io/gorm"
)

// App holds every long-lived component of the tracker. The API server and
// the operator CLI build it the same way and start only what they need.
type App struct {
	Config *config.Config
	DB     *gorm.DB

	Accounts     accountrepo.GmailAccountRepository
	DeviceTokens accountrepo.DeviceTokenRepository
	Applications appusecase.ApplicationUsecase

	Dispatcher  *ingestusecase.Dispatcher
	Queue       *ingestusecase.PushQueue
	PushHandler *notification.PushHandler
	Watch       *watchusecase.Service

	closers []io.Closer
}

// New connects to the database, migrates the schema and wires the pipeline.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&appdomain.JobApplication{},
		&appdomain.ApplicationEvent{},
		&appdomain.EmailReference{},
		&accountdomain.GmailAccount{},
		&accountdomain.DeviceToken{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	a := &App{Config: cfg, DB: db}

	// Repositories
	applicationRepo := apprepo.NewJobApplicationRepository(db)
	eventRepo := apprepo.NewApplicationEventRepository(db)
	referenceRepo := apprepo.NewEmailReferenceRepository(db)
	a.Accounts = accountrepo.NewGmailAccountRepository(db)
	a.DeviceTokens = accountrepo.NewDeviceTokenRepository(db)

	cipher, err := crypto.NewDecrypter(cfg.CryptoKeyB64, cfg.CryptoKeyVersion)
	if err != nil {
		return nil, fmt.Errorf("credential key: %w", err)
	}

	gmailService := gmail.NewService(cfg.GoogleClientID, cfg.GoogleClientSecret)

	extractor, extractorCloser, err := ai.NewExtractorFromConfig(ctx, ai.Config{
		GeminiAPIKey:      cfg.GeminiAPIKey,
		PrimaryModel:      cfg.GeminiPrimaryModel,
		FallbackModel:     cfg.GeminiFallbackModel,
		FallbackProvider:  ai.ProviderType(cfg.AIFallbackProvider),
		OllamaBaseURL:     cfg.OllamaBaseURL,
		OllamaModel:       cfg.OllamaModel,
		RequestsPerSecond: cfg.ExtractionRPS,
	})
	if err != nil {
		return nil, fmt.Errorf("init extractor: %w", err)
	}
	a.closers = append(a.closers, extractorCloser)

	matcher := appusecase.NewMatcher(applicationRepo)
	reconciler := appusecase.NewReconciler(applicationRepo, eventRepo, referenceRepo, matcher)

	// Device notifications are optional
	if cfg.FirebaseCredentials != "" {
		fcmClient, err := fcm.NewClient(ctx, cfg.FirebaseCredentials)
		if err != nil {
			log.Printf("[WARN] Failed to initialize FCM client (device notifications disabled): %v", err)
		} else {
			reconciler.SetNotifier(notification.NewDeviceNotifier(a.DeviceTokens, fcmClient))
		}
	} else {
		log.Printf("[App] No Firebase credentials configured, device notifications disabled")
	}

	a.Applications = appusecase.NewApplicationUsecase(applicationRepo, eventRepo)

	pipeline := ingestusecase.NewPipeline(referenceRepo, extractor, reconciler)
	newMailClient := func(ctx context.Context, refreshToken string, onRotate gmail.TokenUpdateFunc) (ingestusecase.MailClient, error) {
		client, err := gmailService.NewClient(ctx, refreshToken, onRotate)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	a.Dispatcher = ingestusecase.NewDispatcher(a.Accounts, cipher, newMailClient, pipeline, cfg.ForceParseLabel)
	a.Queue = ingestusecase.NewPushQueue(a.Dispatcher, cfg.PushWorkers, cfg.PushQueueSize)

	a.PushHandler = notification.NewPushHandler(a.Queue)
	if cfg.PubSubAudience != "" {
		validator, err := idtoken.NewValidator(ctx)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init push verifier: %w", err)
		}
		a.PushHandler.SetVerifier(validator, cfg.PubSubAudience, cfg.PushServiceAccount)
	} else {
		log.Printf("[WARN] PUBSUB_AUDIENCE not configured, push endpoint is unauthenticated")
	}

	fullTopic, _ := TopicNames(cfg.GoogleProjectID, cfg.GooglePubSubTopic)
	newMailboxClient := func(ctx context.Context, refreshToken string) (watchusecase.MailboxClient, error) {
		client, err := gmailService.NewClient(ctx, refreshToken, nil)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	a.Watch = watchusecase.NewService(a.Accounts, cipher, newMailboxClient, fullTopic, cfg.WatchRefreshThreshold)

	return a, nil
}

// NewSubscriber opens the pull subscription feeding the push queue. It
// returns nil when no subscription is configured.
func (a *App) NewSubscriber(ctx context.Context) (*notification.Subscriber, error) {
	if a.Config.GoogleProjectID == "" || a.Config.GooglePubSubSubscription == "" {
		return nil, nil
	}
	_, topic := TopicNames(a.Config.GoogleProjectID, a.Config.GooglePubSubTopic)
	sub, err := notification.NewSubscriber(ctx, a.Config.GoogleProjectID, topic, a.Config.GooglePubSubSubscription, a.Config.GoogleCredentials, a.Queue)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, sub)
	return sub, nil
}

// Close releases SDK clients and the database pool.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			log.Printf("[App] close failed: %v", err)
		}
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}
}

// TopicNames returns the full resource name users.watch expects and the
// short id the Pub/Sub client expects. Either form is accepted as input.
func TopicNames(projectID, topic string) (full, short string) {
	if topic == "" {
		topic = "gmail-updates"
	}
	if strings.HasPrefix(topic, "projects/") {
		parts := strings.Split(topic, "/")
		return topic, parts[len(parts)-1]
	}
	return fmt.Sprintf("projects/%s/topics/%s", projectID, topic), topic
}
