// Package decorent wires the marketplace API server: storage, cache,
// message broker, external clients and the HTTP router.
package decorent

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/decorent/decorent/internal/cache"
	"github.com/decorent/decorent/internal/checkout"
	"github.com/decorent/decorent/internal/config"
	"github.com/decorent/decorent/internal/facematch"
	"github.com/decorent/decorent/internal/filestore"
	"github.com/decorent/decorent/internal/lib/jwt"
	"github.com/decorent/decorent/internal/lib/rabbitmq"
	"github.com/decorent/decorent/internal/migrations"
	authservice "github.com/decorent/decorent/internal/services/auth"
	catalogservice "github.com/decorent/decorent/internal/services/catalog"
	notificationservice "github.com/decorent/decorent/internal/services/notification"
	paymentservice "github.com/decorent/decorent/internal/services/payment"
	requestservice "github.com/decorent/decorent/internal/services/request"
	reviewservice "github.com/decorent/decorent/internal/services/review"
	"github.com/decorent/decorent/internal/storage/repository"
)

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	amqp   *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	amqpConn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	amqpChannel, err := rabbitmq.SetupChannel(amqpConn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}

	files, err := filestore.New(cfg.MediaDir)
	if err != nil {
		return nil, err
	}

	checkoutClient := checkout.NewClient(cfg.CheckoutAPIURL, cfg.CheckoutSecretKey)
	faceMatcher := facematch.NewClient(cfg.FaceMatchAPIURL, cfg.FaceMatchAPIKey)
	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	notificationService := notificationservice.New(db,
		notificationservice.NewAMQPPublisher(amqpChannel), logger)
	authService := authservice.New(db, cacheRedis, files, faceMatcher,
		jwtMaker, cfg.FaceMatchThreshold, logger)
	catalogService := catalogservice.New(db, cacheRedis, files, logger)
	requestService := requestservice.New(db, notificationService, logger)
	paymentService := paymentservice.New(db, checkoutClient, cacheRedis,
		notificationService, cfg.PublicBaseURL, logger)
	reviewService := reviewservice.New(db, cacheRedis, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, jwtMaker, &Services{
		Auth:         authService,
		Catalog:      catalogService,
		Request:      requestService,
		Payment:      paymentService,
		Notification: notificationService,
		Review:       reviewService,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		amqp:   amqpConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		_ = a.amqp.Close()
		_ = a.db.DB.Close()
		return err
	}
}
