// Package dailydiet собирает HTTP API дневника питания: хранилище, кеш,
// публикацию событий, сервисы и gRPC health-сервер.
package dailydiet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"
	"google.golang.org/grpc"

	"github.com/magabrotheeeer/daily-diet/internal/cache"
	"github.com/magabrotheeeer/daily-diet/internal/config"
	grpchealth "github.com/magabrotheeeer/daily-diet/internal/grpc/health"
	"github.com/magabrotheeeer/daily-diet/internal/lib/jwt"
	"github.com/magabrotheeeer/daily-diet/internal/lib/sl"
	"github.com/magabrotheeeer/daily-diet/internal/migrations"
	"github.com/magabrotheeeer/daily-diet/internal/rabbitmq"
	mealservice "github.com/magabrotheeeer/daily-diet/internal/services/meal"
	userservice "github.com/magabrotheeeer/daily-diet/internal/services/user"
	"github.com/magabrotheeeer/daily-diet/internal/storage/repository"
)

const (
	shutdownTimeout     = 15 * time.Second
	healthCheckInterval = 5 * time.Second
)

// Cache объединяет методы кеша, нужные сервисам.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Invalidate(ctx context.Context, keys ...string) error
}

type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage

	health     *grpchealth.Server
	grpcServer *grpc.Server
	grpcLis    net.Listener

	closers []func() error
}

// New открывает все внешние соединения и собирает приложение.
// Redis и RabbitMQ необязательны: при пустом адресе используются заглушки.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.dailydiet.New"

	db, err := repository.New(cfg.Driver, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	app := &App{
		logger: logger,
		db:     db,
	}

	if err = migrations.Run(db.DB, cfg.Driver, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, err
	}

	var c Cache = cache.Nop{}
	if cfg.AddressRedis != "" {
		redisCache, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, err
		}
		app.closers = append(app.closers, redisCache.Close)
		c = redisCache
	} else {
		logger.Warn("redis address is empty, caching disabled")
	}

	var publisher mealservice.Publisher = mealservice.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		p, err := app.newPublisher(cfg)
		if err != nil {
			app.close()
			return nil, err
		}
		publisher = p
	} else {
		logger.Warn("rabbitmq url is empty, meal events are not published")
	}

	tokens := jwt.NewMaker(cfg.SecretKey, cfg.Session.TTL)
	userService := userservice.NewUserService(db, tokens, c, cfg.Session.TTL, logger)
	mealService := mealservice.NewMealService(db, c, publisher, cfg.CacheTTL, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, db, userService, mealService)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	app.health = grpchealth.New(db, healthCheckInterval, logger)
	if cfg.GRPCHealthAddress != "" {
		lis, err := net.Listen("tcp", cfg.GRPCHealthAddress)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.grpcLis = lis
		app.grpcServer = grpc.NewServer()
		app.health.Register(app.grpcServer)
	}

	return app, nil
}

func (a *App) newPublisher(cfg *config.Config) (*rabbitmq.Publisher, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, []rabbitmq.QueueConfig{
		{QueueName: cfg.Queue, RoutingKey: cfg.RoutingKey},
	})
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch, cfg.Exchange, cfg.RoutingKey)
	// Канал закрывается раньше соединения.
	a.closers = append(a.closers, func() error {
		if err := publisher.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			return err
		}
		return nil
	})
	return publisher, nil
}

// Handler возвращает HTTP-обработчик приложения.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run запускает HTTP и gRPC серверы и блокируется до отмены ctx или ошибки сервера.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go a.health.Watch(watchCtx)

	if a.grpcServer != nil {
		go func() {
			a.logger.Info("gRPC health service listening on", slog.String("address", a.grpcLis.Addr().String()))
			if err := a.grpcServer.Serve(a.grpcLis); err != nil {
				errCh <- err
			}
		}()
	}

	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down HTTP server gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil && runErr == nil {
		runErr = err
	}
	if a.grpcServer != nil {
		a.grpcServer.GracefulStop()
	}
	a.close()
	return runErr
}

// close освобождает ресурсы в обратном порядке их открытия, последней закрывается база.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("failed to close resource", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Warn("failed to close database", sl.Err(err))
	}
}
