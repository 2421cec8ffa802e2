// Package notifier собирает фоновый процесс, который слушает события
// об изменении приёмов пищи и фиксирует рекордные серии.
package notifier

import (
	"context"
	"errors"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/daily-diet/internal/cache"
	"github.com/magabrotheeeer/daily-diet/internal/config"
	"github.com/magabrotheeeer/daily-diet/internal/lib/sl"
	"github.com/magabrotheeeer/daily-diet/internal/rabbitmq"
	notifierservice "github.com/magabrotheeeer/daily-diet/internal/services/notifier"
	"github.com/magabrotheeeer/daily-diet/internal/storage/repository"
)

type App struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	db       *repository.Storage
	cache    *cache.Cache
	notifier *notifierservice.Notifier
	queue    string
	logger   *slog.Logger
}

// New подключается к базе, redis и RabbitMQ. Без redis и RabbitMQ процесс бесполезен,
// поэтому оба адреса обязательны.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg.RabbitMQURL == "" {
		return nil, errors.New("rabbitmq url is required")
	}
	if cfg.AddressRedis == "" {
		return nil, errors.New("redis address is required")
	}

	db, err := repository.New(cfg.Driver, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	records, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = records.Close()
		_ = db.Close()
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, []rabbitmq.QueueConfig{
		{QueueName: cfg.Queue, RoutingKey: cfg.RoutingKey},
	})
	if err != nil {
		_ = conn.Close()
		_ = records.Close()
		_ = db.Close()
		return nil, err
	}

	return &App{
		conn:     conn,
		ch:       ch,
		db:       db,
		cache:    records,
		notifier: notifierservice.New(db, records, logger),
		queue:    cfg.Queue,
		logger:   logger,
	}, nil
}

// Run слушает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	// Отмена ctx останавливает приём, но начатые обработчики доводят работу до ack.
	handlerCtx := context.WithoutCancel(ctx)
	stopped, err := rabbitmq.ConsumerMessage(ctx, a.ch, a.queue, a.logger, func(body []byte) error {
		return a.notifier.HandleMealEvent(handlerCtx, body)
	})
	if err != nil {
		a.logger.Error("failed to start meal events consumer", slog.String("queue", a.queue), sl.Err(err))
		a.close()
		return err
	}
	a.logger.Info("listening for meal events", slog.String("queue", a.queue))

	<-ctx.Done()
	a.logger.Info("streak notifier shutting down gracefully")
	// Соединения нужны обработчикам до последнего ack.
	<-stopped
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
