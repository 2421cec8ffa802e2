// Package notifier отслеживает личные рекорды серий приёмов пищи в диете
// по событиям из очереди.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/daily-diet/internal/cache"
	"github.com/magabrotheeeer/daily-diet/internal/lib/adherence"
	"github.com/magabrotheeeer/daily-diet/internal/lib/sl"
	"github.com/magabrotheeeer/daily-diet/internal/models"
)

// Repository определяет методы чтения истории приёмов пищи.
type Repository interface {
	ListMealsByUser(ctx context.Context, userID string) ([]models.Meal, error)
}

// RecordStore хранит рекордные серии пользователей. SetMax должен сравнивать
// и записывать атомарно: события одного пользователя обрабатываются параллельно.
type RecordStore interface {
	SetMax(ctx context.Context, key string, value int) (previous int, updated bool, err error)
}

// Notifier пересчитывает метрики после изменения приёма пищи и фиксирует новые рекорды.
type Notifier struct {
	repo    Repository
	records RecordStore
	log     *slog.Logger
}

// New создает новый экземпляр Notifier.
func New(repo Repository, records RecordStore, log *slog.Logger) *Notifier {
	return &Notifier{
		repo:    repo,
		records: records,
		log:     log,
	}
}

// HandleMealEvent обрабатывает одно событие MealEvent. Возвращённая ошибка
// означает, что сообщение нужно доставить повторно; нераспознанные сообщения
// только логируются.
func (n *Notifier) HandleMealEvent(ctx context.Context, body []byte) error {
	const op = "services.notifier.HandleMealEvent"

	var event models.MealEvent
	if err := json.Unmarshal(body, &event); err != nil || event.UserID == "" {
		n.log.Error("dropping malformed meal event", slog.String("body", string(body)), sl.Err(err))
		return nil
	}
	log := n.log.With(
		slog.String("op", op),
		slog.String("type", event.Type),
		slog.String("user_id", event.UserID),
	)

	meals, err := n.repo.ListMealsByUser(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics, err := adherence.Compute(meals)
	if errors.Is(err, adherence.ErrNoMeals) {
		log.Debug("user has no meals left")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	best := metrics.BestSequenceOfMealsWithinTheDiet
	previous, updated, err := n.records.SetMax(ctx, cache.StreakRecordKey(event.UserID), best)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if updated {
		log.Info("new personal best streak", slog.Int("previous", previous), slog.Int("best", best))
	}
	return nil
}
