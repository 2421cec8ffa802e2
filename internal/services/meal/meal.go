// Package meal содержит бизнес-логику работы с приёмами пищи и метриками соблюдения диеты.
package meal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/daily-diet/internal/cache"
	"github.com/magabrotheeeer/daily-diet/internal/lib/adherence"
	"github.com/magabrotheeeer/daily-diet/internal/lib/prom"
	"github.com/magabrotheeeer/daily-diet/internal/lib/sl"
	"github.com/magabrotheeeer/daily-diet/internal/models"
	"github.com/magabrotheeeer/daily-diet/internal/storage"
)

var (
	// ErrMealNotFound приём пищи не существует.
	ErrMealNotFound = errors.New("meal not found")
	// ErrForbidden приём пищи принадлежит другому пользователю.
	ErrForbidden = errors.New("meal belongs to another user")
	// ErrInvalidDate дата не в формате RFC 3339.
	ErrInvalidDate = errors.New("date_and_hour must be in RFC 3339 format")
	// ErrNoMeals у пользователя нет приёмов пищи.
	ErrNoMeals = adherence.ErrNoMeals
)

// Repository определяет методы хранилища приёмов пищи.
type Repository interface {
	CreateMeal(ctx context.Context, meal models.Meal) (string, error)
	ReadMeal(ctx context.Context, id string) (*models.Meal, error)
	UpdateMeal(ctx context.Context, meal models.Meal) (int, error)
	RemoveMeal(ctx context.Context, id string) (int, error)
	ListMealsByUser(ctx context.Context, userID string) ([]models.Meal, error)
}

// Cache описывает методы для кеширования метрик.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	Invalidate(ctx context.Context, keys ...string) error
}

// Publisher отправляет события об изменении приёмов пищи.
type Publisher interface {
	Publish(ctx context.Context, event models.MealEvent) error
}

// NopPublisher ничего не публикует. Используется, когда RabbitMQ не настроен.
type NopPublisher struct{}

// Publish ничего не делает.
func (NopPublisher) Publish(context.Context, models.MealEvent) error { return nil }

// MealService реализует операции над приёмами пищи пользователя.
type MealService struct {
	repo      Repository
	cache     Cache
	publisher Publisher
	cacheTTL  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewMealService создает новый экземпляр MealService.
func NewMealService(repo Repository, cache Cache, publisher Publisher, cacheTTL time.Duration, log *slog.Logger) *MealService {
	return &MealService{
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		cacheTTL:  cacheTTL,
		log:       log,
		now:       time.Now,
	}
}

// Create записывает новый приём пищи пользователя и возвращает его ID.
func (s *MealService) Create(ctx context.Context, userID string, req models.DummyMeal) (string, error) {
	const op = "services.meal.Create"

	meal, err := buildMeal(uuid.NewString(), userID, req)
	if err != nil {
		return "", err
	}

	id, err := s.repo.CreateMeal(ctx, meal)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	prom.MealsRecorded.WithLabelValues(strconv.FormatBool(meal.InDiet)).Inc()
	s.log.Info("meal recorded", slog.String("id", id), slog.String("user_id", userID))

	s.afterChange(ctx, models.MealCreated, id, userID)
	return id, nil
}

// Read возвращает приём пищи, если он принадлежит пользователю.
func (s *MealService) Read(ctx context.Context, userID, id string) (*models.Meal, error) {
	const op = "services.meal.Read"

	meal, err := s.repo.ReadMeal(ctx, id)
	if errors.Is(err, storage.ErrMealNotFound) {
		return nil, ErrMealNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if meal.UserID != userID {
		return nil, ErrForbidden
	}
	return meal, nil
}

// Update перезаписывает приём пищи пользователя и возвращает количество изменённых записей.
func (s *MealService) Update(ctx context.Context, userID, id string, req models.DummyMeal) (int, error) {
	const op = "services.meal.Update"

	meal, err := buildMeal(id, userID, req)
	if err != nil {
		return 0, err
	}
	if _, err = s.Read(ctx, userID, id); err != nil {
		return 0, err
	}

	count, err := s.repo.UpdateMeal(ctx, meal)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if count == 0 {
		return 0, ErrMealNotFound
	}

	s.afterChange(ctx, models.MealUpdated, id, userID)
	return count, nil
}

// Remove удаляет приём пищи пользователя и возвращает количество удалённых записей.
func (s *MealService) Remove(ctx context.Context, userID, id string) (int, error) {
	const op = "services.meal.Remove"

	if _, err := s.Read(ctx, userID, id); err != nil {
		return 0, err
	}

	count, err := s.repo.RemoveMeal(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if count == 0 {
		return 0, ErrMealNotFound
	}

	s.afterChange(ctx, models.MealDeleted, id, userID)
	return count, nil
}

// List возвращает приёмы пищи пользователя в порядке записи.
func (s *MealService) List(ctx context.Context, userID string) ([]models.Meal, error) {
	const op = "services.meal.List"

	meals, err := s.repo.ListMealsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(meals) == 0 {
		return nil, ErrNoMeals
	}
	return meals, nil
}

// Metrics возвращает метрики соблюдения диеты, используя кеш, если он заполнен.
// Кеш адресуется версией истории пользователя: запись, вычисленная по данным,
// которые успели измениться, попадает под устаревшую версию и больше не читается.
func (s *MealService) Metrics(ctx context.Context, userID string) (models.Metrics, error) {
	const op = "services.meal.Metrics"

	var version int64
	cached := true
	if _, err := s.cache.Get(ctx, cache.MetricsVersionKey(userID), &version); err != nil {
		s.log.Warn("failed to read metrics version, cache bypassed", slog.String("user_id", userID), sl.Err(err))
		cached = false
	}
	key := cache.MetricsKey(userID, version)

	var result models.Metrics
	if cached {
		found, err := s.cache.Get(ctx, key, &result)
		if err != nil {
			s.log.Warn("failed to read metrics from cache", slog.String("key", key), sl.Err(err))
		}
		if found {
			return result, nil
		}
	}

	meals, err := s.repo.ListMealsByUser(ctx, userID)
	if err != nil {
		return models.Metrics{}, fmt.Errorf("%s: %w", op, err)
	}
	result, err = adherence.Compute(meals)
	if err != nil {
		return models.Metrics{}, err
	}

	if cached {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache metrics", slog.String("key", key), sl.Err(err))
		}
	}
	return result, nil
}

// afterChange переводит кеш метрик на новую версию и публикует событие. Ошибки только логируются.
func (s *MealService) afterChange(ctx context.Context, eventType, mealID, userID string) {
	version, err := s.cache.Incr(ctx, cache.MetricsVersionKey(userID))
	if err != nil {
		s.log.Warn("failed to bump metrics version", slog.String("user_id", userID), sl.Err(err))
	} else if err = s.cache.Invalidate(ctx, cache.MetricsKey(userID, version-1)); err != nil {
		s.log.Warn("failed to drop stale metrics", slog.String("user_id", userID), sl.Err(err))
	}

	event := models.MealEvent{
		Type:   eventType,
		MealID: mealID,
		UserID: userID,
		At:     s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		prom.MealEventsPublished.WithLabelValues(eventType, "error").Inc()
		s.log.Warn("failed to publish meal event", slog.String("type", eventType), sl.Err(err))
		return
	}
	prom.MealEventsPublished.WithLabelValues(eventType, "ok").Inc()
}

func buildMeal(id, userID string, req models.DummyMeal) (models.Meal, error) {
	dateAndHour, err := time.Parse(time.RFC3339, req.DateAndHour)
	if err != nil {
		return models.Meal{}, fmt.Errorf("%w: %s", ErrInvalidDate, req.DateAndHour)
	}

	var inDiet bool
	if req.InDiet != nil {
		inDiet = *req.InDiet
	}

	return models.Meal{
		ID:          id,
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		DateAndHour: dateAndHour.UTC(),
		InDiet:      inDiet,
	}, nil
}
