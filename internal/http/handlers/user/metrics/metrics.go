// Package metrics реализует HTTP-обработчик метрик соблюдения диеты пользователем.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/daily-diet/internal/http/middlewarectx"
	"github.com/magabrotheeeer/daily-diet/internal/http/response"
	"github.com/magabrotheeeer/daily-diet/internal/lib/sl"
	"github.com/magabrotheeeer/daily-diet/internal/models"
	"github.com/magabrotheeeer/daily-diet/internal/services/meal"
)

// Service описывает интерфейс расчёта метрик.
type Service interface {
	Metrics(ctx context.Context, userID string) (models.Metrics, error)
}

// Handler отдаёт метрики пользователя текущей сессии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Метрики соблюдения диеты
// @Description Общее число приёмов пищи, число в диете и вне её, лучшая серия приёмов в диете.
// @Tags Users
// @Produce  json
// @Success 200 {object} response.Response{data=models.Metrics} "Метрики"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 404 {object} response.ErrorResponse "Нет приёмов пищи"
// @Router /users/metrics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.metrics"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	result, err := h.service.Metrics(r.Context(), userID)
	if errors.Is(err, meal.ErrNoMeals) {
		log.Info("no meals to compute metrics", slog.String("user_id", userID))
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("no data"))
		return
	}
	if err != nil {
		log.Error("failed to compute metrics", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not compute metrics"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
