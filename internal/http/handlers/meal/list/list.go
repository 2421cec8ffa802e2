// Package list реализует HTTP-обработчик списка приёмов пищи пользователя.
package list

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

// Handler отдаёт все приёмы пищи текущего пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения списка приёмов пищи.
type Service interface {
	List(ctx context.Context, userID string) ([]models.Meal, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список приёмов пищи
// @Description Приёмы пищи текущего пользователя в порядке записи.
// @Tags Meals
// @Produce  json
// @Success 200 {object} response.Response "Количество и список"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 404 {object} response.ErrorResponse "Нет приёмов пищи"
// @Router /meals [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.meal.list"

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

	meals, err := h.service.List(r.Context(), userID)
	if errors.Is(err, meal.ErrNoMeals) {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("no data"))
		return
	}
	if err != nil {
		log.Error("failed to list meals", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not list meals"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"list_count": len(meals),
		"meals":      meals,
	}))
}
