// Package read реализует HTTP-обработчик получения приёма пищи по ID.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/daily-diet/internal/http/middlewarectx"
	"github.com/magabrotheeeer/daily-diet/internal/http/response"
	"github.com/magabrotheeeer/daily-diet/internal/lib/sl"
	"github.com/magabrotheeeer/daily-diet/internal/models"
	"github.com/magabrotheeeer/daily-diet/internal/services/meal"
)

// Handler отдаёт один приём пищи текущего пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс чтения приёма пищи.
type Service interface {
	Read(ctx context.Context, userID, id string) (*models.Meal, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Получить приём пищи
// @Tags Meals
// @Produce  json
// @Param id path string true "ID приёма пищи (UUID)"
// @Success 200 {object} response.Response "Приём пищи"
// @Failure 400 {object} response.ErrorResponse "Некорректный ID"
// @Failure 401 {object} response.ErrorResponse "Нет сессии"
// @Failure 403 {object} response.ErrorResponse "Чужой приём пищи"
// @Failure 404 {object} response.ErrorResponse "Не найден"
// @Router /meals/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.meal.read"

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

	id := chi.URLParam(r, "id")
	if err := h.validate.Var(id, "required,uuid"); err != nil {
		log.Info("invalid meal id", slog.String("id", id))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid meal id"))
		return
	}

	res, err := h.service.Read(r.Context(), userID, id)
	switch {
	case errors.Is(err, meal.ErrMealNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("meal not found"))
		return
	case errors.Is(err, meal.ErrForbidden):
		log.Info("access to foreign meal denied", slog.String("id", id))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("forbidden"))
		return
	case err != nil:
		log.Error("failed to read meal", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not read meal"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"meal": res,
	}))
}
