package dailydiet

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/daily-diet/docs"
	"github.com/magabrotheeeer/daily-diet/internal/config"
	"github.com/magabrotheeeer/daily-diet/internal/http/handlers/health"
	"github.com/magabrotheeeer/daily-diet/internal/http/handlers/meal/create"
	"github.com/magabrotheeeer/daily-diet/internal/http/handlers/meal/list"
	"github.com/magabrotheeeer/daily-diet/internal/http/handlers/meal/read"
	"github.com/magabrotheeeer/daily-diet/internal/http/handlers/meal/remove"
	"github.com/magabrotheeeer/daily-diet/internal/http/handlers/meal/update"
	"github.com/magabrotheeeer/daily-diet/internal/http/handlers/user/metrics"
	"github.com/magabrotheeeer/daily-diet/internal/http/handlers/user/profile"
	"github.com/magabrotheeeer/daily-diet/internal/http/handlers/user/register"
	"github.com/magabrotheeeer/daily-diet/internal/http/middlewarectx"
	mealservice "github.com/magabrotheeeer/daily-diet/internal/services/meal"
	userservice "github.com/magabrotheeeer/daily-diet/internal/services/user"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(
	r chi.Router,
	logger *slog.Logger,
	cfg *config.Config,
	db health.Pinger,
	userService *userservice.UserService,
	mealService *mealservice.MealService,
) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		middlewarectx.MetricsMiddleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, cfg.RPS, cfg.Burst))

		// Открытые конечные точки
		r.Get("/health", health.New(logger, db).ServeHTTP)
		r.Post("/users", register.New(logger, userService, register.Cookie{
			Name:   cfg.CookieName,
			TTL:    cfg.Session.TTL,
			Secure: cfg.Secure,
		}).ServeHTTP)

		// Группа с обязательной сессией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.SessionMiddleware(userService, cfg.CookieName, logger))

			r.Get("/users", profile.New(logger, userService).ServeHTTP)
			r.Get("/users/metrics", metrics.New(logger, mealService).ServeHTTP)

			r.Post("/meals", create.New(logger, mealService).ServeHTTP)
			r.Get("/meals", list.New(logger, mealService).ServeHTTP)
			r.Get("/meals/{id}", read.New(logger, mealService).ServeHTTP)
			r.Put("/meals/{id}", update.New(logger, mealService).ServeHTTP)
			r.Delete("/meals/{id}", remove.New(logger, mealService).ServeHTTP)
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
