// Package middlewarectx содержит HTTP middleware сервиса: проверку сессии,
// ограничение частоты запросов и сбор метрик.
//
// SessionMiddleware читает cookie сессии, разрешает её в ID пользователя через
// SessionResolver и кладёт ID в контекст запроса. Без валидной сессии
// запрос завершается с 401 Unauthorized.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/daily-diet/internal/http/response"
	"github.com/magabrotheeeer/daily-diet/internal/lib/sl"
	"github.com/magabrotheeeer/daily-diet/internal/services/user"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserID ключ для ID пользователя в контексте.
const UserID Key = "user_id"

// SessionResolver разрешает токен сессии в ID пользователя.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (string, error)
}

// UserIDFromContext возвращает ID пользователя, положенный SessionMiddleware.
func UserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserID).(string)
	return userID, ok && userID != ""
}

// SessionMiddleware возвращает middleware, пропускающий только запросы с валидной cookie сессии.
func SessionMiddleware(resolver SessionResolver, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.SessionMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				log.Info("request without session cookie")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}

			userID, err := resolver.ResolveSession(r.Context(), cookie.Value)
			if errors.Is(err, user.ErrInvalidSession) {
				log.Info("invalid session", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("unauthorized"))
				return
			}
			if err != nil {
				log.Error("failed to resolve session", sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}

			ctx := context.WithValue(r.Context(), UserID, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
