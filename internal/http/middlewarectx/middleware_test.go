package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/daily-diet/internal/http/middlewarectx"
	"github.com/magabrotheeeer/daily-diet/internal/lib/prom"
	"github.com/magabrotheeeer/daily-diet/internal/services/user"
)

type ResolverMock struct {
	mock.Mock
}

func (m *ResolverMock) ResolveSession(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestSessionMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		cookie         *http.Cookie
		mockUserID     string
		mockErr        error
		wantStatusCode int
		wantCalled     bool
		wantBody       string
	}{
		{
			name:           "missing cookie",
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:           "empty cookie",
			cookie:         &http.Cookie{Name: "sessionId", Value: ""},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "cookie with another name",
			cookie:         &http.Cookie{Name: "other", Value: "token"},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "invalid session",
			cookie:         &http.Cookie{Name: "sessionId", Value: "token"},
			mockErr:        user.ErrInvalidSession,
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:           "resolver failure",
			cookie:         &http.Cookie{Name: "sessionId", Value: "token"},
			mockErr:        errors.New("db down"),
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"status":"Error","error":"internal error"}`,
		},
		{
			name:           "valid session",
			cookie:         &http.Cookie{Name: "sessionId", Value: "token"},
			mockUserID:     "user-1",
			wantStatusCode: http.StatusOK,
			wantCalled:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(ResolverMock)
			if tt.cookie != nil && tt.cookie.Name == "sessionId" && tt.cookie.Value != "" {
				resolver.On("ResolveSession", mock.Anything, tt.cookie.Value).Return(tt.mockUserID, tt.mockErr).Once()
			}

			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				userID, ok := middlewarectx.UserIDFromContext(r.Context())
				assert.True(t, ok)
				assert.Equal(t, tt.mockUserID, userID)
				w.WriteHeader(http.StatusOK)
			})

			handler := middlewarectx.SessionMiddleware(resolver, "sessionId", newNoopLogger())(next)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/meals", nil)
			if tt.cookie != nil {
				req.AddCookie(tt.cookie)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rr.Body.String())
			}
			resolver.AssertExpectations(t)
		})
	}
}

func TestUserIDFromContext(t *testing.T) {
	_, ok := middlewarectx.UserIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = middlewarectx.UserIDFromContext(context.WithValue(context.Background(), middlewarectx.UserID, ""))
	assert.False(t, ok)

	id, ok := middlewarectx.UserIDFromContext(context.WithValue(context.Background(), middlewarectx.UserID, "u1"))
	assert.True(t, ok)
	assert.Equal(t, "u1", id)
}

func TestRateLimitMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	// Пополнение практически отсутствует, поэтому доступен только burst.
	handler := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.0001, 2)(next)

	codes := make([]int, 0, 3)
	for range 3 {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddleware_IndependentLimiters(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	first := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.0001, 1)(next)
	second := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.0001, 1)(next)

	rr := httptest.NewRecorder()
	first.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	second.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestMetricsMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(middlewarectx.MetricsMiddleware)
	r.Get("/test-metrics/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := prom.HTTPRequestsTotal.WithLabelValues("/test-metrics/{id}", http.MethodGet, "418")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"1", "2"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test-metrics/"+id, nil))
		require.Equal(t, http.StatusTeapot, rr.Code)
	}

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
