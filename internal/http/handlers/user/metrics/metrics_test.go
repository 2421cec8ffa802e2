package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/daily-diet/internal/http/middlewarectx"
	"github.com/magabrotheeeer/daily-diet/internal/models"
	"github.com/magabrotheeeer/daily-diet/internal/services/meal"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Metrics(ctx context.Context, userID string) (models.Metrics, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.Metrics), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestMetricsHandler(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		setupMock      func(m *MockService)
		wantStatusCode int
		wantBody       string
	}{
		{
			name:   "success",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Metrics", mock.Anything, "user-1").Return(models.Metrics{
					TotalNumberOfMeals:               7,
					TotalNumberOfMealsInDiet:         5,
					TotalNumberOfMealsOffDiet:        2,
					BestSequenceOfMealsWithinTheDiet: 3,
				}, nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantBody: `{"status":"OK","data":{"totalNumberOfMeals":7,"totalNumberOfMealsInDiet":5,` +
				`"totalNumberOfMealsOffDiet":2,"bestSequenceOfMealsWithinTheDiet":3}}`,
		},
		{
			name:   "no meals",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Metrics", mock.Anything, "user-1").Return(models.Metrics{}, meal.ErrNoMeals).Once()
			},
			wantStatusCode: http.StatusNotFound,
			wantBody:       `{"status":"Error","error":"no data"}`,
		},
		{
			name:           "no session",
			setupMock:      func(_ *MockService) {},
			wantStatusCode: http.StatusUnauthorized,
			wantBody:       `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:   "service error",
			userID: "user-1",
			setupMock: func(m *MockService) {
				m.On("Metrics", mock.Anything, "user-1").Return(models.Metrics{}, errors.New("db error")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"status":"Error","error":"could not compute metrics"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := new(MockService)
			tt.setupMock(service)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/metrics", nil)
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			rr := httptest.NewRecorder()
			New(newNoopLogger(), service).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatusCode, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
			service.AssertExpectations(t)
		})
	}
}
