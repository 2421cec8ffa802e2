package dailydiet

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/daily-diet/internal/cache"
	"github.com/magabrotheeeer/daily-diet/internal/config"
)

func newTestApp(t *testing.T, redisAddr string) *httptest.Server {
	t.Helper()

	cfg := &config.Config{
		Env:      "local",
		CacheTTL: time.Hour,
		Storage: config.Storage{
			Driver:                  config.DriverSQLite,
			StorageConnectionString: "file::memory:",
			MigrationsPath:          "../../../migrations/sqlite",
		},
		RedisConnection: config.RedisConnection{
			AddressRedis: redisAddr,
			TimeoutRedis: time.Second,
		},
		HTTPServer: config.HTTPServer{
			AddressHTTP: ":0",
			TimeoutHTTP: 5 * time.Second,
		},
		Session: config.Session{
			CookieName: "sessionId",
			SecretKey:  "test-secret",
			TTL:        7 * 24 * time.Hour,
		},
		RateLimit: config.RateLimit{RPS: 1000, Burst: 1000},
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := New(context.Background(), cfg, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(app.Handler())
	t.Cleanup(func() {
		srv.Close()
		app.close()
	})
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

type envelope struct {
	Status string          `json:"status"`
	Error  string          `json:"error"`
	Data   json.RawMessage `json:"data"`
}

func call(t *testing.T, c *http.Client, method, url string, body any) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func meal(name string, at string, inDiet bool) map[string]any {
	return map[string]any{
		"name":          name,
		"description":   "test",
		"date_and_hour": at,
		"in_diet":       inDiet,
	}
}

func TestApp_MealsAndMetricsFlow(t *testing.T) {
	mr := miniredis.RunT(t)
	srv := newTestApp(t, mr.Addr())
	api := srv.URL + "/api/v1"

	alice := newClient(t)

	status, _ := call(t, alice, http.MethodGet, api+"/users/metrics", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, env := call(t, alice, http.MethodPost, api+"/users", map[string]any{"name": "Alice", "age": 30})
	require.Equal(t, http.StatusCreated, status, env.Error)

	status, env = call(t, alice, http.MethodPost, api+"/users", map[string]any{"name": "Alice", "age": 30})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "session already has a user", env.Error)

	status, _ = call(t, alice, http.MethodGet, api+"/users/metrics", nil)
	assert.Equal(t, http.StatusNotFound, status)

	// Даты идут назад: порядок определяется порядком записи.
	var ids []string
	for i, m := range []map[string]any{
		meal("breakfast", "2024-05-03T08:00:00Z", true),
		meal("lunch", "2024-05-02T13:00:00Z", true),
		meal("snack", "2024-05-01T16:00:00Z", false),
		meal("dinner", "2024-04-30T19:00:00Z", true),
	} {
		status, env = call(t, alice, http.MethodPost, api+"/meals", m)
		require.Equal(t, http.StatusCreated, status, "meal %d: %s", i, env.Error)
		var created struct {
			ID string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &created))
		ids = append(ids, created.ID)
	}

	status, env = call(t, alice, http.MethodGet, api+"/users/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{
		"totalNumberOfMeals": 4,
		"totalNumberOfMealsInDiet": 3,
		"totalNumberOfMealsOffDiet": 1,
		"bestSequenceOfMealsWithinTheDiet": 2
	}`, string(env.Data))
	aliceID := userID(t, alice, api)
	// Четыре записи дают версию истории 4.
	assert.True(t, mr.Exists(cache.MetricsKey(aliceID, 4)))

	// Изменение переводит кеш метрик на новую версию.
	status, _ = call(t, alice, http.MethodPut, api+"/meals/"+ids[2], meal("snack", "2024-05-01T16:00:00Z", true))
	require.Equal(t, http.StatusOK, status)
	assert.False(t, mr.Exists(cache.MetricsKey(aliceID, 4)))

	status, env = call(t, alice, http.MethodGet, api+"/users/metrics", nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{
		"totalNumberOfMeals": 4,
		"totalNumberOfMealsInDiet": 4,
		"totalNumberOfMealsOffDiet": 0,
		"bestSequenceOfMealsWithinTheDiet": 4
	}`, string(env.Data))

	status, env = call(t, alice, http.MethodGet, api+"/meals", nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		ListCount int `json:"list_count"`
		Meals     []struct {
			ID string `json:"id"`
		} `json:"meals"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Equal(t, 4, list.ListCount)
	for i, m := range list.Meals {
		assert.Equal(t, ids[i], m.ID)
	}

	bob := newClient(t)
	status, _ = call(t, bob, http.MethodPost, api+"/users", map[string]any{"name": "Bob", "age": 41})
	require.Equal(t, http.StatusCreated, status)

	status, _ = call(t, bob, http.MethodGet, api+"/meals/"+ids[0], nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call(t, bob, http.MethodDelete, api+"/meals/"+ids[0], nil)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = call(t, bob, http.MethodGet, api+"/meals", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = call(t, alice, http.MethodGet, api+"/meals/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid meal id", env.Error)

	status, _ = call(t, alice, http.MethodGet, api+"/meals/2b1c6f4e-8a57-4b0e-9d8f-0a4c2f7e9b11", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, env = call(t, alice, http.MethodDelete, api+"/meals/"+ids[0], nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"deleted_count": 1}`, string(env.Data))

	status, _ = call(t, alice, http.MethodGet, api+"/meals/"+ids[0], nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestApp_InvalidMealRequests(t *testing.T) {
	srv := newTestApp(t, "")
	api := srv.URL + "/api/v1"

	c := newClient(t)
	status, _ := call(t, c, http.MethodPost, api+"/users", map[string]any{"name": "Carol", "age": 25})
	require.Equal(t, http.StatusCreated, status)

	status, env := call(t, c, http.MethodPost, api+"/meals", meal("x", "yesterday", true))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Equal(t, "date_and_hour must be in RFC 3339 format", env.Error)

	status, _ = call(t, c, http.MethodPost, api+"/meals", map[string]any{
		"name":          "x",
		"description":   "y",
		"date_and_hour": "2024-05-01T12:00:00Z",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, _ = call(t, c, http.MethodPost, api+"/meals", meal("x", "2024-05-01T12:00:00Z", false))
	assert.Equal(t, http.StatusCreated, status)
}

func TestApp_ServiceEndpoints(t *testing.T) {
	srv := newTestApp(t, "")
	c := newClient(t)

	status, env := call(t, c, http.MethodGet, srv.URL+"/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", env.Status)

	resp, err := c.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func userID(t *testing.T, c *http.Client, api string) string {
	t.Helper()
	status, env := call(t, c, http.MethodGet, api+"/users", nil)
	require.Equal(t, http.StatusOK, status)
	var data struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.User.ID
}
