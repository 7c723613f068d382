package app_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/linemk/ecofinds/internal/app"
	"github.com/linemk/ecofinds/internal/config"
	"github.com/linemk/ecofinds/internal/domain/models"
	security "github.com/linemk/ecofinds/internal/jwt-new"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "testsecret"

func newTestApp(t *testing.T, perMinute, burst int) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		Env:       "local",
		JWT:       config.JWTConfig{Secret: testSecret, TokenTTL: 60},
		RateLimit: config.RateLimitConfig{AuthPerMinute: perMinute, AuthBurst: burst},
	}
	application := &app.App{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		DB:     db,
	}
	return application.Router(prometheus.NewRegistry()), mock
}

func do(h http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_PublicCategories(t *testing.T) {
	h, _ := newTestApp(t, 60, 5)

	rr := do(h, "GET", "/api/categories", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var categories []string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&categories))
	assert.Len(t, categories, len(models.Categories))
}

func TestRouter_ProtectedRoutesNeedToken(t *testing.T) {
	h, _ := newTestApp(t, 60, 5)

	for _, route := range []struct{ method, path string }{
		{"GET", "/api/cart"},
		{"POST", "/api/checkout"},
		{"GET", "/api/orders"},
		{"POST", "/api/products"},
		{"GET", "/api/dashboard"},
	} {
		rr := do(h, route.method, route.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", route.method, route.path)
	}
}

func TestRouter_CartWithSession(t *testing.T) {
	h, mock := newTestApp(t, 60, 5)

	token, err := security.NewToken(&models.User{ID: 1, Email: "a@e.com"}, "s1", time.Hour, testSecret)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id = $1 AND expires_at > NOW()")).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at"}).
			AddRow("s1", 1, time.Now().Add(time.Hour), time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM cart_items c JOIN products p ON p.id = c.product_id WHERE c.user_id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"c.id", "c.quantity", "p.id", "p.owner_id", "p.title", "p.description",
			"p.category", "p.price", "p.image_url", "p.created_at", "p.updated_at", "p.deleted_at"}))

	rr := do(h, "GET", "/api/cart", "", token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var cart models.Cart
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&cart))
	assert.Empty(t, cart.Lines)
	assert.Equal(t, int64(0), cart.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_LoggedOutTokenRejected(t *testing.T) {
	h, mock := newTestApp(t, 60, 5)

	token, err := security.NewToken(&models.User{ID: 1}, "gone", time.Hour, testSecret)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE id = $1")).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "expires_at", "created_at"}))

	rr := do(h, "GET", "/api/orders", "", token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRouter_AuthRateLimited(t *testing.T) {
	h, _ := newTestApp(t, 1, 2)

	// тело невалидно, до БД запрос не доходит
	assert.Equal(t, http.StatusBadRequest, do(h, "POST", "/api/auth", `{}`, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, "POST", "/api/signup", `{}`, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, "POST", "/api/auth", `{}`, "").Code)

	// каталог не ограничивается
	assert.Equal(t, http.StatusOK, do(h, "GET", "/api/categories", "", "").Code)
}

func TestRouter_Metrics(t *testing.T) {
	h, _ := newTestApp(t, 60, 5)

	do(h, "GET", "/api/categories", "", "")
	do(h, "GET", "/api/cart", "", "")

	rr := do(h, "GET", "/metrics", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.True(t, strings.Contains(body, `ecofinds_http_responses_total{status_code="200"}`))
	assert.True(t, strings.Contains(body, `ecofinds_http_responses_total{status_code="401"}`))
}
