package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBuildRouter_RequiresDeps(t *testing.T) {
	_, err := buildRouter(zap.NewNop(), nil, Deps{})
	require.Error(t, err)
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

func TestReadyHandler(t *testing.T) {
	serve := func(ready *readiness) *httptest.ResponseRecorder {
		router := gin.New()
		router.GET("/readyz", readyHandler(ready))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		return rec
	}

	assert.Equal(t, http.StatusOK, serve(&readiness{db: fakePinger{}}).Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(&readiness{db: fakePinger{err: errors.New("down")}}).Code)

	draining := &readiness{db: fakePinger{}}
	draining.draining.Store(true)
	rec := serve(draining)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "draining")
}

func TestListProductsPassesCategories(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/products?category=Laptops&category=Accesorios", "", "")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"Laptops", "Accesorios"}, env.products.lastCats)
	assert.Contains(t, rec.Body.String(), `"count":2`)
	assert.Contains(t, rec.Body.String(), `"price":"1500"`)
}

func TestListProductsError(t *testing.T) {
	env := newTestEnv(t)
	env.products.err = errors.New("db down")

	rec := env.do(http.MethodGet, "/products", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/products/p-mouse", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Mouse"`)

	rec = env.do(http.MethodGet, "/products/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListCategories(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/categories", "", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"laptops"`)
}

func TestDeviceMiddlewareIssuesCookie(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	issued := rec.Header().Get(deviceHeader)
	require.NotEmpty(t, issued)
	assert.True(t, strings.Contains(rec.Header().Get("Set-Cookie"), deviceCookie+"="+issued))

	// The cookie is honoured on the next request.
	req = httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.AddCookie(&http.Cookie{Name: deviceCookie, Value: issued})
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, issued, rec.Header().Get(deviceHeader))
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestDeviceMiddlewareReplacesInvalidID(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set(deviceHeader, "not-a-uuid")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(deviceHeader))
	assert.NotEmpty(t, rec.Header().Get(deviceHeader))
}

func TestCORSConfig(t *testing.T) {
	all := corsConfig(nil)
	assert.True(t, all.AllowAllOrigins)
	assert.False(t, all.AllowCredentials)

	listed := corsConfig([]string{"http://localhost:5173"})
	assert.False(t, listed.AllowAllOrigins)
	assert.True(t, listed.AllowCredentials)
	assert.Equal(t, []string{"http://localhost:5173"}, listed.AllowOrigins)
}
