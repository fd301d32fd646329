package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/middleware"
	"oliveshop/internal/usecase"
)

func newContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "stock",
			err:    usecase.NewError(usecase.KindUnavailable, usecase.CodeInsufficientStock, "insufficient stock"),
			status: http.StatusUnprocessableEntity,
			code:   usecase.CodeInsufficientStock,
		},
		{
			name:   "transition",
			err:    usecase.NewError(usecase.KindConflict, usecase.CodeInvalidTransition, "cannot change"),
			status: http.StatusConflict,
			code:   usecase.CodeInvalidTransition,
		},
		{
			name:   "external",
			err:    usecase.NewError(usecase.KindExternal, usecase.CodePaymentInitFailed, "payment unavailable"),
			status: http.StatusBadGateway,
			code:   usecase.CodePaymentInitFailed,
		},
		{
			name:   "validation without code",
			err:    usecase.NewError(usecase.KindValidation, "", "bad"),
			status: http.StatusBadRequest,
			code:   string(usecase.KindValidation),
		},
		{
			name:   "plain error",
			err:    errors.New("connection reset"),
			status: http.StatusInternalServerError,
			code:   string(usecase.KindInternal),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext("/")
			require.NoError(t, writeError(c, tc.err))

			assert.Equal(t, tc.status, rec.Code)
			body := decodeErrorResponse(t, rec)
			assert.Equal(t, tc.code, body.Code)
			assert.NotContains(t, body.Error, "connection reset")
		})
	}
}

func TestOwnerFromContext(t *testing.T) {
	c, _ := newContext("/")
	assert.False(t, ownerFromContext(c).Valid())

	c.Set(middleware.CtxGuestIDKey, "g-1")
	assert.Equal(t, model.GuestOwner("g-1"), ownerFromContext(c))

	//ログイン中なら会員が優先
	c.Set(middleware.CtxUserIDKey, int64(9))
	assert.Equal(t, model.UserOwner(9), ownerFromContext(c))
}

func TestParsePaging(t *testing.T) {
	c, _ := newContext("/?page=3&limit=10")
	page, limit, ok := parsePaging(c, 20)
	require.True(t, ok)
	assert.Equal(t, 3, page)
	assert.Equal(t, 10, limit)

	c, _ = newContext("/")
	page, limit, ok = parsePaging(c, 20)
	require.True(t, ok)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, limit)

	c, _ = newContext("/?page=abc")
	_, _, ok = parsePaging(c, 20)
	assert.False(t, ok)
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

func TestHealthz(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		status int
	}{
		{name: "ok", status: http.StatusOK},
		{name: "db down", err: errors.New("refused"), status: http.StatusServiceUnavailable},
	} {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			NewHealthHandler(pinger{err: tc.err}).RegisterRoutes(e)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}
