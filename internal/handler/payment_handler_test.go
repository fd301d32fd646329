package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/repository"
	"oliveshop/internal/usecase"
)

// トークン検索だけ差し替える
type ordersByToken struct {
	repository.OrderRepository
	orders map[string]model.Order
}

func (r ordersByToken) FindByPaymentToken(_ context.Context, token string) (model.Order, error) {
	o, ok := r.orders[token]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func newPaymentEcho(orders map[string]model.Order) *echo.Echo {
	uc := usecase.NewPaymentUsecase(ordersByToken{orders: orders}, nil, nil, time.Second)
	e := echo.New()
	NewPaymentHandler(uc, "https://shop.example.com/").RegisterRoutes(e)
	return e
}

func TestPaymentCallback_Redirects(t *testing.T) {
	e := newPaymentEcho(map[string]model.Order{
		"tok-paid":   {ID: 42, Status: model.OrderStatusPaid},
		"tok-failed": {ID: 43, Status: model.OrderStatusFailed},
	})

	cases := []struct {
		name  string
		token string
		want  string
	}{
		{name: "settled", token: "tok-paid", want: "https://shop.example.com/checkout/success?order=42"},
		{name: "declined", token: "tok-failed", want: "https://shop.example.com/checkout/failure?reason=PAYMENT_FAILED"},
		{name: "unknown", token: "tok-x", want: "https://shop.example.com/checkout/failure?reason=ORDER_NOT_FOUND"},
		{name: "missing", token: "", want: "https://shop.example.com/checkout/failure?reason=VALIDATION"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/payment/callback?token="+url.QueryEscape(tc.token), nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tc.want, rec.Header().Get(echo.HeaderLocation))
		})
	}
}

func TestPaymentCallback_FormPost(t *testing.T) {
	e := newPaymentEcho(map[string]model.Order{
		"tok-paid": {ID: 7, Status: model.OrderStatusShipped},
	})

	req := httptest.NewRequest(http.MethodPost, "/payment/callback", strings.NewReader("token=tok-paid"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "https://shop.example.com/checkout/success?order=7", rec.Header().Get(echo.HeaderLocation))
}
