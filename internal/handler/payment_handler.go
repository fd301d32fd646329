package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/usecase"
)

// 決済プロバイダからのリダイレクト先
type PaymentHandler struct {
	uc    *usecase.PaymentUsecase
	feURL string
}

func NewPaymentHandler(uc *usecase.PaymentUsecase, feURL string) *PaymentHandler {
	return &PaymentHandler{uc: uc, feURL: strings.TrimRight(feURL, "/")}
}

func (h *PaymentHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/payment/callback", h.callback)
	e.POST("/payment/callback", h.callback)
}

// 結果に関係なく画面へ303で戻す（プロバイダの生データは出さない）
func (h *PaymentHandler) callback(c echo.Context) error {
	//POSTはform、GETはquery（FormValueが両方見る）
	token := c.FormValue("token")

	out, err := h.uc.HandleCallback(c.Request().Context(), token)
	if err != nil {
		code := string(usecase.KindInternal)
		if he, ok := usecase.AsHTTPError(err); ok {
			code = he.Code
		}
		return c.Redirect(http.StatusSeeOther, h.failureURL(code))
	}

	switch out.Status {
	case model.OrderStatusPending, model.OrderStatusFailed, model.OrderStatusCancelled:
		return c.Redirect(http.StatusSeeOther, h.failureURL(usecase.CodePaymentFailed))
	}
	return c.Redirect(http.StatusSeeOther, h.feURL+"/checkout/success?order="+strconv.FormatInt(out.OrderID, 10))
}

func (h *PaymentHandler) failureURL(reason string) string {
	return h.feURL + "/checkout/failure?reason=" + url.QueryEscape(reason)
}
