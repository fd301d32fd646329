package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"oliveshop/internal/usecase"
)

// 送料見積もりとクーポンの事前チェック
type StorefrontHandler struct {
	shipping *usecase.ShippingUsecase
	coupons  *usecase.CouponUsecase
}

func NewStorefrontHandler(shipping *usecase.ShippingUsecase, coupons *usecase.CouponUsecase) *StorefrontHandler {
	return &StorefrontHandler{shipping: shipping, coupons: coupons}
}

type CouponValidateRequest struct {
	Code     string `json:"code"`
	Subtotal int64  `json:"subtotal"`
}

func (h *StorefrontHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	e.GET("/shipping/quote", h.quote, guards.Shopper()...)
	e.POST("/coupons/validate", h.validateCoupon)
}

func (h *StorefrontHandler) quote(c echo.Context) error {
	subtotal, err := strconv.ParseInt(c.QueryParam("subtotal"), 10, 64)
	if err != nil {
		return badRequest(c, "invalid subtotal")
	}

	var userID *int64
	if id, ok := getUserIDFromContext(c); ok {
		userID = &id
	}

	out, err := h.shipping.Quote(c.Request().Context(), userID, subtotal)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *StorefrontHandler) validateCoupon(c echo.Context) error {
	var req CouponValidateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.coupons.Preview(c.Request().Context(), req.Code, req.Subtotal)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
