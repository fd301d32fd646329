package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"oliveshop/internal/usecase"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// 会員はaddress_id、ゲストはshipping_addressとguest_email
type CheckoutRequest struct {
	AddressID       int64                 `json:"address_id"`
	ShippingAddress *usecase.AddressInput `json:"shipping_address"`
	GuestEmail      string                `json:"guest_email"`
	CouponCode      string                `json:"coupon_code"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	e.POST("/checkout", h.checkout, guards.Shopper()...)

	g := e.Group("/orders", guards.Auth()...)
	g.GET("", h.list)
	g.GET("/:id", h.detail)
}

func (h *OrderHandler) checkout(c echo.Context) error {
	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.CreatePendingOrder(c.Request().Context(), usecase.CheckoutInput{
		Owner:        ownerFromContext(c),
		AddressID:    req.AddressID,
		GuestAddress: req.ShippingAddress,
		GuestEmail:   req.GuestEmail,
		CouponCode:   req.CouponCode,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, out)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	page, limit, ok := parsePaging(c, 20)
	if !ok {
		return badRequest(c, "invalid paging")
	}

	out, err := h.uc.ListMyOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.GetMyOrderDetail(c.Request().Context(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
