package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"oliveshop/internal/usecase"
)

// /admin/coupons と /admin/shipping-settings
type AdminSettingsHandler struct {
	coupons  *usecase.CouponUsecase
	shipping *usecase.ShippingUsecase
}

func NewAdminSettingsHandler(coupons *usecase.CouponUsecase, shipping *usecase.ShippingUsecase) *AdminSettingsHandler {
	return &AdminSettingsHandler{coupons: coupons, shipping: shipping}
}

func (h *AdminSettingsHandler) RegisterRoutes(admin *echo.Group) {
	admin.GET("/coupons", h.listCoupons)
	admin.POST("/coupons", h.createCoupon)
	admin.PUT("/coupons/:id", h.updateCoupon)
	admin.DELETE("/coupons/:id", h.deleteCoupon)

	admin.GET("/shipping-settings", h.getShipping)
	admin.PUT("/shipping-settings", h.updateShipping)
}

func (h *AdminSettingsHandler) listCoupons(c echo.Context) error {
	list, err := h.coupons.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *AdminSettingsHandler) createCoupon(c echo.Context) error {
	var req usecase.CouponInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.coupons.Create(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminSettingsHandler) updateCoupon(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req usecase.CouponInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	out, err := h.coupons.Update(c.Request().Context(), adminID, id, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminSettingsHandler) deleteCoupon(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	if err := h.coupons.Delete(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminSettingsHandler) getShipping(c echo.Context) error {
	s, err := h.shipping.GetSettings(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

func (h *AdminSettingsHandler) updateShipping(c echo.Context) error {
	var req usecase.ShippingSettingsInput
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	s, err := h.shipping.UpdateSettings(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
