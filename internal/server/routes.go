package server

import (
	"github.com/labstack/echo/v4"

	"oliveshop/internal/handler"
)

// Handlers は画面ごとのハンドラをまとめたもの
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	Product       *handler.ProductHandler
	Cart          *handler.CartHandler
	Address       *handler.AddressHandler
	Order         *handler.OrderHandler
	Payment       *handler.PaymentHandler
	Storefront    *handler.StorefrontHandler
	AdminProduct  *handler.AdminProductHandler
	AdminOrder    *handler.AdminOrderHandler
	AdminUser     *handler.AdminUserHandler
	AdminSettings *handler.AdminSettingsHandler
}

func registerRoutes(e *echo.Echo, h Handlers, guards handler.Guards) {
	h.Health.RegisterRoutes(e)

	//公開・ショッパー向け
	h.Auth.RegisterRoutes(e, guards)
	h.Product.RegisterRoutes(e)
	h.Cart.RegisterRoutes(e, guards)
	h.Address.RegisterRoutes(e, guards)
	h.Order.RegisterRoutes(e, guards)
	h.Payment.RegisterRoutes(e)
	h.Storefront.RegisterRoutes(e, guards)

	//管理者（JWT + token_version + ADMIN）
	admin := e.Group("/admin", guards.Admin()...)
	h.AdminProduct.RegisterRoutes(admin)
	h.AdminOrder.RegisterRoutes(admin)
	h.AdminUser.RegisterRoutes(admin)
	h.AdminSettings.RegisterRoutes(admin)
}
