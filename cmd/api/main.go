package main

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"oliveshop/internal/config"
	"oliveshop/internal/domain/coupon"
	domainpayment "oliveshop/internal/domain/payment"
	"oliveshop/internal/domain/shipping"
	"oliveshop/internal/handler"
	"oliveshop/internal/infra/db"
	"oliveshop/internal/infra/payment"
	infraRepo "oliveshop/internal/infra/repository"
	"oliveshop/internal/job"
	"oliveshop/internal/server"
	"oliveshop/internal/usecase"
	"oliveshop/internal/validator"
)

func main() {
	app.Run(func(ctx context.Context, lg *zap.Logger, m *app.Telemetry) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return run(ctx, lg, m, cfg)
	})
}

func run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg config.Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr()), zap.String("env", cfg.GoEnv))

	//DB接続 + マイグレーション
	gormDB, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		return errors.Wrap(err, "connect db")
	}
	defer func() {
		if err := db.Close(gormDB); err != nil {
			lg.Warn("Close db", zap.Error(err))
		}
	}()
	if err := db.Migrate(ctx, gormDB); err != nil {
		return errors.Wrap(err, "migrate")
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return errors.Wrap(err, "get sql.DB")
	}

	//Repository（GORM実装）
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	cartRepo := infraRepo.NewCartGormRepository(gormDB)
	cartItemRepo := infraRepo.NewCartItemGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	orderItemRepo := infraRepo.NewOrderItemGormRepository(gormDB)
	couponRepo := infraRepo.NewCouponGormRepository(gormDB)
	shippingRepo := infraRepo.NewShippingSettingsGormRepository(gormDB)
	addressRepo := infraRepo.NewAddressGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//ドメインサービス
	shippingSettings := shipping.NewSettingsService(shippingRepo, shipping.Defaults{
		BaseFee:               cfg.Shipping.DefaultBaseFee,
		FreeShippingThreshold: cfg.Shipping.DefaultFreeThreshold,
	})
	shippingCalc := shipping.NewCalculator(shippingSettings)
	couponValidator := coupon.NewValidator(couponRepo)

	var provider domainpayment.Provider
	switch cfg.Payment.Provider {
	case "http":
		provider = payment.NewClient(payment.Config{
			BaseURL:        cfg.Payment.BaseURL,
			APIKey:         cfg.Payment.APIKey,
			Timeout:        cfg.Payment.Timeout,
			TracerProvider: m.TracerProvider(),
			MeterProvider:  m.MeterProvider(),
		})
	default:
		lg.Warn("Using fake payment provider")
		provider = payment.NewFake()
	}

	//Usecase
	cartUC := usecase.NewCartUsecase(txm, cartRepo, cartItemRepo, productRepo, userRepo, shippingCalc)
	authUC := usecase.NewAuthUsecase(
		usecase.AuthConfig{JWTSecret: cfg.JWTSecret, AccessTokenTTL: cfg.AccessTokenTTL},
		userRepo,
		cartUC,
		validator.NewAuthValidator(userRepo),
	)
	orderUC := usecase.NewOrderUsecase(usecase.OrderDeps{
		Tx:         txm,
		Carts:      cartRepo,
		CartItems:  cartItemRepo,
		Products:   productRepo,
		Orders:     orderRepo,
		OrderItems: orderItemRepo,
		Addresses:  addressRepo,
		Users:      userRepo,
		Coupons:    couponValidator,
		Shipping:   shippingCalc,
		Provider:   provider,
	}, usecase.OrderConfig{
		CallbackURL:    cfg.Payment.CallbackURL,
		PaymentTimeout: cfg.Payment.Timeout,
		PendingMaxAge:  cfg.Sweep.MaxAge,
	})
	paymentUC := usecase.NewPaymentUsecase(orderRepo, provider, orderUC, cfg.Payment.Timeout)
	productUC := usecase.NewProductUsecase(productRepo, categoryRepo, inventoryRepo, auditRepo)
	addressUC := usecase.NewAddressUsecase(addressRepo)
	couponUC := usecase.NewCouponUsecase(couponRepo, auditRepo, couponValidator)
	shippingUC := usecase.NewShippingUsecase(shippingSettings, shippingCalc, userRepo, auditRepo)
	adminOrderUC := usecase.NewAdminOrderUsecase(txm, orderRepo, orderItemRepo, auditRepo, orderUC)
	adminUserUC := usecase.NewAdminUserUsecase(userRepo, auditRepo)

	//Handler
	handlers := server.Handlers{
		Health:        handler.NewHealthHandler(sqlDB),
		Auth:          handler.NewAuthHandler(authUC),
		Product:       handler.NewProductHandler(productUC),
		Cart:          handler.NewCartHandler(cartUC),
		Address:       handler.NewAddressHandler(addressUC),
		Order:         handler.NewOrderHandler(orderUC),
		Payment:       handler.NewPaymentHandler(paymentUC, cfg.FEURL),
		Storefront:    handler.NewStorefrontHandler(shippingUC, couponUC),
		AdminProduct:  handler.NewAdminProductHandler(productUC),
		AdminOrder:    handler.NewAdminOrderHandler(adminOrderUC),
		AdminUser:     handler.NewAdminUserHandler(authUC, adminUserUC),
		AdminSettings: handler.NewAdminSettingsHandler(couponUC, shippingUC),
	}
	guards := handler.Guards{JWTSecret: cfg.JWTSecret, Users: userRepo}
	e := server.NewEcho(lg, cfg.FEURL, handlers, guards)

	sweeper, err := job.NewPendingSweeper(orderUC, cfg.Sweep.Interval, cfg.Sweep.MaxAge, m.MeterProvider())
	if err != nil {
		return errors.Wrap(err, "create sweeper")
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Run(gCtx, lg, server.Config{
			Addr:            cfg.Addr(),
			ShutdownTimeout: cfg.Graceful.ShutdownTimeout,
			TracerProvider:  m.TracerProvider(),
			MeterProvider:   m.MeterProvider(),
		}, e)
	})
	g.Go(func() error {
		return sweeper.Run(gCtx)
	})
	return g.Wait()
}
