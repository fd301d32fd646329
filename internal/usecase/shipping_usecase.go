package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/domain/money"
	"oliveshop/internal/domain/shipping"
	repo "oliveshop/internal/repository"
)

type ShippingUsecase struct {
	settings   *shipping.SettingsService
	calculator *shipping.Calculator
	users      repo.UserRepository
	auditRepo  repo.AuditLogRepository
}

func NewShippingUsecase(
	settings *shipping.SettingsService,
	calculator *shipping.Calculator,
	users repo.UserRepository,
	auditRepo repo.AuditLogRepository,
) *ShippingUsecase {
	return &ShippingUsecase{
		settings:   settings,
		calculator: calculator,
		users:      users,
		auditRepo:  auditRepo,
	}
}

type ShippingSettingsInput struct {
	BaseFee               int64 `json:"base_fee"`
	FreeShippingThreshold int64 `json:"free_shipping_threshold"`
	IsActive              bool  `json:"is_active"`
}

func (u *ShippingUsecase) GetSettings(ctx context.Context) (model.ShippingSettings, error) {
	s, err := u.settings.GetOrInit(ctx)
	if err != nil {
		return model.ShippingSettings{}, dbError(ctx, err)
	}
	return s, nil
}

func (u *ShippingUsecase) UpdateSettings(ctx context.Context, actorAdminUserID int64, in ShippingSettingsInput) (model.ShippingSettings, error) {
	if actorAdminUserID <= 0 {
		return model.ShippingSettings{}, errUnauthorized()
	}

	before, err := u.settings.GetOrInit(ctx)
	if err != nil {
		return model.ShippingSettings{}, dbError(ctx, err)
	}

	after, err := u.settings.Update(ctx, model.ShippingSettings{
		BaseFee:               in.BaseFee,
		FreeShippingThreshold: in.FreeShippingThreshold,
		IsActive:              in.IsActive,
	})
	if errors.Is(err, shipping.ErrInvalidSettings) {
		return model.ShippingSettings{}, errValidation(err.Error())
	}
	if err != nil {
		return model.ShippingSettings{}, dbError(ctx, err)
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionShippingSettings,
		ResourceType: model.AuditResourceSettings,
		ResourceID:   model.ShippingSettingsID,
		BeforeJSON:   settingsJSON(before),
		AfterJSON:    settingsJSON(after),
		CreatedAt:    time.Now(),
	}); err != nil {
		return model.ShippingSettings{}, dbError(ctx, err)
	}
	return after, nil
}

func settingsJSON(s model.ShippingSettings) string {
	return fmt.Sprintf(`{"base_fee":%d,"free_shipping_threshold":%d,"is_active":%t}`,
		s.BaseFee, s.FreeShippingThreshold, s.IsActive)
}

type ShippingQuoteOutput struct {
	Subtotal                 int64  `json:"subtotal"`
	Tier                     string `json:"tier"`
	Fee                      int64  `json:"fee"`
	FeeFormatted             string `json:"fee_formatted"`
	RemainingForFreeShipping *int64 `json:"remaining_for_free_shipping"`
}

// 呼び出し元のランクで送料を見積もる（ゲストはSTANDARD）
func (u *ShippingUsecase) Quote(ctx context.Context, userID *int64, subtotal int64) (ShippingQuoteOutput, error) {
	if subtotal < 0 {
		return ShippingQuoteOutput{}, errValidation("invalid subtotal")
	}

	owner := model.CartOwner{UserID: userID}
	tier, err := loyaltyTierOf(ctx, u.users, owner)
	if err != nil {
		return ShippingQuoteOutput{}, err
	}

	q, err := u.calculator.Quote(ctx, subtotal, tier)
	if err != nil {
		return ShippingQuoteOutput{}, dbError(ctx, err)
	}

	return ShippingQuoteOutput{
		Subtotal:                 subtotal,
		Tier:                     string(tier),
		Fee:                      q.Fee,
		FeeFormatted:             money.Format(q.Fee),
		RemainingForFreeShipping: q.Remaining,
	}, nil
}
