package shipping

import (
	"context"

	"oliveshop/internal/domain/model"
)

// 送料計算
// STANDARD/GOLDは閾値で判定、PLATINUM/DIAMONDは常に無料
type Calculator struct {
	settings *SettingsService
}

func NewCalculator(settings *SettingsService) *Calculator {
	return &Calculator{settings: settings}
}

// 無料ならRemainingはnil
type Quote struct {
	Fee       int64  `json:"fee"`
	Remaining *int64 `json:"remaining_for_free_shipping"`
}

func (c *Calculator) Fee(ctx context.Context, subtotal int64, tier model.LoyaltyTier) (int64, error) {
	q, err := c.Quote(ctx, subtotal, tier)
	if err != nil {
		return 0, err
	}
	return q.Fee, nil
}

// 無料まであといくらか（無料ならnil）
func (c *Calculator) RemainingForFreeShipping(ctx context.Context, subtotal int64, tier model.LoyaltyTier) (*int64, error) {
	q, err := c.Quote(ctx, subtotal, tier)
	if err != nil {
		return nil, err
	}
	return q.Remaining, nil
}

func (c *Calculator) Quote(ctx context.Context, subtotal int64, tier model.LoyaltyTier) (Quote, error) {
	s, err := c.settings.GetOrInit(ctx)
	if err != nil {
		return Quote{}, err
	}
	return Compute(s, subtotal, tier), nil
}

// 読み込み済みの設定で計算する
func Compute(s model.ShippingSettings, subtotal int64, tier model.LoyaltyTier) Quote {
	switch {
	case !s.IsActive:
		return Quote{}
	case tier == model.TierPlatinum || tier == model.TierDiamond:
		return Quote{}
	case subtotal >= s.FreeShippingThreshold:
		return Quote{}
	}
	remaining := s.FreeShippingThreshold - subtotal
	return Quote{Fee: s.BaseFee, Remaining: &remaining}
}
