package repository

import (
	"context"

	"oliveshop/internal/domain/model"
)

// 送料設定（1行だけ）
type ShippingSettingsRepository interface {
	Get(ctx context.Context) (model.ShippingSettings, bool, error)
	// 既にあれば何もしない
	CreateIfAbsent(ctx context.Context, s model.ShippingSettings) error
	Save(ctx context.Context, s model.ShippingSettings) error
}
