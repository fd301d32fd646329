package shipping

import (
	"context"

	"github.com/go-faster/errors"

	"oliveshop/internal/domain/model"
)

// 設定行が無いときの初期値
type Defaults struct {
	BaseFee               int64
	FreeShippingThreshold int64
}

var DefaultSettings = Defaults{BaseFee: 5000, FreeShippingThreshold: 100000}

var ErrInvalidSettings = errors.New("shipping settings must not be negative")

// 設定は1行だけ
type Store interface {
	Get(ctx context.Context) (model.ShippingSettings, bool, error)
	// 既にあれば何もしない
	CreateIfAbsent(ctx context.Context, s model.ShippingSettings) error
	Save(ctx context.Context, s model.ShippingSettings) error
}

type SettingsService struct {
	store    Store
	defaults Defaults
}

func NewSettingsService(store Store, defaults Defaults) *SettingsService {
	return &SettingsService{store: store, defaults: defaults}
}

// 無ければ初期値で作る（同時に呼ばれても1行になる）
func (s *SettingsService) GetOrInit(ctx context.Context) (model.ShippingSettings, error) {
	cur, ok, err := s.store.Get(ctx)
	if err != nil {
		return model.ShippingSettings{}, errors.Wrap(err, "get shipping settings")
	}
	if ok {
		return cur, nil
	}

	if err := s.store.CreateIfAbsent(ctx, model.ShippingSettings{
		ID:                    model.ShippingSettingsID,
		BaseFee:               s.defaults.BaseFee,
		FreeShippingThreshold: s.defaults.FreeShippingThreshold,
		IsActive:              true,
	}); err != nil {
		return model.ShippingSettings{}, errors.Wrap(err, "init shipping settings")
	}

	cur, ok, err = s.store.Get(ctx)
	if err != nil {
		return model.ShippingSettings{}, errors.Wrap(err, "get shipping settings")
	}
	if !ok {
		return model.ShippingSettings{}, errors.New("shipping settings missing after init")
	}
	return cur, nil
}

func (s *SettingsService) Update(ctx context.Context, in model.ShippingSettings) (model.ShippingSettings, error) {
	if in.BaseFee < 0 || in.FreeShippingThreshold < 0 {
		return model.ShippingSettings{}, ErrInvalidSettings
	}
	if _, err := s.GetOrInit(ctx); err != nil {
		return model.ShippingSettings{}, err
	}
	in.ID = model.ShippingSettingsID
	if err := s.store.Save(ctx, in); err != nil {
		return model.ShippingSettings{}, errors.Wrap(err, "save shipping settings")
	}
	return s.GetOrInit(ctx)
}
