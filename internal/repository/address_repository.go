package repository

import (
	"context"

	"oliveshop/internal/domain/model"
)

// 住所(Address)を保存・取得する窓口
type AddressRepository interface {
	//Create は住所を新規作成する。
	//最初の住所、またはIsDefault指定ならデフォルトにする（他はfalseに戻す）
	//作成後はaddress（IDなどが埋まったもの）を返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//ユーザーが持つ住所一覧を返す
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)

	//ユーザーの住所を1件取得。他人の住所はErrNotFound
	FindByIDForUser(ctx context.Context, addressID, userID int64) (model.Address, error)

	//住所の更新。
	Update(ctx context.Context, address model.Address) error

	//住所の削除。
	Delete(ctx context.Context, addressID, userID int64) error

	//住所の切り替えを行う。
	SetDefault(ctx context.Context, userID, addressID int64) error
}
