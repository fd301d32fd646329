package repository

import (
	"context"
	"time"

	"oliveshop/internal/domain/model"
)

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（メール重複はErrConflict）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。無ければErrNotFound
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。無ければErrNotFound
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	//最終ログイン日時の更新
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	//会員ランクの変更
	SetLoyaltyTier(ctx context.Context, userID int64, tier model.LoyaltyTier) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
