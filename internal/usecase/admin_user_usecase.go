package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"oliveshop/internal/domain/model"
	repo "oliveshop/internal/repository"
)

type AdminUserUsecase struct {
	users     repo.UserRepository
	auditRepo repo.AuditLogRepository
}

func NewAdminUserUsecase(users repo.UserRepository, auditRepo repo.AuditLogRepository) *AdminUserUsecase {
	return &AdminUserUsecase{users: users, auditRepo: auditRepo}
}

// 会員ランクの変更（監査ログを残す）
func (u *AdminUserUsecase) SetLoyaltyTier(ctx context.Context, actorAdminUserID int64, userID int64, tier string) (UserDTO, error) {
	if actorAdminUserID <= 0 {
		return UserDTO{}, errUnauthorized()
	}
	if userID <= 0 {
		return UserDTO{}, errValidation("invalid user id")
	}
	next := model.LoyaltyTier(strings.ToUpper(strings.TrimSpace(tier)))
	if !next.Valid() {
		return UserDTO{}, errValidation("invalid loyalty tier")
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return UserDTO{}, errNotFound()
	}
	if err != nil {
		return UserDTO{}, dbError(ctx, err)
	}

	before := user.LoyaltyTier
	if before == next {
		return toUserDTO(user), nil
	}

	if err := u.users.SetLoyaltyTier(ctx, userID, next); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return UserDTO{}, errNotFound()
		}
		return UserDTO{}, dbError(ctx, err)
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionLoyaltyTier,
		ResourceType: model.AuditResourceUser,
		ResourceID:   userID,
		BeforeJSON:   `{"loyalty_tier":"` + string(before) + `"}`,
		AfterJSON:    `{"loyalty_tier":"` + string(next) + `"}`,
		CreatedAt:    time.Now(),
	}); err != nil {
		return UserDTO{}, dbError(ctx, err)
	}

	user.LoyaltyTier = next
	return toUserDTO(user), nil
}

// 監査ログ一覧
func (u *AdminUserUsecase) ListAuditLogs(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	if f.Limit < 0 || f.Limit > 200 {
		return nil, errValidation("invalid limit")
	}
	if f.Offset < 0 {
		return nil, errValidation("invalid offset")
	}

	logs, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return nil, dbError(ctx, err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}
