package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/repository"
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, name string, email string, password string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateForceLogout(ctx context.Context, targetUserID int64) error
}

// トークン発行に必要な設定
type AuthConfig struct {
	JWTSecret      string
	AccessTokenTTL time.Duration
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	LoyaltyTier  string `json:"loyalty_tier"`
	TokenVersion int    `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthUsecase struct {
	cfg       AuthConfig
	users     repository.UserRepository
	carts     *CartUsecase
	validator AuthValidator
	now       func() time.Time
}

func NewAuthUsecase(
	cfg AuthConfig,
	users repository.UserRepository,
	carts *CartUsecase,
	validator AuthValidator,
) *AuthUsecase {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	return &AuthUsecase{
		cfg:       cfg,
		users:     users,
		carts:     carts,
		validator: validator,
		now:       time.Now,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, req.Name, req.Email, req.Password); err != nil {
		return nil, err
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zctx.From(ctx).Error("bcrypt failed", zap.Error(err))
		return nil, newError(KindInternal, "", "internal error")
	}

	now := u.now()
	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(pwHash),
		Role:         model.RoleCustomer,
		LoyaltyTier:  model.TierStandard,
		TokenVersion: 0,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	//validatorとの間に登録されたらここでぶつかる
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, newError(KindConflict, CodeEmailTaken, "email already used")
		}
		return nil, dbError(ctx, err)
	}

	return &AuthRegisterResponse{User: toUserDTO(user)}, nil
}

// ログイン。guestIDがあればゲストカートを会員カートに移す
func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest, guestID string) (*AuthLoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	//ユーザー取得
	user, err := u.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindUnauthorized, "", "invalid credentials")
	}
	if err != nil {
		return nil, dbError(ctx, err)
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, newError(KindUnauthorized, "", "invalid credentials")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, newError(KindForbidden, "", "user is inactive")
	}

	//last_login更新（失敗してもログインは通す）
	if err := u.users.UpdateLastLogin(ctx, user.ID, u.now()); err != nil {
		zctx.From(ctx).Warn("Update last login failed", zap.Error(err))
	}

	if guestID != "" {
		if err := u.carts.MergeGuestIntoUser(ctx, guestID, user.ID); err != nil {
			return nil, err
		}
	}

	//access token発行
	accessToken, expiresIn, err := u.issueAccessToken(user)
	if err != nil {
		zctx.From(ctx).Error("Sign token failed", zap.Error(err))
		return nil, newError(KindInternal, "", "internal error")
	}

	return &AuthLoginResponse{
		User: toUserDTO(user),
		Token: JwtAccessTokenDTO{
			AccessToken:  accessToken,
			ExpiresIn:    expiresIn,
			TokenVersion: user.TokenVersion,
		},
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, errUnauthorized()
	}

	user, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, errUnauthorized()
	}
	if err != nil {
		return nil, dbError(ctx, err)
	}

	if !user.IsActive {
		return nil, newError(KindForbidden, "", "user is inactive")
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// token_versionを上げて発行済みトークンを全部無効にする
func (u *AuthUsecase) ForceLogout(ctx context.Context, targetUserID int64) (*ForceLogoutResponse, error) {
	if err := u.validator.ValidateForceLogout(ctx, targetUserID); err != nil {
		return nil, err
	}

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errNotFound()
		}
		return nil, dbError(ctx, err)
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, dbError(ctx, err)
	}

	return &ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User) (string, int, error) {
	now := u.now()
	exp := now.Add(u.cfg.AccessTokenTTL)

	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString([]byte(u.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, int(u.cfg.AccessTokenTTL.Seconds()), nil
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		LoyaltyTier:  string(u.LoyaltyTier),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
	}
}
