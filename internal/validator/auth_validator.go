package validator

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"oliveshop/internal/repository"
	"oliveshop/internal/usecase"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// パスワード最低文字数
const minPasswordLen = 8

type authValidator struct {
	users repository.UserRepository
}

// Usecaseは interface を依存注入
func NewAuthValidator(users repository.UserRepository) usecase.AuthValidator {
	return &authValidator{users: users}
}

func invalid(msg string) error {
	return usecase.NewError(usecase.KindValidation, "", msg)
}

// サインアップの入力を検証
func (v *authValidator) ValidateRegister(ctx context.Context, name string, email string, password string) error {
	// 必須チェック
	if strings.TrimSpace(name) == "" || email == "" || password == "" {
		return invalid("name, email and password are required")
	}
	if utf8.RuneCountInString(name) > 100 {
		return invalid("name too long")
	}

	// email形式
	if !isEmailLike(email) {
		return invalid("invalid email")
	}

	if utf8.RuneCountInString(password) < minPasswordLen {
		return invalid("password must be at least 8 characters")
	}

	// email重複チェック（DBが必要）
	u, err := v.users.FindByEmail(ctx, email)
	if err == nil && u != nil {
		return usecase.NewError(usecase.KindConflict, usecase.CodeEmailTaken, "email already used")
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return usecase.NewError(usecase.KindInternal, "", "db error")
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	// 必須チェック
	if email == "" || password == "" {
		return invalid("email and password are required")
	}

	// email形式
	if !isEmailLike(email) {
		return invalid("invalid email")
	}

	return nil
}

// 強制ログアウトの入力を検証
func (v *authValidator) ValidateForceLogout(ctx context.Context, targetUserID int64) error {
	if targetUserID <= 0 {
		return invalid("invalid user id")
	}
	return nil
}

// 簡易メール形式をチェック
func isEmailLike(s string) bool {
	if !emailPattern.MatchString(s) {
		return false
	}
	_, err := mail.ParseAddress(s)
	return err == nil
}
