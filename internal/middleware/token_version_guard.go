package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"oliveshop/internal/repository"
)

// JWTのtvとDBのtoken_versionの一致するか確認。
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//token_version が一致しなければ強制ログアウト扱い（401）
			if !tokenVersionMatches(c, userRepo) {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}
			return next(c)
		}
	}
}

func tokenVersionMatches(c echo.Context, userRepo repository.UserRepository) bool {
	//AuthJWTが入れたuser_id を取得する
	userID, ok := c.Get(CtxUserIDKey).(int64)
	if !ok || userID <= 0 {
		return false
	}

	//AuthJWTが入れたtoken_version(tv)を取得する
	tv, ok := c.Get(CtxTokenVersionKey).(int)
	if !ok || tv < 0 {
		return false
	}

	//DBから最新のuserを取得する
	user, err := userRepo.FindByID(c.Request().Context(), userID)
	if err != nil || user == nil {
		return false
	}

	//停止ユーザーも通さない
	return user.IsActive && user.TokenVersion == tv
}
