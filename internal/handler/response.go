package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/sdk/zctx"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"oliveshop/internal/domain/model"
	"oliveshop/internal/middleware"
	"oliveshop/internal/repository"
	"oliveshop/internal/usecase"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: string(usecase.KindValidation)})
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: string(usecase.KindUnauthorized)})
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message, Code: he.Code})
	}

	//500（原因はログだけ）
	zctx.From(c.Request().Context()).Error("Unhandled error", zap.Error(err))
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error", Code: string(usecase.KindInternal)})
}

func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	return id, ok && id > 0
}

// ログイン中なら会員、そうでなければX-Guest-IDのゲスト
func ownerFromContext(c echo.Context) model.CartOwner {
	if id, ok := getUserIDFromContext(c); ok {
		return model.UserOwner(id)
	}
	if gid, ok := c.Get(middleware.CtxGuestIDKey).(string); ok && gid != "" {
		return model.GuestOwner(gid)
	}
	return model.CartOwner{}
}

func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// page/limit（空ならデフォルト）
func parsePaging(c echo.Context, defLimit int) (int, int, bool) {
	page, limit := 1, defLimit
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		page = p
	}
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, false
		}
		limit = l
	}
	return page, limit, true
}

// ルートごとの認証ミドルウェアをまとめる
type Guards struct {
	JWTSecret string
	Users     repository.UserRepository
}

// JWT必須 + token_version一致
func (g Guards) Auth() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.AuthJWT(g.JWTSecret),
		middleware.TokenVersionGuard(g.Users),
	}
}

// 上に加えてADMIN限定
func (g Guards) Admin() []echo.MiddlewareFunc {
	return append(g.Auth(), middleware.AdminRoleGuard())
}

// 会員でもゲストでも通す
func (g Guards) Shopper() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.OptionalAuthJWT(g.JWTSecret, g.Users),
		middleware.GuestSession(),
	}
}
