package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// エラーの種別
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION"
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindUnavailable  ErrorKind = "UNAVAILABLE"
	KindExternal     ErrorKind = "EXTERNAL"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindForbidden    ErrorKind = "FORBIDDEN"
	KindInternal     ErrorKind = "INTERNAL"
)

// 画面側で出し分けに使うコード
const (
	CodeEmptyCart           = "EMPTY_CART"
	CodeProductUnavailable  = "PRODUCT_UNAVAILABLE"
	CodeInsufficientStock   = "INSUFFICIENT_STOCK"
	CodeStockChanged        = "STOCK_CHANGED"
	CodeOrderNotFound       = "ORDER_NOT_FOUND"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodePaymentInitFailed   = "PAYMENT_INIT_FAILED"
	CodePaymentVerifyFailed = "PAYMENT_VERIFY_FAILED"
	CodePaymentFailed       = "PAYMENT_FAILED"
	CodeEmailTaken          = "EMAIL_TAKEN"
)

var kindStatus = map[ErrorKind]int{
	KindValidation:   http.StatusBadRequest,
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
	KindUnavailable:  http.StatusUnprocessableEntity,
	KindExternal:     http.StatusBadGateway,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindInternal:     http.StatusInternalServerError,
}

type HTTPError struct {
	Status  int
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// statusから種別を決める（Codeは種別と同じ）
func NewHTTPError(status int, message string) error {
	kind := KindInternal
	for k, s := range kindStatus {
		if s == status {
			kind = k
			break
		}
	}
	return &HTTPError{
		Status:  status,
		Kind:    kind,
		Code:    string(kind),
		Message: message,
	}
}

// 種別とコードを指定して作る
func newError(kind ErrorKind, code string, message string) error {
	status, ok := kindStatus[kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	if code == "" {
		code = string(kind)
	}
	return &HTTPError{
		Status:  status,
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

// IsKind はerrが指定種別のHTTPErrorか
func IsKind(err error, kind ErrorKind) bool {
	he, ok := AsHTTPError(err)
	return ok && he.Kind == kind
}

// 原因はログに残し、利用者には出さない
func dbError(ctx context.Context, err error) error {
	zctx.From(ctx).Error("db error", zap.Error(err))
	return NewHTTPError(http.StatusInternalServerError, "db error")
}

// Tx内で返したHTTPErrorはそのまま、それ以外はdb error
func txError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsHTTPError(err); ok {
		return err
	}
	return dbError(ctx, err)
}

func errUnauthorized() error {
	return newError(KindUnauthorized, "", "unauthorized")
}

func errNotFound() error {
	return newError(KindNotFound, "", "not found")
}

func errValidation(message string) error {
	return newError(KindValidation, "", message)
}

// 他パッケージ（validatorなど）から種別つきエラーを作る
func NewError(kind ErrorKind, code string, message string) error {
	return newError(kind, code, message)
}
