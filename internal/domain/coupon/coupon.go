// クーポンの判定と割引額の計算（使用回数は決済確定時に別で増やす）
package coupon

import (
	"strings"

	"oliveshop/internal/domain/model"
)

// 使えない理由
type Reason string

const (
	ReasonInvalidCode  Reason = "INVALID_CODE"
	ReasonInactive     Reason = "INACTIVE"
	ReasonNotYetValid  Reason = "NOT_YET_VALID"
	ReasonExpired      Reason = "EXPIRED"
	ReasonLimitReached Reason = "LIMIT_REACHED"
	ReasonBelowMinimum Reason = "BELOW_MINIMUM"
)

// 理由が同じならerrors.Isで一致する
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Reason == e.Reason
}

var (
	ErrInvalidCode  = &Error{Reason: ReasonInvalidCode, Message: "coupon code is invalid"}
	ErrInactive     = &Error{Reason: ReasonInactive, Message: "coupon is not active"}
	ErrNotYetValid  = &Error{Reason: ReasonNotYetValid, Message: "coupon is not valid yet"}
	ErrExpired      = &Error{Reason: ReasonExpired, Message: "coupon has expired"}
	ErrLimitReached = &Error{Reason: ReasonLimitReached, Message: "coupon usage limit reached"}
	ErrBelowMinimum = &Error{Reason: ReasonBelowMinimum, Message: "order total is below the coupon minimum"}
)

type Result struct {
	CouponID int64
	Code     string
	Type     model.CouponType
	Value    int64
	Discount int64
}

// 前後の空白を落として大文字にする
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
