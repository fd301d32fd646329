// 決済代行（ホスト型決済フォーム）との境界
package payment

import "context"

type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

type Buyer struct {
	ID      string
	Name    string
	Email   string
	Phone   string
	City    string
	Address string
}

// 決済ページに出す明細
type BasketItem struct {
	ID    string
	Name  string
	Price int64
}

// 金額はkuruş
type CheckoutRequest struct {
	ConversationID string
	Amount         int64
	Currency       string
	Buyer          Buyer
	Basket         []BasketItem
	CallbackURL    string
}

type Session struct {
	Token          string
	PaymentPageURL string
}

// トークンの照会結果
type Result struct {
	Status         Status
	PaymentStatus  string
	PaymentID      string
	ConversationID string
	ErrorCode      string
}

func (r Result) Succeeded() bool {
	return r.Status == StatusSuccess
}

type Provider interface {
	InitCheckout(ctx context.Context, req CheckoutRequest) (Session, error)
	Verify(ctx context.Context, token string) (Result, error)
}
