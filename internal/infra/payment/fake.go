package payment

import (
	"context"
	"net/url"
	"sync"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"oliveshop/internal/domain/payment"
)

// ローカル用。決済ページURLがそのままコールバックを指す
type Fake struct {
	mu       sync.Mutex
	sessions map[string]fakeSession
	outcome  payment.Status
}

type fakeSession struct {
	req    payment.CheckoutRequest
	status payment.Status
}

var _ payment.Provider = (*Fake)(nil)

// 全部承認する
func NewFake() *Fake {
	return &Fake{sessions: map[string]fakeSession{}, outcome: payment.StatusSuccess}
}

// 以降に作るセッションの結果
func (f *Fake) SetOutcome(s payment.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcome = s
}

func (f *Fake) Decide(token string, s payment.Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if sess, ok := f.sessions[token]; ok {
		sess.status = s
		f.sessions[token] = sess
	}
}

func (f *Fake) InitCheckout(_ context.Context, req payment.CheckoutRequest) (payment.Session, error) {
	if req.Amount < 0 {
		return payment.Session{}, errors.New("negative amount")
	}
	token := uuid.NewString()

	f.mu.Lock()
	f.sessions[token] = fakeSession{req: req, status: f.outcome}
	f.mu.Unlock()

	pageURL := req.CallbackURL
	if u, err := url.Parse(req.CallbackURL); err == nil {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
		pageURL = u.String()
	}
	return payment.Session{Token: token, PaymentPageURL: pageURL}, nil
}

func (f *Fake) Verify(_ context.Context, token string) (payment.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sess, ok := f.sessions[token]
	if !ok {
		return payment.Result{Status: payment.StatusFailure, ErrorCode: "INVALID_TOKEN"}, nil
	}
	res := payment.Result{
		Status:         sess.status,
		ConversationID: sess.req.ConversationID,
		PaymentStatus:  "FAILURE",
	}
	if sess.status == payment.StatusSuccess {
		res.PaymentStatus = "SUCCESS"
		res.PaymentID = "fake-" + token[:8]
	}
	return res, nil
}
