package payment

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"oliveshop/internal/domain/money"
	"oliveshop/internal/domain/payment"
)

const maxResponseBytes = 1 << 20

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// 決済フォームAPIのクライアント
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ payment.Provider = (*Client)(nil)

func NewClient(cfg Config) *Client {
	var opts []otelhttp.Option
	if cfg.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(cfg.TracerProvider))
	}
	if cfg.MeterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(cfg.MeterProvider))
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport, opts...),
		},
	}
}

// 決済フォームのセッションを作る
func (c *Client) InitCheckout(ctx context.Context, req payment.CheckoutRequest) (payment.Session, error) {
	body := encodeCheckoutRequest(req)

	raw, err := c.post(ctx, "/checkout/initialize", body)
	if err != nil {
		return payment.Session{}, errors.Wrap(err, "initialize checkout")
	}

	resp, err := decodeResponse(raw)
	if err != nil {
		return payment.Session{}, errors.Wrap(err, "decode initialize response")
	}
	if resp.Status != string(payment.StatusSuccess) {
		return payment.Session{}, errors.Errorf("initialize checkout rejected: %s", resp.ErrorCode)
	}
	if resp.Token == "" {
		return payment.Session{}, errors.New("initialize checkout: empty token")
	}
	return payment.Session{Token: resp.Token, PaymentPageURL: resp.PaymentPageURL}, nil
}

// トークンの結果を照会する。通信エラーはerror、拒否はStatusFailure
func (c *Client) Verify(ctx context.Context, token string) (payment.Result, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	e.ObjStart()
	e.FieldStart("token")
	e.Str(token)
	e.ObjEnd()
	body := append([]byte(nil), e.Bytes()...)

	raw, err := c.post(ctx, "/checkout/retrieve", body)
	if err != nil {
		return payment.Result{}, errors.Wrap(err, "retrieve checkout")
	}

	resp, err := decodeResponse(raw)
	if err != nil {
		return payment.Result{}, errors.Wrap(err, "decode retrieve response")
	}

	res := payment.Result{
		Status:         payment.StatusFailure,
		PaymentStatus:  resp.PaymentStatus,
		PaymentID:      resp.PaymentID,
		ConversationID: resp.ConversationID,
		ErrorCode:      resp.ErrorCode,
	}
	if resp.Status == string(payment.StatusSuccess) && strings.EqualFold(resp.PaymentStatus, "SUCCESS") {
		res.Status = payment.StatusSuccess
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "apikey "+c.apiKey)

	res, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "send request")
	}
	defer func() { _ = res.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.Wrap(err, "read response")
	}
	if res.StatusCode/100 != 2 {
		return nil, errors.Errorf("unexpected status %d", res.StatusCode)
	}
	return raw, nil
}

func encodeCheckoutRequest(req payment.CheckoutRequest) []byte {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	price := money.ToMajorUnits(req.Amount).StringFixed(2)

	e.ObjStart()
	e.FieldStart("conversationId")
	e.Str(req.ConversationID)
	e.FieldStart("price")
	e.Str(price)
	e.FieldStart("paidPrice")
	e.Str(price)
	e.FieldStart("currency")
	e.Str(req.Currency)
	e.FieldStart("callbackUrl")
	e.Str(req.CallbackURL)

	e.FieldStart("buyer")
	e.ObjStart()
	e.FieldStart("id")
	e.Str(req.Buyer.ID)
	e.FieldStart("name")
	e.Str(req.Buyer.Name)
	e.FieldStart("email")
	e.Str(req.Buyer.Email)
	e.FieldStart("gsmNumber")
	e.Str(req.Buyer.Phone)
	e.FieldStart("city")
	e.Str(req.Buyer.City)
	e.FieldStart("registrationAddress")
	e.Str(req.Buyer.Address)
	e.ObjEnd()

	e.FieldStart("basketItems")
	e.ArrStart()
	for _, it := range req.Basket {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		e.Str(money.ToMajorUnits(it.Price).StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()

	return append([]byte(nil), e.Bytes()...)
}

type providerResponse struct {
	Status         string
	ErrorCode      string
	Token          string
	PaymentPageURL string
	PaymentStatus  string
	PaymentID      string
	ConversationID string
}

func decodeResponse(raw []byte) (providerResponse, error) {
	var out providerResponse
	d := jx.DecodeBytes(raw)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var target *string
		switch key {
		case "status":
			target = &out.Status
		case "errorCode":
			target = &out.ErrorCode
		case "token":
			target = &out.Token
		case "paymentPageUrl":
			target = &out.PaymentPageURL
		case "paymentStatus":
			target = &out.PaymentStatus
		case "paymentId":
			target = &out.PaymentID
		case "conversationId":
			target = &out.ConversationID
		default:
			return d.Skip()
		}
		v, err := readString(d)
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		*target = v
		return nil
	})
	if err != nil {
		return providerResponse{}, err
	}
	return out, nil
}

// 文字列/数値/nullを受ける
func readString(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.Null:
		return "", d.Null()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return d.Str()
	}
}
