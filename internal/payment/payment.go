package payment

import (
	"context"
	"fmt"
	"net/url"

	"shopcore-be/internal/apperr"
	"shopcore-be/internal/logger"

	"go.uber.org/zap"
)

// Method is the closed set of supported payment channels. Anything else is
// rejected up front; there is no default branch anywhere that handles an
// unknown method.
type Method string

const (
	MethodAlipay  Method = "alipay"
	MethodWechat  Method = "wechat"
	MethodBalance Method = "balance"
)

func (m Method) Valid() bool {
	switch m {
	case MethodAlipay, MethodWechat, MethodBalance:
		return true
	}
	return false
}

var ErrUnknownMethod = apperr.Validation("unknown payment method")

// Params is what the client needs to start a payment on the chosen channel.
// Exactly one of RedirectURL / QRPayload is set for the external channels;
// balance payments carry neither and settle internally.
type Params struct {
	Method      Method `json:"method"`
	OrderSN     string `json:"order_sn"`
	Amount      int64  `json:"amount"`
	RedirectURL string `json:"redirect_url,omitempty"`
	QRPayload   string `json:"qr_payload,omitempty"`
}

type Service interface {
	Generate(ctx context.Context, orderSN string, amount int64, method Method) (*Params, error)
}

type service struct {
	gatewayBase string
}

// NewService builds a parameter generator. gatewayBase is the external
// gateway endpoint payments redirect through.
func NewService(gatewayBase string) Service {
	return &service{gatewayBase: gatewayBase}
}

func (s *service) Generate(ctx context.Context, orderSN string, amount int64, method Method) (*Params, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "payment.Generate"),
		zap.String("order_sn", orderSN),
		zap.String("pay_method", string(method)),
	)

	if orderSN == "" {
		return nil, apperr.Validation("order serial is required")
	}
	if amount <= 0 {
		return nil, apperr.Validation("amount must be positive")
	}

	p := &Params{Method: method, OrderSN: orderSN, Amount: amount}
	switch method {
	case MethodAlipay:
		p.RedirectURL = fmt.Sprintf("%s/alipay/pay?out_trade_no=%s&amount=%d",
			s.gatewayBase, url.QueryEscape(orderSN), amount)
	case MethodWechat:
		p.QRPayload = fmt.Sprintf("weixin://wxpay/bizpayurl?sn=%s&fee=%d", orderSN, amount)
	case MethodBalance:
		// settles against the internal ledger; nothing external to launch
	default:
		return nil, ErrUnknownMethod
	}

	log.Info("payment params generated")
	return p, nil
}
