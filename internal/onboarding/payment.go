package onboarding

import (
	"fmt"

	"github.com/ebrhq/backoffice/internal/validate"
)

// Payment is either a CardPayment or a MobileMoneyPayment.
type Payment interface {
	method() string
}

// CardPayment holds raw card input; the number may contain spaces.
type CardPayment struct {
	Number string `json:"card_number"`
	Holder string `json:"card_holder"`
	Expiry string `json:"expiry_date"`
	CVV    string `json:"cvv"`
}

func (CardPayment) method() string { return "card" }

// MobileMoneyPayment is a mobile wallet charge.
type MobileMoneyPayment struct {
	Phone    string `json:"phone_number"`
	Provider string `json:"provider"`
}

func (MobileMoneyPayment) method() string { return "mobile_money" }

// Method names the payment type ("card" or "mobile_money").
func Method(p Payment) string {
	if p == nil {
		return ""
	}
	return p.method()
}

// checkPayment validates p and returns the form name used for metrics.
func checkPayment(p Payment) (string, error) {
	switch p := p.(type) {
	case CardPayment:
		return "card", validate.Card(validate.CardForm{
			Number: p.Number,
			Holder: p.Holder,
			Expiry: p.Expiry,
			CVV:    p.CVV,
		})
	case MobileMoneyPayment:
		return "mobile_money", validate.MobileMoney(validate.MobileMoneyForm{
			Phone:    p.Phone,
			Provider: p.Provider,
		})
	default:
		return "", fmt.Errorf("%w: %T", ErrUnknownPayment, p)
	}
}
