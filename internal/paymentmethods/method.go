package paymentmethods

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-checkout/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/validators"
)

// Method is a payment option chosen at checkout. Each variant validates its
// own fields.
type Method interface {
	Kind() enums.PaymentMethodType
	// Validate returns a CodeInvalidPayment error describing every bad field.
	Validate(now time.Time) error
	// Describe renders the method for confirmations without exposing secrets.
	Describe() string
}

// Card is a credit or debit card entered by the shopper.
type Card struct {
	Holder   string `json:"holder" validate:"required,max=100"`
	Number   string `json:"number" validate:"required,numeric,min=12,max=19,luhn"`
	ExpMonth int    `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear  int    `json:"exp_year" validate:"required,min=2000,max=2999"`
	CVV      string `json:"cvv" validate:"required,numeric,min=3,max=4"`
}

func (Card) Kind() enums.PaymentMethodType {
	return enums.PaymentMethodTypeCard
}

func (c Card) Validate(now time.Time) error {
	normalized := c.normalized()
	if err := validators.Struct(pkgerrors.CodeInvalidPayment, normalized); err != nil {
		return err
	}
	if normalized.expired(now) {
		return pkgerrors.New(pkgerrors.CodeInvalidPayment, "validation failed").
			WithDetails(map[string]string{"exp_year": "card has expired"})
	}
	return nil
}

func (c Card) Describe() string {
	number := c.normalized().Number
	last4 := number
	if len(number) > 4 {
		last4 = number[len(number)-4:]
	}
	return fmt.Sprintf("card ending %s", last4)
}

func (c Card) normalized() Card {
	out := c
	out.Holder = strings.TrimSpace(c.Holder)
	out.Number = strings.NewReplacer(" ", "", "-", "").Replace(c.Number)
	out.CVV = strings.TrimSpace(c.CVV)
	return out
}

// expired reports whether the card's expiry month has fully passed.
func (c Card) expired(now time.Time) bool {
	year, month, _ := now.Date()
	if c.ExpYear != year {
		return c.ExpYear < year
	}
	return c.ExpMonth < int(month)
}

// CashOnDelivery settles with the courier and needs no details.
type CashOnDelivery struct{}

func (CashOnDelivery) Kind() enums.PaymentMethodType {
	return enums.PaymentMethodTypeCashOnDelivery
}

func (CashOnDelivery) Validate(time.Time) error {
	return nil
}

func (CashOnDelivery) Describe() string {
	return "cash on delivery"
}

// Wallet is a third-party wallet account such as PayPal or a UPI handle.
type Wallet struct {
	Provider string `json:"provider" validate:"required,oneof=paypal apple_pay google_pay upi"`
	Account  string `json:"account" validate:"required,max=120"`
}

func (Wallet) Kind() enums.PaymentMethodType {
	return enums.PaymentMethodTypeWallet
}

func (w Wallet) Validate(time.Time) error {
	normalized := Wallet{
		Provider: strings.ToLower(strings.TrimSpace(w.Provider)),
		Account:  strings.TrimSpace(w.Account),
	}
	return validators.Struct(pkgerrors.CodeInvalidPayment, normalized)
}

func (w Wallet) Describe() string {
	return fmt.Sprintf("%s wallet", strings.ToLower(strings.TrimSpace(w.Provider)))
}

// IsValid reports whether m is present and passes validation.
func IsValid(m Method, now time.Time) bool {
	return m != nil && m.Validate(now) == nil
}
