package vouchers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/money"
	"github.com/shopspring/decimal"
)

// Kind selects how a voucher discounts.
type Kind string

const (
	KindPercent Kind = "percent"
	KindFixed   Kind = "fixed"
)

// Voucher is a code redeemable at checkout.
type Voucher struct {
	Code        string
	Kind        Kind
	Percent     decimal.Decimal
	AmountCents int64
}

// Discount is the voucher's value against subtotal, unrounded. Fixed
// vouchers are not capped; the order summary floors the total at zero.
func (v Voucher) Discount(subtotal decimal.Decimal) decimal.Decimal {
	switch v.Kind {
	case KindPercent:
		return money.Percent(subtotal, v.Percent)
	case KindFixed:
		return money.FromCents(v.AmountCents)
	default:
		return decimal.Zero
	}
}

// Registry resolves voucher codes case-insensitively.
type Registry struct {
	byCode map[string]Voucher
}

// ParseSpecs builds a registry from entries such as "SAVE10:percent:10" or
// "FIVEOFF:fixed:500" (fixed amounts in cents).
func ParseSpecs(specs []string) (*Registry, error) {
	registry := &Registry{byCode: map[string]Voucher{}}
	for _, raw := range specs {
		spec := strings.TrimSpace(raw)
		if spec == "" {
			continue
		}
		v, err := parseSpec(spec)
		if err != nil {
			return nil, err
		}
		key := normalizeCode(v.Code)
		if _, dup := registry.byCode[key]; dup {
			return nil, fmt.Errorf("voucher %q defined more than once", v.Code)
		}
		registry.byCode[key] = v
	}
	return registry, nil
}

func parseSpec(spec string) (Voucher, error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return Voucher{}, fmt.Errorf("voucher %q: want CODE:kind:value", spec)
	}
	code := strings.TrimSpace(parts[0])
	if code == "" {
		return Voucher{}, fmt.Errorf("voucher %q: code is empty", spec)
	}
	value := strings.TrimSpace(parts[2])
	switch Kind(strings.ToLower(strings.TrimSpace(parts[1]))) {
	case KindPercent:
		pct, err := decimal.NewFromString(value)
		if err != nil {
			return Voucher{}, fmt.Errorf("voucher %q: percent: %w", spec, err)
		}
		if !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return Voucher{}, fmt.Errorf("voucher %q: percent must be within (0, 100]", spec)
		}
		return Voucher{Code: code, Kind: KindPercent, Percent: pct}, nil
	case KindFixed:
		cents, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return Voucher{}, fmt.Errorf("voucher %q: amount: %w", spec, err)
		}
		if cents <= 0 {
			return Voucher{}, fmt.Errorf("voucher %q: amount must be positive", spec)
		}
		return Voucher{Code: code, Kind: KindFixed, AmountCents: cents}, nil
	default:
		return Voucher{}, fmt.Errorf("voucher %q: kind must be percent or fixed", spec)
	}
}

// Lookup resolves code. Unknown codes fail with CodeValidation.
func (r *Registry) Lookup(code string) (Voucher, error) {
	key := normalizeCode(code)
	if r != nil {
		if v, ok := r.byCode[key]; ok {
			return v, nil
		}
	}
	return Voucher{}, pkgerrors.New(pkgerrors.CodeValidation, "voucher not recognized").
		WithDetails(map[string]string{"voucher_code": "is not recognized"})
}

// Codes lists the registered codes in sorted order.
func (r *Registry) Codes() []string {
	if r == nil {
		return nil
	}
	codes := make([]string, 0, len(r.byCode))
	for _, v := range r.byCode {
		codes = append(codes, v.Code)
	}
	sort.Strings(codes)
	return codes
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
