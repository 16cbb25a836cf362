package enums

import "fmt"

// CheckoutStep tracks where a checkout session sits in the address -> payment -> commit flow.
type CheckoutStep string

const (
	CheckoutStepAwaitingAddress CheckoutStep = "awaiting_address"
	CheckoutStepAwaitingPayment CheckoutStep = "awaiting_payment"
	CheckoutStepCommitted       CheckoutStep = "committed"
)

var validCheckoutSteps = []CheckoutStep{
	CheckoutStepAwaitingAddress,
	CheckoutStepAwaitingPayment,
	CheckoutStepCommitted,
}

// String implements fmt.Stringer.
func (c CheckoutStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutStep.
func (c CheckoutStep) IsValid() bool {
	for _, candidate := range validCheckoutSteps {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the step.
func (c CheckoutStep) IsTerminal() bool {
	return c == CheckoutStepCommitted
}

// ParseCheckoutStep converts raw input into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for _, candidate := range validCheckoutSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout step %q", value)
}
