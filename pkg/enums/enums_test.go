package enums

import "testing"

func TestParseCheckoutStep(t *testing.T) {
	step, err := ParseCheckoutStep("awaiting_payment")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if step != CheckoutStepAwaitingPayment {
		t.Fatalf("unexpected step %s", step)
	}
	if _, err := ParseCheckoutStep("shipping"); err == nil {
		t.Fatal("expected error for unknown step")
	}
	if !CheckoutStepCommitted.IsTerminal() || CheckoutStepAwaitingAddress.IsTerminal() {
		t.Fatal("only committed is terminal")
	}
}

func TestOrderStatusValues(t *testing.T) {
	for _, raw := range []string{"Processing", "Shipped", "Delivered", "Cancelled"} {
		status, err := ParseOrderStatus(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if !status.IsValid() {
			t.Fatalf("%q should be valid", raw)
		}
	}
	if OrderStatus("processing").IsValid() {
		t.Fatal("status parsing is case sensitive")
	}
}

func TestPaymentMethodTypeValues(t *testing.T) {
	if _, err := ParsePaymentMethodType("cash_on_delivery"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if PaymentMethodType("ach").IsValid() {
		t.Fatal("ach is not offered at checkout")
	}
}
