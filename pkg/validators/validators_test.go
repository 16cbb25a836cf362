package validators

import (
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/angelmondragon/storefront-checkout/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAddress() types.Address {
	return types.Address{
		Recipient:  "Grace Hopper",
		Street:     "1 Navy Yard",
		City:       "Arlington",
		Region:     "VA",
		PostalCode: "22202",
		Country:    "US",
		Phone:      "+1 (703) 555-0100",
	}
}

func TestStructAcceptsValidAddress(t *testing.T) {
	require.NoError(t, Struct(pkgerrors.CodeInvalidAddress, validAddress()))
}

func TestStructReportsFieldDetails(t *testing.T) {
	addr := validAddress()
	addr.City = ""
	addr.Phone = "call me"
	addr.Country = "USA"

	err := Struct(pkgerrors.CodeInvalidAddress, addr)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInvalidAddress, typed.Code())

	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["city"])
	assert.Equal(t, "must be a valid phone number", details["phone"])
	assert.Equal(t, "must be exactly 2 characters", details["country"])
}

func TestVar(t *testing.T) {
	assert.NoError(t, Var(pkgerrors.CodeInvalidPayment, "cvv", "123", "numeric,len=3"))

	err := Var(pkgerrors.CodeInvalidPayment, "cvv", "12a", "numeric,len=3")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeInvalidPayment))
}

func TestLuhnValid(t *testing.T) {
	assert.True(t, LuhnValid("4242424242424242"))
	assert.True(t, LuhnValid("79927398713"))
	assert.False(t, LuhnValid("4242424242424241"))
	assert.False(t, LuhnValid("4242 4242 4242 4242"))
	assert.False(t, LuhnValid("0"))
}
