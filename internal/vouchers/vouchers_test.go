package vouchers

import (
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-checkout/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecsAndLookup(t *testing.T) {
	registry, err := ParseSpecs([]string{"SAVE10:percent:10", " fiveoff:FIXED:500 ", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"SAVE10", "fiveoff"}, registry.Codes())

	save, err := registry.Lookup("save10")
	require.NoError(t, err)
	assert.Equal(t, KindPercent, save.Kind)
	assert.True(t, save.Discount(decimal.NewFromInt(25)).Equal(decimal.RequireFromString("2.5")))

	five, err := registry.Lookup("FIVEOFF")
	require.NoError(t, err)
	assert.True(t, five.Discount(decimal.NewFromInt(1)).Equal(decimal.NewFromInt(5)))

	_, err = registry.Lookup("NOPE")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestPercentVoucherStaysUnrounded(t *testing.T) {
	v := Voucher{Kind: KindPercent, Percent: decimal.RequireFromString("12.5")}
	// 12.5% of 0.99 = 0.12375
	assert.True(t, v.Discount(decimal.RequireFromString("0.99")).Equal(decimal.RequireFromString("0.12375")))
}

func TestParseSpecsRejectsMalformed(t *testing.T) {
	for _, spec := range []string{
		"SAVE10",
		"SAVE10:percent",
		":percent:10",
		"SAVE10:bogo:1",
		"SAVE10:percent:abc",
		"SAVE10:percent:0",
		"SAVE10:percent:150",
		"FIVE:fixed:-5",
		"FIVE:fixed:4.5",
	} {
		_, err := ParseSpecs([]string{spec})
		assert.Error(t, err, spec)
	}

	_, err := ParseSpecs([]string{"A:fixed:1", "a:fixed:2"})
	assert.Error(t, err)
}

func TestNilRegistry(t *testing.T) {
	var registry *Registry
	_, err := registry.Lookup("X")
	assert.Error(t, err)
	assert.Empty(t, registry.Codes())
}
