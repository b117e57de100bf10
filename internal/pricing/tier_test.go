package pricing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleTiers() []Tier {
	return []Tier{
		{MinQuantity: 1, MaxQuantity: intPtr(9), UnitPrice: dec("100"), Label: "retail"},
		{MinQuantity: 10, MaxQuantity: intPtr(99), UnitPrice: dec("90"), Label: "wholesale"},
		{MinQuantity: 100, UnitPrice: dec("80"), Label: "bulk"},
	}
}

func TestResolveTier(t *testing.T) {
	tests := []struct {
		name     string
		tiers    []Tier
		quantity int
		want     string
		found    bool
	}{
		{name: "empty", tiers: nil, quantity: 5},
		{name: "lower bound", tiers: sampleTiers(), quantity: 10, want: "wholesale", found: true},
		{name: "upper bound", tiers: sampleTiers(), quantity: 99, want: "wholesale", found: true},
		{name: "unbounded", tiers: sampleTiers(), quantity: 1_000_000, want: "bulk", found: true},
		{name: "below lowest", tiers: sampleTiers()[1:], quantity: 3},
		{
			name: "overlap picks highest min",
			tiers: []Tier{
				{MinQuantity: 50, UnitPrice: dec("70"), Label: "late"},
				{MinQuantity: 1, MaxQuantity: intPtr(500), UnitPrice: dec("60"), Label: "wide"},
			},
			quantity: 60, want: "late", found: true,
		},
		{
			name: "same min picks cheaper",
			tiers: []Tier{
				{MinQuantity: 10, UnitPrice: dec("9"), Label: "a"},
				{MinQuantity: 10, UnitPrice: dec("8"), Label: "b"},
			},
			quantity: 10, want: "b", found: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tier, ok := ResolveTier(tc.tiers, tc.quantity)
			require.Equal(t, tc.found, ok)
			require.Equal(t, tc.want, tier.Label)
		})
	}
}

func TestValidateTiers(t *testing.T) {
	require.NoError(t, ValidateTiers(nil))
	require.NoError(t, ValidateTiers(sampleTiers()))

	inverted := []Tier{{MinQuantity: 10, MaxQuantity: intPtr(5), UnitPrice: dec("1")}}
	require.True(t, errors.Is(ValidateTiers(inverted), ErrInvalidInput))

	negative := []Tier{{MinQuantity: 1, UnitPrice: dec("-1")}}
	require.ErrorIs(t, ValidateTiers(negative), ErrInvalidInput)

	overlap := []Tier{
		{MinQuantity: 1, MaxQuantity: intPtr(20), UnitPrice: dec("10")},
		{MinQuantity: 20, UnitPrice: dec("9")},
	}
	require.ErrorIs(t, ValidateTiers(overlap), ErrDataIntegrity)

	rising := []Tier{
		{MinQuantity: 1, MaxQuantity: intPtr(9), UnitPrice: dec("10")},
		{MinQuantity: 10, UnitPrice: dec("11")},
	}
	require.ErrorIs(t, ValidateTiers(rising), ErrDataIntegrity)
}
