package tariff

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/landed-quote/internal/pricing"
)

// Info is the classification assigned to a product for one destination. Rates are
// fractions: 0.05 means 5%.
type Info struct {
	Code            string           `json:"code"`
	Description     string           `json:"description"`
	GeneralRate     decimal.Decimal  `json:"generalRate"`
	DestinationRate *decimal.Decimal `json:"destinationRate,omitempty"`
	TradeAgreement  string           `json:"tradeAgreement,omitempty"`
}

// EffectiveRate prefers the destination (preferential) rate over the general rate.
// A nil info has a zero rate.
func EffectiveRate(info *Info) decimal.Decimal {
	if info == nil {
		return decimal.Zero
	}
	if info.DestinationRate != nil {
		return *info.DestinationRate
	}
	return info.GeneralRate
}

// Preferential reports whether the destination rate is in effect.
func (i *Info) Preferential() bool {
	return i != nil && i.DestinationRate != nil
}

// ComputeDuty returns price × EffectiveRate(info), unrounded. A nil info yields zero; callers
// tell "unclassified" apart from "0% rate" by the nil check, not the amount.
func ComputeDuty(price decimal.Decimal, info *Info) (decimal.Decimal, error) {
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("dutiable value %s is negative: %w", price, pricing.ErrInvalidInput)
	}
	if info == nil {
		return decimal.Zero, nil
	}
	if info.GeneralRate.IsNegative() || (info.DestinationRate != nil && info.DestinationRate.IsNegative()) {
		return decimal.Zero, fmt.Errorf("tariff %s has a negative rate: %w", info.Code, pricing.ErrDataIntegrity)
	}
	return price.Mul(EffectiveRate(info)), nil
}

// NormalizeCode strips separators from an HTS code and checks it carries 6 to 10 digits.
func NormalizeCode(code string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(code) {
		switch {
		case r == '.' || r == ' ' || r == '-':
			continue
		case unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			return "", fmt.Errorf("hts code %q contains %q: %w", code, r, pricing.ErrInvalidInput)
		}
	}
	digits := b.String()
	if len(digits) < 6 || len(digits) > 10 {
		return "", fmt.Errorf("hts code %q must have 6-10 digits: %w", code, pricing.ErrInvalidInput)
	}
	return digits, nil
}
