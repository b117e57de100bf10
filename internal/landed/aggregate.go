package landed

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/landed-quote/internal/freight"
	"github.com/noah-isme/landed-quote/internal/pricing"
	"github.com/noah-isme/landed-quote/internal/tariff"
)

// Estimate is the buyer's estimated total cost at a quantity and destination.
//
// When Partial is set freight data was unavailable: FreightMidpoint and Total are zero and
// must not be presented as an estimate.
type Estimate struct {
	ProductCost      decimal.Decimal `json:"productCost"`
	FreightMidpoint  decimal.Decimal `json:"freightMidpoint"`
	EstimatedDuty    decimal.Decimal `json:"estimatedDuty"`
	Total            decimal.Decimal `json:"total"`
	Partial          bool            `json:"partial"`
	FreightAvailable bool            `json:"freightAvailable"`
	Classified       bool            `json:"classified"`
	TariffCode       string          `json:"tariffCode,omitempty"`
}

// Aggregate composes product cost, freight midpoint and duty. A nil freight estimate
// produces a partial result; a nil tariff means no classification is assigned.
func Aggregate(unitPrice decimal.Decimal, quantity int, est *freight.Estimate, info *tariff.Info) (Estimate, error) {
	if quantity <= 0 {
		return Estimate{}, fmt.Errorf("quantity must be positive, got %d: %w", quantity, pricing.ErrInvalidInput)
	}
	if unitPrice.IsNegative() {
		return Estimate{}, fmt.Errorf("unit price %s is negative: %w", unitPrice, pricing.ErrInvalidInput)
	}

	productCost := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	duty, err := tariff.ComputeDuty(productCost, info)
	if err != nil {
		return Estimate{}, err
	}

	out := Estimate{
		ProductCost:   productCost.Round(pricing.Places),
		EstimatedDuty: duty.Round(pricing.Places),
		Classified:    info != nil,
	}
	if info != nil {
		out.TariffCode = info.Code
	}

	if est == nil {
		out.Partial = true
		return out, nil
	}
	if err := est.ValidateRange(); err != nil {
		return Estimate{}, err
	}
	out.FreightAvailable = true
	out.FreightMidpoint = est.Midpoint().Round(pricing.Places)
	out.Total = out.ProductCost.Add(out.FreightMidpoint).Add(out.EstimatedDuty)
	return out, nil
}
