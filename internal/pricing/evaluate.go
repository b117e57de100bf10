package pricing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Places is the number of decimal places money is rounded to, once, at the end.
const Places = 2

var hundred = decimal.NewFromInt(100)

// DiscountKind records which mechanism produced the winning unit price.
type DiscountKind string

const (
	DiscountNone   DiscountKind = "none"
	DiscountTier   DiscountKind = "tier"
	DiscountVolume DiscountKind = "volume"
)

// Discount summarises the savings against the base price.
type Discount struct {
	Kind       DiscountKind    `json:"kind"`
	Percentage decimal.Decimal `json:"percentage"`
	Amount     decimal.Decimal `json:"amount"`
}

// Result is the outcome of pricing a quantity of one product.
type Result struct {
	BasePrice  decimal.Decimal `json:"basePrice"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Discount   Discount        `json:"discount"`
	TierLabel  string          `json:"tierLabel,omitempty"`
	RuleID     string          `json:"ruleId,omitempty"`
}

// Evaluator picks the best tier or volume discount for a quantity.
type Evaluator struct {
	// Now supplies the clock used for rule activity windows. Defaults to time.Now.
	Now func() time.Time
}

// Evaluate prices quantity units using the wall clock.
func Evaluate(basePrice decimal.Decimal, quantity int, tiers []Tier, rules []VolumeRule) (Result, error) {
	return Evaluator{}.Evaluate(basePrice, quantity, tiers, rules)
}

// Evaluate resolves the tier and the most specific active volume rule independently and
// keeps whichever yields the lower unit price. Tiers win exact ties.
func (e Evaluator) Evaluate(basePrice decimal.Decimal, quantity int, tiers []Tier, rules []VolumeRule) (Result, error) {
	if quantity <= 0 {
		return Result{}, fmt.Errorf("quantity must be positive, got %d: %w", quantity, ErrInvalidInput)
	}
	if !basePrice.IsPositive() {
		return Result{}, fmt.Errorf("base price must be positive, got %s: %w", basePrice, ErrInvalidInput)
	}
	if err := ValidateTiers(tiers); err != nil {
		return Result{}, err
	}
	rule, hasRule, err := SelectRule(rules, quantity, e.now())
	if err != nil {
		return Result{}, err
	}

	res := Result{BasePrice: basePrice, Quantity: quantity}
	unit := basePrice
	kind := DiscountNone

	if tier, ok := ResolveTier(tiers, quantity); ok {
		unit = tier.UnitPrice
		kind = DiscountTier
		res.TierLabel = tier.Label
	}
	if hasRule {
		candidate := rule.Apply(basePrice)
		if kind == DiscountNone || candidate.LessThan(unit) {
			unit = candidate
			kind = DiscountVolume
			res.TierLabel = ""
			res.RuleID = rule.ID
		}
	}
	if unit.IsNegative() {
		unit = decimal.Zero
	}

	res.UnitPrice = unit.Round(Places)
	qty := decimal.NewFromInt(int64(quantity))
	res.TotalPrice = res.UnitPrice.Mul(qty)
	res.Discount = discountFor(kind, basePrice, res.UnitPrice, qty)
	return res, nil
}

// SelectRule returns the active rule with the highest MinQuantity satisfied by quantity.
// Only candidates are validated. Two candidates sharing that threshold are a data-integrity error.
func SelectRule(rules []VolumeRule, quantity int, now time.Time) (VolumeRule, bool, error) {
	var (
		best  VolumeRule
		found bool
		tied  bool
	)
	for _, r := range rules {
		if !r.ActiveOn(now) || r.MinQuantity > quantity {
			continue
		}
		if err := r.Validate(); err != nil {
			return VolumeRule{}, false, err
		}
		switch {
		case !found || r.MinQuantity > best.MinQuantity:
			best, found, tied = r, true, false
		case r.MinQuantity == best.MinQuantity:
			tied = true
		}
	}
	if tied {
		return VolumeRule{}, false, fmt.Errorf("volume rules tie at min quantity %d: %w", best.MinQuantity, ErrDataIntegrity)
	}
	return best, found, nil
}

func discountFor(kind DiscountKind, base, unit, qty decimal.Decimal) Discount {
	d := Discount{Kind: kind, Percentage: decimal.Zero, Amount: decimal.Zero}
	if kind == DiscountNone {
		return d
	}
	saved := base.Sub(unit)
	if !saved.IsPositive() {
		return d
	}
	d.Amount = saved.Mul(qty)
	pct := d.Amount.Div(base.Mul(qty)).Mul(hundred)
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	d.Percentage = pct.Round(Places)
	return d
}

func (e Evaluator) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}
