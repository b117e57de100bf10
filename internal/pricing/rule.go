package pricing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Scope names what a volume rule is attached to.
type Scope string

const (
	ScopeProduct  Scope = "product"
	ScopeCategory Scope = "category"
	ScopeSupplier Scope = "supplier"
)

// DiscountType selects how DiscountValue is applied to the base price.
type DiscountType string

const (
	// DiscountPercentage takes DiscountValue percent off the base price (5 = 5%).
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixedAmount subtracts DiscountValue from the base unit price.
	DiscountFixedAmount DiscountType = "fixed_amount"
)

// VolumeRule is a discount that activates once the order quantity crosses MinQuantity.
type VolumeRule struct {
	ID            string          `json:"id"`
	Scope         Scope           `json:"scope"`
	ScopeID       uuid.UUID       `json:"scopeId"`
	MinQuantity   int             `json:"minQuantity"`
	DiscountType  DiscountType    `json:"discountType"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	StartDate     time.Time       `json:"startDate"`
	EndDate       *time.Time      `json:"endDate,omitempty"`
}

// Target identifies the product a set of rules is being matched against.
type Target struct {
	ProductID  uuid.UUID
	CategoryID uuid.UUID
	SupplierID uuid.UUID
}

// ActiveOn reports whether the rule window covers the calendar day of now (UTC).
func (r VolumeRule) ActiveOn(now time.Time) bool {
	today := day(now)
	if today.Before(day(r.StartDate)) {
		return false
	}
	if r.EndDate != nil && today.After(day(*r.EndDate)) {
		return false
	}
	return true
}

// Matches reports whether the rule scope applies to the target.
func (r VolumeRule) Matches(t Target) bool {
	switch r.Scope {
	case ScopeProduct:
		return r.ScopeID == t.ProductID
	case ScopeCategory:
		return r.ScopeID == t.CategoryID
	case ScopeSupplier:
		return r.ScopeID == t.SupplierID
	default:
		return false
	}
}

// Validate reports malformed rules as data-integrity errors.
func (r VolumeRule) Validate() error {
	if r.DiscountValue.IsNegative() {
		return fmt.Errorf("volume rule %s: negative discount value: %w", r.ID, ErrDataIntegrity)
	}
	if r.DiscountType != DiscountPercentage && r.DiscountType != DiscountFixedAmount {
		return fmt.Errorf("volume rule %s: unknown discount type %q: %w", r.ID, r.DiscountType, ErrDataIntegrity)
	}
	if r.EndDate != nil && day(*r.EndDate).Before(day(r.StartDate)) {
		return fmt.Errorf("volume rule %s: end date before start date: %w", r.ID, ErrDataIntegrity)
	}
	return nil
}

// Apply computes the discounted unit price from base. The result is never negative.
func (r VolumeRule) Apply(base decimal.Decimal) decimal.Decimal {
	var price decimal.Decimal
	switch r.DiscountType {
	case DiscountPercentage:
		off := base.Mul(r.DiscountValue).Div(hundred)
		price = base.Sub(off)
	case DiscountFixedAmount:
		price = base.Sub(r.DiscountValue)
	default:
		price = base
	}
	if price.IsNegative() {
		return decimal.Zero
	}
	return price
}

// MatchScope keeps the rules whose scope applies to the target.
func MatchScope(rules []VolumeRule, t Target) []VolumeRule {
	out := make([]VolumeRule, 0, len(rules))
	for _, r := range rules {
		if r.Matches(t) {
			out = append(out, r)
		}
	}
	return out
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
