package pricing

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// Tier is a quantity range with a flat unit price. A nil MaxQuantity is unbounded.
type Tier struct {
	MinQuantity int             `json:"minQuantity"`
	MaxQuantity *int            `json:"maxQuantity,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Label       string          `json:"label"`
}

// Contains reports whether quantity falls inside the tier range.
func (t Tier) Contains(quantity int) bool {
	if quantity < t.MinQuantity {
		return false
	}
	return t.MaxQuantity == nil || quantity <= *t.MaxQuantity
}

func (t Tier) upper() int {
	if t.MaxQuantity == nil {
		return int(^uint(0) >> 1)
	}
	return *t.MaxQuantity
}

// ResolveTier returns the tier whose range contains quantity. When malformed input has
// overlapping ranges the matching tier with the highest MinQuantity wins, then the lower
// unit price, then the earlier entry.
func ResolveTier(tiers []Tier, quantity int) (Tier, bool) {
	var (
		best  Tier
		found bool
	)
	for _, t := range tiers {
		if !t.Contains(quantity) {
			continue
		}
		if !found ||
			t.MinQuantity > best.MinQuantity ||
			(t.MinQuantity == best.MinQuantity && t.UnitPrice.LessThan(best.UnitPrice)) {
			best = t
			found = true
		}
	}
	return best, found
}

// ValidateTiers checks a product's tier table. Broken ranges are input errors; overlaps
// and prices that rise with quantity are data-integrity errors.
func ValidateTiers(tiers []Tier) error {
	for _, t := range tiers {
		if t.MinQuantity < 0 {
			return fmt.Errorf("tier %q: negative min quantity %d: %w", t.Label, t.MinQuantity, ErrInvalidInput)
		}
		if t.MaxQuantity != nil && *t.MaxQuantity < t.MinQuantity {
			return fmt.Errorf("tier %q: max quantity %d below min %d: %w", t.Label, *t.MaxQuantity, t.MinQuantity, ErrInvalidInput)
		}
		if t.UnitPrice.IsNegative() {
			return fmt.Errorf("tier %q: negative unit price: %w", t.Label, ErrInvalidInput)
		}
	}
	if len(tiers) < 2 {
		return nil
	}

	sorted := make([]Tier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MinQuantity < sorted[j].MinQuantity })

	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.MinQuantity <= prev.upper() {
			return fmt.Errorf("tiers %q and %q overlap: %w", prev.Label, cur.Label, ErrDataIntegrity)
		}
		if cur.UnitPrice.GreaterThan(prev.UnitPrice) {
			return fmt.Errorf("tier %q priced above lower tier %q: %w", cur.Label, prev.Label, ErrDataIntegrity)
		}
	}
	return nil
}
