package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/landed-quote/internal/pricing"
)

const selectTiers = `
SELECT min_quantity, max_quantity, unit_price::text, label
FROM pricing_tiers
WHERE product_id = $1
ORDER BY min_quantity`

// Tiers reads per-product pricing tiers.
type Tiers struct {
	DB DB
}

// Tiers implements quote.TierStore. A product without tiers yields an empty slice.
func (t Tiers) Tiers(ctx context.Context, productID uuid.UUID) ([]pricing.Tier, error) {
	rows, err := t.DB.Query(ctx, selectTiers, productID)
	if err != nil {
		return nil, fmt.Errorf("select tiers %s: %w", productID, err)
	}
	defer rows.Close()

	out := []pricing.Tier{}
	for rows.Next() {
		var (
			tier  pricing.Tier
			price string
		)
		if err := rows.Scan(&tier.MinQuantity, &tier.MaxQuantity, &price, &tier.Label); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		if tier.UnitPrice, err = parseDecimal("unit_price", price); err != nil {
			return nil, err
		}
		out = append(out, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tiers: %w", err)
	}
	return out, nil
}
