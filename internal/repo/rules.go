package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/landed-quote/internal/pricing"
)

const selectRules = `
SELECT id, scope, scope_id, min_quantity, discount_type, discount_value::text, start_date, end_date
FROM volume_discount_rules
WHERE (scope = 'product' AND scope_id = $1)
   OR (scope = 'category' AND scope_id = $2)
   OR (scope = 'supplier' AND scope_id = $3)
ORDER BY min_quantity DESC, id`

// Rules reads volume discount rules.
type Rules struct {
	DB DB
}

// Rules implements quote.VolumeRuleStore, returning every rule scoped to the product, its
// category or its supplier regardless of activity window.
func (r Rules) Rules(ctx context.Context, target pricing.Target) ([]pricing.VolumeRule, error) {
	rows, err := r.DB.Query(ctx, selectRules, target.ProductID, target.CategoryID, target.SupplierID)
	if err != nil {
		return nil, fmt.Errorf("select volume rules: %w", err)
	}
	defer rows.Close()

	out := []pricing.VolumeRule{}
	for rows.Next() {
		var (
			id    uuid.UUID
			rule  pricing.VolumeRule
			scope string
			kind  string
			value string
			end   *time.Time
		)
		if err := rows.Scan(&id, &scope, &rule.ScopeID, &rule.MinQuantity, &kind, &value, &rule.StartDate, &end); err != nil {
			return nil, fmt.Errorf("scan volume rule: %w", err)
		}
		rule.ID = id.String()
		rule.Scope = pricing.Scope(scope)
		rule.DiscountType = pricing.DiscountType(kind)
		rule.EndDate = end
		if rule.DiscountValue, err = parseDecimal("discount_value", value); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate volume rules: %w", err)
	}
	return out, nil
}
