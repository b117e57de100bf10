package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/landed-quote/internal/freight"
	"github.com/noah-isme/landed-quote/internal/pricing"
	"github.com/noah-isme/landed-quote/internal/quote"
	"github.com/noah-isme/landed-quote/internal/tariff"
)

// Supplier is a reference supplier row.
type Supplier struct {
	ID            uuid.UUID
	Name          string
	OriginCountry string
}

// Category is a reference category row.
type Category struct {
	ID   uuid.UUID
	Name string
}

// Writer upserts reference data. Callers run it inside a transaction when several
// tables must change together.
type Writer struct {
	DB DB
}

// UpsertSupplier inserts or updates a supplier.
func (w Writer) UpsertSupplier(ctx context.Context, s Supplier) error {
	_, err := w.DB.Exec(ctx, `
INSERT INTO suppliers (id, name, origin_country) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, origin_country = EXCLUDED.origin_country`,
		s.ID, s.Name, freight.NormalizeCountry(s.OriginCountry))
	if err != nil {
		return fmt.Errorf("upsert supplier %s: %w", s.ID, err)
	}
	return nil
}

// UpsertCategory inserts or renames a category.
func (w Writer) UpsertCategory(ctx context.Context, c Category) error {
	_, err := w.DB.Exec(ctx, `
INSERT INTO categories (id, name) VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, c.ID, c.Name)
	if err != nil {
		return fmt.Errorf("upsert category %s: %w", c.ID, err)
	}
	return nil
}

// UpsertProduct inserts or updates a product. Category is taken from CategoryID.
func (w Writer) UpsertProduct(ctx context.Context, p quote.Product) error {
	if !p.BasePrice.IsPositive() {
		return fmt.Errorf("product %s base price %s: %w", p.ID, p.BasePrice, pricing.ErrInvalidInput)
	}
	_, err := w.DB.Exec(ctx, `
INSERT INTO products (id, supplier_id, category_id, name, base_price, moq)
VALUES ($1, $2, $3, $4, $5::numeric, $6)
ON CONFLICT (id) DO UPDATE SET
    supplier_id = EXCLUDED.supplier_id,
    category_id = EXCLUDED.category_id,
    name = EXCLUDED.name,
    base_price = EXCLUDED.base_price,
    moq = EXCLUDED.moq,
    updated_at = now()`,
		p.ID, p.SupplierID, p.CategoryID, p.Name, p.BasePrice.String(), p.MOQ)
	if err != nil {
		return fmt.Errorf("upsert product %s: %w", p.ID, err)
	}
	return nil
}

// ReplaceTiers swaps a product's tier table after validating it.
func (w Writer) ReplaceTiers(ctx context.Context, productID uuid.UUID, tiers []pricing.Tier) error {
	if err := pricing.ValidateTiers(tiers); err != nil {
		return fmt.Errorf("tiers for %s: %w", productID, err)
	}
	if _, err := w.DB.Exec(ctx, `DELETE FROM pricing_tiers WHERE product_id = $1`, productID); err != nil {
		return fmt.Errorf("clear tiers %s: %w", productID, err)
	}
	for _, t := range tiers {
		_, err := w.DB.Exec(ctx, `
INSERT INTO pricing_tiers (product_id, min_quantity, max_quantity, unit_price, label)
VALUES ($1, $2, $3, $4::numeric, $5)`,
			productID, t.MinQuantity, t.MaxQuantity, t.UnitPrice.String(), t.Label)
		if err != nil {
			return fmt.Errorf("insert tier %s/%d: %w", productID, t.MinQuantity, err)
		}
	}
	return nil
}

// UpsertRule inserts or updates a volume rule. Rule ids must be UUIDs.
func (w Writer) UpsertRule(ctx context.Context, r pricing.VolumeRule) error {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return fmt.Errorf("rule id %q: %w", r.ID, pricing.ErrInvalidInput)
	}
	if err := r.Validate(); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	_, err = w.DB.Exec(ctx, `
INSERT INTO volume_discount_rules (id, scope, scope_id, min_quantity, discount_type, discount_value, start_date, end_date)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8)
ON CONFLICT (id) DO UPDATE SET
    scope = EXCLUDED.scope,
    scope_id = EXCLUDED.scope_id,
    min_quantity = EXCLUDED.min_quantity,
    discount_type = EXCLUDED.discount_type,
    discount_value = EXCLUDED.discount_value,
    start_date = EXCLUDED.start_date,
    end_date = EXCLUDED.end_date`,
		id, string(r.Scope), r.ScopeID, r.MinQuantity, string(r.DiscountType), r.DiscountValue.String(), r.StartDate, r.EndDate)
	if err != nil {
		return fmt.Errorf("upsert rule %s: %w", r.ID, err)
	}
	return nil
}

// UpsertTariff stores a classification with its general rate and, when set, the
// destination's preferential rate.
func (w Writer) UpsertTariff(ctx context.Context, info tariff.Info, destination string) error {
	code, err := tariff.NormalizeCode(info.Code)
	if err != nil {
		return err
	}
	if info.GeneralRate.IsNegative() {
		return fmt.Errorf("tariff %s general rate %s: %w", code, info.GeneralRate, pricing.ErrInvalidInput)
	}
	_, err = w.DB.Exec(ctx, `
INSERT INTO tariff_codes (code, description, general_rate) VALUES ($1, $2, $3::numeric)
ON CONFLICT (code) DO UPDATE SET description = EXCLUDED.description, general_rate = EXCLUDED.general_rate`,
		code, info.Description, info.GeneralRate.String())
	if err != nil {
		return fmt.Errorf("upsert tariff %s: %w", code, err)
	}
	if info.DestinationRate == nil {
		return nil
	}
	_, err = w.DB.Exec(ctx, `
INSERT INTO tariff_destination_rates (code, destination, rate, trade_agreement) VALUES ($1, $2, $3::numeric, $4)
ON CONFLICT (code, destination) DO UPDATE SET rate = EXCLUDED.rate, trade_agreement = EXCLUDED.trade_agreement`,
		code, strings.ToUpper(strings.TrimSpace(destination)), info.DestinationRate.String(), info.TradeAgreement)
	if err != nil {
		return fmt.Errorf("upsert tariff %s/%s: %w", code, destination, err)
	}
	return nil
}

// AssignTariff classifies a product.
func (w Writer) AssignTariff(ctx context.Context, productID uuid.UUID, code string) error {
	normalized, err := tariff.NormalizeCode(code)
	if err != nil {
		return err
	}
	_, err = w.DB.Exec(ctx, `
INSERT INTO product_tariffs (product_id, code) VALUES ($1, $2)
ON CONFLICT (product_id) DO UPDATE SET code = EXCLUDED.code`, productID, normalized)
	if err != nil {
		return fmt.Errorf("assign tariff %s: %w", productID, err)
	}
	return nil
}

// UpsertFreightRate stores a lane rate under its normalised key.
func (w Writer) UpsertFreightRate(ctx context.Context, rate freight.Rate) error {
	est := freight.Estimate{Low: rate.Low, High: rate.High, Method: rate.Method, TransitDays: rate.TransitDays}
	if err := est.Validate(); err != nil {
		return fmt.Errorf("freight %s: %w", rate.Key, err)
	}
	key := rate.Key
	bucket, ok := freight.ParseBucket(string(key.Bucket))
	if !ok {
		return fmt.Errorf("freight %s: moq bucket %q: %w", rate.Key, key.Bucket, pricing.ErrInvalidInput)
	}
	key.Bucket = bucket
	key.Category = freight.NormalizeCategory(key.Category)
	key.Origin = freight.NormalizeCountry(key.Origin)
	key.Destination = freight.NormalizeCountry(key.Destination)
	_, err := w.DB.Exec(ctx, `
INSERT INTO freight_rates (category, moq_bucket, origin, destination, low, high, method, transit_days)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric, $7, $8)
ON CONFLICT (category, moq_bucket, origin, destination) DO UPDATE SET
    low = EXCLUDED.low,
    high = EXCLUDED.high,
    method = EXCLUDED.method,
    transit_days = EXCLUDED.transit_days`,
		key.Category, string(key.Bucket), key.Origin, key.Destination, rate.Low.String(), rate.High.String(), string(rate.Method), rate.TransitDays)
	if err != nil {
		return fmt.Errorf("upsert freight %s: %w", key, err)
	}
	return nil
}
