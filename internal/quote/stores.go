package quote

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/landed-quote/internal/freight"
	"github.com/noah-isme/landed-quote/internal/pricing"
	"github.com/noah-isme/landed-quote/internal/tariff"
)

// ErrProductNotFound is returned by catalog stores when the product does not exist.
var ErrProductNotFound = errors.New("product not found")

// ErrSupplierNotFound is returned when a product's supplier has no directory entry.
var ErrSupplierNotFound = errors.New("supplier not found")

// Product is the catalog data the engine needs about one product.
type Product struct {
	ID         uuid.UUID       `json:"id"`
	SupplierID uuid.UUID       `json:"supplierId"`
	CategoryID uuid.UUID       `json:"categoryId"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	BasePrice  decimal.Decimal `json:"basePrice"`
	MOQ        string          `json:"moq"`
}

// Target returns the scope used to match volume rules.
func (p Product) Target() pricing.Target {
	return pricing.Target{ProductID: p.ID, CategoryID: p.CategoryID, SupplierID: p.SupplierID}
}

// CatalogStore supplies base price, category and MOQ per product.
type CatalogStore interface {
	Product(ctx context.Context, id uuid.UUID) (Product, error)
}

// SupplierStore supplies a supplier's origin country.
type SupplierStore interface {
	OriginCountry(ctx context.Context, supplierID uuid.UUID) (string, error)
}

// TierStore supplies a product's pricing tiers.
type TierStore interface {
	Tiers(ctx context.Context, productID uuid.UUID) ([]pricing.Tier, error)
}

// VolumeRuleStore supplies volume rules scoped to the product, its category or its supplier.
type VolumeRuleStore interface {
	Rules(ctx context.Context, target pricing.Target) ([]pricing.VolumeRule, error)
}

// TariffStore supplies the classification of a product at a destination. A nil Info with
// a nil error means no classification is assigned.
type TariffStore interface {
	Tariff(ctx context.Context, productID uuid.UUID, destination string) (*tariff.Info, error)
}

// FreightStore supplies the reference rate for a lane, reporting false when none exists.
type FreightStore interface {
	Rate(ctx context.Context, key freight.Key) (freight.Rate, bool, error)
}
