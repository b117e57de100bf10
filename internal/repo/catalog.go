package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/landed-quote/internal/quote"
)

const selectProduct = `
SELECT p.id, p.supplier_id, p.category_id, p.name, c.name, p.base_price::text, p.moq
FROM products p
JOIN categories c ON c.id = p.category_id
WHERE p.id = $1`

const selectOrigin = `SELECT origin_country FROM suppliers WHERE id = $1`

// Catalog reads products and supplier origins.
type Catalog struct {
	DB DB
}

// Product implements quote.CatalogStore.
func (c Catalog) Product(ctx context.Context, id uuid.UUID) (quote.Product, error) {
	var (
		p     quote.Product
		price string
	)
	err := c.DB.QueryRow(ctx, selectProduct, id).Scan(&p.ID, &p.SupplierID, &p.CategoryID, &p.Name, &p.Category, &price, &p.MOQ)
	if err != nil {
		if isNoRows(err) {
			return quote.Product{}, quote.ErrProductNotFound
		}
		return quote.Product{}, fmt.Errorf("select product %s: %w", id, err)
	}
	if p.BasePrice, err = parseDecimal("base_price", price); err != nil {
		return quote.Product{}, err
	}
	return p, nil
}

// OriginCountry implements quote.SupplierStore.
func (c Catalog) OriginCountry(ctx context.Context, supplierID uuid.UUID) (string, error) {
	var country string
	if err := c.DB.QueryRow(ctx, selectOrigin, supplierID).Scan(&country); err != nil {
		if isNoRows(err) {
			return "", quote.ErrSupplierNotFound
		}
		return "", fmt.Errorf("select supplier %s: %w", supplierID, err)
	}
	return strings.ToUpper(strings.TrimSpace(country)), nil
}
