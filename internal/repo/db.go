// Package repo implements the reference-data collaborators on Postgres through pgx.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/landed-quote/internal/pricing"
	"github.com/noah-isme/landed-quote/internal/quote"
)

var (
	_ quote.CatalogStore    = Catalog{}
	_ quote.SupplierStore   = Catalog{}
	_ quote.TierStore       = Tiers{}
	_ quote.VolumeRuleStore = Rules{}
	_ quote.TariffStore     = Tariffs{}
	_ quote.FreightStore    = FreightRates{}
)

// DB is the subset of pgxpool.Pool used by the stores.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// numeric columns are selected as text so precision survives the trip into decimal.
func parseDecimal(column, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s %q: %v: %w", column, raw, err, pricing.ErrDataIntegrity)
	}
	return d, nil
}

func parseOptionalDecimal(column string, raw *string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	d, err := parseDecimal(column, *raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
