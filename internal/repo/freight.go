package repo

import (
	"context"
	"fmt"

	"github.com/noah-isme/landed-quote/internal/freight"
)

const selectFreight = `
SELECT low::text, high::text, method, transit_days
FROM freight_rates
WHERE category = $1 AND moq_bucket = $2 AND origin = $3 AND destination = $4`

// FreightRates reads the freight-rate reference.
type FreightRates struct {
	DB DB
}

// Rate implements quote.FreightStore.
func (f FreightRates) Rate(ctx context.Context, key freight.Key) (freight.Rate, bool, error) {
	var (
		rate      = freight.Rate{Key: key}
		low, high string
		method    string
	)
	err := f.DB.QueryRow(ctx, selectFreight, key.Category, string(key.Bucket), key.Origin, key.Destination).
		Scan(&low, &high, &method, &rate.TransitDays)
	if err != nil {
		if isNoRows(err) {
			return freight.Rate{}, false, nil
		}
		return freight.Rate{}, false, fmt.Errorf("select freight %s: %w", key, err)
	}
	rate.Method = freight.Method(method)
	if rate.Low, err = parseDecimal("low", low); err != nil {
		return freight.Rate{}, false, err
	}
	if rate.High, err = parseDecimal("high", high); err != nil {
		return freight.Rate{}, false, err
	}
	return rate, true, nil
}
