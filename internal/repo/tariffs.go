package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/noah-isme/landed-quote/internal/tariff"
)

const selectTariff = `
SELECT tc.code, tc.description, tc.general_rate::text, dr.rate::text, COALESCE(dr.trade_agreement, '')
FROM product_tariffs pt
JOIN tariff_codes tc ON tc.code = pt.code
LEFT JOIN tariff_destination_rates dr ON dr.code = tc.code AND dr.destination = $2
WHERE pt.product_id = $1`

// Tariffs reads product classifications and their duty rates.
type Tariffs struct {
	DB DB
}

// Tariff implements quote.TariffStore. Products without an assignment return nil, nil.
func (t Tariffs) Tariff(ctx context.Context, productID uuid.UUID, destination string) (*tariff.Info, error) {
	var (
		info     tariff.Info
		general  string
		destRate *string
	)
	destination = strings.ToUpper(strings.TrimSpace(destination))
	err := t.DB.QueryRow(ctx, selectTariff, productID, destination).
		Scan(&info.Code, &info.Description, &general, &destRate, &info.TradeAgreement)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("select tariff %s/%s: %w", productID, destination, err)
	}
	if info.GeneralRate, err = parseDecimal("general_rate", general); err != nil {
		return nil, err
	}
	if info.DestinationRate, err = parseOptionalDecimal("rate", destRate); err != nil {
		return nil, err
	}
	return &info, nil
}
