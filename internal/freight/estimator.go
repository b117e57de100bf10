package freight

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/landed-quote/internal/pricing"
)

// WildcardCategory marks a lane-default rate that applies to any category.
const WildcardCategory = "*"

var two = decimal.NewFromInt(2)

// Method is the recommended shipping mode for a lane.
type Method string

const (
	MethodSea     Method = "sea_freight"
	MethodAir     Method = "air_freight"
	MethodExpress Method = "express_courier"
	MethodRail    Method = "rail_freight"
	MethodRoad    Method = "road_freight"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	switch m {
	case MethodSea, MethodAir, MethodExpress, MethodRail, MethodRoad:
		return true
	}
	return false
}

// Key identifies a freight-rate reference record.
type Key struct {
	Category    string `json:"category"`
	Bucket      Bucket `json:"moqBucket"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

// NewKey normalises raw catalog values into a lookup key.
func NewKey(category, moq, origin, destination string) Key {
	return Key{
		Category:    NormalizeCategory(category),
		Bucket:      BucketMOQ(moq),
		Origin:      NormalizeCountry(origin),
		Destination: NormalizeCountry(destination),
	}
}

// String renders the key for logs and cache keys.
func (k Key) String() string {
	return strings.Join([]string{k.Category, string(k.Bucket), k.Origin, k.Destination}, "|")
}

// NormalizeCategory lower-cases and trims a category name.
func NormalizeCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	if c == "" {
		return WildcardCategory
	}
	return c
}

// NormalizeCountry upper-cases and trims an ISO country code.
func NormalizeCountry(country string) string {
	return strings.ToUpper(strings.TrimSpace(country))
}

// Rate is a historical cost range for one lane as held by the reference store.
type Rate struct {
	Key         Key             `json:"key"`
	Low         decimal.Decimal `json:"low"`
	High        decimal.Decimal `json:"high"`
	Method      Method          `json:"method"`
	TransitDays string          `json:"transitDays"`
}

// Estimate is a bounded freight cost for a shipment.
type Estimate struct {
	Low         decimal.Decimal `json:"low"`
	High        decimal.Decimal `json:"high"`
	Method      Method          `json:"method"`
	TransitDays string          `json:"transitDays"`
}

// Midpoint returns (Low + High) / 2.
func (e Estimate) Midpoint() decimal.Decimal {
	return e.Low.Add(e.High).Div(two)
}

// Validate rejects inverted or negative ranges and unknown methods.
func (e Estimate) Validate() error {
	if err := e.ValidateRange(); err != nil {
		return err
	}
	if !e.Method.Valid() {
		return fmt.Errorf("freight method %q: %w", e.Method, pricing.ErrDataIntegrity)
	}
	return nil
}

// ValidateRange rejects negative bounds and a High below Low.
func (e Estimate) ValidateRange() error {
	if e.Low.IsNegative() || e.High.IsNegative() {
		return fmt.Errorf("freight range %s-%s is negative: %w", e.Low, e.High, pricing.ErrDataIntegrity)
	}
	if e.High.LessThan(e.Low) {
		return fmt.Errorf("freight range high %s below low %s: %w", e.High, e.Low, pricing.ErrDataIntegrity)
	}
	return nil
}

// Source resolves reference records by key.
type Source interface {
	Rate(k Key) (Rate, bool)
}

// Table is an in-memory Source built from already fetched records.
type Table map[Key]Rate

// NewTable indexes rates by their (normalised) key. Later duplicates replace earlier ones.
func NewTable(rates ...Rate) Table {
	t := make(Table, len(rates))
	for _, r := range rates {
		r.Key.Category = NormalizeCategory(r.Key.Category)
		r.Key.Origin = NormalizeCountry(r.Key.Origin)
		r.Key.Destination = NormalizeCountry(r.Key.Destination)
		t[r.Key] = r
	}
	return t
}

// Rate implements Source.
func (t Table) Rate(k Key) (Rate, bool) {
	r, ok := t[k]
	return r, ok
}

// Estimator looks up lane rates. It never invents a number when no record exists.
type Estimator struct {
	Rates Source
}

// Estimate returns the freight range for the lane. The boolean is false when the
// reference has no record, in which case callers must show freight as unavailable.
func (e Estimator) Estimate(basePrice decimal.Decimal, category, moq, origin, destination string) (Estimate, bool, error) {
	if !basePrice.IsPositive() {
		return Estimate{}, false, fmt.Errorf("base price must be positive, got %s: %w", basePrice, pricing.ErrInvalidInput)
	}
	key := NewKey(category, moq, origin, destination)
	if key.Origin == "" || key.Destination == "" {
		return Estimate{}, false, fmt.Errorf("origin and destination are required: %w", pricing.ErrInvalidInput)
	}
	return e.Lookup(key)
}

// Lookup resolves an already normalised key, falling back to the lane default.
func (e Estimator) Lookup(key Key) (Estimate, bool, error) {
	if e.Rates == nil {
		return Estimate{}, false, nil
	}
	rate, ok := e.Rates.Rate(key)
	if !ok && key.Category != WildcardCategory {
		lane := key
		lane.Category = WildcardCategory
		rate, ok = e.Rates.Rate(lane)
	}
	if !ok {
		return Estimate{}, false, nil
	}
	est := Estimate{Low: rate.Low, High: rate.High, Method: rate.Method, TransitDays: rate.TransitDays}
	if err := est.Validate(); err != nil {
		return Estimate{}, false, fmt.Errorf("lane %s: %w", key, err)
	}
	return est, true, nil
}
