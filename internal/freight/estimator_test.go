package freight

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/landed-quote/internal/pricing"
)

func lane(category string, bucket Bucket, low, high string) Rate {
	return Rate{
		Key:         Key{Category: category, Bucket: bucket, Origin: "cn", Destination: "us"},
		Low:         decimal.RequireFromString(low),
		High:        decimal.RequireFromString(high),
		Method:      MethodSea,
		TransitDays: "25-35",
	}
}

func TestEstimateFound(t *testing.T) {
	est := Estimator{Rates: NewTable(lane("Electronics", Bucket100, "800", "1200"))}
	got, ok, err := est.Estimate(decimal.NewFromInt(40), " electronics ", "500 units", "CN", "us")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, MethodSea, got.Method)
	require.Equal(t, "25-35", got.TransitDays)
	require.True(t, got.Midpoint().Equal(decimal.NewFromInt(1000)))
	require.False(t, got.High.LessThan(got.Low))
}

func TestEstimateUnavailable(t *testing.T) {
	est := Estimator{Rates: NewTable(lane("electronics", Bucket100, "800", "1200"))}
	got, ok, err := est.Estimate(decimal.NewFromInt(40), "electronics", "5,000 units", "CN", "US")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, Estimate{}, got)

	_, ok, err = Estimator{}.Estimate(decimal.NewFromInt(40), "electronics", "500", "CN", "US")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestEstimateLaneDefault(t *testing.T) {
	est := Estimator{Rates: NewTable(lane("*", BucketUnknown, "300", "450"))}
	got, ok, err := est.Estimate(decimal.NewFromInt(5), "textiles", "call us", "CN", "US")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, got.Low.Equal(decimal.NewFromInt(300)))
}

func TestEstimateInvalidInput(t *testing.T) {
	est := Estimator{Rates: NewTable()}
	_, _, err := est.Estimate(decimal.Zero, "x", "1", "CN", "US")
	require.ErrorIs(t, err, pricing.ErrInvalidInput)
	_, _, err = est.Estimate(decimal.NewFromInt(1), "x", "1", " ", "US")
	require.ErrorIs(t, err, pricing.ErrInvalidInput)
}

func TestEstimateCorruptRecord(t *testing.T) {
	est := Estimator{Rates: NewTable(lane("toys", Bucket100, "900", "100"))}
	_, ok, err := est.Estimate(decimal.NewFromInt(3), "toys", "100", "CN", "US")
	require.ErrorIs(t, err, pricing.ErrDataIntegrity)
	require.False(t, ok)

	bad := lane("toys", Bucket100, "1", "2")
	bad.Method = "teleport"
	est = Estimator{Rates: NewTable(bad)}
	_, _, err = est.Estimate(decimal.NewFromInt(3), "toys", "100", "CN", "US")
	require.ErrorIs(t, err, pricing.ErrDataIntegrity)
}
